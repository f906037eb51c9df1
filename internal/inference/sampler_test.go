package inference_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/bayesnet/internal/bayes"
	"github.com/gyaneshwarpardhi/bayesnet/internal/inference"
)

const tolerance = 0.05

var algorithms = []inference.Algorithm{inference.Rejection, inference.LikelihoodWeighting}

// sprinkler is the classic four-node network Cloudy -> {Sprinkler, Rain} -> WetGrass.
func sprinkler(t *testing.T) *bayes.Network {
	t.Helper()
	bn := bayes.NewNetwork()
	_, err := bn.AddBinaryNode("Cloudy", nil, []bayes.BinaryEntry{{PTrue: 0.5}})
	require.NoError(t, err)
	_, err = bn.AddBinaryNode("Sprinkler", []string{"Cloudy"}, []bayes.BinaryEntry{
		{Given: bayes.Given("true"), PTrue: 0.1},
		{Given: bayes.Given("false"), PTrue: 0.5},
	})
	require.NoError(t, err)
	_, err = bn.AddBinaryNode("Rain", []string{"Cloudy"}, []bayes.BinaryEntry{
		{Given: bayes.Given("true"), PTrue: 0.8},
		{Given: bayes.Given("false"), PTrue: 0.2},
	})
	require.NoError(t, err)
	_, err = bn.AddDiscreteNode("WetGrass", []string{"Sprinkler", "Rain"}, bayes.ParseStates("wet", "damp", "dry"), []bayes.Entry{
		bayes.Row([]string{"true", "true"}, map[string]float64{"wet": 0.9, "damp": 0.09, "dry": 0.01}),
		bayes.Row([]string{"true", "false"}, map[string]float64{"wet": 0.6, "damp": 0.3, "dry": 0.1}),
		bayes.Row([]string{"false", "true"}, map[string]float64{"wet": 0.5, "damp": 0.4, "dry": 0.1}),
		bayes.Row([]string{"false", "false"}, map[string]float64{"dry": 1}),
	})
	require.NoError(t, err)
	return bn
}

// enumerate computes P(target | ev) exactly by summing over every joint assignment.
func enumerate(t *testing.T, bn *bayes.Network, ev inference.Evidence, target bayes.NodeID) bayes.Distribution {
	t.Helper()
	order := bn.TopologicalOrder()
	nodes := make([]*bayes.Node, bn.Len())
	for _, id := range order {
		nodes[id], _ = bn.Node(id)
	}
	states := make([]int, bn.Len())
	weights := make([]float64, nodes[target].DomainSize())
	var total float64

	var walk func(i int, p float64)
	walk = func(i int, p float64) {
		if p == 0 {
			return
		}
		if i == len(order) {
			weights[states[target]] += p
			total += p
			return
		}
		id := order[i]
		row := nodes[id].Conditional(states)
		for s, ps := range row {
			if obs, ok := ev[id]; ok && nodes[id].IndexOf(obs) != s {
				continue
			}
			states[id] = s
			walk(i+1, p*ps)
		}
	}
	walk(0, 1)

	require.Greater(t, total, 0.0, "evidence has zero probability")
	d := make(bayes.Distribution, len(weights))
	for i, w := range weights {
		d[nodes[target].StateAt(i)] = w / total
	}
	return d
}

func id(t *testing.T, bn *bayes.Network, name string) bayes.NodeID {
	t.Helper()
	v, ok := bn.IDFromName(name)
	require.True(t, ok, name)
	return v
}

func assertClose(t *testing.T, want, got bayes.Distribution) {
	t.Helper()
	require.Len(t, got, len(want))
	for s, p := range want {
		assert.InDelta(t, p, got[s], tolerance, "state %s", s)
	}
}

func TestSamplersMatchEnumeration(t *testing.T) {
	bn := sprinkler(t)
	s := inference.NewSampler(bn)

	cases := []struct {
		name   string
		ev     map[string]bayes.State
		target string
	}{
		{"prior rain", nil, "Rain"},
		{"prior wet grass", nil, "WetGrass"},
		{"rain given wet", map[string]bayes.State{"WetGrass": bayes.Named("wet")}, "Rain"},
		{"cloudy given damp", map[string]bayes.State{"WetGrass": bayes.Named("damp")}, "Cloudy"},
		{"sprinkler given rain and wet", map[string]bayes.State{"Rain": bayes.True, "WetGrass": bayes.Named("wet")}, "Sprinkler"},
		{"explaining away", map[string]bayes.State{"Sprinkler": bayes.False, "Cloudy": bayes.False}, "WetGrass"},
	}
	for _, tc := range cases {
		ev := inference.Evidence{}
		for name, st := range tc.ev {
			ev[id(t, bn, name)] = st
		}
		target := id(t, bn, tc.target)
		want := enumerate(t, bn, ev, target)

		for _, alg := range algorithms {
			t.Run(tc.name+"/"+string(alg), func(t *testing.T) {
				res, err := s.Infer(context.Background(), alg, ev, target, inference.Options{
					Samples: 20000,
					Workers: 4,
					Seed:    inference.WithSeed(7),
				})
				require.NoError(t, err)
				assert.False(t, res.Partial)
				assert.False(t, res.Empty())
				assert.InDelta(t, 1.0, res.Distribution.Sum(), 1e-9)
				assertClose(t, want, res.Distribution)
			})
		}
	}
}

func TestEvidenceShiftsChild(t *testing.T) {
	bn := bayes.NewNetwork()
	_, err := bn.AddDiscreteNode("A", nil, bayes.ParseStates("X", "Y"), []bayes.Entry{
		bayes.Row(nil, map[string]float64{"X": 0.5, "Y": 0.5}),
	})
	require.NoError(t, err)
	_, err = bn.AddDiscreteNode("B", []string{"A"}, bayes.ParseStates("low", "high"), []bayes.Entry{
		bayes.Row([]string{"X"}, map[string]float64{"low": 0.7, "high": 0.3}),
		bayes.Row([]string{"Y"}, map[string]float64{"low": 0.2, "high": 0.8}),
	})
	require.NoError(t, err)
	s := inference.NewSampler(bn)
	a, b := id(t, bn, "A"), id(t, bn, "B")

	for _, alg := range algorithms {
		t.Run(string(alg), func(t *testing.T) {
			res, err := s.Infer(context.Background(), alg, inference.Evidence{a: bayes.Named("X")}, b, inference.Options{
				Samples: 10000,
				Seed:    inference.WithSeed(1),
			})
			require.NoError(t, err)
			assert.InDelta(t, 0.7, res.Distribution[bayes.Named("low")], tolerance)
			assert.InDelta(t, 0.3, res.Distribution[bayes.Named("high")], tolerance)
		})
	}
}

func TestAlgorithmsAgree(t *testing.T) {
	bn := sprinkler(t)
	s := inference.NewSampler(bn)
	ev := inference.Evidence{id(t, bn, "WetGrass"): bayes.Named("damp")}
	target := id(t, bn, "Sprinkler")

	opts := inference.Options{Samples: 50000, Workers: 4, Seed: inference.WithSeed(99)}
	rs, err := s.Rejection(context.Background(), ev, target, opts)
	require.NoError(t, err)
	lw, err := s.LikelihoodWeighting(context.Background(), ev, target, opts)
	require.NoError(t, err)
	assertClose(t, rs.Distribution, lw.Distribution)
}

func TestTargetUnderEvidence(t *testing.T) {
	bn := sprinkler(t)
	s := inference.NewSampler(bn)
	rain := id(t, bn, "Rain")

	for _, alg := range algorithms {
		t.Run(string(alg), func(t *testing.T) {
			res, err := s.Infer(context.Background(), alg, inference.Evidence{rain: bayes.True}, rain, inference.Options{
				Samples: 500,
				Seed:    inference.WithSeed(3),
			})
			require.NoError(t, err)
			assert.Equal(t, 1.0, res.Distribution[bayes.True])
			assert.Equal(t, 0.0, res.Distribution[bayes.False])
		})
	}
}

func TestEvidenceOutsideDomainIsEmpty(t *testing.T) {
	bn := sprinkler(t)
	s := inference.NewSampler(bn)
	ev := inference.Evidence{id(t, bn, "WetGrass"): bayes.Named("flooded")}

	for _, alg := range algorithms {
		t.Run(string(alg), func(t *testing.T) {
			res, err := s.Infer(context.Background(), alg, ev, id(t, bn, "Rain"), inference.Options{Samples: 100})
			require.NoError(t, err)
			assert.True(t, res.Empty())
			assert.Zero(t, res.Attempts)
		})
	}
}

func TestZeroProbabilityEvidenceIsEmpty(t *testing.T) {
	bn := sprinkler(t)
	s := inference.NewSampler(bn)
	// WetGrass is never wet when neither the sprinkler nor the rain is on.
	ev := inference.Evidence{
		id(t, bn, "Sprinkler"): bayes.False,
		id(t, bn, "Rain"):      bayes.False,
		id(t, bn, "WetGrass"):  bayes.Named("wet"),
	}
	target := id(t, bn, "Cloudy")

	rs, err := s.Rejection(context.Background(), ev, target, inference.Options{Samples: 50, Seed: inference.WithSeed(1)})
	require.NoError(t, err)
	assert.True(t, rs.Empty())
	assert.True(t, rs.Partial)
	assert.Equal(t, 50*inference.DefaultMaxAttemptFactor, rs.Attempts)
	assert.Equal(t, rs.Attempts, rs.Rejected)

	lw, err := s.LikelihoodWeighting(context.Background(), ev, target, inference.Options{Samples: 50, Seed: inference.WithSeed(1)})
	require.NoError(t, err)
	assert.True(t, lw.Empty())
	assert.False(t, lw.Partial)
	assert.Equal(t, 50, lw.Rejected)
	assert.Zero(t, lw.TotalWeight)
}

func TestRejectionAttemptBudget(t *testing.T) {
	bn := bayes.NewNetwork()
	_, err := bn.AddBinaryNode("Rare", nil, []bayes.BinaryEntry{{PTrue: 0.001}})
	require.NoError(t, err)
	_, err = bn.AddBinaryNode("Other", nil, []bayes.BinaryEntry{{PTrue: 0.5}})
	require.NoError(t, err)
	s := inference.NewSampler(bn)

	res, err := s.Rejection(context.Background(),
		inference.Evidence{id(t, bn, "Rare"): bayes.True},
		id(t, bn, "Other"),
		inference.Options{Samples: 1000, MaxAttempts: 2000, Workers: 2, Seed: inference.WithSeed(5)},
	)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Attempts, 2000)
	assert.Less(t, res.Accepted, 1000)
	assert.True(t, res.Partial)
	assert.Equal(t, res.Attempts, res.Accepted+res.Rejected)
}

func TestSeededRunsAreDeterministic(t *testing.T) {
	bn := sprinkler(t)
	s := inference.NewSampler(bn)
	ev := inference.Evidence{id(t, bn, "WetGrass"): bayes.Named("wet")}
	target := id(t, bn, "Cloudy")

	for _, alg := range algorithms {
		for _, workers := range []int{1, 3} {
			opts := inference.Options{Samples: 3000, Workers: workers, Seed: inference.WithSeed(2024)}
			first, err := s.Infer(context.Background(), alg, ev, target, opts)
			require.NoError(t, err)
			second, err := s.Infer(context.Background(), alg, ev, target, opts)
			require.NoError(t, err)
			assert.Equal(t, first, second, "%s with %d workers", alg, workers)
		}
	}
}

func TestWorkersPartitionSamples(t *testing.T) {
	bn := sprinkler(t)
	s := inference.NewSampler(bn)
	target := id(t, bn, "Rain")

	lw, err := s.LikelihoodWeighting(context.Background(), nil, target, inference.Options{Samples: 1001, Workers: 4})
	require.NoError(t, err)
	assert.Equal(t, 1001, lw.Attempts)
	assert.Equal(t, 1001, lw.Accepted)
	assert.InDelta(t, 1001.0, lw.TotalWeight, 1e-9)

	rs, err := s.Rejection(context.Background(), nil, target, inference.Options{Samples: 1001, Workers: 4})
	require.NoError(t, err)
	assert.Equal(t, 1001, rs.Accepted)
	assert.Zero(t, rs.Rejected)
}

func TestCancelledContextReturnsPartial(t *testing.T) {
	bn := sprinkler(t)
	s := inference.NewSampler(bn)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, alg := range algorithms {
		t.Run(string(alg), func(t *testing.T) {
			res, err := s.Infer(ctx, alg, nil, id(t, bn, "Rain"), inference.Options{Samples: 1000, Workers: 2})
			require.NoError(t, err)
			assert.True(t, res.Partial)
			assert.True(t, res.Empty())
		})
	}
}

func TestInvalidQueries(t *testing.T) {
	bn := sprinkler(t)
	s := inference.NewSampler(bn)

	_, err := s.LikelihoodWeighting(context.Background(), nil, 99, inference.Options{Samples: 10})
	assert.ErrorIs(t, err, bayes.ErrNodeNotFound)

	_, err = s.Rejection(context.Background(), inference.Evidence{42: bayes.True}, 0, inference.Options{Samples: 10})
	assert.ErrorIs(t, err, bayes.ErrNodeNotFound)

	_, err = s.Rejection(context.Background(), nil, 0, inference.Options{})
	assert.Error(t, err)

	_, err = s.Infer(context.Background(), "gibbs", nil, 0, inference.Options{Samples: 10})
	assert.Error(t, err)
}

func TestSamplerIsSafeForConcurrentUse(t *testing.T) {
	bn := sprinkler(t)
	s := inference.NewSampler(bn)
	target := id(t, bn, "Rain")
	ev := inference.Evidence{id(t, bn, "WetGrass"): bayes.Named("wet")}
	want := enumerate(t, bn, ev, target)

	done := make(chan *inference.Result, 8)
	for i := 0; i < cap(done); i++ {
		go func() {
			res, err := s.LikelihoodWeighting(context.Background(), ev, target, inference.Options{Samples: 20000})
			if err != nil {
				done <- nil
				return
			}
			done <- res
		}()
	}
	for i := 0; i < cap(done); i++ {
		res := <-done
		require.NotNil(t, res)
		assertClose(t, want, res.Distribution)
	}
}
