package inference

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gyaneshwarpardhi/bayesnet/internal/bayes"
)

// ctxCheckInterval is how many traces are drawn between context checks.
const ctxCheckInterval = 256

const (
	unobserved = -1
	impossible = -2
)

// Sampler draws ancestral samples from a network. It holds no mutable state
// and may be shared by concurrent queries.
type Sampler struct {
	net   *bayes.Network
	order []bayes.NodeID
	nodes []*bayes.Node // indexed by NodeID
}

// NewSampler prepares a sampler for net. This seals the network.
func NewSampler(net *bayes.Network) *Sampler {
	s := &Sampler{
		net:   net,
		order: net.TopologicalOrder(),
		nodes: make([]*bayes.Node, net.Len()),
	}
	for _, id := range s.order {
		s.nodes[id], _ = net.Node(id)
	}
	return s
}

// Network returns the network being sampled.
func (s *Sampler) Network() *bayes.Network { return s.net }

// Infer dispatches to the selected algorithm.
func (s *Sampler) Infer(ctx context.Context, alg Algorithm, ev Evidence, target bayes.NodeID, opts Options) (*Result, error) {
	switch alg {
	case Rejection:
		return s.Rejection(ctx, ev, target, opts)
	case LikelihoodWeighting:
		return s.LikelihoodWeighting(ctx, ev, target, opts)
	}
	return nil, fmt.Errorf("unknown algorithm %q", alg)
}

// Rejection estimates P(target | ev) by drawing whole samples in topological
// order and discarding any sample that disagrees with the evidence. It stops
// once opts.Samples samples were accepted or the attempt budget is spent.
func (s *Sampler) Rejection(ctx context.Context, ev Evidence, target bayes.NodeID, opts Options) (*Result, error) {
	observed, possible, err := s.prepare(ev, target, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{Target: target, Algorithm: Rejection, Samples: opts.Samples}
	if !possible {
		return res, nil
	}

	budget := opts.maxAttempts()
	if budget < opts.Samples {
		budget = opts.Samples
	}
	workers := opts.workers()
	quotas := split(opts.Samples, workers)
	budgets := split(budget, workers)

	acc := s.run(ctx, workers, func(worker int, acc *accumulator) {
		rng := opts.source(worker)
		states := make([]int, len(s.nodes))
		for acc.accepted < quotas[worker] && acc.attempts < budgets[worker] {
			if acc.attempts%ctxCheckInterval == 0 && ctx.Err() != nil {
				break
			}
			acc.attempts++
			if s.rejectionTrace(rng, observed, states) {
				acc.add(states[target], 1)
			} else {
				acc.rejected++
			}
		}
		acc.partial = acc.accepted < quotas[worker]
	}, target)

	return s.finish(res, acc, target), nil
}

// LikelihoodWeighting estimates P(target | ev) without discarding samples:
// observed nodes are fixed to their evidence value and the sample is weighted
// by the product of their conditional probabilities.
func (s *Sampler) LikelihoodWeighting(ctx context.Context, ev Evidence, target bayes.NodeID, opts Options) (*Result, error) {
	observed, possible, err := s.prepare(ev, target, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{Target: target, Algorithm: LikelihoodWeighting, Samples: opts.Samples}
	if !possible {
		return res, nil
	}

	workers := opts.workers()
	quotas := split(opts.Samples, workers)

	acc := s.run(ctx, workers, func(worker int, acc *accumulator) {
		rng := opts.source(worker)
		states := make([]int, len(s.nodes))
		for acc.attempts < quotas[worker] {
			if acc.attempts%ctxCheckInterval == 0 && ctx.Err() != nil {
				acc.partial = true
				break
			}
			acc.attempts++
			if w := s.weightedTrace(rng, observed, states); w > 0 {
				acc.add(states[target], w)
			} else {
				acc.rejected++
			}
		}
	}, target)

	return s.finish(res, acc, target), nil
}

// rejectionTrace samples every node and reports whether the trace matched the evidence.
func (s *Sampler) rejectionTrace(rng Source, observed, states []int) bool {
	for _, id := range s.order {
		node := s.nodes[id]
		drawn := draw(node.Conditional(states), rng.Float64())
		if want := observed[id]; want != unobserved && want != drawn {
			return false
		}
		states[id] = drawn
	}
	return true
}

// weightedTrace samples unobserved nodes, clamps observed ones and returns the
// trace weight. A zero weight ends the trace early.
func (s *Sampler) weightedTrace(rng Source, observed, states []int) float64 {
	w := 1.0
	for _, id := range s.order {
		node := s.nodes[id]
		row := node.Conditional(states)
		if obs := observed[id]; obs != unobserved {
			w *= row[obs]
			if w == 0 {
				return 0
			}
			states[id] = obs
			continue
		}
		states[id] = draw(row, rng.Float64())
	}
	return w
}

// run executes fn on each worker with its own accumulator and merges the
// results in worker order.
func (s *Sampler) run(ctx context.Context, workers int, fn func(worker int, acc *accumulator), target bayes.NodeID) *accumulator {
	size := s.nodes[target].DomainSize()
	accs := make([]*accumulator, workers)
	for i := range accs {
		accs[i] = newAccumulator(size)
	}
	if workers == 1 {
		fn(0, accs[0])
		return accs[0]
	}

	g, _ := errgroup.WithContext(ctx)
	for i := range accs {
		g.Go(func() error {
			fn(i, accs[i])
			return nil
		})
	}
	_ = g.Wait()

	total := newAccumulator(size)
	for _, a := range accs {
		total.merge(a)
	}
	return total
}

func (s *Sampler) finish(res *Result, acc *accumulator, target bayes.NodeID) *Result {
	res.Accepted = acc.accepted
	res.Rejected = acc.rejected
	res.Attempts = acc.attempts
	res.TotalWeight = acc.total
	res.Partial = acc.partial
	res.Distribution = acc.normalize(s.nodes[target])
	return res
}

// prepare checks the query and translates evidence into domain indices.
// possible is false when some observed state lies outside its node's domain,
// in which case no trace can ever agree with the evidence.
func (s *Sampler) prepare(ev Evidence, target bayes.NodeID, opts Options) (observed []int, possible bool, err error) {
	if _, ok := s.net.Node(target); !ok {
		return nil, false, fmt.Errorf("target: %w: id %d", bayes.ErrNodeNotFound, target)
	}
	if opts.Samples <= 0 {
		return nil, false, fmt.Errorf("samples must be positive, got %d", opts.Samples)
	}
	observed = make([]int, len(s.nodes))
	for i := range observed {
		observed[i] = unobserved
	}
	possible = true
	for id, state := range ev {
		node, ok := s.net.Node(id)
		if !ok {
			return nil, false, fmt.Errorf("evidence: %w: id %d", bayes.ErrNodeNotFound, id)
		}
		idx := node.IndexOf(state)
		if idx < 0 {
			observed[id] = impossible
			possible = false
			continue
		}
		observed[id] = idx
	}
	return observed, possible, nil
}

// draw picks an index from row by walking the cumulative distribution in
// domain order. Rounding slack past the final cumulative value falls to the
// last state with non-zero probability.
func draw(row []float64, u float64) int {
	var cum float64
	last := 0
	for i, p := range row {
		if p <= 0 {
			continue
		}
		cum += p
		last = i
		if u < cum {
			return i
		}
	}
	return last
}
