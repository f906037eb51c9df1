package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/bayesnet/internal/config"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte("version: v1\n"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8, cfg.Engine.QueryWorkers)
	assert.Equal(t, 1000, cfg.Engine.QueueDepth)
	assert.Equal(t, 10000, cfg.Engine.QueryTimeoutMs)
	assert.Equal(t, 10000, cfg.Engine.DefaultSamples)
	assert.Equal(t, 1000000, cfg.Engine.MaxSamples)
	assert.Equal(t, 100, cfg.Engine.MaxAttemptFactor)
	assert.Equal(t, 4, cfg.Engine.SamplerWorkers)
	assert.Equal(t, "likelihood_weighting", cfg.Engine.DefaultAlgorithm)
	assert.Equal(t, config.DefaultNetwork, cfg.Network.Builtin)
	assert.NoError(t, config.Validate(cfg))
}

func TestParseKeepsExplicitValues(t *testing.T) {
	cfg, err := config.Parse([]byte(`
version: v2
engine:
  default_samples: 500
  max_samples: 600
  default_algorithm: rejection
network:
  nodes:
    - name: Coin
      binary: true
      cpt:
        - p_true: 0.5
`))
	require.NoError(t, err)
	assert.Equal(t, "v2", cfg.Version)
	assert.Equal(t, 500, cfg.Engine.DefaultSamples)
	assert.Equal(t, "rejection", cfg.Engine.DefaultAlgorithm)
	assert.Empty(t, cfg.Network.Builtin)
	require.Len(t, cfg.Network.Nodes, 1)
	require.NotNil(t, cfg.Network.Nodes[0].CPT[0].PTrue)
	assert.Equal(t, 0.5, *cfg.Network.Nodes[0].CPT[0].PTrue)
	assert.NoError(t, config.Validate(cfg))
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := config.Parse([]byte("engine: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	pt := 0.3
	cases := []struct {
		name   string
		mutate func(*config.ServiceConfig)
		want   string
	}{
		{
			name:   "bad algorithm",
			mutate: func(c *config.ServiceConfig) { c.Engine.DefaultAlgorithm = "gibbs" },
			want:   "DefaultAlgorithm",
		},
		{
			name:   "max below default",
			mutate: func(c *config.ServiceConfig) { c.Engine.MaxSamples = 10 },
			want:   "MaxSamples",
		},
		{
			name:   "history without path",
			mutate: func(c *config.ServiceConfig) { c.History.Enabled = true },
			want:   "Path",
		},
		{
			name:   "bad log level",
			mutate: func(c *config.ServiceConfig) { c.Log.Level = "loud" },
			want:   "Level",
		},
		{
			name: "builtin and nodes together",
			mutate: func(c *config.ServiceConfig) {
				c.Network.Nodes = []config.NodeDef{{Name: "A", Binary: true, CPT: []config.EntryDef{{PTrue: &pt}}}}
			},
			want: "only one of builtin/nodes",
		},
		{
			name: "duplicate node",
			mutate: func(c *config.ServiceConfig) {
				c.Network.Builtin = ""
				n := config.NodeDef{Name: "A", Binary: true, CPT: []config.EntryDef{{PTrue: &pt}}}
				c.Network.Nodes = []config.NodeDef{n, n}
			},
			want: `duplicate node name "A"`,
		},
		{
			name: "discrete node without states",
			mutate: func(c *config.ServiceConfig) {
				c.Network.Builtin = ""
				c.Network.Nodes = []config.NodeDef{{Name: "A", CPT: []config.EntryDef{{Probs: map[string]float64{"x": 1}}}}}
			},
			want: "states must not be empty",
		},
		{
			name: "given arity",
			mutate: func(c *config.ServiceConfig) {
				c.Network.Builtin = ""
				c.Network.Nodes = []config.NodeDef{{Name: "A", Binary: true, CPT: []config.EntryDef{{Given: []string{"x"}, PTrue: &pt}}}}
			},
			want: "given has 1 states, node has 0 parents",
		},
		{
			name: "p_true on discrete node",
			mutate: func(c *config.ServiceConfig) {
				c.Network.Builtin = ""
				c.Network.Nodes = []config.NodeDef{{Name: "A", States: []string{"x"}, CPT: []config.EntryDef{{PTrue: &pt}}}}
			},
			want: "p_true is only valid for binary nodes",
		},
		{
			name: "binary node with probs",
			mutate: func(c *config.ServiceConfig) {
				c.Network.Builtin = ""
				c.Network.Nodes = []config.NodeDef{{Name: "A", Binary: true, CPT: []config.EntryDef{{Probs: map[string]float64{"true": 1}}}}}
			},
			want: "p_true is required for binary nodes",
		},
		{
			name: "node without cpt",
			mutate: func(c *config.ServiceConfig) {
				c.Network.Builtin = ""
				c.Network.Nodes = []config.NodeDef{{Name: "A", Binary: true}}
			},
			want: "CPT",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := config.Parse([]byte("version: v1\n"))
			require.NoError(t, err)
			tc.mutate(cfg)
			err = config.Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadNetworkFile(t *testing.T) {
	def, err := config.LoadNetworkFile("../../configs/networks/sprinkler.yaml")
	require.NoError(t, err)
	assert.Len(t, def.Nodes, 4)
	assert.NoError(t, config.ValidateNetwork(def))

	_, err = config.LoadNetworkFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestShippedServiceConfigIsValid(t *testing.T) {
	l, err := config.NewLoader("../../configs/bayesnet.yaml")
	require.NoError(t, err)
	assert.NoError(t, config.Validate(l.Config()))
	assert.Equal(t, "biodigester", l.Config().Network.Builtin)
}

func TestLoaderReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.yaml")
	writeConfig(t, path, "version: v1\nengine:\n  default_samples: 100\n")

	l, err := config.NewLoader(path)
	require.NoError(t, err)
	assert.Equal(t, 100, l.Config().Engine.DefaultSamples)

	var applied []int
	l.OnChange(func(c *config.ServiceConfig) error {
		if c.Network.Builtin == "broken" {
			return errors.New("unknown builtin")
		}
		applied = append(applied, c.Engine.DefaultSamples)
		return nil
	})

	writeConfig(t, path, "version: v1\nengine:\n  default_samples: 200\n")
	cfg, err := l.Reload()
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Engine.DefaultSamples)
	assert.Equal(t, 200, l.Config().Engine.DefaultSamples)
	assert.Equal(t, []int{200}, applied)

	// A rejected config leaves the previous one current.
	writeConfig(t, path, "version: v1\nengine:\n  default_samples: 300\nnetwork:\n  builtin: broken\n")
	_, err = l.Reload()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown builtin")
	assert.Equal(t, 200, l.Config().Engine.DefaultSamples)

	// So does an unreadable one.
	writeConfig(t, path, "engine: [")
	_, err = l.Reload()
	require.Error(t, err)
	assert.Equal(t, 200, l.Config().Engine.DefaultSamples)
}

func TestLoaderWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.yaml")
	writeConfig(t, path, "version: v1\nengine:\n  default_samples: 100\n")

	l, err := config.NewLoader(path)
	require.NoError(t, err)
	stop, err := l.Watch()
	require.NoError(t, err)
	defer stop()

	writeConfig(t, path, "version: v1\nengine:\n  default_samples: 250\n")
	assert.Eventually(t, func() bool {
		return l.Config().Engine.DefaultSamples == 250
	}, 5*time.Second, 20*time.Millisecond)
}

func TestNewLoaderMissingFile(t *testing.T) {
	_, err := config.NewLoader(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
