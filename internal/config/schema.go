package config

// ServiceConfig is the top-level YAML structure.
type ServiceConfig struct {
	Version string      `yaml:"version" validate:"required"`
	Log     LogConf     `yaml:"log"`
	Engine  EngineConf  `yaml:"engine"`
	Server  ServerConf  `yaml:"server"`
	History HistoryConf `yaml:"history"`
	Network NetworkDef  `yaml:"network"`
}

// LogConf selects the slog level.
type LogConf struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// EngineConf holds tunable inference and concurrency settings.
type EngineConf struct {
	QueryWorkers     int    `yaml:"query_workers" validate:"gte=1"`
	QueueDepth       int    `yaml:"queue_depth" validate:"gte=1"`
	QueryTimeoutMs   int    `yaml:"query_timeout_ms" validate:"gte=1"`
	DefaultSamples   int    `yaml:"default_samples" validate:"gte=1"`
	MaxSamples       int    `yaml:"max_samples" validate:"gtefield=DefaultSamples"`
	MaxAttemptFactor int    `yaml:"max_attempt_factor" validate:"gte=1"`
	SamplerWorkers   int    `yaml:"sampler_workers" validate:"gte=1,lte=256"`
	DefaultAlgorithm string `yaml:"default_algorithm" validate:"oneof=rejection likelihood_weighting"`
}

// ServerConf configures the HTTP surface. A zero rate limit disables limiting.
type ServerConf struct {
	RateLimitRPS   float64 `yaml:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int     `yaml:"rate_limit_burst" validate:"gte=0"`
}

// HistoryConf configures the diagnosis history store.
type HistoryConf struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

// NetworkDef selects a builtin network by name or defines one inline.
// Exactly one of Builtin or Nodes is set.
type NetworkDef struct {
	Builtin string    `yaml:"builtin,omitempty"`
	Nodes   []NodeDef `yaml:"nodes,omitempty" validate:"dive"`
}

// NodeDef declares one node. Nodes may only reference parents declared before them.
type NodeDef struct {
	Name    string     `yaml:"name" validate:"required"`
	Parents []string   `yaml:"parents"`
	States  []string   `yaml:"states"` // ignored for binary nodes
	Binary  bool       `yaml:"binary"`
	CPT     []EntryDef `yaml:"cpt" validate:"required,min=1"`
}

// EntryDef is one CPT row: Probs for discrete nodes, PTrue for binary ones.
type EntryDef struct {
	Given []string           `yaml:"given"`
	Probs map[string]float64 `yaml:"probs,omitempty"`
	PTrue *float64           `yaml:"p_true,omitempty"`
}
