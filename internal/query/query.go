package query

import "time"

// Query is the canonical input model for a diagnosis request.
type Query struct {
	ID         string            `json:"id"`
	Evidence   map[string]string `json:"evidence"` // node name -> raw observed value
	Targets    []string          `json:"targets" validate:"required,min=1,dive,required"`
	Algorithm  string            `json:"algorithm" validate:"omitempty,oneof=rejection likelihood_weighting rs lw"`
	Samples    int               `json:"samples" validate:"gte=0"`
	Seed       *uint64           `json:"seed,omitempty"`
	ReceivedAt time.Time         `json:"-"`
}

// TargetResult is the posterior for one target node.
type TargetResult struct {
	Target       string             `json:"target"`
	Distribution map[string]float64 `json:"distribution"`
	Empty        bool               `json:"empty"`
	Partial      bool               `json:"partial"`
	Accepted     int                `json:"accepted"`
	Rejected     int                `json:"rejected"`
	TotalWeight  float64            `json:"total_weight"`
}

// Result is the outcome of processing a single query.
type Result struct {
	QueryID    string         `json:"query_id"`
	Algorithm  string         `json:"algorithm"`
	Samples    int            `json:"samples"`
	DurationMs int64          `json:"duration_ms"`
	Results    []TargetResult `json:"results"`
}
