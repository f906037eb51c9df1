package inference

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/gyaneshwarpardhi/bayesnet/internal/bayes"
)

// Algorithm selects the approximate inference method.
type Algorithm string

const (
	Rejection           Algorithm = "rejection"
	LikelihoodWeighting Algorithm = "likelihood_weighting"
)

// ParseAlgorithm accepts the canonical names plus the short forms "rs" and "lw".
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rejection", "rejection_sampling", "rs":
		return Rejection, nil
	case "likelihood_weighting", "likelihood", "lw":
		return LikelihoodWeighting, nil
	}
	return "", fmt.Errorf("unknown algorithm %q (want rejection or likelihood_weighting)", s)
}

// DefaultMaxAttemptFactor bounds rejection sampling to this many attempts per requested sample.
const DefaultMaxAttemptFactor = 100

// Evidence maps observed nodes to their observed state.
type Evidence map[bayes.NodeID]bayes.State

// Options tunes a single inference call.
type Options struct {
	// Samples is the number of accepted samples (rejection) or weighted
	// samples (likelihood weighting) to draw.
	Samples int

	// MaxAttempts caps the number of traces rejection sampling may draw.
	// Zero means DefaultMaxAttemptFactor * Samples.
	MaxAttempts int

	// Workers partitions the sample count across goroutines. Values below 2
	// sample on the calling goroutine.
	Workers int

	// Seed makes the call deterministic for a given seed and worker count.
	// When nil every worker draws from its own randomly seeded generator.
	Seed *uint64
}

// WithSeed returns a pointer suitable for Options.Seed.
func WithSeed(seed uint64) *uint64 { return &seed }

// Source yields uniform draws in [0, 1).
type Source interface {
	Float64() float64
}

func (o Options) source(worker int) Source {
	if o.Seed != nil {
		return rand.New(rand.NewPCG(*o.Seed, uint64(worker)))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (o Options) maxAttempts() int {
	if o.MaxAttempts > 0 {
		return o.MaxAttempts
	}
	return DefaultMaxAttemptFactor * o.Samples
}

func (o Options) workers() int {
	w := o.Workers
	if w < 1 {
		w = 1
	}
	if w > o.Samples {
		w = o.Samples
	}
	return w
}

// split divides total into n near-equal shares, larger shares first.
func split(total, n int) []int {
	shares := make([]int, n)
	for i := range shares {
		shares[i] = total / n
		if i < total%n {
			shares[i]++
		}
	}
	return shares
}
