package inference

import "github.com/gyaneshwarpardhi/bayesnet/internal/bayes"

// Result is the outcome of one query.
//
// An empty Distribution is a valid answer: no sample was accepted (or every
// weight was zero), so nothing can be said about the target under the given
// evidence at this sample budget. It is distinct from a certain outcome,
// which is a distribution with a single state at probability 1.
type Result struct {
	Target      bayes.NodeID
	Algorithm   Algorithm
	Samples     int // requested
	Accepted    int
	Rejected    int
	Attempts    int
	TotalWeight float64

	// Partial is set when fewer samples than requested contributed, because
	// the attempt budget ran out or the context was cancelled.
	Partial bool

	Distribution bayes.Distribution
}

// Empty reports whether no information could be obtained.
func (r *Result) Empty() bool { return len(r.Distribution) == 0 }

// accumulator collects per-state weights for one worker. Accumulators from
// different workers are merged by addition, so the merge order does not matter.
type accumulator struct {
	weights  []float64 // indexed by the target's domain
	total    float64
	accepted int
	rejected int
	attempts int
	partial  bool
}

func newAccumulator(domainSize int) *accumulator {
	return &accumulator{weights: make([]float64, domainSize)}
}

func (a *accumulator) add(state int, w float64) {
	a.weights[state] += w
	a.total += w
	a.accepted++
}

func (a *accumulator) merge(b *accumulator) {
	for i, w := range b.weights {
		a.weights[i] += w
	}
	a.total += b.total
	a.accepted += b.accepted
	a.rejected += b.rejected
	a.attempts += b.attempts
	a.partial = a.partial || b.partial
}

// normalize turns the accumulated weights into a distribution over the target's domain.
// Returns nil when nothing was accumulated.
func (a *accumulator) normalize(target *bayes.Node) bayes.Distribution {
	if a.accepted == 0 || a.total <= 0 {
		return nil
	}
	d := make(bayes.Distribution, len(a.weights))
	for i, w := range a.weights {
		d[target.StateAt(i)] = w / a.total
	}
	return d
}
