package bayes

import (
	"fmt"
	"math"
)

// Tolerance is the allowed deviation from 1 when a CPT row is summed.
const Tolerance = 1e-6

// CPTKind tags how a table was declared.
type CPTKind string

const (
	// CPTBinary tables hold P(True) per parent combination over the domain {True, False}.
	CPTBinary CPTKind = "binary"
	// CPTDiscrete tables hold a full distribution per parent combination.
	CPTDiscrete CPTKind = "discrete"
)

// Entry is one declared row of a discrete CPT.
type Entry struct {
	Given Key
	Probs Distribution
}

// Row is a convenience for literal tables: string parent states and string outcomes,
// both run through ParseState.
func Row(given []string, probs map[string]float64) Entry {
	d := make(Distribution, len(probs))
	for s, p := range probs {
		d[ParseState(s)] = p
	}
	return Entry{Given: Given(given...), Probs: d}
}

// BinaryEntry is one declared row of a binary CPT.
type BinaryEntry struct {
	Given Key
	PTrue float64
}

// CPT is the conditional probability table of a single node.
//
// Rows are stored densely. Row r corresponds to the parent combination whose
// domain indices, read with the first parent as the most significant digit,
// spell r in mixed radix. Each row is aligned with the node's domain order.
type CPT struct {
	kind    CPTKind
	domain  []State
	radices []int // domain size of each parent, in parent order
	parents [][]State
	rows    [][]float64
}

// Kind reports how the table was declared.
func (c *CPT) Kind() CPTKind { return c.kind }

// Len returns the number of parent combinations.
func (c *CPT) Len() int { return len(c.rows) }

// Lookup returns the distribution over the node's domain for the given parent states.
func (c *CPT) Lookup(given Key) (Distribution, error) {
	if len(given) != len(c.radices) {
		return nil, fmt.Errorf("cpt lookup: key %s has %d states, want %d", given, len(given), len(c.radices))
	}
	r := 0
	for i, s := range given {
		idx := indexOf(c.parents[i], s)
		if idx < 0 {
			return nil, fmt.Errorf("cpt lookup: state %s is not in the domain of parent %d", s, i)
		}
		r = r*c.radices[i] + idx
	}
	return c.distribution(c.rows[r]), nil
}

// Entries returns every row with its parent key, in row order.
func (c *CPT) Entries() []Entry {
	out := make([]Entry, len(c.rows))
	for r, row := range c.rows {
		out[r] = Entry{Given: c.keyOf(r), Probs: c.distribution(row)}
	}
	return out
}

// row returns the raw probability row for parent domain indices held in states.
// Panics if the row is missing, which cannot happen for a validated table.
func (c *CPT) row(parents []NodeID, states []int) []float64 {
	r := 0
	for i, p := range parents {
		r = r*c.radices[i] + states[p]
	}
	if r < 0 || r >= len(c.rows) || c.rows[r] == nil {
		panic(fmt.Sprintf("bayes: invariant violated: cpt row %d missing (table has %d rows)", r, len(c.rows)))
	}
	return c.rows[r]
}

func (c *CPT) distribution(row []float64) Distribution {
	d := make(Distribution, len(row))
	for i, p := range row {
		d[c.domain[i]] = p
	}
	return d
}

func (c *CPT) keyOf(r int) Key {
	key := make(Key, len(c.radices))
	for i := len(c.radices) - 1; i >= 0; i-- {
		key[i] = c.parents[i][r%c.radices[i]]
		r /= c.radices[i]
	}
	return key
}

// newCPT validates the declared entries against the parents' domains and the
// node's own domain and lays them out densely.
func newCPT(node string, kind CPTKind, domain []State, parents [][]State, entries []Entry) (*CPT, error) {
	c := &CPT{
		kind:    kind,
		domain:  domain,
		radices: make([]int, len(parents)),
		parents: parents,
	}
	size := 1
	for i, pd := range parents {
		c.radices[i] = len(pd)
		size *= len(pd)
	}
	c.rows = make([][]float64, size)

	for _, e := range entries {
		if len(e.Given) != len(parents) {
			return nil, invalid(node, "cpt key %s has %d states, node has %d parents", e.Given, len(e.Given), len(parents))
		}
		r := 0
		for i, s := range e.Given {
			idx := indexOf(parents[i], s)
			if idx < 0 {
				return nil, invalid(node, "cpt key %s: state %s is not in the domain of parent %d", e.Given, s, i)
			}
			r = r*c.radices[i] + idx
		}
		if c.rows[r] != nil {
			return nil, invalid(node, "cpt key %s declared twice", e.Given)
		}
		row := make([]float64, len(domain))
		var sum float64
		for s, p := range e.Probs {
			idx := indexOf(domain, s)
			if idx < 0 {
				return nil, invalid(node, "cpt key %s: state %s is not in the node's domain", e.Given, s)
			}
			if math.IsNaN(p) || p < 0 || p > 1 {
				return nil, invalid(node, "cpt key %s: probability %v for %s is outside [0,1]", e.Given, p, s)
			}
			row[idx] = p
			sum += p
		}
		if math.Abs(sum-1) > Tolerance {
			return nil, invalid(node, "cpt key %s: probabilities sum to %v, want 1", e.Given, sum)
		}
		c.rows[r] = row
	}

	for r, row := range c.rows {
		if row == nil {
			return nil, invalid(node, "cpt is missing an entry for parent states %s", c.keyOf(r))
		}
	}
	return c, nil
}

func indexOf(domain []State, s State) int {
	for i, d := range domain {
		if d == s {
			return i
		}
	}
	return -1
}
