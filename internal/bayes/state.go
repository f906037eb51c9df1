package bayes

import (
	"fmt"
	"strings"
)

type stateKind uint8

const (
	kindNamed stateKind = iota
	kindTrue
	kindFalse
)

// State is one value in a node's domain: True, False, or a named category.
// States are comparable and can be used directly as map keys.
type State struct {
	kind stateKind
	name string
}

var (
	True  = State{kind: kindTrue}
	False = State{kind: kindFalse}
)

// Named returns a categorical state. The name is kept verbatim.
func Named(name string) State {
	return State{kind: kindNamed, name: name}
}

// ParseState maps free-form input onto a State. "true" and "false"
// (any case, surrounding space ignored) become the boolean states;
// anything else becomes a named state.
func ParseState(raw string) State {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		return True
	case "false":
		return False
	}
	return Named(raw)
}

// ParseStates parses every element of raw with ParseState.
func ParseStates(raw ...string) []State {
	out := make([]State, len(raw))
	for i, r := range raw {
		out[i] = ParseState(r)
	}
	return out
}

// IsBool reports whether s is True or False.
func (s State) IsBool() bool { return s.kind != kindNamed }

// Name returns the category name; empty for boolean states.
func (s State) Name() string { return s.name }

// String returns the display label: "True", "False" or the name.
func (s State) String() string {
	switch s.kind {
	case kindTrue:
		return "True"
	case kindFalse:
		return "False"
	}
	return s.name
}

// GoString keeps named and boolean states apart in %#v output.
func (s State) GoString() string {
	if s.IsBool() {
		return "bayes." + s.String()
	}
	return fmt.Sprintf("bayes.Named(%q)", s.name)
}

// MarshalText lets State be used as a JSON object key.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText applies ParseState.
func (s *State) UnmarshalText(b []byte) error {
	*s = ParseState(string(b))
	return nil
}

// Key is the ordered tuple of parent states a CPT row is conditioned on.
// Its order matches the node's declared parent order. Root nodes use an empty Key.
type Key []State

// Given builds a Key from raw strings using ParseState.
func Given(raw ...string) Key {
	return Key(ParseStates(raw...))
}

// Equal compares two keys element by element.
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

func (k Key) String() string {
	parts := make([]string, len(k))
	for i, s := range k {
		parts[i] = s.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Distribution maps states to probabilities.
type Distribution map[State]float64

// Sum returns the total probability mass.
func (d Distribution) Sum() float64 {
	var total float64
	for _, p := range d {
		total += p
	}
	return total
}

// Labels converts the distribution to display labels.
func (d Distribution) Labels() map[string]float64 {
	out := make(map[string]float64, len(d))
	for s, p := range d {
		out[s.String()] = p
	}
	return out
}
