package bayes

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError through errors.Is.
	ErrValidation = errors.New("validation error")

	// ErrNodeNotFound is returned (wrapped) when a name or id lookup misses.
	ErrNodeNotFound = errors.New("node not found")
)

// ValidationError reports why a node could not be registered.
// The network is left exactly as it was before the failing call.
type ValidationError struct {
	Node   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Node == "" {
		return "bayes: " + e.Reason
	}
	return fmt.Sprintf("bayes: node %q: %s", e.Node, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(node, format string, args ...any) error {
	return &ValidationError{Node: node, Reason: fmt.Sprintf(format, args...)}
}
