package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the config for:
//   - struct-level constraints (required fields, ranges, enums)
//   - exactly one of network.builtin / network.nodes
//   - duplicate node names and malformed CPT rows in an inline network
//
// Probability sums and parent references are checked when the network is built.
func Validate(cfg *ServiceConfig) error {
	var errs []string

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}

	switch {
	case cfg.Network.Builtin != "" && len(cfg.Network.Nodes) > 0:
		errs = append(errs, "network: only one of builtin/nodes may be set")
	case cfg.Network.Builtin == "" && len(cfg.Network.Nodes) == 0:
		errs = append(errs, "network: one of builtin/nodes must be set")
	}
	validateNodes(cfg.Network.Nodes, &errs)

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ValidateNetwork applies the node checks of Validate to a standalone network definition.
func ValidateNetwork(def *NetworkDef) error {
	var errs []string
	if err := validate.Struct(def); err != nil {
		errs = append(errs, err.Error())
	}
	if len(def.Nodes) == 0 && def.Builtin == "" {
		errs = append(errs, "network: no nodes defined")
	}
	validateNodes(def.Nodes, &errs)
	if len(errs) > 0 {
		return fmt.Errorf("network validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateNodes(nodes []NodeDef, errs *[]string) {
	seen := make(map[string]int, len(nodes))
	for i, n := range nodes {
		loc := fmt.Sprintf("network.nodes[%d]", i)
		if n.Name != "" {
			loc = fmt.Sprintf("node %s", n.Name)
			if prev, ok := seen[n.Name]; ok {
				*errs = append(*errs, fmt.Sprintf("duplicate node name %q (first seen at network.nodes[%d], again at [%d])", n.Name, prev, i))
			} else {
				seen[n.Name] = i
			}
		}
		if !n.Binary && len(n.States) == 0 {
			*errs = append(*errs, fmt.Sprintf("%s: states must not be empty", loc))
		}
		for j, e := range n.CPT {
			if len(e.Given) != len(n.Parents) {
				*errs = append(*errs, fmt.Sprintf("%s.cpt[%d]: given has %d states, node has %d parents", loc, j, len(e.Given), len(n.Parents)))
			}
			switch {
			case n.Binary && e.PTrue == nil:
				*errs = append(*errs, fmt.Sprintf("%s.cpt[%d]: p_true is required for binary nodes", loc, j))
			case n.Binary && len(e.Probs) > 0:
				*errs = append(*errs, fmt.Sprintf("%s.cpt[%d]: binary nodes take p_true, not probs", loc, j))
			case !n.Binary && e.PTrue != nil:
				*errs = append(*errs, fmt.Sprintf("%s.cpt[%d]: p_true is only valid for binary nodes", loc, j))
			case !n.Binary && len(e.Probs) == 0:
				*errs = append(*errs, fmt.Sprintf("%s.cpt[%d]: probs must not be empty", loc, j))
			}
		}
	}
}
