package networks

import (
	"fmt"

	"github.com/gyaneshwarpardhi/bayesnet/internal/bayes"
	"github.com/gyaneshwarpardhi/bayesnet/internal/config"
)

// Build constructs the network selected by def: a builtin looked up in reg,
// or the inline node list.
func Build(def config.NetworkDef, reg *Registry) (*bayes.Network, error) {
	if def.Builtin != "" {
		b, err := reg.Get(def.Builtin)
		if err != nil {
			return nil, err
		}
		net, err := b()
		if err != nil {
			return nil, fmt.Errorf("builtin %s: %w", def.Builtin, err)
		}
		return net, nil
	}
	return FromDefinition(def.Nodes)
}

// FromDefinition registers the declared nodes in order.
// All string states go through bayes.ParseState, so "true"/"false" become boolean states.
func FromDefinition(nodes []config.NodeDef) (*bayes.Network, error) {
	bn := bayes.NewNetwork()
	for i, nd := range nodes {
		if err := addNode(bn, nd); err != nil {
			return nil, fmt.Errorf("nodes[%d]: %w", i, err)
		}
	}
	return bn, nil
}

func addNode(bn *bayes.Network, nd config.NodeDef) error {
	if nd.Binary {
		rows := make([]bayes.BinaryEntry, 0, len(nd.CPT))
		for j, e := range nd.CPT {
			if e.PTrue == nil {
				return fmt.Errorf("node %s: cpt[%d]: p_true is required", nd.Name, j)
			}
			rows = append(rows, bayes.BinaryEntry{Given: bayes.Given(e.Given...), PTrue: *e.PTrue})
		}
		_, err := bn.AddBinaryNode(nd.Name, nd.Parents, rows)
		return err
	}
	rows := make([]bayes.Entry, 0, len(nd.CPT))
	for _, e := range nd.CPT {
		rows = append(rows, bayes.Row(e.Given, e.Probs))
	}
	_, err := bn.AddDiscreteNode(nd.Name, nd.Parents, bayes.ParseStates(nd.States...), rows)
	return err
}
