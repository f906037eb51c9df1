package engine

import "github.com/gyaneshwarpardhi/bayesnet/internal/bayes"

// NodeInfo is a read-only description of one node for display.
type NodeInfo struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	States   []string `json:"states"`
	Parents  []string `json:"parents"`
	Children []string `json:"children"`
	// CPT maps the parent-state tuple label, e.g. "(Bueno, Normal)", to the
	// distribution over this node's states. Roots use "()".
	CPT map[string]map[string]float64 `json:"cpt"`
}

// NodeNames lists every node of the active network in evaluation order.
func (e *Engine) NodeNames() []string {
	return e.Network().NodeNames()
}

// Describe returns the named node's states, neighbours and CPT.
func (e *Engine) Describe(name string) (*NodeInfo, error) {
	return Describe(e.Network(), name)
}

// Children returns the names of the named node's direct successors.
func (e *Engine) Children(name string) ([]string, error) {
	net := e.Network()
	node, err := net.NodeByName(name)
	if err != nil {
		return nil, err
	}
	return names(net, net.Children(node.ID())), nil
}

// CPT returns the named node's table as a nested mapping.
func (e *Engine) CPT(name string) (map[string]map[string]float64, error) {
	cpt, err := e.Network().CPTByName(name)
	if err != nil {
		return nil, err
	}
	return nestedCPT(cpt), nil
}

// Describe builds a NodeInfo for name in net.
func Describe(net *bayes.Network, name string) (*NodeInfo, error) {
	node, err := net.NodeByName(name)
	if err != nil {
		return nil, err
	}
	domain := node.Domain()
	states := make([]string, len(domain))
	for i, s := range domain {
		states[i] = s.String()
	}
	return &NodeInfo{
		ID:       int(node.ID()),
		Name:     node.Name(),
		Kind:     string(node.Kind()),
		States:   states,
		Parents:  names(net, node.Parents()),
		Children: names(net, net.Children(node.ID())),
		CPT:      nestedCPT(node.CPT()),
	}, nil
}

func nestedCPT(cpt *bayes.CPT) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, cpt.Len())
	for _, e := range cpt.Entries() {
		out[e.Given.String()] = e.Probs.Labels()
	}
	return out
}

func names(net *bayes.Network, ids []bayes.NodeID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := net.NameFromID(id); ok {
			out = append(out, n)
		}
	}
	return out
}
