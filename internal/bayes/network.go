package bayes

import (
	"fmt"
	"sync"
)

// Network owns a set of nodes forming a directed acyclic graph.
//
// Nodes may only name already-registered nodes as parents, so the graph is a
// DAG by construction. Once the evaluation order has been requested the
// network is sealed and further registrations fail; from then on it is
// read-only and safe for concurrent use.
type Network struct {
	nodes    []*Node
	byName   map[string]NodeID
	children [][]NodeID // derived from parents at registration

	mu        sync.Mutex
	sealed    bool
	orderOnce sync.Once
	order     []NodeID
}

// NewNetwork allocates an empty Network.
func NewNetwork() *Network {
	return &Network{byName: make(map[string]NodeID)}
}

// AddDiscreteNode registers a node with an explicit distribution per parent combination.
// Every combination of the parents' domains must be covered and every row must sum to 1.
func (n *Network) AddDiscreteNode(name string, parents []string, domain []State, entries []Entry) (NodeID, error) {
	return n.add(name, parents, domain, CPTDiscrete, entries)
}

// AddBinaryNode registers a node over {True, False} described by P(True) per parent combination.
func (n *Network) AddBinaryNode(name string, parents []string, entries []BinaryEntry) (NodeID, error) {
	converted := make([]Entry, len(entries))
	for i, e := range entries {
		converted[i] = Entry{
			Given: e.Given,
			Probs: Distribution{True: e.PTrue, False: 1 - e.PTrue},
		}
	}
	return n.add(name, parents, []State{True, False}, CPTBinary, converted)
}

func (n *Network) add(name string, parents []string, domain []State, kind CPTKind, entries []Entry) (NodeID, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.sealed {
		return 0, invalid(name, "network is sealed; nodes must be added before the first query")
	}
	if name == "" {
		return 0, invalid(name, "name is required")
	}
	if _, dup := n.byName[name]; dup {
		return 0, invalid(name, "a node with this name already exists")
	}
	if len(domain) == 0 {
		return 0, invalid(name, "domain must not be empty")
	}
	index := make(map[State]int, len(domain))
	for i, s := range domain {
		if _, dup := index[s]; dup {
			return 0, invalid(name, "state %s appears twice in the domain", s)
		}
		index[s] = i
	}

	parentIDs := make([]NodeID, len(parents))
	parentDomains := make([][]State, len(parents))
	seen := make(map[NodeID]struct{}, len(parents))
	for i, p := range parents {
		id, ok := n.byName[p]
		if !ok {
			return 0, invalid(name, "parent %q is not registered", p)
		}
		if _, dup := seen[id]; dup {
			return 0, invalid(name, "parent %q listed twice", p)
		}
		seen[id] = struct{}{}
		parentIDs[i] = id
		parentDomains[i] = n.nodes[id].domain
	}

	cpt, err := newCPT(name, kind, append([]State(nil), domain...), parentDomains, entries)
	if err != nil {
		return 0, err
	}

	// Nothing below can fail.
	id := NodeID(len(n.nodes))
	n.nodes = append(n.nodes, &Node{
		id:      id,
		name:    name,
		parents: parentIDs,
		domain:  cpt.domain,
		index:   index,
		cpt:     cpt,
	})
	n.byName[name] = id
	n.children = append(n.children, nil)
	for _, p := range parentIDs {
		n.children[p] = append(n.children[p], id)
	}
	return id, nil
}

// IDFromName resolves a node name. ok is false when the name is unknown.
func (n *Network) IDFromName(name string) (id NodeID, ok bool) {
	id, ok = n.byName[name]
	return id, ok
}

// NameFromID resolves a node id. ok is false when the id is unknown.
func (n *Network) NameFromID(id NodeID) (name string, ok bool) {
	node, ok := n.Node(id)
	if !ok {
		return "", false
	}
	return node.name, true
}

// Node returns the node with the given id.
func (n *Network) Node(id NodeID) (*Node, bool) {
	if id < 0 || int(id) >= len(n.nodes) {
		return nil, false
	}
	return n.nodes[id], true
}

// NodeByName returns the node with the given name, or an error wrapping ErrNodeNotFound.
func (n *Network) NodeByName(name string) (*Node, error) {
	id, ok := n.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, name)
	}
	return n.nodes[id], nil
}

// Parents returns the parent ids of id in declared order; nil for an unknown id.
func (n *Network) Parents(id NodeID) []NodeID {
	node, ok := n.Node(id)
	if !ok {
		return nil
	}
	return node.Parents()
}

// Children returns the direct successors of id in registration order; nil for an unknown id.
func (n *Network) Children(id NodeID) []NodeID {
	if _, ok := n.Node(id); !ok {
		return nil
	}
	return append([]NodeID(nil), n.children[id]...)
}

// CPTByID returns the table of node id.
func (n *Network) CPTByID(id NodeID) (*CPT, error) {
	node, ok := n.Node(id)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrNodeNotFound, id)
	}
	return node.cpt, nil
}

// CPTByName returns the table of the named node.
func (n *Network) CPTByName(name string) (*CPT, error) {
	node, err := n.NodeByName(name)
	if err != nil {
		return nil, err
	}
	return node.cpt, nil
}

// Len returns the number of registered nodes.
func (n *Network) Len() int { return len(n.nodes) }

// Nodes returns every node id with parents ahead of their children.
// The first call seals the network.
func (n *Network) Nodes() []NodeID {
	return append([]NodeID(nil), n.TopologicalOrder()...)
}

// NodeNames returns every node name in topological order.
func (n *Network) NodeNames() []string {
	order := n.TopologicalOrder()
	names := make([]string, len(order))
	for i, id := range order {
		names[i] = n.nodes[id].name
	}
	return names
}

// TopologicalOrder returns the cached evaluation order. Callers must not modify it.
// The first call seals the network.
func (n *Network) TopologicalOrder() []NodeID {
	n.orderOnce.Do(func() {
		n.mu.Lock()
		n.sealed = true
		n.mu.Unlock()
		n.order = n.sortTopological()
	})
	return n.order
}

// sortTopological runs Kahn's algorithm, always releasing the lowest ready id
// first so that the order is deterministic.
func (n *Network) sortTopological() []NodeID {
	indegree := make([]int, len(n.nodes))
	for _, node := range n.nodes {
		indegree[node.id] = len(node.parents)
	}
	ready := make([]NodeID, 0, len(n.nodes))
	for id, d := range indegree {
		if d == 0 {
			ready = append(ready, NodeID(id))
		}
	}
	order := make([]NodeID, 0, len(n.nodes))
	for len(ready) > 0 {
		lowest := 0
		for i := range ready {
			if ready[i] < ready[lowest] {
				lowest = i
			}
		}
		id := ready[lowest]
		ready = append(ready[:lowest], ready[lowest+1:]...)
		order = append(order, id)
		for _, c := range n.children[id] {
			indegree[c]--
			if indegree[c] == 0 {
				ready = append(ready, c)
			}
		}
	}
	if len(order) != len(n.nodes) {
		panic(fmt.Sprintf("bayes: invariant violated: cycle detected (%d of %d nodes ordered)", len(order), len(n.nodes)))
	}
	return order
}
