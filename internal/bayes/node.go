package bayes

// NodeID identifies a node for the lifetime of its network.
// Ids are dense: the n-th registered node gets id n-1.
type NodeID int

// Node is one discrete random variable.
type Node struct {
	id      NodeID
	name    string
	parents []NodeID
	domain  []State
	index   map[State]int
	cpt     *CPT
}

func (n *Node) ID() NodeID { return n.id }
func (n *Node) Name() string { return n.name }
func (n *Node) CPT() *CPT { return n.cpt }
func (n *Node) Kind() CPTKind { return n.cpt.kind }
func (n *Node) DomainSize() int { return len(n.domain) }

// Parents returns the parent ids in declared order.
func (n *Node) Parents() []NodeID {
	return append([]NodeID(nil), n.parents...)
}

// Domain returns the node's states in declared order.
func (n *Node) Domain() []State {
	return append([]State(nil), n.domain...)
}

// StateAt returns the i-th state of the domain.
func (n *Node) StateAt(i int) State { return n.domain[i] }

// IndexOf returns the domain position of s, or -1 if s is outside the domain.
func (n *Node) IndexOf(s State) int {
	if i, ok := n.index[s]; ok {
		return i
	}
	return -1
}

// Conditional returns the probability row for this node given the domain
// indices of every node decided so far, indexed by NodeID. Only the entries
// of this node's parents are read. The returned slice must not be modified.
func (n *Node) Conditional(states []int) []float64 {
	return n.cpt.row(n.parents, states)
}
