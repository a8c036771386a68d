package scene

// Graph is an ordered, in-memory Scene. Like the rest of the frame state it
// is owned by the frame loop goroutine.
type Graph struct {
	nodes []*Node
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{}
}

// Add appends n; adding a node that is already present does nothing
func (g *Graph) Add(n *Node) {
	if n == nil || g.Contains(n) {
		return
	}
	g.nodes = append(g.nodes, n)
}

// Remove drops n and reports whether it was present
func (g *Graph) Remove(n *Node) bool {
	for i, existing := range g.nodes {
		if existing == n {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether n is in the graph
func (g *Graph) Contains(n *Node) bool {
	for _, existing := range g.nodes {
		if existing == n {
			return true
		}
	}
	return false
}

// Nodes returns a snapshot in insertion order
func (g *Graph) Nodes() []*Node {
	return append([]*Node(nil), g.nodes...)
}

// Len returns the node count
func (g *Graph) Len() int {
	return len(g.nodes)
}

// CountKind returns how many nodes have kind k
func (g *Graph) CountKind(k Kind) int {
	n := 0
	for _, node := range g.nodes {
		if node.Kind == k {
			n++
		}
	}
	return n
}
