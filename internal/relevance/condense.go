package relevance

// Condensed is the quotient DAG of a relevance graph: one node per maximal
// strongly connected component, edges induced from inter-component edges.
// Condensation of any digraph is acyclic, so topological ordering always
// succeeds.
type Condensed struct {
	comps  [][]string // component id → member decisions
	compOf map[string]int
	adj    map[int][]int
	edges  map[[2]int]bool
}

// Condense computes the maximal strongly connected components with Tarjan's
// algorithm and builds the quotient DAG.
func (g *Graph) Condense() *Condensed {
	c := &Condensed{
		compOf: map[string]int{},
		adj:    map[int][]int{},
		edges:  map[[2]int]bool{},
	}

	index := map[string]int{}
	low := map[string]int{}
	onStack := map[string]bool{}
	var stack []string
	counter := 0

	var strongConnect func(n string)
	strongConnect = func(n string) {
		index[n] = counter
		low[n] = counter
		counter++
		stack = append(stack, n)
		onStack[n] = true

		for _, m := range g.adj[n] {
			if _, seen := index[m]; !seen {
				strongConnect(m)
				if low[m] < low[n] {
					low[n] = low[m]
				}
			} else if onStack[m] && index[m] < low[n] {
				low[n] = index[m]
			}
		}

		if low[n] == index[n] {
			var comp []string
			for {
				m := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[m] = false
				comp = append(comp, m)
				if m == n {
					break
				}
			}
			id := len(c.comps)
			for _, m := range comp {
				c.compOf[m] = id
			}
			c.comps = append(c.comps, comp)
		}
	}

	for _, n := range g.nodes {
		if _, seen := index[n]; !seen {
			strongConnect(n)
		}
	}

	for _, from := range g.nodes {
		for _, to := range g.adj[from] {
			a, b := c.compOf[from], c.compOf[to]
			if a == b || c.edges[[2]int{a, b}] {
				continue
			}
			c.edges[[2]int{a, b}] = true
			c.adj[a] = append(c.adj[a], b)
		}
	}
	return c
}

// Len returns the number of components.
func (c *Condensed) Len() int { return len(c.comps) }

// Decisions returns the original decision nodes inside a component.
func (c *Condensed) Decisions(id int) []string {
	return append([]string(nil), c.comps[id]...)
}

// ComponentOf returns the component id holding the given decision.
func (c *Condensed) ComponentOf(decision string) (int, bool) {
	id, ok := c.compOf[decision]
	return id, ok
}

func (c *Condensed) HasEdge(a, b int) bool { return c.edges[[2]int{a, b}] }

// Descendants returns the strict descendant component set of a component.
func (c *Condensed) Descendants(id int) map[int]bool {
	out := map[int]bool{}
	queue := append([]int(nil), c.adj[id]...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if out[n] {
			continue
		}
		out[n] = true
		queue = append(queue, c.adj[n]...)
	}
	return out
}

// TopologicalOrder returns component ids so that every edge points forward.
// Reversing it gives the elimination order for backward induction: start at
// components with no outgoing edges (the "last" decisions) and work back.
func (c *Condensed) TopologicalOrder() []int {
	indeg := make([]int, len(c.comps))
	for _, tos := range c.adj {
		for _, to := range tos {
			indeg[to]++
		}
	}
	var queue []int
	for id := range c.comps {
		if indeg[id] == 0 {
			queue = append(queue, id)
		}
	}
	order := make([]int, 0, len(c.comps))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, to := range c.adj[id] {
			indeg[to]--
			if indeg[to] == 0 {
				queue = append(queue, to)
			}
		}
	}
	return order
}
