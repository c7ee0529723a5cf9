package macid

import "fmt"

// TopologicalOrder returns one valid linear order of all nodes. Edge
// insertion keeps the graph acyclic, so this only fails on a corrupted
// diagram.
func (d *Diagram) TopologicalOrder() ([]string, error) {
	indeg := make(map[string]int, len(d.nodes))
	for _, n := range d.nodes {
		indeg[n] = len(d.parents[n])
	}
	var queue []string
	for _, n := range d.nodes {
		if indeg[n] == 0 {
			queue = append(queue, n)
		}
	}
	order := make([]string, 0, len(d.nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, c := range d.children[n] {
			indeg[c]--
			if indeg[c] == 0 {
				queue = append(queue, c)
			}
		}
	}
	if len(order) != len(d.nodes) {
		return nil, fmt.Errorf("diagram contains a cycle; a topological order does not exist")
	}
	return order, nil
}

func (d *Diagram) IsAcyclic() bool {
	_, err := d.TopologicalOrder()
	return err == nil
}

// ValidOrder returns a topological order restricted to the given nodes,
// defaulting to all decision nodes.
func (d *Diagram) ValidOrder(nodes []string) ([]string, error) {
	if nodes == nil {
		nodes = d.AllDecisionNodes()
	}
	for _, n := range nodes {
		if !d.present[n] {
			return nil, fmt.Errorf("node %q is not in the diagram", n)
		}
	}
	order, err := d.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		want[n] = true
	}
	var out []string
	for _, n := range order {
		if want[n] {
			out = append(out, n)
		}
	}
	return out, nil
}

// Descendants returns the strict descendants of a node.
func (d *Diagram) Descendants(node string) (map[string]bool, error) {
	if !d.present[node] {
		return nil, fmt.Errorf("node %q is not in the diagram", node)
	}
	out := map[string]bool{}
	queue := cloneStrings(d.children[node])
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if out[n] {
			continue
		}
		out[n] = true
		queue = append(queue, d.children[n]...)
	}
	return out, nil
}

// ancestralSet returns the given nodes together with all their ancestors.
func (d *Diagram) ancestralSet(nodes []string) map[string]bool {
	out := map[string]bool{}
	queue := cloneStrings(nodes)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if out[n] {
			continue
		}
		out[n] = true
		queue = append(queue, d.parents[n]...)
	}
	return out
}
