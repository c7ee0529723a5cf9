// Package relevance derives the strategic relevance graph of a diagram's
// decision nodes and its condensation into a DAG of strongly connected
// components, the backbone of recall checking and backward induction.
package relevance

import (
	"fmt"

	"github.com/causalgo/macid/internal/macid"
)

// Graph is a directed graph over a subset of decision nodes where an edge
// D→D' means D' is s-reachable from D. It is built fresh from the diagram's
// current structure and never cached across structural edits.
type Graph struct {
	nodes []string
	adj   map[string][]string
	edges map[[2]string]bool
}

// Build constructs the relevance graph over the given decisions, defaulting
// to all decision nodes. Cost is one s-reachability test per ordered pair.
func Build(d *macid.Diagram, decisions []string) (*Graph, error) {
	if decisions == nil {
		decisions = d.AllDecisionNodes()
	}
	g := &Graph{
		nodes: append([]string(nil), decisions...),
		adj:   map[string][]string{},
		edges: map[[2]string]bool{},
	}
	for _, from := range g.nodes {
		if !d.IsDecision(from) {
			return nil, fmt.Errorf("node %q is not a decision node", from)
		}
	}
	for _, from := range g.nodes {
		for _, to := range g.nodes {
			if from == to {
				continue
			}
			reachable, err := d.IsSReachable([]string{from}, to)
			if err != nil {
				return nil, err
			}
			if reachable {
				g.adj[from] = append(g.adj[from], to)
				g.edges[[2]string{from, to}] = true
			}
		}
	}
	return g, nil
}

// Nodes returns the decision nodes in build order.
func (g *Graph) Nodes() []string { return append([]string(nil), g.nodes...) }

// Edges returns all D→D' relevance edges.
func (g *Graph) Edges() [][2]string {
	var out [][2]string
	for _, from := range g.nodes {
		for _, to := range g.adj[from] {
			out = append(out, [2]string{from, to})
		}
	}
	return out
}

func (g *Graph) HasEdge(from, to string) bool { return g.edges[[2]string{from, to}] }

// IsAcyclic reports whether the relevance graph has no directed cycles.
func (g *Graph) IsAcyclic() bool {
	_, err := g.TopologicalOrder()
	return err == nil
}

// TopologicalOrder returns one valid linear order of the decisions; it fails
// when the relevance graph is cyclic.
func (g *Graph) TopologicalOrder() ([]string, error) {
	indeg := make(map[string]int, len(g.nodes))
	for _, n := range g.nodes {
		indeg[n] = 0
	}
	for _, from := range g.nodes {
		for _, to := range g.adj[from] {
			indeg[to]++
		}
	}
	var queue []string
	for _, n := range g.nodes {
		if indeg[n] == 0 {
			queue = append(queue, n)
		}
	}
	order := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, to := range g.adj[n] {
			indeg[to]--
			if indeg[to] == 0 {
				queue = append(queue, to)
			}
		}
	}
	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("relevance graph is cyclic; decisions cannot be linearly ordered")
	}
	return order, nil
}

// SufficientRecall reports whether each agent's self-relevance graph
// (restricted to that agent's own decisions) is acyclic. With no agents
// given, every agent is checked.
func SufficientRecall(d *macid.Diagram, agents ...string) (bool, error) {
	if len(agents) == 0 {
		agents = d.Agents()
	}
	for _, a := range agents {
		decs, err := d.DecisionNodes(a)
		if err != nil {
			return false, err
		}
		g, err := Build(d, decs)
		if err != nil {
			return false, err
		}
		if !g.IsAcyclic() {
			return false, nil
		}
	}
	return true, nil
}
