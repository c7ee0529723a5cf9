// Package incentives analyzes single-agent diagrams for response incentives:
// nodes whose value an optimal policy would respond to.
package incentives

import (
	"fmt"

	"github.com/causalgo/macid/internal/macid"
	"github.com/causalgo/macid/internal/relevance"
)

// RequisiteGraph prunes the diagram to the observation edges that matter: an
// edge W→D into a decision is removed when W carries no information about
// the agent's downstream utilities given D's remaining family. Only the
// structure is copied; policies are left behind.
func RequisiteGraph(d *macid.Diagram) (*macid.Diagram, error) {
	pruned := d.CopyWithoutPolicies()
	for _, decision := range d.AllDecisionNodes() {
		for _, parent := range d.Parents(decision) {
			req, err := requisite(d, decision, parent)
			if err != nil {
				return nil, err
			}
			if !req {
				if _, err := pruned.RemoveEdge(parent, decision); err != nil {
					return nil, err
				}
			}
		}
	}
	return pruned, nil
}

// requisite reports whether an observation edge node→decision is requisite:
// the node has an active trail to a descendant utility of the decision's
// agent given the decision and its other parents.
func requisite(d *macid.Diagram, decision, node string) (bool, error) {
	agent, ok := d.Whose(decision)
	if !ok {
		return false, fmt.Errorf("node %q is not a decision node", decision)
	}
	utilities, err := d.UtilityNodes(agent)
	if err != nil {
		return false, err
	}
	desc, err := d.Descendants(decision)
	if err != nil {
		return false, err
	}
	observed := []string{decision}
	for _, p := range d.Parents(decision) {
		if p != node {
			observed = append(observed, p)
		}
	}
	for _, u := range utilities {
		if !desc[u] {
			continue
		}
		active, err := d.IsActiveTrail(node, u, observed)
		if err != nil {
			return false, err
		}
		if active {
			return true, nil
		}
	}
	return false, nil
}

// AdmitsResponseIncentive reports whether the diagram admits a response
// incentive on node with respect to decision: the requisite graph has a
// directed path node→decision. Valid only for single-agent diagrams with
// sufficient recall; node == decision is false by definition.
func AdmitsResponseIncentive(d *macid.Diagram, decision, node string) (bool, error) {
	if agents := d.Agents(); len(agents) != 1 {
		return false, fmt.Errorf("response incentives are only defined for single-agent diagrams, got %d agents", len(agents))
	}
	if !d.HasNode(node) {
		return false, fmt.Errorf("node %q is not in the diagram", node)
	}
	if !d.HasNode(decision) {
		return false, fmt.Errorf("decision %q is not in the diagram", decision)
	}
	if !d.IsDecision(decision) {
		return false, fmt.Errorf("node %q is not a decision node", decision)
	}
	recall, err := relevance.SufficientRecall(d)
	if err != nil {
		return false, err
	}
	if !recall {
		return false, fmt.Errorf("response incentives require sufficient recall")
	}
	if node == decision {
		return false, nil
	}

	pruned, err := RequisiteGraph(d)
	if err != nil {
		return false, err
	}
	return hasDirectedPath(pruned, node, decision), nil
}

// AdmitsResponseIncentiveList returns every node admitting a response
// incentive with respect to the decision.
func AdmitsResponseIncentiveList(d *macid.Diagram, decision string) ([]string, error) {
	var out []string
	for _, node := range d.Nodes() {
		admits, err := AdmitsResponseIncentive(d, decision, node)
		if err != nil {
			return nil, err
		}
		if admits {
			out = append(out, node)
		}
	}
	return out, nil
}

func hasDirectedPath(d *macid.Diagram, from, to string) bool {
	seen := map[string]bool{}
	queue := []string{from}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n] {
			continue
		}
		seen[n] = true
		for _, c := range d.Children(n) {
			if c == to {
				return true
			}
			queue = append(queue, c)
		}
	}
	return false
}
