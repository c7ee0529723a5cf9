package macid

import "fmt"

// IsRReachable reports whether any of the given nodes is r-reachable from
// any of the given decisions: a newly added parent of the node would have an
// active path to a utility node of the decision's agent that descends from
// the decision, conditioning on the decision and its parents. The test runs
// on a throwaway mechanism graph.
func (d *Diagram) IsRReachable(decisions []string, nodes []string) (bool, error) {
	mg, err := d.MechanismGraph()
	if err != nil {
		return false, err
	}
	for _, n := range nodes {
		if !d.present[n] {
			return false, fmt.Errorf("node %q is not in the diagram", n)
		}
	}
	for _, dec := range decisions {
		if !d.IsDecision(dec) {
			return false, fmt.Errorf("node %q is not a decision node", dec)
		}
		agent := d.whose[dec]
		desc, err := d.Descendants(dec)
		if err != nil {
			return false, err
		}
		con := append([]string{dec}, d.parents[dec]...)
		for _, u := range d.utilities[agent] {
			if !desc[u] {
				continue
			}
			for _, n := range nodes {
				active, err := mg.IsActiveTrail(mechanismNode(n), u, con)
				if err != nil {
					return false, err
				}
				if active {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

// IsSReachable reports whether the decision target is s-reachable from any
// of the given decisions. The target must itself be a decision node.
func (d *Diagram) IsSReachable(decisions []string, target string) (bool, error) {
	if !d.IsDecision(target) {
		return false, fmt.Errorf("s-reachability target %q is not a decision node", target)
	}
	return d.IsRReachable(decisions, []string{target})
}
