package macid

import (
	"fmt"
	"strings"
)

const mechanismSuffix = "_mec"

// MechanismGraph returns a structural copy of the diagram where every node X
// gains a parentless synthetic parent X_mec. The copy carries no policies;
// it exists only to run active-trail tests for relevance queries without
// touching the diagram under analysis.
func (d *Diagram) MechanismGraph() (*Diagram, error) {
	for _, n := range d.nodes {
		if strings.HasSuffix(n, mechanismSuffix) {
			return nil, fmt.Errorf("cannot build a mechanism graph: node %q already ends with %q", n, mechanismSuffix)
		}
	}
	m := d.CopyWithoutPolicies()
	for _, n := range d.nodes {
		if _, err := m.AddEdge(mechanismNode(n), n); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func mechanismNode(n string) string { return n + mechanismSuffix }
