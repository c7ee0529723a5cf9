package macid

import "fmt"

// IsActiveTrail reports whether an active (d-connecting) path exists between
// from and to given the observed nodes, using the standard reachability
// sweep over (node, direction) states.
func (d *Diagram) IsActiveTrail(from, to string, observed []string) (bool, error) {
	if !d.present[from] {
		return false, fmt.Errorf("node %q is not in the diagram", from)
	}
	if !d.present[to] {
		return false, fmt.Errorf("node %q is not in the diagram", to)
	}
	obs := make(map[string]bool, len(observed))
	for _, n := range observed {
		if !d.present[n] {
			return false, fmt.Errorf("observed node %q is not in the diagram", n)
		}
		obs[n] = true
	}
	if from == to {
		return !obs[from], nil
	}

	// Nodes with an observed descendant (or observed themselves) open
	// colliders on the path.
	anObs := d.ancestralSet(observed)

	type visit struct {
		node string
		up   bool // approached from a child
	}
	seen := map[visit]bool{}
	queue := []visit{{from, true}}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if seen[v] {
			continue
		}
		seen[v] = true

		if v.node == to && !obs[v.node] {
			return true, nil
		}

		if v.up {
			if !obs[v.node] {
				for _, p := range d.parents[v.node] {
					queue = append(queue, visit{p, true})
				}
				for _, c := range d.children[v.node] {
					queue = append(queue, visit{c, false})
				}
			}
			continue
		}
		if !obs[v.node] {
			for _, c := range d.children[v.node] {
				queue = append(queue, visit{c, false})
			}
		}
		if anObs[v.node] {
			for _, p := range d.parents[v.node] {
				queue = append(queue, visit{p, true})
			}
		}
	}
	return false, nil
}
