// Package infer provides the exact inference oracle consumed by the diagram
// model. It enumerates the joint distribution of the ancestral closure of
// the queried variables in topological order, which is exact and fast enough
// for the diagram sizes the equilibrium engine operates on.
package infer

import (
	"fmt"

	"github.com/causalgo/macid/internal/macid"
)

// Engine implements macid.Inferencer by exhaustive enumeration.
type Engine struct{}

func New() *Engine { return &Engine{} }

// Query returns the joint factor P(targets, context). Only the ancestral
// closure of targets and context is enumerated; every node in that closure
// must carry a concrete CPD.
func (e *Engine) Query(d *macid.Diagram, targets []string, context map[string]any) (*macid.Factor, error) {
	relevant := map[string]bool{}
	var frontier []string
	frontier = append(frontier, targets...)
	for v := range context {
		frontier = append(frontier, v)
	}
	for len(frontier) > 0 {
		n := frontier[0]
		frontier = frontier[1:]
		if relevant[n] {
			continue
		}
		relevant[n] = true
		frontier = append(frontier, d.Parents(n)...)
	}

	order, err := d.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	var scope []string
	for _, n := range order {
		if relevant[n] {
			scope = append(scope, n)
		}
	}
	for _, n := range scope {
		cpd := d.CPD(n)
		if cpd == nil {
			return nil, fmt.Errorf("node %q has no CPD; the diagram is not fully parameterized", n)
		}
		if cpd.Kind() == macid.KindUnassigned {
			return nil, fmt.Errorf("decision %q has no policy imputed", n)
		}
	}

	factor := &macid.Factor{
		Variables: append([]string(nil), targets...),
		States:    make([][]any, len(targets)),
	}
	size := 1
	for i, t := range targets {
		factor.States[i] = d.CPD(t).Domain()
		if len(factor.States[i]) == 0 {
			return nil, fmt.Errorf("query target %q has an empty domain", t)
		}
		size *= len(factor.States[i])
	}
	factor.Values = make([]float64, size)

	assignment := make(map[string]any, len(scope))
	var walk func(depth int, weight float64) error
	walk = func(depth int, weight float64) error {
		if depth == len(scope) {
			states := make([]int, len(targets))
			for i, t := range targets {
				j := indexIn(factor.States[i], assignment[t])
				if j < 0 {
					return fmt.Errorf("internal: value %v of %q escaped its domain", assignment[t], t)
				}
				states[i] = j
			}
			factor.Values[factor.Index(states)] += weight
			return nil
		}
		n := scope[depth]
		cpd := d.CPD(n)
		dist, err := macid.Distribution(cpd, assignment)
		if err != nil {
			return err
		}
		domain := cpd.Domain()
		for i, p := range dist {
			if p == 0 {
				continue
			}
			if want, ok := context[n]; ok && !macid.ValueEqual(domain[i], want) {
				continue
			}
			assignment[n] = domain[i]
			if err := walk(depth+1, weight*p); err != nil {
				return err
			}
			delete(assignment, n)
		}
		return nil
	}
	if err := walk(0, 1); err != nil {
		return nil, err
	}
	return factor, nil
}

func indexIn(domain []any, v any) int {
	for i, dv := range domain {
		if macid.ValueEqual(dv, v) {
			return i
		}
	}
	return -1
}
