package macid

import (
	"fmt"
	"math"
)

// Inferencer is the probabilistic inference oracle. Given a diagram whose
// relevant decisions are fully policy-assigned, it returns the joint factor
// P(targets, context) over the target variables. The engine treats it as a
// black box.
type Inferencer interface {
	Query(d *Diagram, targets []string, context map[string]any) (*Factor, error)
}

// Factor is a joint distribution over a set of variables with named states.
// Values is indexed densely with the first variable as the least significant
// digit.
type Factor struct {
	Variables []string
	States    [][]any
	Values    []float64
}

// Normalize scales the factor to sum to one. It fails on zero or undefined
// mass, which typically means a zero-probability context was queried.
func (f *Factor) Normalize() error {
	var sum float64
	for _, v := range f.Values {
		sum += v
	}
	if sum == 0 || math.IsNaN(sum) {
		return fmt.Errorf("factor over %v has no probability mass to normalize", f.Variables)
	}
	for i := range f.Values {
		f.Values[i] /= sum
	}
	return nil
}

// Index converts per-variable state indices into a dense value index.
func (f *Factor) Index(states []int) int {
	idx := 0
	mult := 1
	for i, s := range states {
		idx += s * mult
		mult *= len(f.States[i])
	}
	return idx
}

// StatesAt decodes a dense value index into per-variable state indices.
func (f *Factor) StatesAt(idx int) []int {
	out := make([]int, len(f.Variables))
	for i := range f.Variables {
		card := len(f.States[i])
		out[i] = idx % card
		idx /= card
	}
	return out
}

// Prob looks up the probability of a full assignment of the factor's
// variables.
func (f *Factor) Prob(assignment map[string]any) (float64, error) {
	states := make([]int, len(f.Variables))
	for i, v := range f.Variables {
		val, ok := assignment[v]
		if !ok {
			return 0, fmt.Errorf("assignment is missing variable %q", v)
		}
		j := valueIndex(f.States[i], val)
		if j < 0 {
			return 0, fmt.Errorf("value %v is not a state of %q", val, v)
		}
		states[i] = j
	}
	return f.Values[f.Index(states)], nil
}

// Query returns the joint factor P(targets, context), optionally under a
// hard intervention. It first verifies, via the mechanism graph, that every
// decision the targets causally depend on given the context carries a
// concrete policy, and that every context value is in its variable's domain.
func (d *Diagram) Query(targets []string, context map[string]any, intervention map[string]any) (*Factor, error) {
	if d.inf == nil {
		return nil, fmt.Errorf("no inference oracle attached to the diagram")
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("query needs at least one target variable")
	}
	for _, t := range targets {
		if !d.present[t] {
			return nil, fmt.Errorf("query target %q is not in the diagram", t)
		}
	}
	if stale := d.Stale(); len(stale) > 0 {
		return nil, fmt.Errorf("nodes %v have stale CPDs after a structure edit; reassign them before querying", stale)
	}

	observed := make([]string, 0, len(context))
	for v := range context {
		if !d.present[v] {
			return nil, fmt.Errorf("context variable %q is not in the diagram", v)
		}
		observed = append(observed, v)
	}

	mg, err := d.MechanismGraph()
	if err != nil {
		return nil, err
	}
	for _, dec := range d.AllDecisionNodes() {
		for _, t := range targets {
			active, err := mg.IsActiveTrail(mechanismNode(dec), t, observed)
			if err != nil {
				return nil, err
			}
			if !active {
				continue
			}
			cpd := d.cpds[dec]
			if cpd == nil {
				return nil, fmt.Errorf("no decision domain specified for %q", dec)
			}
			if cpd.Kind() == KindUnassigned {
				return nil, fmt.Errorf("query %v|%v depends on decision %q, but no policy is imputed", targets, context, dec)
			}
		}
	}

	for v, val := range context {
		cpd := d.cpds[v]
		if cpd == nil {
			return nil, fmt.Errorf("context variable %q has no CPD, so its domain is unknown", v)
		}
		if valueIndex(cpd.Domain(), val) < 0 {
			return nil, fmt.Errorf("context value %v is not in the domain of %q", val, v)
		}
	}

	work := d
	if len(intervention) > 0 {
		work = d.Copy()
		if err := work.Intervene(intervention); err != nil {
			return nil, err
		}
	}
	return d.inf.Query(work, targets, context)
}

// Intervene performs hard interventions: each variable's mechanism is
// replaced by a constant function of its (unchanged) parents, keeping the
// original domain so downstream CPDs stay valid.
func (d *Diagram) Intervene(intervention map[string]any) error {
	for v, val := range intervention {
		if !d.present[v] {
			return fmt.Errorf("intervention variable %q is not in the diagram", v)
		}
		cpd := d.cpds[v]
		if cpd == nil || cpd.Domain() == nil {
			return fmt.Errorf("intervention variable %q has no domain declared", v)
		}
		if valueIndex(cpd.Domain(), val) < 0 {
			return fmt.Errorf("intervention value %v is not in the domain of %q", val, v)
		}
		value := val
		constant := NewFunctionCPD(v, d.Parents(v), func(map[string]any) (any, error) {
			return value, nil
		}).WithDomain(cpd.Domain()).WithLabel(fmt.Sprintf("do(%v)", val))
		if _, err := d.SetCPD(constant); err != nil {
			return err
		}
	}
	return nil
}

// ExpectedValue computes the probability-weighted value of each variable
// under the normalized query distribution. It fails with a degeneracy error
// when the distribution has no mass or a state is not numeric.
func (d *Diagram) ExpectedValue(variables []string, context map[string]any, intervention map[string]any) ([]float64, error) {
	factor, err := d.Query(variables, context, intervention)
	if err != nil {
		return nil, err
	}
	if err := factor.Normalize(); err != nil {
		return nil, fmt.Errorf("expected value of %v|%v is degenerate (%w); consider imputing a decision policy", variables, context, err)
	}

	ev := make([]float64, len(factor.Variables))
	for idx, p := range factor.Values {
		if p == 0 {
			continue
		}
		states := factor.StatesAt(idx)
		for i := range factor.Variables {
			f, ok := toFloat(factor.States[i][states[i]])
			if !ok {
				return nil, fmt.Errorf("state %v of %q is not numeric; expected value is undefined",
					factor.States[i][states[i]], factor.Variables[i])
			}
			ev[i] += p * f
		}
	}
	for i, v := range ev {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("expected value of %q in query %v|%v is NaN; consider imputing a random decision",
				factor.Variables[i], variables, context)
		}
	}
	return ev, nil
}

// ExpectedUtility sums the expected values of the agent's utility nodes for
// the given context and optional intervention.
func (d *Diagram) ExpectedUtility(context map[string]any, intervention map[string]any, agent string) (float64, error) {
	utilities, err := d.UtilityNodes(agent)
	if err != nil {
		return 0, err
	}
	if len(utilities) == 0 {
		return 0, fmt.Errorf("agent %q has no utility nodes", agent)
	}
	ev, err := d.ExpectedValue(utilities, context, intervention)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, v := range ev {
		total += v
	}
	return total, nil
}

// ImputeRandomDecision assigns a uniform-random rule to the given decision,
// neutralizing it for analyses it does not participate in.
func (d *Diagram) ImputeRandomDecision(decision string) error {
	if !d.IsDecision(decision) {
		return fmt.Errorf("node %q is not a decision node", decision)
	}
	cpd := d.cpds[decision]
	if cpd == nil || cpd.Domain() == nil {
		return fmt.Errorf("cannot figure out the domain of %q; declare a DecisionDomain first", decision)
	}
	_, err := d.SetCPD(NewUniformRandomCPD(decision, cpd.Domain()))
	return err
}

// ImputeFullyMixedProfile assigns a uniform-random rule to every decision.
func (d *Diagram) ImputeFullyMixedProfile() error {
	for _, dec := range d.AllDecisionNodes() {
		if err := d.ImputeRandomDecision(dec); err != nil {
			return err
		}
	}
	return nil
}
