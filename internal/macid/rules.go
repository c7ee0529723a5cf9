package macid

import "fmt"

// PureDecisionRules enumerates every pure decision rule available at the
// given decision: |domain|^(parent value combinations) rules, in a fixed
// deterministic order.
func (d *Diagram) PureDecisionRules(decision string) ([]*DecisionRule, error) {
	if !d.IsDecision(decision) {
		return nil, fmt.Errorf("node %q is not a decision node", decision)
	}
	cpd := d.cpds[decision]
	if cpd == nil || cpd.Domain() == nil {
		return nil, fmt.Errorf("no domain declared for decision %q", decision)
	}
	domain := cpd.Domain()
	parents := d.Parents(decision)
	parentDomains, err := d.parentDomains(decision)
	if err != nil {
		return nil, fmt.Errorf("cannot enumerate rules for %q: %w", decision, err)
	}

	contexts := 1
	for _, pd := range parentDomains {
		if len(pd) == 0 {
			return nil, fmt.Errorf("cannot enumerate rules for %q: a parent has an empty domain", decision)
		}
		contexts *= len(pd)
	}

	total := 1
	for i := 0; i < contexts; i++ {
		total *= len(domain)
	}

	rules := make([]*DecisionRule, 0, total)
	counters := make([]int, contexts)
	for r := 0; r < total; r++ {
		outputs := make([]any, contexts)
		for i, c := range counters {
			outputs[i] = domain[c]
		}
		rules = append(rules, newDecisionRule(decision, parents, parentDomains, domain, outputs))
		// advance the odometer, last context fastest
		for i := contexts - 1; i >= 0; i-- {
			counters[i]++
			if counters[i] < len(domain) {
				break
			}
			counters[i] = 0
		}
	}
	return rules, nil
}

// PureStrategies enumerates the Cartesian product of the pure decision rules
// of the given decisions: every joint pure strategy over that set. The blow
// up is exponential in both the number of decisions and their context
// counts, so callers should restrict the set to the smallest sound subgame.
func (d *Diagram) PureStrategies(decisions []string) ([][]*DecisionRule, error) {
	perDecision := make([][]*DecisionRule, len(decisions))
	for i, dec := range decisions {
		rules, err := d.PureDecisionRules(dec)
		if err != nil {
			return nil, err
		}
		perDecision[i] = rules
	}

	profiles := [][]*DecisionRule{nil}
	for _, rules := range perDecision {
		next := make([][]*DecisionRule, 0, len(profiles)*len(rules))
		for _, p := range profiles {
			for _, r := range rules {
				combined := make([]*DecisionRule, len(p), len(p)+1)
				copy(combined, p)
				next = append(next, append(combined, r))
			}
		}
		profiles = next
	}
	return profiles, nil
}
