package macid

import (
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates how a node's conditional distribution is specified.
type Kind int

const (
	// KindUnassigned marks a decision whose domain is declared but whose
	// rule has not been chosen yet. Queries touching it fail.
	KindUnassigned Kind = iota
	// KindDeterministic covers decision rules and function CPDs: the node
	// takes a single value determined by its parent values.
	KindDeterministic
	// KindRandom is a uniform distribution over the domain, independent of
	// the parent values.
	KindRandom
)

func (k Kind) String() string {
	switch k {
	case KindUnassigned:
		return "unassigned"
	case KindDeterministic:
		return "deterministic"
	case KindRandom:
		return "random"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// CPD is the conditional distribution attached to a diagram node.
//
// Dependencies is the declared evidence set; for deterministic CPDs it must
// match the node's graph parents exactly. Domain is the ordered list of
// admissible values (state names). CPDs are immutable once handed to a
// diagram.
type CPD interface {
	Variable() string
	Dependencies() []string
	Domain() []any
	Kind() Kind
	Copy() CPD
}

// PolicyFunc computes a node's value from an assignment of its parents.
type PolicyFunc func(parents map[string]any) (any, error)

// DecisionDomain declares the domain of a decision without choosing a rule.
type DecisionDomain struct {
	variable string
	domain   []any
}

func NewDecisionDomain(variable string, domain []any) *DecisionDomain {
	return &DecisionDomain{variable: variable, domain: cloneValues(domain)}
}

func (c *DecisionDomain) Variable() string       { return c.variable }
func (c *DecisionDomain) Dependencies() []string { return nil }
func (c *DecisionDomain) Domain() []any          { return cloneValues(c.domain) }
func (c *DecisionDomain) Kind() Kind             { return KindUnassigned }
func (c *DecisionDomain) Copy() CPD              { return NewDecisionDomain(c.variable, c.domain) }

// UniformRandomCPD assigns equal probability to every domain value.
type UniformRandomCPD struct {
	variable string
	domain   []any
}

func NewUniformRandomCPD(variable string, domain []any) *UniformRandomCPD {
	return &UniformRandomCPD{variable: variable, domain: cloneValues(domain)}
}

func (c *UniformRandomCPD) Variable() string       { return c.variable }
func (c *UniformRandomCPD) Dependencies() []string { return nil }
func (c *UniformRandomCPD) Domain() []any          { return cloneValues(c.domain) }
func (c *UniformRandomCPD) Kind() Kind             { return KindRandom }
func (c *UniformRandomCPD) Copy() CPD              { return NewUniformRandomCPD(c.variable, c.domain) }

// FunctionCPD computes the node's value as a deterministic function of its
// parents. If no domain is declared, it is derived at assignment time by
// enumerating all parent assignments.
type FunctionCPD struct {
	variable string
	parents  []string
	fn       PolicyFunc
	domain   []any
	label    string
}

func NewFunctionCPD(variable string, parents []string, fn PolicyFunc) *FunctionCPD {
	return &FunctionCPD{variable: variable, parents: cloneStrings(parents), fn: fn}
}

// WithDomain declares the domain explicitly instead of deriving it.
func (c *FunctionCPD) WithDomain(domain []any) *FunctionCPD {
	c.domain = cloneValues(domain)
	return c
}

func (c *FunctionCPD) WithLabel(label string) *FunctionCPD {
	c.label = label
	return c
}

func (c *FunctionCPD) Variable() string       { return c.variable }
func (c *FunctionCPD) Dependencies() []string { return cloneStrings(c.parents) }
func (c *FunctionCPD) Domain() []any          { return cloneValues(c.domain) }
func (c *FunctionCPD) Kind() Kind             { return KindDeterministic }
func (c *FunctionCPD) Label() string          { return c.label }

func (c *FunctionCPD) Copy() CPD {
	return &FunctionCPD{
		variable: c.variable,
		parents:  cloneStrings(c.parents),
		fn:       c.fn,
		domain:   cloneValues(c.domain),
		label:    c.label,
	}
}

// Value evaluates the function for one parent assignment.
func (c *FunctionCPD) Value(parents map[string]any) (any, error) {
	return c.fn(parents)
}

// DecisionRule is a pure strategy at a single decision: a deterministic map
// from every combination of parent values to an action in the decision's
// domain. Rules are immutable; they are produced by enumeration and imputed
// onto diagrams.
type DecisionRule struct {
	variable      string
	parents       []string
	parentDomains [][]any
	domain        []any
	// outputs is indexed by context index; the first parent is the least
	// significant digit (see contextIndex).
	outputs []any
}

func newDecisionRule(variable string, parents []string, parentDomains [][]any, domain []any, outputs []any) *DecisionRule {
	return &DecisionRule{
		variable:      variable,
		parents:       cloneStrings(parents),
		parentDomains: cloneDomains(parentDomains),
		domain:        cloneValues(domain),
		outputs:       cloneValues(outputs),
	}
}

func (r *DecisionRule) Variable() string       { return r.variable }
func (r *DecisionRule) Dependencies() []string { return cloneStrings(r.parents) }
func (r *DecisionRule) Domain() []any          { return cloneValues(r.domain) }
func (r *DecisionRule) Kind() Kind             { return KindDeterministic }

func (r *DecisionRule) Copy() CPD {
	return newDecisionRule(r.variable, r.parents, r.parentDomains, r.domain, r.outputs)
}

// Act returns the action chosen for the given parent assignment.
func (r *DecisionRule) Act(parents map[string]any) (any, error) {
	idx, err := contextIndex(r.parents, r.parentDomains, parents)
	if err != nil {
		return nil, fmt.Errorf("rule for %q: %w", r.variable, err)
	}
	return r.outputs[idx], nil
}

// Table renders the rule as an explicit context→action map, keyed by a
// "P1=v1,P2=v2" string. A parentless rule has the single key "".
func (r *DecisionRule) Table() map[string]any {
	out := make(map[string]any, len(r.outputs))
	idx := 0
	enumerateAssignments(r.parents, r.parentDomains, func(assignment map[string]any) {
		out[formatAssignment(r.parents, assignment)] = r.outputs[idx]
		idx++
	})
	return out
}

// Equal reports whether two rules choose the same action in every context.
func (r *DecisionRule) Equal(o *DecisionRule) bool {
	if r.variable != o.variable || len(r.outputs) != len(o.outputs) {
		return false
	}
	for i := range r.outputs {
		if !valueEqual(r.outputs[i], o.outputs[i]) {
			return false
		}
	}
	return true
}

// Distribution returns the probability vector over the CPD's domain for one
// parent assignment. This is the single consumption point for the CPD kinds;
// unassigned decisions fail here.
func Distribution(c CPD, parents map[string]any) ([]float64, error) {
	switch cpd := c.(type) {
	case *DecisionDomain:
		return nil, fmt.Errorf("decision %q has no policy imputed", cpd.variable)
	case *UniformRandomCPD:
		n := len(cpd.domain)
		if n == 0 {
			return nil, fmt.Errorf("node %q has an empty domain", cpd.variable)
		}
		dist := make([]float64, n)
		for i := range dist {
			dist[i] = 1.0 / float64(n)
		}
		return dist, nil
	case *FunctionCPD:
		if cpd.domain == nil {
			return nil, fmt.Errorf("function CPD for %q has not been initialized with a domain", cpd.variable)
		}
		v, err := cpd.fn(parents)
		if err != nil {
			return nil, fmt.Errorf("function CPD for %q: %w", cpd.variable, err)
		}
		return oneHot(cpd.domain, v, cpd.variable)
	case *DecisionRule:
		idx, err := contextIndex(cpd.parents, cpd.parentDomains, parents)
		if err != nil {
			return nil, fmt.Errorf("rule for %q: %w", cpd.variable, err)
		}
		return oneHot(cpd.domain, cpd.outputs[idx], cpd.variable)
	default:
		return nil, fmt.Errorf("unknown CPD type %T for %q", c, c.Variable())
	}
}

func oneHot(domain []any, v any, variable string) ([]float64, error) {
	i := valueIndex(domain, v)
	if i < 0 {
		return nil, fmt.Errorf("value %v is not in the domain of %q", v, variable)
	}
	dist := make([]float64, len(domain))
	dist[i] = 1
	return dist, nil
}

// contextIndex maps a parent assignment to a dense index, treating the first
// parent as the least significant digit.
func contextIndex(parents []string, parentDomains [][]any, assignment map[string]any) (int, error) {
	idx := 0
	mult := 1
	for i, p := range parents {
		v, ok := assignment[p]
		if !ok {
			return 0, fmt.Errorf("missing value for parent %q", p)
		}
		j := valueIndex(parentDomains[i], v)
		if j < 0 {
			return 0, fmt.Errorf("value %v is not in the domain of parent %q", v, p)
		}
		idx += j * mult
		mult *= len(parentDomains[i])
	}
	return idx, nil
}

// enumerateAssignments visits every assignment of the given domains to the
// given variables, first variable cycling fastest.
func enumerateAssignments(vars []string, domains [][]any, visit func(map[string]any)) {
	total := 1
	for _, dom := range domains {
		total *= len(dom)
	}
	if total == 0 {
		return
	}
	counters := make([]int, len(vars))
	for n := 0; n < total; n++ {
		assignment := make(map[string]any, len(vars))
		for i, v := range vars {
			assignment[v] = domains[i][counters[i]]
		}
		visit(assignment)
		for i := range counters {
			counters[i]++
			if counters[i] < len(domains[i]) {
				break
			}
			counters[i] = 0
		}
	}
}

// ValueEqual compares two domain values, coercing numeric types so that an
// int produced by one CPD matches a float produced by another.
func ValueEqual(a, b any) bool { return valueEqual(a, b) }

func valueEqual(a, b any) bool {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		return fa == fb
	}
	if aok != bok {
		return false
	}
	return a == b
}

func valueIndex(domain []any, v any) int {
	for i, dv := range domain {
		if valueEqual(dv, v) {
			return i
		}
	}
	return -1
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// sortDomain orders derived domains deterministically: numeric values
// ascending, then everything else by string form.
func sortDomain(domain []any) {
	sort.SliceStable(domain, func(i, j int) bool {
		fi, iok := toFloat(domain[i])
		fj, jok := toFloat(domain[j])
		switch {
		case iok && jok:
			return fi < fj
		case iok != jok:
			return iok
		default:
			return fmt.Sprint(domain[i]) < fmt.Sprint(domain[j])
		}
	})
}

func formatAssignment(vars []string, assignment map[string]any) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = fmt.Sprintf("%s=%v", v, assignment[v])
	}
	return strings.Join(parts, ",")
}

func cloneValues(vs []any) []any {
	if vs == nil {
		return nil
	}
	out := make([]any, len(vs))
	copy(out, vs)
	return out
}

func cloneDomains(ds [][]any) [][]any {
	out := make([][]any, len(ds))
	for i, d := range ds {
		out[i] = cloneValues(d)
	}
	return out
}

func cloneStrings(ss []string) []string {
	if ss == nil {
		return nil
	}
	out := make([]string, len(ss))
	copy(out, ss)
	return out
}
