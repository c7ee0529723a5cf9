// Package compile builds diagrams from textual specifications: a DOT front
// end (node attributes declare kind, agent, domain and CPD expressions) and
// a YAML front end sharing the same intermediate form.
package compile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/causalgo/macid/internal/compile/eval"
	"github.com/causalgo/macid/internal/macid"
)

const (
	kindChance   = "chance"
	kindDecision = "decision"
	kindUtility  = "utility"

	cpdUniform = "uniform"
)

// NodeSpec declares one node of a diagram spec.
type NodeSpec struct {
	Kind   string // chance (default), decision or utility
	Agent  string // required for decision and utility nodes
	Domain []any
	CPD    string // expression over parent names, or "uniform"
}

// DiagramSpec is the format-independent intermediate a front end produces.
// Edge order is significant: it fixes parent order, and with it the context
// order of decision rules.
type DiagramSpec struct {
	Name  string
	Edges [][2]string
	Nodes map[string]NodeSpec
}

// Build turns the spec into a parameterized diagram wired to the given
// inference oracle.
func (s *DiagramSpec) Build(inf macid.Inferencer) (*macid.Diagram, error) {
	if len(s.Edges) == 0 {
		return nil, fmt.Errorf("diagram spec has no edges")
	}

	var nodeOrder []string
	seen := map[string]bool{}
	note := func(n string) {
		if !seen[n] {
			seen[n] = true
			nodeOrder = append(nodeOrder, n)
		}
	}
	for _, e := range s.Edges {
		note(e[0])
		note(e[1])
	}
	for n := range s.Nodes {
		if !seen[n] {
			return nil, fmt.Errorf("node %q is declared but appears in no edge", n)
		}
	}

	var agentOrder []string
	owners := map[string]*macid.AgentNodes{}
	for _, n := range nodeOrder {
		spec, ok := s.Nodes[n]
		if !ok {
			continue
		}
		kind := spec.Kind
		if kind == "" {
			kind = kindChance
		}
		switch kind {
		case kindChance:
			if spec.Agent != "" {
				return nil, fmt.Errorf("chance node %q must not declare an agent", n)
			}
		case kindDecision, kindUtility:
			if spec.Agent == "" {
				return nil, fmt.Errorf("%s node %q must declare an agent", kind, n)
			}
			o, ok := owners[spec.Agent]
			if !ok {
				o = &macid.AgentNodes{Agent: spec.Agent}
				owners[spec.Agent] = o
				agentOrder = append(agentOrder, spec.Agent)
			}
			if kind == kindDecision {
				o.Decisions = append(o.Decisions, n)
			} else {
				o.Utilities = append(o.Utilities, n)
			}
		default:
			return nil, fmt.Errorf("node %q has unknown kind %q", n, kind)
		}
	}

	ownerList := make([]macid.AgentNodes, len(agentOrder))
	for i, a := range agentOrder {
		ownerList[i] = *owners[a]
	}

	d, err := macid.New(s.Edges, ownerList, macid.WithInferencer(inf))
	if err != nil {
		return nil, err
	}

	var cpds []macid.CPD
	for _, n := range nodeOrder {
		spec, ok := s.Nodes[n]
		if !ok {
			continue
		}
		cpd, err := s.nodeCPD(d, n, spec)
		if err != nil {
			return nil, err
		}
		if cpd != nil {
			cpds = append(cpds, cpd)
		}
	}
	if len(cpds) > 0 {
		if _, err := d.SetCPD(cpds...); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (s *DiagramSpec) nodeCPD(d *macid.Diagram, n string, spec NodeSpec) (macid.CPD, error) {
	kind := spec.Kind
	if kind == "" {
		kind = kindChance
	}
	if kind == kindDecision {
		if spec.CPD != "" {
			return nil, fmt.Errorf("decision node %q must not declare a cpd; policies are imputed by analysis", n)
		}
		if spec.Domain == nil {
			return nil, fmt.Errorf("decision node %q must declare a domain", n)
		}
		return macid.NewDecisionDomain(n, spec.Domain), nil
	}

	switch {
	case spec.CPD == "" && spec.Domain == nil:
		// structural declaration only; fine for pure graph analysis
		return nil, nil
	case spec.CPD == "":
		return nil, fmt.Errorf("node %q declares a domain but no cpd; use cpd %q for a uniform node", n, cpdUniform)
	case spec.CPD == cpdUniform:
		if spec.Domain == nil {
			return nil, fmt.Errorf("uniform node %q must declare a domain", n)
		}
		return macid.NewUniformRandomCPD(n, spec.Domain), nil
	default:
		prog, err := eval.Compile(spec.CPD)
		if err != nil {
			return nil, fmt.Errorf("invalid cpd on node %q: %w", n, err)
		}
		fn := func(parents map[string]any) (any, error) {
			return prog.Eval(parents)
		}
		cpd := macid.NewFunctionCPD(n, d.Parents(n), fn).WithLabel(prog.Source())
		if spec.Domain != nil {
			cpd = cpd.WithDomain(spec.Domain)
		}
		return cpd, nil
	}
}

// parseDomain reads a comma-separated domain declaration, turning each item
// into a bool, int, float or string literal.
func parseDomain(raw string) ([]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]any, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty value in domain %q", raw)
		}
		out = append(out, parseLiteral(part))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("domain %q has no values", raw)
	}
	return out, nil
}

func parseLiteral(s string) any {
	s = strings.TrimSpace(s)

	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}

	if i, err := strconv.Atoi(s); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		if s[0] == '\'' {
			s = `"` + s[1:len(s)-1] + `"`
		}
		if unq, err := strconv.Unquote(s); err == nil {
			return unq
		}
	}

	return s
}
