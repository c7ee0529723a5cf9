// Package diagrams holds ready-made influence diagrams used by tests and
// the load driver.
package diagrams

import (
	"fmt"

	"github.com/causalgo/macid/internal/macid"
	"github.com/causalgo/macid/internal/macid/infer"
)

// MinimalCID is the two-node diagram A→B with decision A in {0,1} and
// utility B equal to A.
func MinimalCID() *macid.Diagram {
	d := build(
		[][2]string{{"A", "B"}},
		[]macid.AgentNodes{{Agent: "1", Decisions: []string{"A"}, Utilities: []string{"B"}}},
	)
	setCPDs(d,
		macid.NewDecisionDomain("A", []any{0, 1}),
		macid.NewFunctionCPD("B", []string{"A"}, func(p map[string]any) (any, error) {
			return p["A"], nil
		}),
	)
	return d
}

// ThreeNodeCID: S→D, S→U, D→U with uniform S in {-1,1} and U = S*D.
func ThreeNodeCID() *macid.Diagram {
	d := build(
		[][2]string{{"S", "D"}, {"S", "U"}, {"D", "U"}},
		[]macid.AgentNodes{{Agent: "1", Decisions: []string{"D"}, Utilities: []string{"U"}}},
	)
	setCPDs(d,
		macid.NewUniformRandomCPD("S", []any{-1, 1}),
		macid.NewDecisionDomain("D", []any{-1, 1}),
		macid.NewFunctionCPD("U", []string{"S", "D"}, product("S", "D")),
	)
	return d
}

// FiveNodeCID: one agent observes two independent uniform coins and owns two
// utility nodes, each rewarding a match with one coin. No deterministic rule
// satisfies both coins when they disagree.
func FiveNodeCID() *macid.Diagram {
	d := build(
		[][2]string{
			{"S1", "D"}, {"S1", "U1"},
			{"S2", "D"}, {"S2", "U2"},
			{"D", "U1"}, {"D", "U2"},
		},
		[]macid.AgentNodes{{Agent: "1", Decisions: []string{"D"}, Utilities: []string{"U1", "U2"}}},
	)
	setCPDs(d,
		macid.NewUniformRandomCPD("S1", []any{0, 1}),
		macid.NewUniformRandomCPD("S2", []any{0, 1}),
		macid.NewDecisionDomain("D", []any{0, 1}),
		macid.NewFunctionCPD("U1", []string{"S1", "D"}, matches("S1", "D")),
		macid.NewFunctionCPD("U2", []string{"S2", "D"}, matches("S2", "D")),
	)
	return d
}

// TwoDecisionCID is a sequential single-agent diagram where D2 observes the
// outcome S2 of the earlier decision D1.
func TwoDecisionCID() *macid.Diagram {
	d := build(
		[][2]string{
			{"S1", "S2"}, {"S1", "D1"}, {"D1", "S2"},
			{"S2", "U"}, {"S2", "D2"}, {"D2", "U"},
		},
		[]macid.AgentNodes{{Agent: "1", Decisions: []string{"D1", "D2"}, Utilities: []string{"U"}}},
	)
	setCPDs(d,
		macid.NewUniformRandomCPD("S1", []any{0, 1}),
		macid.NewDecisionDomain("D1", []any{0, 1}),
		macid.NewDecisionDomain("D2", []any{0, 1}),
		macid.NewFunctionCPD("S2", []string{"S1", "D1"}, matches("S1", "D1")),
		macid.NewFunctionCPD("U", []string{"S2", "D2"}, matches("S2", "D2")),
	)
	return d
}

// SequentialCID is a subtle sufficient-recall case: D1's strategy influences
// the utility reachable after D2, but D2 can still be chosen without knowing
// D1 since D1 influences no utility descending from D2.
func SequentialCID() *macid.Diagram {
	d := build(
		[][2]string{
			{"S1", "D1"}, {"D1", "U1"}, {"S1", "U1"},
			{"D1", "S2"}, {"S2", "D2"}, {"D2", "U2"}, {"S2", "U2"},
		},
		[]macid.AgentNodes{{Agent: "1", Decisions: []string{"D1", "D2"}, Utilities: []string{"U1", "U2"}}},
	)
	setCPDs(d,
		macid.NewUniformRandomCPD("S1", []any{0, 1}),
		macid.NewDecisionDomain("D1", []any{0, 1}),
		macid.NewFunctionCPD("U1", []string{"S1", "D1"}, matches("S1", "D1")),
		macid.NewFunctionCPD("S2", []string{"D1"}, func(p map[string]any) (any, error) {
			return p["D1"], nil
		}),
		macid.NewDecisionDomain("D2", []any{0, 1}),
		macid.NewFunctionCPD("U2", []string{"S2", "D2"}, matches("S2", "D2")),
	)
	return d
}

// InsufficientRecallCID: two same-agent decisions with no ordering between
// them, both feeding U = A*B. Each decision is relevant to the other, so the
// agent's self-relevance graph is cyclic.
func InsufficientRecallCID() *macid.Diagram {
	d := build(
		[][2]string{{"A", "U"}, {"B", "U"}},
		[]macid.AgentNodes{{Agent: "1", Decisions: []string{"A", "B"}, Utilities: []string{"U"}}},
	)
	setCPDs(d,
		macid.NewDecisionDomain("A", []any{0, 1}),
		macid.NewDecisionDomain("B", []any{0, 1}),
		macid.NewFunctionCPD("U", []string{"A", "B"}, product("A", "B")),
	)
	return d
}

// TrimExampleCID is a structure-only diagram with redundant observation
// edges, used for requisite-graph pruning.
func TrimExampleCID() *macid.Diagram {
	return build(
		[][2]string{
			{"Y1", "D1"}, {"Y1", "Y2"}, {"Y1", "D2"},
			{"Y2", "D2"}, {"Y2", "U"},
			{"D1", "Y2"}, {"D1", "D2"},
			{"Z1", "D1"}, {"Z1", "D2"}, {"Z1", "Z2"},
			{"Z2", "D2"},
			{"D2", "U"},
		},
		[]macid.AgentNodes{{Agent: "1", Decisions: []string{"D1", "D2"}, Utilities: []string{"U"}}},
	)
}

// CoordinationMACID: two agents pick simultaneously and both are rewarded
// for matching. Two pure Nash equilibria.
func CoordinationMACID() *macid.Diagram {
	d := build(
		[][2]string{
			{"D1", "U1"}, {"D2", "U1"},
			{"D1", "U2"}, {"D2", "U2"},
		},
		[]macid.AgentNodes{
			{Agent: "1", Decisions: []string{"D1"}, Utilities: []string{"U1"}},
			{Agent: "2", Decisions: []string{"D2"}, Utilities: []string{"U2"}},
		},
	)
	setCPDs(d,
		macid.NewDecisionDomain("D1", []any{0, 1}),
		macid.NewDecisionDomain("D2", []any{0, 1}),
		macid.NewFunctionCPD("U1", []string{"D1", "D2"}, matches("D1", "D2")),
		macid.NewFunctionCPD("U2", []string{"D1", "D2"}, matches("D1", "D2")),
	)
	return d
}

// MatchingPenniesMACID: agent 1 wants to match, agent 2 wants to mismatch.
// No pure Nash equilibrium exists.
func MatchingPenniesMACID() *macid.Diagram {
	d := build(
		[][2]string{
			{"D1", "U1"}, {"D2", "U1"},
			{"D1", "U2"}, {"D2", "U2"},
		},
		[]macid.AgentNodes{
			{Agent: "1", Decisions: []string{"D1"}, Utilities: []string{"U1"}},
			{Agent: "2", Decisions: []string{"D2"}, Utilities: []string{"U2"}},
		},
	)
	setCPDs(d,
		macid.NewDecisionDomain("D1", []any{0, 1}),
		macid.NewDecisionDomain("D2", []any{0, 1}),
		macid.NewFunctionCPD("U1", []string{"D1", "D2"}, matches("D1", "D2")),
		macid.NewFunctionCPD("U2", []string{"D1", "D2"}, func(p map[string]any) (any, error) {
			if macid.ValueEqual(p["D1"], p["D2"]) {
				return 0, nil
			}
			return 1, nil
		}),
	)
	return d
}

func build(edges [][2]string, owners []macid.AgentNodes) *macid.Diagram {
	d, err := macid.New(edges, owners, macid.WithInferencer(infer.New()))
	if err != nil {
		panic(fmt.Sprintf("diagrams: bad fixture: %v", err))
	}
	return d
}

func setCPDs(d *macid.Diagram, cpds ...macid.CPD) {
	if _, err := d.SetCPD(cpds...); err != nil {
		panic(fmt.Sprintf("diagrams: bad fixture CPDs: %v", err))
	}
}

func matches(a, b string) macid.PolicyFunc {
	return func(p map[string]any) (any, error) {
		if macid.ValueEqual(p[a], p[b]) {
			return 1, nil
		}
		return 0, nil
	}
}

func product(a, b string) macid.PolicyFunc {
	return func(p map[string]any) (any, error) {
		fa, aok := asFloat(p[a])
		fb, bok := asFloat(p[b])
		if !aok || !bok {
			return nil, fmt.Errorf("product of non-numeric values %v and %v", p[a], p[b])
		}
		prod := fa * fb
		if prod == float64(int(prod)) {
			return int(prod), nil
		}
		return prod, nil
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
