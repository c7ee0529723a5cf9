package macid

import (
	"strings"
	"testing"
)

func mustDiagram(t *testing.T, edges [][2]string, owners []AgentNodes) *Diagram {
	t.Helper()
	d, err := New(edges, owners)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestNew_UnknownOwnerNodeFails(t *testing.T) {
	_, err := New(
		[][2]string{{"A", "B"}},
		[]AgentNodes{{Agent: "1", Decisions: []string{"X"}}},
	)
	if err == nil || !strings.Contains(err.Error(), "not in the diagram") {
		t.Fatalf("expected unknown node error, got %v", err)
	}
}

func TestNew_DuplicateOwnershipFails(t *testing.T) {
	_, err := New(
		[][2]string{{"A", "B"}},
		[]AgentNodes{
			{Agent: "1", Decisions: []string{"A"}},
			{Agent: "2", Decisions: []string{"A"}},
		},
	)
	if err == nil || !strings.Contains(err.Error(), "already belongs") {
		t.Fatalf("expected double ownership error, got %v", err)
	}
}

func TestAddEdge_RejectsCyclesAndDuplicates(t *testing.T) {
	d := mustDiagram(t, [][2]string{{"A", "B"}, {"B", "C"}}, nil)

	if _, err := d.AddEdge("C", "A"); err == nil {
		t.Fatalf("expected cycle rejection for C->A")
	}
	if _, err := d.AddEdge("A", "B"); err == nil {
		t.Fatalf("expected duplicate edge rejection")
	}
	if _, err := d.AddEdge("A", "A"); err == nil {
		t.Fatalf("expected self-loop rejection")
	}
}

func TestRemoveEdge_MarksDependentStale(t *testing.T) {
	d := mustDiagram(t, [][2]string{{"A", "B"}}, nil)
	if _, err := d.SetCPD(
		NewUniformRandomCPD("A", []any{0, 1}),
		NewFunctionCPD("B", []string{"A"}, func(p map[string]any) (any, error) {
			return p["A"], nil
		}),
	); err != nil {
		t.Fatal(err)
	}

	stale, err := d.RemoveEdge("A", "B")
	if err != nil {
		t.Fatal(err)
	}
	if len(stale) != 1 || stale[0] != "B" {
		t.Fatalf("expected B to go stale, got %v", stale)
	}
	if got := d.Stale(); len(got) != 1 || got[0] != "B" {
		t.Fatalf("expected Stale() to list B, got %v", got)
	}

	// Reassigning a CPD matching the new parent set clears the flag.
	if _, err := d.SetCPD(NewFunctionCPD("B", nil, func(map[string]any) (any, error) {
		return 0, nil
	})); err != nil {
		t.Fatal(err)
	}
	if got := d.Stale(); len(got) != 0 {
		t.Fatalf("expected no stale nodes after reassignment, got %v", got)
	}
}

func TestSetCPD_DependencyMismatchFails(t *testing.T) {
	d := mustDiagram(t, [][2]string{{"A", "B"}}, nil)
	_, err := d.SetCPD(NewFunctionCPD("B", []string{"A", "Z"}, func(map[string]any) (any, error) {
		return 0, nil
	}))
	if err == nil || !strings.Contains(err.Error(), "don't match graph parents") {
		t.Fatalf("expected dependency mismatch error, got %v", err)
	}
}

func TestSetCPD_DecisionCPDsOnlyOnDecisions(t *testing.T) {
	d := mustDiagram(t, [][2]string{{"A", "B"}}, nil)
	if _, err := d.SetCPD(NewDecisionDomain("A", []any{0, 1})); err == nil {
		t.Fatalf("expected decision-domain assignment to a chance node to fail")
	}
}

func TestSetCPD_BatchOrderIndependent(t *testing.T) {
	d := mustDiagram(t, [][2]string{{"A", "B"}}, nil)
	// B before A in the batch; initialization must still follow topology.
	if _, err := d.SetCPD(
		NewFunctionCPD("B", []string{"A"}, func(p map[string]any) (any, error) {
			return p["A"], nil
		}),
		NewUniformRandomCPD("A", []any{3, 7}),
	); err != nil {
		t.Fatal(err)
	}
	domain := d.CPD("B").Domain()
	if len(domain) != 2 || !valueEqual(domain[0], 3) || !valueEqual(domain[1], 7) {
		t.Fatalf("expected derived domain [3 7], got %v", domain)
	}
}

func TestSetCPD_DerivesSortedDomain(t *testing.T) {
	d := mustDiagram(t, [][2]string{{"A", "B"}}, nil)
	if _, err := d.SetCPD(
		NewUniformRandomCPD("A", []any{1, 0}),
		NewFunctionCPD("B", []string{"A"}, func(p map[string]any) (any, error) {
			// outputs 2 then 0 in enumeration order; derived domain is sorted
			return 2 - p["A"].(int)*2, nil
		}),
	); err != nil {
		t.Fatal(err)
	}
	domain := d.CPD("B").Domain()
	if len(domain) != 2 || !valueEqual(domain[0], 0) || !valueEqual(domain[1], 2) {
		t.Fatalf("expected sorted derived domain [0 2], got %v", domain)
	}
}

func TestSetCPD_DomainChangePropagatesStaleness(t *testing.T) {
	d := mustDiagram(t, [][2]string{{"A", "B"}}, nil)
	if _, err := d.SetCPD(
		NewUniformRandomCPD("A", []any{0, 1}),
		NewFunctionCPD("B", []string{"A"}, func(p map[string]any) (any, error) {
			return p["A"], nil
		}),
	); err != nil {
		t.Fatal(err)
	}

	stale, err := d.SetCPD(NewUniformRandomCPD("A", []any{0, 1, 2}))
	if err != nil {
		t.Fatal(err)
	}
	if len(stale) != 1 || stale[0] != "B" {
		t.Fatalf("expected domain change on A to stale B, got %v", stale)
	}
}

func TestMakeDecisionAndMakeChance(t *testing.T) {
	d := mustDiagram(t, [][2]string{{"A", "B"}}, nil)

	if err := d.MakeDecision("A", "1"); err == nil {
		t.Fatalf("expected MakeDecision to fail before a domain is known")
	}
	if _, err := d.SetCPD(NewUniformRandomCPD("A", []any{0, 1})); err != nil {
		t.Fatal(err)
	}
	if err := d.MakeDecision("A", "1"); err != nil {
		t.Fatal(err)
	}
	if !d.IsDecision("A") {
		t.Fatalf("expected A to be a decision node")
	}
	if kind := d.CPD("A").Kind(); kind != KindUnassigned {
		t.Fatalf("expected converted decision to be unassigned, got %v", kind)
	}

	if err := d.MakeChance("A"); err != nil {
		t.Fatal(err)
	}
	if d.IsDecision("A") {
		t.Fatalf("expected A to be a chance node again")
	}
}

func TestCopy_IsIndependent(t *testing.T) {
	d := mustDiagram(t,
		[][2]string{{"D", "U"}},
		[]AgentNodes{{Agent: "1", Decisions: []string{"D"}, Utilities: []string{"U"}}},
	)
	if _, err := d.SetCPD(NewDecisionDomain("D", []any{0, 1})); err != nil {
		t.Fatal(err)
	}

	c := d.Copy()
	rules, err := c.PureDecisionRules("D")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.SetCPD(rules[0]); err != nil {
		t.Fatal(err)
	}

	if d.CPD("D").Kind() != KindUnassigned {
		t.Fatalf("imputing on the copy must not touch the original")
	}
	if c.CPD("D").Kind() != KindDeterministic {
		t.Fatalf("expected the copy to carry the imputed rule")
	}
}
