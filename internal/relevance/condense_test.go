package relevance

import (
	"testing"

	"github.com/causalgo/macid/internal/diagrams"
)

func TestCondense_CycleCollapsesToOneComponent(t *testing.T) {
	g, err := Build(diagrams.CoordinationMACID(), nil)
	if err != nil {
		t.Fatal(err)
	}

	c := g.Condense()
	if c.Len() != 1 {
		t.Fatalf("expected one component for the mutual cycle, got %d", c.Len())
	}
	members := c.Decisions(0)
	if len(members) != 2 {
		t.Fatalf("expected both decisions in the component, got %v", members)
	}
	id1, ok1 := c.ComponentOf("D1")
	id2, ok2 := c.ComponentOf("D2")
	if !ok1 || !ok2 || id1 != id2 {
		t.Fatalf("expected D1 and D2 to share a component")
	}
	if order := c.TopologicalOrder(); len(order) != 1 {
		t.Fatalf("expected a single-entry order, got %v", order)
	}
}

func TestCondense_DAGKeepsSingletons(t *testing.T) {
	g, err := Build(diagrams.TwoDecisionCID(), nil)
	if err != nil {
		t.Fatal(err)
	}

	c := g.Condense()
	if c.Len() != 2 {
		t.Fatalf("expected two singleton components, got %d", c.Len())
	}
	id1, _ := c.ComponentOf("D1")
	id2, _ := c.ComponentOf("D2")
	if id1 == id2 {
		t.Fatalf("expected D1 and D2 in different components")
	}
	if !c.HasEdge(id1, id2) {
		t.Fatalf("expected the D1->D2 relevance edge to survive condensation")
	}
	if c.HasEdge(id2, id1) {
		t.Fatalf("unexpected back edge in the condensation")
	}

	desc := c.Descendants(id1)
	if len(desc) != 1 || !desc[id2] {
		t.Fatalf("expected the D2 component to be the only descendant, got %v", desc)
	}

	order := c.TopologicalOrder()
	if len(order) != 2 || order[0] != id1 || order[1] != id2 {
		t.Fatalf("unexpected component order %v", order)
	}
}

func TestCondense_MixedGraphIsAlwaysAcyclic(t *testing.T) {
	// Insufficient recall produces a cyclic self-relevance graph; its
	// condensation must still order cleanly.
	g, err := Build(diagrams.InsufficientRecallCID(), nil)
	if err != nil {
		t.Fatal(err)
	}
	c := g.Condense()
	if c.Len() != 1 {
		t.Fatalf("expected the A<->B cycle to collapse, got %d components", c.Len())
	}
	if order := c.TopologicalOrder(); len(order) != c.Len() {
		t.Fatalf("expected a complete order over components, got %v", order)
	}
}
