package compile

import (
	"strings"
	"testing"

	"github.com/causalgo/macid/internal/macid"
	"github.com/causalgo/macid/internal/macid/infer"
)

const coordinationYAML = `
name: coordination
edges:
  - [D1, U1]
  - [D2, U1]
  - [D1, U2]
  - [D2, U2]
nodes:
  D1: {kind: decision, agent: "1", domain: [0, 1]}
  D2: {kind: decision, agent: "2", domain: [0, 1]}
  U1: {kind: utility, agent: "1", cpd: "D1 == D2 ? 1 : 0"}
  U2: {kind: utility, agent: "2", cpd: "D1 == D2 ? 1 : 0"}
`

func TestYAML_CompilesCoordinationGame(t *testing.T) {
	d, err := NewYAML(infer.New()).Compile(coordinationYAML)
	if err != nil {
		t.Fatal(err)
	}

	if agents := d.Agents(); len(agents) != 2 {
		t.Fatalf("expected 2 agents, got %v", agents)
	}
	if !d.IsDecision("D1") || !d.IsDecision("D2") {
		t.Fatalf("expected D1 and D2 to be decisions")
	}
	if !d.IsUtility("U1") || !d.IsUtility("U2") {
		t.Fatalf("expected U1 and U2 to be utilities")
	}
	if kind := d.CPD("U1").Kind(); kind != macid.KindDeterministic {
		t.Fatalf("expected a compiled utility CPD, got %v", kind)
	}
}

func TestYAML_InvalidSyntaxFails(t *testing.T) {
	if _, err := NewYAML(infer.New()).Compile(`edges: [`); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestYAML_BadEdgeArityFails(t *testing.T) {
	src := `
edges:
  - [A, B, C]
nodes: {}
`
	_, err := NewYAML(infer.New()).Compile(src)
	if err == nil || !strings.Contains(err.Error(), "must be a [from, to] pair") {
		t.Fatalf("expected edge arity error, got %v", err)
	}
}

func TestDiagramSpec_BuildValidation(t *testing.T) {
	empty := &DiagramSpec{}
	if _, err := empty.Build(infer.New()); err == nil {
		t.Fatalf("expected an empty spec to fail")
	}

	orphan := &DiagramSpec{
		Edges: [][2]string{{"A", "B"}},
		Nodes: map[string]NodeSpec{"C": {}},
	}
	if _, err := orphan.Build(infer.New()); err == nil {
		t.Fatalf("expected a node outside the edge list to fail")
	}

	noAgent := &DiagramSpec{
		Edges: [][2]string{{"D", "U"}},
		Nodes: map[string]NodeSpec{"D": {Kind: "decision", Domain: []any{0, 1}}},
	}
	if _, err := noAgent.Build(infer.New()); err == nil {
		t.Fatalf("expected a decision without an agent to fail")
	}

	noDomain := &DiagramSpec{
		Edges: [][2]string{{"D", "U"}},
		Nodes: map[string]NodeSpec{"D": {Kind: "decision", Agent: "1"}},
	}
	if _, err := noDomain.Build(infer.New()); err == nil {
		t.Fatalf("expected a decision without a domain to fail")
	}

	badKind := &DiagramSpec{
		Edges: [][2]string{{"A", "B"}},
		Nodes: map[string]NodeSpec{"A": {Kind: "wat"}},
	}
	if _, err := badKind.Build(infer.New()); err == nil {
		t.Fatalf("expected an unknown kind to fail")
	}

	uniformNoDomain := &DiagramSpec{
		Edges: [][2]string{{"A", "B"}},
		Nodes: map[string]NodeSpec{"A": {CPD: "uniform"}},
	}
	if _, err := uniformNoDomain.Build(infer.New()); err == nil {
		t.Fatalf("expected a uniform node without a domain to fail")
	}
}

func TestDiagramSpec_StructureOnlyNodesNeedNoCPD(t *testing.T) {
	spec := &DiagramSpec{
		Edges: [][2]string{{"A", "D"}, {"D", "U"}},
		Nodes: map[string]NodeSpec{
			"D": {Kind: "decision", Agent: "1", Domain: []any{0, 1}},
			"U": {Kind: "utility", Agent: "1"},
		},
	}
	d, err := spec.Build(infer.New())
	if err != nil {
		t.Fatal(err)
	}
	if d.CPD("A") != nil || d.CPD("U") != nil {
		t.Fatalf("expected structure-only nodes to stay unparameterized")
	}
}
