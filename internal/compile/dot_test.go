package compile

import (
	"math"
	"strings"
	"testing"

	"github.com/causalgo/macid/internal/macid"
	"github.com/causalgo/macid/internal/macid/infer"
)

const fiveNodeDOT = `digraph FiveNode {
	S1 [cpd="uniform", domain="0,1"]
	S2 [cpd="uniform", domain="0,1"]
	D  [kind="decision", agent="1", domain="0,1"]
	U1 [kind="utility", agent="1", cpd="S1 == D ? 1 : 0"]
	U2 [kind="utility", agent="1", cpd="S2 == D ? 1 : 0"]
	S1 -> D
	S1 -> U1
	S2 -> D
	S2 -> U2
	D -> U1
	D -> U2
}`

func TestDOT_CompilesFiveNodeDiagram(t *testing.T) {
	d, err := NewDOT(infer.New()).Compile(fiveNodeDOT)
	if err != nil {
		t.Fatal(err)
	}

	if got := d.Nodes(); len(got) != 5 {
		t.Fatalf("expected 5 nodes, got %v", got)
	}
	decs, err := d.DecisionNodes("1")
	if err != nil {
		t.Fatal(err)
	}
	if len(decs) != 1 || decs[0] != "D" {
		t.Fatalf("expected decision [D], got %v", decs)
	}
	utils, err := d.UtilityNodes("1")
	if err != nil {
		t.Fatal(err)
	}
	if len(utils) != 2 {
		t.Fatalf("expected 2 utility nodes, got %v", utils)
	}
	// Parent order follows edge text order.
	if parents := d.Parents("D"); len(parents) != 2 || parents[0] != "S1" || parents[1] != "S2" {
		t.Fatalf("unexpected parent order of D: %v", parents)
	}
	if kind := d.CPD("D").Kind(); kind != macid.KindUnassigned {
		t.Fatalf("expected an unassigned decision, got %v", kind)
	}

	// The compiled diagram answers queries once a policy is imputed.
	rules, err := d.PureDecisionRules("D")
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 16 {
		t.Fatalf("expected 16 pure rules, got %d", len(rules))
	}
	if err := d.ImputeFullyMixedProfile(); err != nil {
		t.Fatal(err)
	}
	eu, err := d.ExpectedUtility(nil, nil, "1")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(eu-1) > 1e-12 {
		t.Fatalf("expected utility 1 under the mixed profile, got %v", eu)
	}
}

func TestDOT_SemicolonSeparatedStatements(t *testing.T) {
	src := `digraph G { D [kind="decision", agent="1", domain="0,1"]; U [kind="utility", agent="1", cpd="D"]; D -> U; }`
	d, err := NewDOT(infer.New()).Compile(src)
	if err != nil {
		t.Fatal(err)
	}
	if parents := d.Parents("U"); len(parents) != 1 || parents[0] != "D" {
		t.Fatalf("unexpected parents of U: %v", parents)
	}
}

func TestDOT_InvalidSourceFails(t *testing.T) {
	if _, err := NewDOT(infer.New()).Compile(`digraph { A -> `); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDOT_DecisionWithCPDFails(t *testing.T) {
	src := `digraph G {
		D [kind="decision", agent="1", domain="0,1", cpd="1"]
		U [kind="utility", agent="1", cpd="D"]
		D -> U
	}`
	_, err := NewDOT(infer.New()).Compile(src)
	if err == nil || !strings.Contains(err.Error(), "must not declare a cpd") {
		t.Fatalf("expected decision-cpd rejection, got %v", err)
	}
}

func TestDOT_ChanceWithAgentFails(t *testing.T) {
	src := `digraph G {
		S [agent="1", cpd="uniform", domain="0,1"]
		U [kind="utility", agent="1", cpd="S"]
		S -> U
	}`
	_, err := NewDOT(infer.New()).Compile(src)
	if err == nil || !strings.Contains(err.Error(), "must not declare an agent") {
		t.Fatalf("expected chance-agent rejection, got %v", err)
	}
}

func TestDOT_DomainLiterals(t *testing.T) {
	src := `digraph G {
		S [cpd="uniform", domain="-1, 2.5, true, x"]
		U [kind="utility", agent="1", cpd="S == -1 ? 1 : 0"]
		S -> U
	}`
	d, err := NewDOT(infer.New()).Compile(src)
	if err != nil {
		t.Fatal(err)
	}
	domain := d.CPD("S").Domain()
	if len(domain) != 4 {
		t.Fatalf("expected 4 domain values, got %v", domain)
	}
	if domain[0] != -1 || domain[1] != 2.5 || domain[2] != true || domain[3] != "x" {
		t.Fatalf("unexpected literal parsing: %#v", domain)
	}
}

func TestExtractEdgesInTextOrder(t *testing.T) {
	edges, err := extractEdgesInTextOrder("digraph G {\n\tB -> C\n\tA -> B [weight=\"1\"]\n}")
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 2 || edges[0].From != "B" || edges[1].To != "B" {
		t.Fatalf("unexpected edge order: %v", edges)
	}

	if _, err := extractEdgesInTextOrder("digraph { A -> B -> C }"); err == nil {
		t.Fatalf("expected chained edge statements to be rejected")
	}
}
