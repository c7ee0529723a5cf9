package app

import (
	"fmt"
	"testing"

	"github.com/causalgo/macid/internal/compile/cache"
	"github.com/causalgo/macid/internal/diagrams"
	"github.com/causalgo/macid/internal/equilibrium"
	"github.com/causalgo/macid/internal/macid"
)

type fakeCompiler struct {
	calls int
	d     func() *macid.Diagram
	err   error
}

func (f *fakeCompiler) Compile(src string) (*macid.Diagram, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.d(), nil
}

type passthroughCache struct {
	calls int
}

func (c *passthroughCache) GetOrCompute(src string, fn func() (*macid.Diagram, error)) (*macid.Diagram, error) {
	c.calls++
	return fn()
}

func newTestService(comp Compiler) *Service {
	return NewService(
		map[string]Compiler{"dot": comp},
		&passthroughCache{},
		equilibrium.NewSearcher(),
	)
}

func TestService_Analyze_ValidatesSpec(t *testing.T) {
	s := newTestService(&fakeCompiler{d: diagrams.CoordinationMACID})
	if _, err := s.Analyze(AnalyzeRequest{}); err == nil {
		t.Fatalf("expected error for an empty spec")
	}
}

func TestService_Analyze_UnknownFormat(t *testing.T) {
	s := newTestService(&fakeCompiler{d: diagrams.CoordinationMACID})
	if _, err := s.Analyze(AnalyzeRequest{Spec: "x", Format: "toml"}); err == nil {
		t.Fatalf("expected error for an unknown format")
	}
}

func TestService_Analyze_BubblesUpCompileErrors(t *testing.T) {
	s := newTestService(&fakeCompiler{err: fmt.Errorf("compile fail")})
	if _, err := s.Analyze(AnalyzeRequest{Spec: "x"}); err == nil {
		t.Fatalf("expected compile error to surface")
	}
}

func TestService_Analyze_CoordinationReport(t *testing.T) {
	s := newTestService(&fakeCompiler{d: diagrams.CoordinationMACID})

	report, err := s.Analyze(AnalyzeRequest{Spec: "coordination", FindNE: true, FindSPE: true})
	if err != nil {
		t.Fatal(err)
	}

	if report.ID == "" {
		t.Fatalf("expected a report id")
	}
	if report.Format != "dot" {
		t.Fatalf("expected the default format dot, got %q", report.Format)
	}
	if len(report.Agents) != 2 {
		t.Fatalf("expected 2 agents, got %v", report.Agents)
	}
	if !report.SufficientRecall {
		t.Fatalf("expected sufficient recall")
	}
	if report.RelevanceAcyclic {
		t.Fatalf("expected a cyclic relevance graph for simultaneous moves")
	}
	if len(report.Components) != 1 || len(report.Components[0]) != 2 {
		t.Fatalf("expected one two-decision component, got %v", report.Components)
	}
	if len(report.Subgames) != 1 {
		t.Fatalf("expected a single subgame, got %v", report.Subgames)
	}
	if len(report.NE) != 2 {
		t.Fatalf("expected 2 pure equilibria, got %d", len(report.NE))
	}
	if len(report.SPE) != 2 {
		t.Fatalf("expected 2 subgame-perfect equilibria, got %d", len(report.SPE))
	}
	for _, p := range report.NE {
		if _, ok := p["D1"]; !ok {
			t.Fatalf("expected a rendered rule for D1, got %v", p)
		}
		if _, ok := p["D2"]; !ok {
			t.Fatalf("expected a rendered rule for D2, got %v", p)
		}
	}
}

func TestService_Analyze_ResponseIncentives(t *testing.T) {
	s := newTestService(&fakeCompiler{d: diagrams.ThreeNodeCID})

	report, err := s.Analyze(AnalyzeRequest{Spec: "three-node", Incentives: "D"})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.ResponseIncentives) != 1 || report.ResponseIncentives[0] != "S" {
		t.Fatalf("expected [S], got %v", report.ResponseIncentives)
	}
}

func TestService_Analyze_SubgameRestriction(t *testing.T) {
	s := newTestService(&fakeCompiler{d: diagrams.TwoDecisionCID})

	report, err := s.Analyze(AnalyzeRequest{Spec: "sequential", FindNE: true, Subgame: []string{"D2"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.NE) != 1 {
		t.Fatalf("expected the unique subgame equilibrium, got %d", len(report.NE))
	}
}

func TestService_Analyze_OmitsInfeasibleSubgameListing(t *testing.T) {
	// 21 unrelated decisions condense to 21 components, too many to
	// enumerate subgames over; a structural analysis must still succeed.
	wide := func() *macid.Diagram {
		var edges [][2]string
		var decs, utils []string
		for i := 1; i <= 21; i++ {
			dn := fmt.Sprintf("D%d", i)
			un := fmt.Sprintf("U%d", i)
			edges = append(edges, [2]string{dn, un})
			decs = append(decs, dn)
			utils = append(utils, un)
		}
		d, err := macid.New(edges, []macid.AgentNodes{{Agent: "1", Decisions: decs, Utilities: utils}})
		if err != nil {
			panic(err)
		}
		return d
	}

	s := newTestService(&fakeCompiler{d: wide})
	report, err := s.Analyze(AnalyzeRequest{Spec: "wide"})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Components) != 21 {
		t.Fatalf("expected 21 components, got %d", len(report.Components))
	}
	if report.Subgames != nil {
		t.Fatalf("expected the subgame listing to be omitted, got %v", report.Subgames)
	}
}

func TestService_Analyze_CompilesOncePerSource(t *testing.T) {
	comp := &fakeCompiler{d: diagrams.CoordinationMACID}
	s := NewService(
		map[string]Compiler{"dot": comp},
		cache.NewInMemory(8),
		equilibrium.NewSearcher(),
	)

	for i := 0; i < 3; i++ {
		if _, err := s.Analyze(AnalyzeRequest{Spec: "same-source", FindNE: true}); err != nil {
			t.Fatal(err)
		}
	}
	if comp.calls != 1 {
		t.Fatalf("expected one compilation for a repeated source, got %d", comp.calls)
	}
}
