package app

import (
	"testing"

	"github.com/causalgo/macid/internal/compile/cache"
	"github.com/causalgo/macid/internal/diagrams"
	"github.com/causalgo/macid/internal/equilibrium"
)

func BenchmarkService_AnalyzeNE(b *testing.B) {
	s := NewService(
		map[string]Compiler{"dot": &fakeCompiler{d: diagrams.CoordinationMACID}},
		cache.NewInMemory(8),
		equilibrium.NewSearcher(),
	)
	req := AnalyzeRequest{Spec: "coordination", FindNE: true}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Analyze(req); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkService_AnalyzeStructureOnly(b *testing.B) {
	s := NewService(
		map[string]Compiler{"dot": &fakeCompiler{d: diagrams.TwoDecisionCID}},
		cache.NewInMemory(8),
		equilibrium.NewSearcher(),
	)
	req := AnalyzeRequest{Spec: "sequential"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Analyze(req); err != nil {
			b.Fatal(err)
		}
	}
}
