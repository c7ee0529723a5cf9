package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/causalgo/macid/internal/equilibrium"
	"github.com/causalgo/macid/internal/incentives"
	"github.com/causalgo/macid/internal/macid"
	"github.com/causalgo/macid/internal/metrics"
	"github.com/causalgo/macid/internal/relevance"
)

type Compiler interface {
	Compile(src string) (*macid.Diagram, error)
}

type Cache interface {
	GetOrCompute(src string, fn func() (*macid.Diagram, error)) (*macid.Diagram, error)
}

type AnalyzeRequest struct {
	Spec   string
	Format string
	// Subgame restricts the Nash search to a decision subset; nil means all.
	Subgame []string
	FindNE  bool
	FindSPE bool
	// Incentives names a decision whose response incentives are listed.
	Incentives string
}

type AgentReport struct {
	Agent     string   `json:"agent"`
	Decisions []string `json:"decisions"`
	Utilities []string `json:"utilities"`
}

// RenderedProfile maps each decision to its rule table (context → action).
type RenderedProfile map[string]map[string]any

type Report struct {
	ID                 string            `json:"id"`
	Format             string            `json:"format"`
	Nodes              []string          `json:"nodes"`
	Agents             []AgentReport     `json:"agents"`
	SufficientRecall   bool              `json:"sufficient_recall"`
	RelevanceEdges     [][2]string       `json:"relevance_edges"`
	RelevanceAcyclic   bool              `json:"relevance_acyclic"`
	Components         [][]string        `json:"components"`
	Subgames           [][]string        `json:"subgames,omitempty"`
	NE                 []RenderedProfile `json:"ne,omitempty"`
	SPE                []RenderedProfile `json:"spe,omitempty"`
	ResponseIncentives []string          `json:"response_incentives,omitempty"`
	ElapsedMS          float64           `json:"elapsed_ms"`
}

type Service struct {
	compilers map[string]Compiler
	cache     Cache
	searcher  *equilibrium.Searcher
}

func NewService(compilers map[string]Compiler, cache Cache, searcher *equilibrium.Searcher) *Service {
	return &Service{compilers: compilers, cache: cache, searcher: searcher}
}

// Analyze compiles the diagram (cached per source text) and runs the
// structural analyses plus whichever equilibrium searches were requested.
func (s *Service) Analyze(req AnalyzeRequest) (*Report, error) {
	start := time.Now()
	format := req.Format
	if format == "" {
		format = "dot"
	}

	report, err := s.analyze(req, format)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.AnalysesTotal.WithLabelValues(format, status).Inc()
	metrics.AnalysisDuration.Observe(float64(time.Since(start).Microseconds()) / 1000.0)

	if report != nil {
		report.ElapsedMS = float64(time.Since(start).Microseconds()) / 1000.0
	}
	return report, err
}

func (s *Service) analyze(req AnalyzeRequest, format string) (*Report, error) {
	if req.Spec == "" {
		return nil, fmt.Errorf("spec is required")
	}
	compiler, ok := s.compilers[format]
	if !ok {
		return nil, fmt.Errorf("unknown spec format %q", format)
	}

	d, err := s.cache.GetOrCompute(req.Spec, func() (*macid.Diagram, error) {
		return compiler.Compile(req.Spec)
	})
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:     uuid.NewString(),
		Format: format,
		Nodes:  d.Nodes(),
	}
	for _, agent := range d.Agents() {
		decs, err := d.DecisionNodes(agent)
		if err != nil {
			return nil, err
		}
		utils, err := d.UtilityNodes(agent)
		if err != nil {
			return nil, err
		}
		report.Agents = append(report.Agents, AgentReport{Agent: agent, Decisions: decs, Utilities: utils})
	}

	recall, err := relevance.SufficientRecall(d)
	if err != nil {
		return nil, err
	}
	report.SufficientRecall = recall

	rg, err := relevance.Build(d, nil)
	if err != nil {
		return nil, err
	}
	report.RelevanceEdges = rg.Edges()
	report.RelevanceAcyclic = rg.IsAcyclic()

	crg := rg.Condense()
	for _, id := range crg.TopologicalOrder() {
		report.Components = append(report.Components, crg.Decisions(id))
	}

	// The subgame listing is informational; a diagram too large to
	// enumerate just loses the field instead of the whole report.
	subgames, err := s.searcher.DecisionsPerMAIDSubgame(d)
	if err != nil && !errors.Is(err, equilibrium.ErrTooManyComponents) {
		return nil, err
	}
	report.Subgames = subgames

	if req.FindNE {
		nes, err := s.searcher.AllPureNEInSubgame(d, req.Subgame)
		if err != nil {
			return nil, fmt.Errorf("pure NE search: %w", err)
		}
		report.NE = renderProfiles(nes)
	}
	if req.FindSPE {
		spes, err := s.searcher.AllPureSPE(d)
		if err != nil {
			return nil, fmt.Errorf("pure SPE search: %w", err)
		}
		report.SPE = renderProfiles(spes)
	}
	if req.Incentives != "" {
		nodes, err := incentives.AdmitsResponseIncentiveList(d, req.Incentives)
		if err != nil {
			return nil, fmt.Errorf("response incentives: %w", err)
		}
		report.ResponseIncentives = nodes
	}

	return report, nil
}

func renderProfiles(profiles []equilibrium.Profile) []RenderedProfile {
	out := make([]RenderedProfile, 0, len(profiles))
	for _, p := range profiles {
		r := make(RenderedProfile, len(p))
		for _, rule := range p {
			r[rule.Variable()] = rule.Table()
		}
		out = append(out, r)
	}
	return out
}
