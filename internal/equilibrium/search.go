// Package equilibrium enumerates pure strategy profiles over diagram
// subgames and searches them for Nash and subgame-perfect equilibria.
package equilibrium

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/causalgo/macid/internal/macid"
	"github.com/causalgo/macid/internal/relevance"
)

// ErrTooManyComponents marks a diagram whose condensed relevance graph is too
// large for subgame enumeration. Callers that only list subgames as a
// convenience can detect it with errors.Is and skip the listing.
var ErrTooManyComponents = errors.New("subgame enumeration is not feasible")

// Profile is one pure decision rule per decision node of a subgame, in the
// subgame's decision order.
type Profile []*macid.DecisionRule

// Searcher runs equilibrium computations. All operations copy the diagram
// before imputing trial policies; the caller's diagram is never mutated.
type Searcher struct {
	tolerance   float64
	maxProfiles int
	obs         ProfileEvalObserver
}

type Option func(*Searcher)

// WithTolerance sets the payoff tie tolerance: strategies within tolerance
// of the maximum count as optimal, and deviations must improve by more than
// the tolerance to break an equilibrium. The default of 0 reproduces exact
// float comparison.
func WithTolerance(t float64) Option {
	return func(s *Searcher) { s.tolerance = t }
}

// WithMaxProfiles caps the joint strategy space; enumeration fails instead
// of running away when a subgame is larger than the cap. Zero means no cap.
func WithMaxProfiles(n int) Option {
	return func(s *Searcher) { s.maxProfiles = n }
}

// WithObserver wires a profile-evaluation latency observer.
func WithObserver(obs ProfileEvalObserver) Option {
	return func(s *Searcher) { s.obs = obs }
}

func NewSearcher(opts ...Option) *Searcher {
	s := &Searcher{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// JointPureStrategies enumerates every joint pure strategy profile over the
// given decisions.
func (s *Searcher) JointPureStrategies(d *macid.Diagram, decisions []string) ([]Profile, error) {
	strategies, err := d.PureStrategies(decisions)
	if err != nil {
		return nil, err
	}
	if s.maxProfiles > 0 && len(strategies) > s.maxProfiles {
		return nil, fmt.Errorf("joint strategy space over %v has %d profiles, exceeding the cap of %d; restrict the subgame",
			decisions, len(strategies), s.maxProfiles)
	}
	profiles := make([]Profile, len(strategies))
	for i, st := range strategies {
		profiles[i] = Profile(st)
	}
	return profiles, nil
}

// OptimalPureStrategies returns every joint pure strategy over the given
// decisions (which must all belong to one agent) that maximizes that agent's
// expected utility, ties included. Unassigned decisions that are not
// s-reachable from the set are neutralized with uniform-random rules first.
func (s *Searcher) OptimalPureStrategies(d *macid.Diagram, decisions []string) ([]Profile, error) {
	if len(decisions) == 0 {
		return nil, nil
	}
	agent, ok := d.Whose(decisions[0])
	if !ok || !d.IsDecision(decisions[0]) {
		return nil, fmt.Errorf("node %q is not a decision node", decisions[0])
	}
	for _, dec := range decisions[1:] {
		a, ok := d.Whose(dec)
		if !ok || !d.IsDecision(dec) {
			return nil, fmt.Errorf("node %q is not a decision node", dec)
		}
		if a != agent {
			return nil, fmt.Errorf("optimal strategies need a single agent, got decisions of both %q and %q", agent, a)
		}
	}

	work := d.Copy()
	if err := neutralizeIrrelevant(work, decisions); err != nil {
		return nil, err
	}
	profiles, err := s.JointPureStrategies(work, decisions)
	if err != nil {
		return nil, err
	}

	utilities := make([]float64, len(profiles))
	best := math.Inf(-1)
	for i, p := range profiles {
		started := time.Now()
		if err := impute(work, p); err != nil {
			return nil, err
		}
		eu, err := work.ExpectedUtility(nil, nil, agent)
		s.observe(len(decisions), time.Since(started))
		if err != nil {
			return nil, err
		}
		utilities[i] = eu
		if eu > best {
			best = eu
		}
	}

	var out []Profile
	for i, p := range profiles {
		if utilities[i] >= best-s.tolerance {
			out = append(out, p)
		}
	}
	return out, nil
}

// OptimalPureDecisionRules returns every optimal rule at a single decision.
func (s *Searcher) OptimalPureDecisionRules(d *macid.Diagram, decision string) ([]*macid.DecisionRule, error) {
	strategies, err := s.OptimalPureStrategies(d, []string{decision})
	if err != nil {
		return nil, err
	}
	rules := make([]*macid.DecisionRule, len(strategies))
	for i, st := range strategies {
		rules[i] = st[0]
	}
	return rules, nil
}

// ImputeOptimalDecision assigns the first optimal rule (fixed enumeration
// order) to the given decision.
func (s *Searcher) ImputeOptimalDecision(d *macid.Diagram, decision string) error {
	rules, err := s.OptimalPureDecisionRules(d, decision)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		return fmt.Errorf("no optimal rule found for decision %q", decision)
	}
	_, err = d.SetCPD(rules[0])
	return err
}

// AllPureNE returns all pure Nash equilibria over the full decision set.
func (s *Searcher) AllPureNE(d *macid.Diagram) ([]Profile, error) {
	return s.AllPureNEInSubgame(d, nil)
}

// AllPureNEInSubgame returns every joint pure strategy profile over the
// subgame's decisions from which no agent has a strictly improving
// unilateral deviation. The profile is re-imputed before each agent's check,
// so deviations are always measured against the profile itself.
func (s *Searcher) AllPureNEInSubgame(d *macid.Diagram, decisions []string) ([]Profile, error) {
	if decisions == nil {
		decisions = d.AllDecisionNodes()
	}
	for _, dec := range decisions {
		if !d.IsDecision(dec) {
			return nil, fmt.Errorf("node %q is not a decision node", dec)
		}
	}

	inSubgame := make(map[string]bool, len(decisions))
	for _, dec := range decisions {
		inSubgame[dec] = true
	}
	var agents []string
	agentDecs := map[string][]string{}
	for _, a := range d.Agents() {
		decsOfAgent, err := d.DecisionNodes(a)
		if err != nil {
			return nil, err
		}
		var in []string
		for _, dec := range decsOfAgent {
			if inSubgame[dec] {
				in = append(in, dec)
			}
		}
		if len(in) > 0 {
			agents = append(agents, a)
			agentDecs[a] = in
		}
	}

	work := d.Copy()
	if err := neutralizeIrrelevant(work, decisions); err != nil {
		return nil, err
	}
	profiles, err := s.JointPureStrategies(work, decisions)
	if err != nil {
		return nil, err
	}

	var equilibria []Profile
	for _, pp := range profiles {
		isNE := true
		for _, a := range agents {
			if err := impute(work, pp); err != nil {
				return nil, err
			}
			started := time.Now()
			eu, err := work.ExpectedUtility(nil, nil, a)
			s.observe(len(decisions), time.Since(started))
			if err != nil {
				return nil, err
			}
			optimal, err := s.OptimalPureStrategies(work, agentDecs[a])
			if err != nil {
				return nil, err
			}
			if err := impute(work, optimal[0]); err != nil {
				return nil, err
			}
			maxEU, err := work.ExpectedUtility(nil, nil, a)
			if err != nil {
				return nil, err
			}
			if maxEU > eu+s.tolerance {
				isNE = false
				break
			}
		}
		if isNE {
			equilibria = append(equilibria, pp)
		}
	}
	return equilibria, nil
}

// AllPureSPE returns every pure subgame-perfect equilibrium: backward
// induction over the condensed relevance graph, processed as an explicit
// worklist of partial profiles extended component by component in reverse
// topological order.
func (s *Searcher) AllPureSPE(d *macid.Diagram) ([]Profile, error) {
	rg, err := relevance.Build(d, nil)
	if err != nil {
		return nil, err
	}
	crg := rg.Condense()
	order := crg.TopologicalOrder()

	partials := []Profile{{}}
	for i := len(order) - 1; i >= 0; i-- {
		component := crg.Decisions(order[i])
		var extended []Profile
		for _, partial := range partials {
			work := d.Copy()
			if err := impute(work, partial); err != nil {
				return nil, err
			}
			equilibria, err := s.AllPureNEInSubgame(work, component)
			if err != nil {
				return nil, err
			}
			for _, ne := range equilibria {
				grown := make(Profile, 0, len(partial)+len(ne))
				grown = append(append(grown, partial...), ne...)
				extended = append(extended, grown)
			}
		}
		partials = extended
	}
	return partials, nil
}

// DecisionsPerMAIDSubgame maps every descendant-closed subset of the
// condensation's components back to its decision nodes: the legal subgames
// over which the equilibrium operations may be invoked.
func (s *Searcher) DecisionsPerMAIDSubgame(d *macid.Diagram) ([][]string, error) {
	rg, err := relevance.Build(d, nil)
	if err != nil {
		return nil, err
	}
	crg := rg.Condense()
	n := crg.Len()
	if n > 20 {
		return nil, fmt.Errorf("condensed relevance graph has %d components, 2^%d subsets: %w", n, n, ErrTooManyComponents)
	}

	var out [][]string
	for mask := 1; mask < 1<<n; mask++ {
		closed := true
		for id := 0; id < n && closed; id++ {
			if mask&(1<<id) == 0 {
				continue
			}
			for desc := range crg.Descendants(id) {
				if mask&(1<<desc) == 0 {
					closed = false
					break
				}
			}
		}
		if !closed {
			continue
		}
		var decs []string
		for id := 0; id < n; id++ {
			if mask&(1<<id) != 0 {
				decs = append(decs, crg.Decisions(id)...)
			}
		}
		out = append(out, decs)
	}
	return out, nil
}

func (s *Searcher) observe(subgameSize int, d time.Duration) {
	if s.obs == nil {
		return
	}
	s.obs.ObserveProfileEval(subgameSize, d)
}

// neutralizeIrrelevant imputes uniform-random rules to every unassigned
// decision that is not s-reachable from the subgame, so its arbitrary choice
// cannot affect payoff comparisons.
func neutralizeIrrelevant(work *macid.Diagram, decisions []string) error {
	for _, dec := range work.AllDecisionNodes() {
		cpd := work.CPD(dec)
		if cpd == nil || cpd.Kind() != macid.KindUnassigned {
			continue
		}
		reachable, err := work.IsSReachable(decisions, dec)
		if err != nil {
			return err
		}
		if !reachable {
			if err := work.ImputeRandomDecision(dec); err != nil {
				return err
			}
		}
	}
	return nil
}

func impute(d *macid.Diagram, p Profile) error {
	if len(p) == 0 {
		return nil
	}
	cpds := make([]macid.CPD, len(p))
	for i, r := range p {
		cpds[i] = r
	}
	stale, err := d.SetCPD(cpds...)
	if err != nil {
		return err
	}
	if len(stale) > 0 {
		return fmt.Errorf("imputing the profile left stale CPDs on %v", stale)
	}
	return nil
}
