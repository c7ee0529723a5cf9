package macid

import (
	"fmt"
)

// Diagram is a multi-agent causal influence diagram: an acyclic directed
// graph over chance, decision and utility nodes, agent ownership for the
// decision and utility nodes, and a per-node CPD assignment.
//
// Structure mutations keep the graph acyclic and report which previously
// assigned CPDs became stale; stale CPDs fail fast on the next query instead
// of being recomputed silently.
type Diagram struct {
	nodes    []string
	present  map[string]bool
	parents  map[string][]string
	children map[string][]string

	agents    []string
	decisions map[string][]string
	utilities map[string][]string
	whose     map[string]string

	cpds  map[string]CPD
	stale map[string]bool

	inf Inferencer
}

// AgentNodes declares one agent's decision and utility nodes.
type AgentNodes struct {
	Agent     string
	Decisions []string
	Utilities []string
}

type Option func(*Diagram)

// WithInferencer attaches the inference oracle used by Query.
func WithInferencer(inf Inferencer) Option {
	return func(d *Diagram) { d.inf = inf }
}

// New builds a diagram from an edge list and per-agent node declarations.
// Every declared decision and utility node must appear in the edge list.
func New(edges [][2]string, owners []AgentNodes, opts ...Option) (*Diagram, error) {
	d := &Diagram{
		present:   map[string]bool{},
		parents:   map[string][]string{},
		children:  map[string][]string{},
		decisions: map[string][]string{},
		utilities: map[string][]string{},
		whose:     map[string]string{},
		cpds:      map[string]CPD{},
		stale:     map[string]bool{},
	}

	for _, e := range edges {
		if _, err := d.AddEdge(e[0], e[1]); err != nil {
			return nil, err
		}
	}

	for _, o := range owners {
		if o.Agent == "" {
			return nil, fmt.Errorf("agent identifier must not be empty")
		}
		if _, ok := d.decisions[o.Agent]; ok {
			return nil, fmt.Errorf("agent %q declared twice", o.Agent)
		}
		d.agents = append(d.agents, o.Agent)
		d.decisions[o.Agent] = nil
		d.utilities[o.Agent] = nil
		for _, n := range o.Decisions {
			if !d.present[n] {
				return nil, fmt.Errorf("decision node %q is not in the diagram", n)
			}
			if owner, ok := d.whose[n]; ok {
				return nil, fmt.Errorf("node %q already belongs to agent %q", n, owner)
			}
			d.decisions[o.Agent] = append(d.decisions[o.Agent], n)
			d.whose[n] = o.Agent
		}
		for _, n := range o.Utilities {
			if !d.present[n] {
				return nil, fmt.Errorf("utility node %q is not in the diagram", n)
			}
			if owner, ok := d.whose[n]; ok {
				return nil, fmt.Errorf("node %q already belongs to agent %q", n, owner)
			}
			d.utilities[o.Agent] = append(d.utilities[o.Agent], n)
			d.whose[n] = o.Agent
		}
	}

	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Diagram) addNode(n string) {
	if d.present[n] {
		return
	}
	d.present[n] = true
	d.nodes = append(d.nodes, n)
}

// AddEdge inserts u→v, creating missing endpoints as chance nodes. It fails
// if the edge would create a cycle. The returned slice lists nodes whose
// assigned CPDs no longer match their parent set; those must be reassigned
// before the next query.
func (d *Diagram) AddEdge(u, v string) ([]string, error) {
	if u == v {
		return nil, fmt.Errorf("self-loop %s->%s is not allowed", u, v)
	}
	d.addNode(u)
	d.addNode(v)
	for _, c := range d.children[u] {
		if c == v {
			return nil, fmt.Errorf("edge %s->%s already exists", u, v)
		}
	}
	if reach, err := d.Descendants(v); err != nil {
		return nil, err
	} else if reach[u] {
		return nil, fmt.Errorf("edge %s->%s would create a cycle", u, v)
	}
	d.children[u] = append(d.children[u], v)
	d.parents[v] = append(d.parents[v], u)
	return d.invalidate(v), nil
}

// RemoveEdge deletes u→v, reporting stale CPDs like AddEdge.
func (d *Diagram) RemoveEdge(u, v string) ([]string, error) {
	if !d.removeFrom(d.children, u, v) || !d.removeFrom(d.parents, v, u) {
		return nil, fmt.Errorf("edge %s->%s is not in the diagram", u, v)
	}
	return d.invalidate(v), nil
}

func (d *Diagram) removeFrom(adj map[string][]string, key, item string) bool {
	list := adj[key]
	for i, n := range list {
		if n == item {
			adj[key] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// invalidate marks v's CPD stale when its declared dependency set no longer
// matches the graph parents. Random and unassigned CPDs do not depend on
// their parents and stay valid.
func (d *Diagram) invalidate(v string) []string {
	cpd, ok := d.cpds[v]
	if !ok || cpd.Kind() != KindDeterministic {
		return nil
	}
	if sameSet(cpd.Dependencies(), d.parents[v]) {
		return nil
	}
	d.stale[v] = true
	return []string{v}
}

// Nodes returns all node identifiers in insertion order.
func (d *Diagram) Nodes() []string { return cloneStrings(d.nodes) }

func (d *Diagram) HasNode(n string) bool { return d.present[n] }

// Parents returns the direct parents of n in edge-insertion order.
func (d *Diagram) Parents(n string) []string { return cloneStrings(d.parents[n]) }

// Children returns the direct successors of n.
func (d *Diagram) Children(n string) []string { return cloneStrings(d.children[n]) }

// Agents returns the agent identifiers in declaration order.
func (d *Diagram) Agents() []string { return cloneStrings(d.agents) }

func (d *Diagram) HasAgent(a string) bool {
	_, ok := d.decisions[a]
	return ok
}

// DecisionNodes returns the given agent's decision nodes.
func (d *Diagram) DecisionNodes(agent string) ([]string, error) {
	if !d.HasAgent(agent) {
		return nil, fmt.Errorf("there is no agent %q in this diagram", agent)
	}
	return cloneStrings(d.decisions[agent]), nil
}

// UtilityNodes returns the given agent's utility nodes.
func (d *Diagram) UtilityNodes(agent string) ([]string, error) {
	if !d.HasAgent(agent) {
		return nil, fmt.Errorf("there is no agent %q in this diagram", agent)
	}
	return cloneStrings(d.utilities[agent]), nil
}

// AllDecisionNodes returns every decision node, grouped by agent declaration
// order.
func (d *Diagram) AllDecisionNodes() []string {
	var out []string
	for _, a := range d.agents {
		out = append(out, d.decisions[a]...)
	}
	return out
}

// AllUtilityNodes returns every utility node.
func (d *Diagram) AllUtilityNodes() []string {
	var out []string
	for _, a := range d.agents {
		out = append(out, d.utilities[a]...)
	}
	return out
}

// Whose returns the agent owning a decision or utility node.
func (d *Diagram) Whose(n string) (string, bool) {
	a, ok := d.whose[n]
	return a, ok
}

func (d *Diagram) IsDecision(n string) bool {
	for _, a := range d.agents {
		for _, dec := range d.decisions[a] {
			if dec == n {
				return true
			}
		}
	}
	return false
}

func (d *Diagram) IsUtility(n string) bool {
	for _, a := range d.agents {
		for _, u := range d.utilities[a] {
			if u == n {
				return true
			}
		}
	}
	return false
}

// MakeDecision turns a chance node into a decision node owned by the given
// agent, converting its current CPD into a bare decision domain. The node
// must already carry a CPD so its domain is known.
func (d *Diagram) MakeDecision(node, agent string) error {
	if !d.present[node] {
		return fmt.Errorf("node %q is not in the diagram", node)
	}
	if d.IsDecision(node) {
		return nil
	}
	cpd, ok := d.cpds[node]
	if !ok || cpd.Domain() == nil {
		return fmt.Errorf("node %q has not been assigned a domain yet", node)
	}
	if owner, owned := d.whose[node]; owned {
		return fmt.Errorf("node %q already belongs to agent %q", node, owner)
	}
	if !d.HasAgent(agent) {
		d.agents = append(d.agents, agent)
		d.decisions[agent] = nil
		d.utilities[agent] = nil
	}
	d.decisions[agent] = append(d.decisions[agent], node)
	d.whose[node] = agent
	d.cpds[node] = NewDecisionDomain(node, cpd.Domain())
	delete(d.stale, node)
	return nil
}

// MakeChance turns a decision node back into a chance node. Its CPD, if any,
// is kept.
func (d *Diagram) MakeChance(node string) error {
	if !d.present[node] {
		return fmt.Errorf("node %q is not in the diagram", node)
	}
	if !d.IsDecision(node) {
		return nil
	}
	agent := d.whose[node]
	d.removeFrom(d.decisions, agent, node)
	delete(d.whose, node)
	return nil
}

// CPD returns the distribution currently assigned to a node, or nil.
func (d *Diagram) CPD(n string) CPD { return d.cpds[n] }

// Stale returns the nodes whose CPDs were invalidated by structure edits and
// not yet reassigned.
func (d *Diagram) Stale() []string {
	var out []string
	for _, n := range d.nodes {
		if d.stale[n] {
			out = append(out, n)
		}
	}
	return out
}

// SetCPD assigns one or more CPDs. The batch is initialized in topological
// order, so a single call may list CPDs in any order. It fails if a variable
// is not in the diagram, if a decision-only CPD targets a non-decision node,
// or if a deterministic CPD's dependency set differs from the graph parents.
//
// The returned slice lists descendants whose already-assigned CPDs became
// stale because a variable's domain changed; they must be reassigned before
// the next query.
func (d *Diagram) SetCPD(cpds ...CPD) ([]string, error) {
	for _, c := range cpds {
		v := c.Variable()
		if !d.present[v] {
			return nil, fmt.Errorf("CPD variable %q is not in the diagram", v)
		}
		switch c.(type) {
		case *DecisionDomain, *DecisionRule:
			if !d.IsDecision(v) {
				return nil, fmt.Errorf("cannot assign a decision CPD to non-decision node %q", v)
			}
		}
		if c.Kind() == KindDeterministic && !sameSet(c.Dependencies(), d.parents[v]) {
			return nil, fmt.Errorf("CPD dependencies %v of %q don't match graph parents %v",
				c.Dependencies(), v, d.parents[v])
		}
	}

	order, err := d.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	pos := make(map[string]int, len(order))
	for i, n := range order {
		pos[n] = i
	}
	batch := make([]CPD, len(cpds))
	for i, c := range cpds {
		batch[i] = c.Copy()
	}
	sortCPDsByPosition(batch, pos)

	inBatch := make(map[string]bool, len(batch))
	for _, c := range batch {
		inBatch[c.Variable()] = true
	}

	var stale []string
	for _, c := range batch {
		v := c.Variable()
		if fc, ok := c.(*FunctionCPD); ok && fc.domain == nil {
			if err := d.deriveDomain(fc); err != nil {
				return nil, err
			}
		}
		if prev, ok := d.cpds[v]; ok && !domainsEqual(prev.Domain(), c.Domain()) {
			desc, err := d.Descendants(v)
			if err != nil {
				return nil, err
			}
			for _, n := range order {
				if desc[n] && d.cpds[n] != nil && !inBatch[n] && !d.stale[n] {
					d.stale[n] = true
					stale = append(stale, n)
				}
			}
		}
		d.cpds[v] = c
		delete(d.stale, v)
	}
	return stale, nil
}

// deriveDomain enumerates the parent assignments of a function CPD and
// collects its possible outputs, matching the original's derived state
// names. All parents must already carry a domain.
func (d *Diagram) deriveDomain(fc *FunctionCPD) error {
	parentDomains, err := d.parentDomains(fc.variable)
	if err != nil {
		return fmt.Errorf("cannot derive domain of %q: %w", fc.variable, err)
	}
	var domain []any
	var evalErr error
	enumerateAssignments(fc.parents, parentDomains, func(assignment map[string]any) {
		if evalErr != nil {
			return
		}
		v, err := fc.fn(assignment)
		if err != nil {
			evalErr = fmt.Errorf("cannot derive domain of %q: %w", fc.variable, err)
			return
		}
		if valueIndex(domain, v) < 0 {
			domain = append(domain, v)
		}
	})
	if evalErr != nil {
		return evalErr
	}
	sortDomain(domain)
	fc.domain = domain
	return nil
}

func (d *Diagram) parentDomains(v string) ([][]any, error) {
	parents := d.parents[v]
	domains := make([][]any, len(parents))
	for i, p := range parents {
		cpd := d.cpds[p]
		if cpd == nil || cpd.Domain() == nil {
			return nil, fmt.Errorf("parent %q has no domain yet; assign CPDs in dependency order", p)
		}
		domains[i] = cpd.Domain()
	}
	return domains, nil
}

// Copy deep-copies the diagram including assigned CPDs.
func (d *Diagram) Copy() *Diagram {
	n := d.CopyWithoutPolicies()
	for v, c := range d.cpds {
		n.cpds[v] = c.Copy()
	}
	for v := range d.stale {
		n.stale[v] = true
	}
	return n
}

// CopyWithoutPolicies deep-copies the structure and ownership only.
func (d *Diagram) CopyWithoutPolicies() *Diagram {
	n := &Diagram{
		nodes:     cloneStrings(d.nodes),
		present:   map[string]bool{},
		parents:   map[string][]string{},
		children:  map[string][]string{},
		agents:    cloneStrings(d.agents),
		decisions: map[string][]string{},
		utilities: map[string][]string{},
		whose:     map[string]string{},
		cpds:      map[string]CPD{},
		stale:     map[string]bool{},
		inf:       d.inf,
	}
	for k := range d.present {
		n.present[k] = true
	}
	for k, v := range d.parents {
		n.parents[k] = cloneStrings(v)
	}
	for k, v := range d.children {
		n.children[k] = cloneStrings(v)
	}
	for k, v := range d.decisions {
		n.decisions[k] = cloneStrings(v)
	}
	for k, v := range d.utilities {
		n.utilities[k] = cloneStrings(v)
	}
	for k, v := range d.whose {
		n.whose[k] = v
	}
	return n
}

// SetInferencer swaps the inference oracle.
func (d *Diagram) SetInferencer(inf Inferencer) { d.inf = inf }

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if !set[s] {
			return false
		}
	}
	return true
}

func domainsEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valueEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sortCPDsByPosition(cpds []CPD, pos map[string]int) {
	for i := 1; i < len(cpds); i++ {
		for j := i; j > 0 && pos[cpds[j].Variable()] < pos[cpds[j-1].Variable()]; j-- {
			cpds[j], cpds[j-1] = cpds[j-1], cpds[j]
		}
	}
}
