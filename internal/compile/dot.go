package compile

import (
	"fmt"
	"strings"

	"github.com/awalterschulze/gographviz"

	"github.com/causalgo/macid/internal/macid"
)

// DOT compiles diagrams from Graphviz digraph sources. Node attributes carry
// the MACID metadata:
//
//	digraph FiveNode {
//	    S1 [kind="chance", cpd="uniform", domain="0,1"]
//	    D  [kind="decision", agent="1", domain="0,1"]
//	    U1 [kind="utility", agent="1", cpd="S1 == D ? 1 : 0"]
//	    S1 -> D
//	    S1 -> U1
//	    D -> U1
//	}
//
// Edges are read in text order so parent order (and with it decision-rule
// context order) is reproducible from the source.
type DOT struct {
	inf macid.Inferencer
}

func NewDOT(inf macid.Inferencer) *DOT { return &DOT{inf: inf} }

func (c *DOT) Compile(src string) (*macid.Diagram, error) {
	ast, err := gographviz.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DOT: %w", err)
	}

	g := gographviz.NewGraph()
	if err := gographviz.Analyse(ast, g); err != nil {
		return nil, fmt.Errorf("failed to analyze DOT: %w", err)
	}

	spec := &DiagramSpec{
		Name:  g.Name,
		Nodes: map[string]NodeSpec{},
	}

	for _, n := range g.Nodes.Nodes {
		ns := NodeSpec{
			Kind:  getAttr(n.Attrs, "kind"),
			Agent: getAttr(n.Attrs, "agent"),
			CPD:   getAttr(n.Attrs, "cpd"),
		}
		if raw := getAttr(n.Attrs, "domain"); raw != "" {
			domain, err := parseDomain(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid domain on node %q: %w", n.Name, err)
			}
			ns.Domain = domain
		}
		if ns.Kind == "" && ns.Agent == "" && ns.CPD == "" && ns.Domain == nil {
			continue
		}
		spec.Nodes[n.Name] = ns
	}

	edges, err := extractEdgesInTextOrder(src)
	if err != nil {
		return nil, fmt.Errorf("failed to extract edge order from DOT: %w", err)
	}
	knownNode := map[string]bool{}
	for _, n := range g.Nodes.Nodes {
		knownNode[n.Name] = true
	}
	for _, e := range edges {
		if !knownNode[e.From] {
			return nil, fmt.Errorf("edge references unknown source node %q", e.From)
		}
		if !knownNode[e.To] {
			return nil, fmt.Errorf("edge references unknown destination node %q", e.To)
		}
		spec.Edges = append(spec.Edges, [2]string{e.From, e.To})
	}

	return spec.Build(c.inf)
}

// getAttr reads a Graphviz attribute, stripping the surrounding quotes.
func getAttr(attrs gographviz.Attrs, key string) string {
	val, ok := attrs[gographviz.Attr(key)]
	if !ok {
		return ""
	}

	val = strings.TrimSpace(val)

	if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
		val = val[1 : len(val)-1]
	}

	return val
}
