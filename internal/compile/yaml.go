package compile

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/causalgo/macid/internal/macid"
)

// YAML compiles diagrams from YAML sources:
//
//	name: five-node
//	edges:
//	  - [S1, D]
//	  - [S1, U1]
//	  - [D, U1]
//	nodes:
//	  S1: {cpd: uniform, domain: [0, 1]}
//	  D:  {kind: decision, agent: "1", domain: [0, 1]}
//	  U1: {kind: utility, agent: "1", cpd: "S1 == D ? 1 : 0"}
type YAML struct {
	inf macid.Inferencer
}

func NewYAML(inf macid.Inferencer) *YAML { return &YAML{inf: inf} }

type yamlSpec struct {
	Name  string              `yaml:"name"`
	Edges [][]string          `yaml:"edges"`
	Nodes map[string]yamlNode `yaml:"nodes"`
}

type yamlNode struct {
	Kind   string `yaml:"kind"`
	Agent  string `yaml:"agent"`
	Domain []any  `yaml:"domain"`
	CPD    string `yaml:"cpd"`
}

func (c *YAML) Compile(src string) (*macid.Diagram, error) {
	var raw yamlSpec
	if err := yaml.Unmarshal([]byte(src), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	spec := &DiagramSpec{
		Name:  raw.Name,
		Nodes: map[string]NodeSpec{},
	}
	for i, e := range raw.Edges {
		if len(e) != 2 {
			return nil, fmt.Errorf("edge %d must be a [from, to] pair, got %v", i, e)
		}
		spec.Edges = append(spec.Edges, [2]string{e[0], e[1]})
	}
	for name, n := range raw.Nodes {
		spec.Nodes[name] = NodeSpec{
			Kind:   n.Kind,
			Agent:  n.Agent,
			Domain: n.Domain,
			CPD:    n.CPD,
		}
	}

	return spec.Build(c.inf)
}
