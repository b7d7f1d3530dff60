package classifier

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/okian/personnel-insights/internal/domain/encoding"
)

// Artifact kinds.
const (
	KindLinear = "linear"
	KindForest = "forest"
)

// Artifact is the persisted form of a trained classifier. It is YAML, and
// since YAML is a superset of JSON an exported JSON file loads as well.
//
//	name: leadership
//	schema_version: v1
//	features: [PersonnelID, Age, ...]
//	classes: [0, 1, 2]
//	kind: forest
//	forest:
//	  trees:
//	    - nodes:
//	        - {feature: 5, threshold: 3.5, left: 1, right: 2}
//	        - {leaf: true, class: 1}
//	        - {leaf: true, class: 0}
type Artifact struct {
	Name          string        `yaml:"name"`
	SchemaVersion string        `yaml:"schema_version"`
	Features      []string      `yaml:"features"`
	Classes       []int         `yaml:"classes"`
	Kind          string        `yaml:"kind"`
	Linear        *LinearParams `yaml:"linear,omitempty"`
	Forest        *ForestParams `yaml:"forest,omitempty"`
}

// LinearParams holds one intercept and one coefficient row per class.
type LinearParams struct {
	Intercepts   []float64   `yaml:"intercepts"`
	Coefficients [][]float64 `yaml:"coefficients"`
}

// ForestParams holds the trees of a voting ensemble.
type ForestParams struct {
	Trees []Tree `yaml:"trees"`
}

// Tree is a flat list of nodes; node 0 is the root.
type Tree struct {
	Nodes []Node `yaml:"nodes"`
}

// Node is either a split (x[Feature] <= Threshold goes Left, else Right) or a leaf.
type Node struct {
	Leaf      bool    `yaml:"leaf,omitempty"`
	Class     int     `yaml:"class,omitempty"`
	Feature   int     `yaml:"feature,omitempty"`
	Threshold float64 `yaml:"threshold,omitempty"`
	Left      int     `yaml:"left,omitempty"`
	Right     int     `yaml:"right,omitempty"`
}

// LoadFile reads and validates an artifact for the given schema.
func LoadFile(path string, schema *encoding.Schema) (Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadArtifact, err)
	}
	c, err := Parse(data, schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes artifact bytes and builds the classifier they describe.
func Parse(data []byte, schema *encoding.Schema) (Classifier, error) {
	var a Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadArtifact, err)
	}
	return Build(a, schema)
}

// Build validates a decoded artifact against schema and returns its classifier.
func Build(a Artifact, schema *encoding.Schema) (Classifier, error) {
	if err := schema.Matches(a.SchemaVersion, a.Features); err != nil {
		return nil, err
	}
	if len(a.Classes) == 0 {
		return nil, fmt.Errorf("%w: no classes declared", ErrInvalidArtifact)
	}
	name := a.Name
	if name == "" {
		name = schema.Model
	}

	switch a.Kind {
	case KindLinear:
		if err := a.validateLinear(); err != nil {
			return nil, err
		}
		return &Linear{name: name, schema: schema, classes: a.Classes, params: *a.Linear}, nil
	case KindForest:
		if err := a.validateForest(); err != nil {
			return nil, err
		}
		return &Forest{name: name, schema: schema, trees: a.Forest.Trees}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported kind %q", ErrInvalidArtifact, a.Kind)
	}
}

func (a *Artifact) validateLinear() error {
	p := a.Linear
	if p == nil {
		return fmt.Errorf("%w: linear kind without linear parameters", ErrInvalidArtifact)
	}
	if len(p.Intercepts) != len(a.Classes) || len(p.Coefficients) != len(a.Classes) {
		return fmt.Errorf("%w: %d classes but %d intercepts and %d coefficient rows",
			ErrInvalidArtifact, len(a.Classes), len(p.Intercepts), len(p.Coefficients))
	}
	for k, row := range p.Coefficients {
		if len(row) != len(a.Features) {
			return fmt.Errorf("%w: coefficient row %d has %d weights for %d features",
				ErrInvalidArtifact, k, len(row), len(a.Features))
		}
	}
	return nil
}

func (a *Artifact) validateForest() error {
	if a.Forest == nil || len(a.Forest.Trees) == 0 {
		return fmt.Errorf("%w: forest kind without trees", ErrInvalidArtifact)
	}
	for t, tree := range a.Forest.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrInvalidArtifact, t)
		}
		for i, n := range tree.Nodes {
			if n.Leaf {
				if !slices.Contains(a.Classes, n.Class) {
					return fmt.Errorf("%w: tree %d node %d votes for undeclared class %d",
						ErrInvalidArtifact, t, i, n.Class)
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= len(a.Features) {
				return fmt.Errorf("%w: tree %d node %d splits on feature %d of %d",
					ErrInvalidArtifact, t, i, n.Feature, len(a.Features))
			}
			// Children must come after their parent, so every walk terminates.
			for _, child := range []int{n.Left, n.Right} {
				if child <= i || child >= len(tree.Nodes) {
					return fmt.Errorf("%w: tree %d node %d has child %d out of range",
						ErrInvalidArtifact, t, i, child)
				}
			}
		}
	}
	return nil
}
