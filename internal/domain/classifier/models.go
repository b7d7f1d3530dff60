package classifier

import (
	"context"

	"github.com/okian/personnel-insights/internal/domain/encoding"
)

// Linear is a multinomial linear model: the class with the highest
// intercept + w·x wins, ties going to the earlier class.
type Linear struct {
	name    string
	schema  *encoding.Schema
	classes []int
	params  LinearParams
}

// Name returns the artifact name.
func (m *Linear) Name() string { return m.name }

// Classify returns the winning class index for v.
func (m *Linear) Classify(_ context.Context, v encoding.Vector) (int, error) {
	if err := checkVector(m.schema, v); err != nil {
		return 0, err
	}
	best, bestScore := 0, 0.0
	for k, row := range m.params.Coefficients {
		score := m.params.Intercepts[k]
		for i, w := range row {
			score += w * v.Values[i]
		}
		if k == 0 || score > bestScore {
			best, bestScore = k, score
		}
	}
	return m.classes[best], nil
}

// Forest is a majority-vote tree ensemble. Ties go to the smallest class index.
type Forest struct {
	name   string
	schema *encoding.Schema
	trees  []Tree
}

// Name returns the artifact name.
func (m *Forest) Name() string { return m.name }

// Classify walks every tree and returns the most voted class.
func (m *Forest) Classify(_ context.Context, v encoding.Vector) (int, error) {
	if err := checkVector(m.schema, v); err != nil {
		return 0, err
	}
	votes := make(map[int]int, 4)
	for _, tree := range m.trees {
		votes[tree.walk(v.Values)]++
	}
	winner, most := 0, -1
	for class, n := range votes {
		if n > most || (n == most && class < winner) {
			winner, most = class, n
		}
	}
	return winner, nil
}

func (t Tree) walk(x []float64) int {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Class
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
