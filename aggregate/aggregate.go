// Package aggregate averages item-by-target similarities into group-by-group means
// on the Fisher-z scale and ranks the best matching target groups.
package aggregate

import (
	"errors"
	"fmt"
	"math"

	"github.com/botirk38/semanticmap/similarity"
	"github.com/botirk38/semanticmap/types"
	"gonum.org/v1/gonum/mat"
)

// BoundaryPolicy decides what happens to similarities of ±1 (or beyond), whose
// Fisher-z value is infinite.
type BoundaryPolicy int

const (
	// ExcludeBoundary drops boundary cells from the group mean.
	ExcludeBoundary BoundaryPolicy = iota
	// ClampBoundary clamps boundary cells to ±(1 - epsilon).
	ClampBoundary
)

// DefaultEpsilon is the clamp margin used by WithClamp when eps <= 0.
const DefaultEpsilon = 1e-6

// ErrInvalidEpsilon indicates a clamp margin outside (0, 1)
var ErrInvalidEpsilon = errors.New("clamp epsilon must be in (0, 1)")

// Option configures Aggregate.
type Option func(*config) error

type config struct {
	policy  BoundaryPolicy
	epsilon float64
}

// WithClamp switches boundary handling to clamping at ±(1 - eps).
func WithClamp(eps float64) Option {
	return func(c *config) error {
		if eps <= 0 {
			eps = DefaultEpsilon
		}
		if eps >= 1 {
			return ErrInvalidEpsilon
		}
		c.policy = ClampBoundary
		c.epsilon = eps
		return nil
	}
}

// WithExclude restores the default boundary handling.
func WithExclude() Option {
	return func(c *config) error {
		c.policy = ExcludeBoundary
		return nil
	}
}

// Result holds the group-level means and match rankings.
type Result struct {
	ItemGroups   []string
	TargetGroups []string
	// Means is [len(ItemGroups) x len(TargetGroups)] on correlation scale; NaN is missing.
	Means *mat.Dense
	// Counts holds the number of cells that contributed to each mean.
	Counts       [][]int
	BestByTarget []ColumnBest
	Matches      []RowMatch
	Warnings     []types.Warning

	itemIndex   map[string]int
	targetIndex map[string]int
}

// Mean returns the mean similarity of an item group to a target group.
// ok is false for unknown groups or a missing mean.
func (r *Result) Mean(itemGroup, targetGroup string) (float64, bool) {
	i, ok := r.itemIndex[itemGroup]
	if !ok {
		return math.NaN(), false
	}
	j, ok := r.targetIndex[targetGroup]
	if !ok {
		return math.NaN(), false
	}
	v := r.Means.At(i, j)
	return v, !types.IsMissing(v)
}

// BestItemGroup returns the item group with the highest mean for targetGroup.
func (r *Result) BestItemGroup(targetGroup string) (string, bool) {
	j, ok := r.targetIndex[targetGroup]
	if !ok {
		return "", false
	}
	best := r.BestByTarget[j]
	return best.ItemGroup, !types.IsMissing(best.Score)
}

// Aggregate computes, for every (item group, target group) pair, the Fisher-z mean
// of the similarities of member items to member targets, then ranks the results.
func Aggregate(m *similarity.Matrix, itemGroups, targetGroups []string, opts ...Option) (*Result, error) {
	cfg := config{policy: ExcludeBoundary, epsilon: DefaultEpsilon}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	rows, cols := m.Dims()
	if len(itemGroups) != rows {
		return nil, fmt.Errorf("%w: %d item groups for %d rows", types.ErrLabelLength, len(itemGroups), rows)
	}
	if len(targetGroups) != cols {
		return nil, fmt.Errorf("%w: %d target groups for %d columns", types.ErrLabelLength, len(targetGroups), cols)
	}

	itemNames, itemOf := groupIndex(itemGroups)
	targetNames, targetOf := groupIndex(targetGroups)
	nItem, nTarget := len(itemNames), len(targetNames)

	sums := mat.NewDense(nItem, nTarget, nil)
	counts := make([][]int, nItem)
	for g := range counts {
		counts[g] = make([]int, nTarget)
	}

	var warnings []types.Warning
	for i := 0; i < rows; i++ {
		g := itemOf[i]
		row := m.Row(i)
		for j, r := range row {
			if types.IsMissing(r) {
				continue
			}
			if math.Abs(r) >= 1 {
				w := types.Warning{Kind: types.WarnBoundaryValue, Row: i, Col: j}
				if cfg.policy == ExcludeBoundary {
					w.Message = fmt.Sprintf("similarity %g excluded from group mean", r)
					warnings = append(warnings, w)
					continue
				}
				w.Message = fmt.Sprintf("similarity %g clamped to ±%g", r, 1-cfg.epsilon)
				warnings = append(warnings, w)
				r = math.Copysign(1-cfg.epsilon, r)
			}
			t := targetOf[j]
			sums.Set(g, t, sums.At(g, t)+FisherZ(r))
			counts[g][t]++
		}
	}

	means := mat.NewDense(nItem, nTarget, nil)
	for g := 0; g < nItem; g++ {
		for t := 0; t < nTarget; t++ {
			n := counts[g][t]
			if n == 0 {
				means.Set(g, t, math.NaN())
				warnings = append(warnings, types.Warning{
					Kind:    types.WarnEmptyGroup,
					Row:     g,
					Col:     t,
					Message: fmt.Sprintf("no similarities for item group %q and target group %q", itemNames[g], targetNames[t]),
				})
				continue
			}
			means.Set(g, t, InverseFisherZ(sums.At(g, t)/float64(n)))
		}
	}

	best, err := BestByColumn(means, itemNames, targetNames)
	if err != nil {
		return nil, err
	}
	matches, err := MatchesByRow(means, itemNames, targetNames)
	if err != nil {
		return nil, err
	}

	return &Result{
		ItemGroups:   itemNames,
		TargetGroups: targetNames,
		Means:        means,
		Counts:       counts,
		BestByTarget: best,
		Matches:      matches,
		Warnings:     warnings,
		itemIndex:    indexOf(itemNames),
		targetIndex:  indexOf(targetNames),
	}, nil
}

// groupIndex returns the distinct labels in first-occurrence order and the
// group index of every position.
func groupIndex(labels []string) ([]string, []int) {
	seen := make(map[string]int)
	var names []string
	of := make([]int, len(labels))
	for i, l := range labels {
		g, ok := seen[l]
		if !ok {
			g = len(names)
			seen[l] = g
			names = append(names, l)
		}
		of[i] = g
	}
	return names, of
}

func indexOf(names []string) map[string]int {
	idx := make(map[string]int, len(names))
	for i, n := range names {
		idx[n] = i
	}
	return idx
}
