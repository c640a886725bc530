// Package profile computes shape statistics of item similarity profiles:
// Hoffman complexity, Hoyer sparsity and within-row dispersion.
package profile

import (
	"fmt"
	"math"
	"runtime"

	"github.com/botirk38/semanticmap/similarity"
	"github.com/botirk38/semanticmap/types"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Column names for the statistics when attached to a labelled table.
const (
	ColumnComplexity = "complexity"
	ColumnSparsity   = "sparsity"
	ColumnStdDev     = "sd"
)

// Stats holds the shape descriptors of one similarity profile.
// Missing values are NaN.
type Stats struct {
	Complexity float64
	Sparsity   float64
	StdDev     float64
}

// Profiles holds per-row statistics for a similarity matrix, in row order.
type Profiles struct {
	Labels   []string
	Stats    []Stats
	Warnings []types.Warning
}

// Columns returns the names of the statistic columns in output order.
func (p *Profiles) Columns() []string {
	return []string{ColumnComplexity, ColumnSparsity, ColumnStdDev}
}

// Values returns the statistics of row i in Columns order.
func (p *Profiles) Values(i int) []float64 {
	s := p.Stats[i]
	return []float64{s.Complexity, s.Sparsity, s.StdDev}
}

// Sparsity returns the Hoyer sparsity of x: 0 for a uniform profile, 1 for a single
// non-zero entry. Zero-norm and single-element profiles yield 0.
func Sparsity(x []float64) float64 {
	n := len(x)
	if n < 2 {
		return 0
	}
	l2 := floats.Norm(x, 2)
	if l2 == 0 {
		return 0
	}
	sqrtN := math.Sqrt(float64(n))
	s := (sqrtN - floats.Norm(x, 1)/l2) / (sqrtN - 1)
	return math.Max(0, math.Min(1, s))
}

// Complexity returns the Hoffman complexity (Σx²)² / Σx⁴, in [1, len(x)].
// Returns NaN when Σx⁴ is zero.
func Complexity(x []float64) float64 {
	var sum2, sum4 float64
	for _, v := range x {
		sq := v * v
		sum2 += sq
		sum4 += sq * sq
	}
	if sum4 == 0 {
		return math.NaN()
	}
	return sum2 * sum2 / sum4
}

// StdDev returns the sample standard deviation of x, or NaN when len(x) < 2.
func StdDev(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.StdDev(x, nil)
}

// Compute returns all three statistics for x.
func Compute(x []float64) Stats {
	return Stats{
		Complexity: Complexity(x),
		Sparsity:   Sparsity(x),
		StdDev:     StdDev(x),
	}
}

// ComputeMatrix computes statistics for every row of m. Rows are processed in
// parallel; degenerate rows produce missing values and warnings, never an error.
func ComputeMatrix(m *similarity.Matrix) *Profiles {
	rows, _ := m.Dims()
	stats := make([]Stats, rows)
	rowWarnings := make([][]types.Warning, rows)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < rows; i++ {
		g.Go(func() error {
			row := m.Row(i)
			stats[i] = Compute(row)
			rowWarnings[i] = degeneracies(i, row, stats[i])
			return nil
		})
	}
	_ = g.Wait()

	var warnings []types.Warning
	for _, w := range rowWarnings {
		warnings = append(warnings, w...)
	}

	return &Profiles{
		Labels:   m.RowLabels,
		Stats:    stats,
		Warnings: warnings,
	}
}

func degeneracies(row int, x []float64, s Stats) []types.Warning {
	var warnings []types.Warning
	if len(x) < 2 {
		warnings = append(warnings, types.Warning{
			Kind:    types.WarnShortProfile,
			Row:     row,
			Col:     -1,
			Message: fmt.Sprintf("profile has %d value(s); sparsity set to 0, sd missing", len(x)),
		})
	} else if floats.Norm(x, 2) == 0 {
		warnings = append(warnings, types.Warning{
			Kind: types.WarnZeroNorm, Row: row, Col: -1, Message: "all-zero profile; sparsity set to 0",
		})
	}
	if types.IsMissing(s.Complexity) {
		warnings = append(warnings, types.Warning{
			Kind: types.WarnZeroComplexity, Row: row, Col: -1, Message: "sum of fourth powers is zero; complexity missing",
		})
	}
	return warnings
}
