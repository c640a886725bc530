package similarity

import (
	"fmt"
	"math"

	"github.com/botirk38/semanticmap/types"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultIDColumn is the name of the label column in labelled output.
const DefaultIDColumn = "id"

// Matrix is a dense items-by-targets similarity table with row and column labels.
type Matrix struct {
	IDColumn  string
	RowLabels []string
	ColLabels []string
	data      *mat.Dense
}

// MatrixOption configures NewMatrix.
type MatrixOption func(*matrixConfig)

type matrixConfig struct {
	rowLabels []string
	colLabels []string
	norm01    bool
	idColumn  string
}

// WithRowLabels overrides the item labels. Length must equal the item count.
func WithRowLabels(labels []string) MatrixOption {
	return func(c *matrixConfig) {
		c.rowLabels = labels
	}
}

// WithColLabels overrides the target labels. Length must equal the target count.
func WithColLabels(labels []string) MatrixOption {
	return func(c *matrixConfig) {
		c.colLabels = labels
	}
}

// WithNorm01 min-max rescales the finished matrix to [0, 1].
func WithNorm01() MatrixOption {
	return func(c *matrixConfig) {
		c.norm01 = true
	}
}

// WithIDColumn names the label column of the labelled output.
func WithIDColumn(name string) MatrixOption {
	return func(c *matrixConfig) {
		if name != "" {
			c.idColumn = name
		}
	}
}

// NewMatrix computes the cosine similarity of every item vector against every target vector.
func NewMatrix(items, targets types.EmbeddingSet, opts ...MatrixOption) (*Matrix, error) {
	cfg := matrixConfig{idColumn: DefaultIDColumn}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := items.Validate(); err != nil {
		return nil, fmt.Errorf("items: %w", err)
	}
	if err := targets.Validate(); err != nil {
		return nil, fmt.Errorf("targets: %w", err)
	}
	if items.Dim() != targets.Dim() {
		return nil, fmt.Errorf("%w: items have %d dimensions, targets have %d",
			types.ErrDimensionMismatch, items.Dim(), targets.Dim())
	}

	rowLabels, err := resolveLabels(cfg.rowLabels, items.LabelsOrPositions(), items.Len(), "row")
	if err != nil {
		return nil, err
	}
	colLabels, err := resolveLabels(cfg.colLabels, targets.LabelsOrPositions(), targets.Len(), "column")
	if err != nil {
		return nil, err
	}

	x := normalizedRows(items.Vectors)
	y := normalizedRows(targets.Vectors)

	var sim mat.Dense
	sim.Mul(x, y.T())
	sim.Apply(func(_, _ int, v float64) float64 { return clamp(v) }, &sim)

	m := &Matrix{
		IDColumn:  cfg.idColumn,
		RowLabels: rowLabels,
		ColLabels: colLabels,
		data:      &sim,
	}
	if cfg.norm01 {
		m = m.Rescaled01()
	}
	return m, nil
}

// FromRows wraps a precomputed similarity table. Nil labels fall back to 1-based positions.
func FromRows(rows [][]float64, rowLabels, colLabels []string) (*Matrix, error) {
	set := types.EmbeddingSet{Vectors: rows}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	r, c := len(rows), len(rows[0])

	rl, err := resolveLabels(rowLabels, types.Positions(r), r, "row")
	if err != nil {
		return nil, err
	}
	cl, err := resolveLabels(colLabels, types.Positions(c), c, "column")
	if err != nil {
		return nil, err
	}

	data := mat.NewDense(r, c, nil)
	for i, row := range rows {
		data.SetRow(i, row)
	}
	return &Matrix{IDColumn: DefaultIDColumn, RowLabels: rl, ColLabels: cl, data: data}, nil
}

// resolveLabels prefers the caller override, checking its length against n.
func resolveLabels(override, fallback []string, n int, axis string) ([]string, error) {
	if override == nil {
		return fallback, nil
	}
	if len(override) != n {
		return nil, fmt.Errorf("%w: %d %s labels for %d %ss", types.ErrLabelLength, len(override), axis, n, axis)
	}
	return override, nil
}

// normalizedRows copies vectors into a dense matrix with unit-length rows.
// Zero-norm rows stay zero.
func normalizedRows(vectors [][]float64) *mat.Dense {
	d := mat.NewDense(len(vectors), len(vectors[0]), nil)
	for i, v := range vectors {
		row := d.RawRowView(i)
		copy(row, v)
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
	}
	return d
}

// Dims returns the item and target counts.
func (m *Matrix) Dims() (int, int) {
	return m.data.Dims()
}

// At returns the similarity of item i to target j.
func (m *Matrix) At(i, j int) float64 {
	return m.data.At(i, j)
}

// Row returns item i's similarity profile. The slice aliases the matrix storage
// and must not be modified.
func (m *Matrix) Row(i int) []float64 {
	return m.data.RawRowView(i)
}

// Col returns a copy of target j's similarities across items.
func (m *Matrix) Col(j int) []float64 {
	return mat.Col(nil, j, m.data)
}

// Dense exposes the values as a read-only gonum matrix.
func (m *Matrix) Dense() mat.Matrix {
	return m.data
}

// Header returns the labelled-table column names: the ID column then the target labels.
func (m *Matrix) Header() []string {
	header := make([]string, 0, len(m.ColLabels)+1)
	header = append(header, m.IDColumn)
	return append(header, m.ColLabels...)
}

// Rescaled01 returns a copy min-max rescaled to [0, 1]. A constant matrix maps to all zeros.
func (m *Matrix) Rescaled01() *Matrix {
	lo, hi := mat.Min(m.data), mat.Max(m.data)
	span := hi - lo

	out := mat.DenseCopyOf(m.data)
	out.Apply(func(_, _ int, v float64) float64 {
		if span == 0 || math.IsInf(span, 0) {
			return 0
		}
		return (v - lo) / span
	}, out)

	return &Matrix{
		IDColumn:  m.IDColumn,
		RowLabels: m.RowLabels,
		ColLabels: m.ColLabels,
		data:      out,
	}
}
