package similarity

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/botirk38/semanticmap/types"
)

func oneHot3() types.EmbeddingSet {
	return types.EmbeddingSet{Vectors: [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}}
}

func TestNewMatrix_Identity(t *testing.T) {
	m, err := NewMatrix(oneHot3(), oneHot3())
	if err != nil {
		t.Fatalf("NewMatrix failed: %v", err)
	}

	r, c := m.Dims()
	if r != 3 || c != 3 {
		t.Fatalf("Expected 3x3, got %dx%d", r, c)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			if math.Abs(m.At(i, j)-want) > 1e-12 {
				t.Errorf("At(%d,%d) = %f, want %f", i, j, m.At(i, j), want)
			}
		}
	}
}

func TestNewMatrix_MatchesPairwiseCosine(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	items := randomSet(rng, 5, 8)
	targets := randomSet(rng, 4, 8)

	m, err := NewMatrix(items, targets)
	if err != nil {
		t.Fatalf("NewMatrix failed: %v", err)
	}

	for i, x := range items.Vectors {
		for j, y := range targets.Vectors {
			want := CosineSimilarity(x, y)
			if math.Abs(m.At(i, j)-want) > 1e-9 {
				t.Errorf("At(%d,%d) = %f, want %f", i, j, m.At(i, j), want)
			}
		}
	}
}

func TestNewMatrix_Labels(t *testing.T) {
	t.Run("PositionalFallback", func(t *testing.T) {
		m, err := NewMatrix(oneHot3(), oneHot3())
		if err != nil {
			t.Fatalf("NewMatrix failed: %v", err)
		}
		want := []string{"id", "1", "2", "3"}
		assertStrings(t, m.Header(), want)
		assertStrings(t, m.RowLabels, []string{"1", "2", "3"})
	})

	t.Run("SetLabels", func(t *testing.T) {
		items := oneHot3()
		items.Labels = []string{"a", "b", "c"}
		targets := oneHot3()
		targets.Labels = []string{"x", "y", "z"}

		m, err := NewMatrix(items, targets, WithIDColumn("item"))
		if err != nil {
			t.Fatalf("NewMatrix failed: %v", err)
		}
		assertStrings(t, m.Header(), []string{"item", "x", "y", "z"})
		assertStrings(t, m.RowLabels, []string{"a", "b", "c"})
	})

	t.Run("Overrides", func(t *testing.T) {
		items := oneHot3()
		items.Labels = []string{"a", "b", "c"}

		m, err := NewMatrix(items, oneHot3(),
			WithRowLabels([]string{"r1", "r2", "r3"}),
			WithColLabels([]string{"c1", "c2", "c3"}),
		)
		if err != nil {
			t.Fatalf("NewMatrix failed: %v", err)
		}
		assertStrings(t, m.RowLabels, []string{"r1", "r2", "r3"})
		assertStrings(t, m.ColLabels, []string{"c1", "c2", "c3"})
	})

	t.Run("OverrideLengthMismatch", func(t *testing.T) {
		_, err := NewMatrix(oneHot3(), oneHot3(), WithColLabels([]string{"only"}))
		if !errors.Is(err, types.ErrLabelLength) {
			t.Errorf("Expected ErrLabelLength, got %v", err)
		}
	})

	t.Run("SetLabelLengthMismatch", func(t *testing.T) {
		items := oneHot3()
		items.Labels = []string{"a"}
		_, err := NewMatrix(items, oneHot3())
		if !errors.Is(err, types.ErrLabelLength) {
			t.Errorf("Expected ErrLabelLength, got %v", err)
		}
	})
}

func TestNewMatrix_Errors(t *testing.T) {
	tests := []struct {
		name    string
		items   types.EmbeddingSet
		targets types.EmbeddingSet
		wantErr error
	}{
		{
			name:    "dimension mismatch",
			items:   oneHot3(),
			targets: types.EmbeddingSet{Vectors: [][]float64{{1, 0}}},
			wantErr: types.ErrDimensionMismatch,
		},
		{
			name:    "NaN in items",
			items:   types.EmbeddingSet{Vectors: [][]float64{{1, math.NaN(), 0}}},
			targets: oneHot3(),
			wantErr: types.ErrInvalidInput,
		},
		{
			name:    "Inf in targets",
			items:   oneHot3(),
			targets: types.EmbeddingSet{Vectors: [][]float64{{math.Inf(1), 0, 0}}},
			wantErr: types.ErrInvalidInput,
		},
		{
			name:    "ragged rows",
			items:   types.EmbeddingSet{Vectors: [][]float64{{1, 0, 0}, {1, 0}}},
			targets: oneHot3(),
			wantErr: types.ErrInvalidInput,
		},
		{
			name:    "empty set",
			items:   types.EmbeddingSet{},
			targets: oneHot3(),
			wantErr: types.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMatrix(tt.items, tt.targets)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewMatrix() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewMatrix_ZeroVectorGivesZero(t *testing.T) {
	items := types.EmbeddingSet{Vectors: [][]float64{{0, 0, 0}, {1, 1, 0}}}
	m, err := NewMatrix(items, oneHot3())
	if err != nil {
		t.Fatalf("NewMatrix failed: %v", err)
	}
	for j := 0; j < 3; j++ {
		if m.At(0, j) != 0 {
			t.Errorf("Expected 0 for zero vector at column %d, got %f", j, m.At(0, j))
		}
	}
}

func TestNewMatrix_PermutationInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	items := randomSet(rng, 4, 6)
	items.Labels = []string{"a", "b", "c", "d"}
	targets := randomSet(rng, 3, 6)
	targets.Labels = []string{"x", "y", "z"}

	base, err := NewMatrix(items, targets)
	if err != nil {
		t.Fatalf("NewMatrix failed: %v", err)
	}

	rowPerm := []int{2, 0, 3, 1}
	colPerm := []int{1, 2, 0}
	permuted := types.EmbeddingSet{}
	for _, p := range rowPerm {
		permuted.Vectors = append(permuted.Vectors, items.Vectors[p])
		permuted.Labels = append(permuted.Labels, items.Labels[p])
	}
	permutedTargets := types.EmbeddingSet{}
	for _, p := range colPerm {
		permutedTargets.Vectors = append(permutedTargets.Vectors, targets.Vectors[p])
		permutedTargets.Labels = append(permutedTargets.Labels, targets.Labels[p])
	}

	m, err := NewMatrix(permuted, permutedTargets)
	if err != nil {
		t.Fatalf("NewMatrix failed: %v", err)
	}

	for i, pi := range rowPerm {
		if m.RowLabels[i] != items.Labels[pi] {
			t.Errorf("row %d label = %s, want %s", i, m.RowLabels[i], items.Labels[pi])
		}
		for j, pj := range colPerm {
			if math.Abs(m.At(i, j)-base.At(pi, pj)) > 1e-12 {
				t.Errorf("At(%d,%d) = %f, want %f", i, j, m.At(i, j), base.At(pi, pj))
			}
		}
	}
}

func TestRescaled01(t *testing.T) {
	t.Run("NonConstant", func(t *testing.T) {
		rng := rand.New(rand.NewSource(3))
		m, err := NewMatrix(randomSet(rng, 6, 5), randomSet(rng, 4, 5), WithNorm01())
		if err != nil {
			t.Fatalf("NewMatrix failed: %v", err)
		}

		lo, hi := math.Inf(1), math.Inf(-1)
		r, c := m.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				lo = math.Min(lo, m.At(i, j))
				hi = math.Max(hi, m.At(i, j))
			}
		}
		if lo != 0 {
			t.Errorf("Expected min 0, got %f", lo)
		}
		if math.Abs(hi-1) > 1e-12 {
			t.Errorf("Expected max 1, got %f", hi)
		}
	})

	t.Run("Constant", func(t *testing.T) {
		m, err := FromRows([][]float64{{0.4, 0.4}, {0.4, 0.4}}, nil, nil)
		if err != nil {
			t.Fatalf("FromRows failed: %v", err)
		}
		scaled := m.Rescaled01()
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				if scaled.At(i, j) != 0 {
					t.Errorf("Expected 0 for constant matrix, got %f", scaled.At(i, j))
				}
			}
		}
		// original untouched
		if m.At(0, 0) != 0.4 {
			t.Errorf("Rescaled01 modified the receiver: %f", m.At(0, 0))
		}
	})
}

func TestMatrix_RowIsView(t *testing.T) {
	m, err := FromRows([][]float64{{0.1, 0.2}, {0.3, 0.4}}, []string{"a", "b"}, []string{"x", "y"})
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}
	row := m.Row(1)
	if len(row) != 2 || row[0] != 0.3 || row[1] != 0.4 {
		t.Errorf("Row(1) = %v", row)
	}
	col := m.Col(1)
	if col[0] != 0.2 || col[1] != 0.4 {
		t.Errorf("Col(1) = %v", col)
	}
}

func TestFromRows_LabelMismatch(t *testing.T) {
	_, err := FromRows([][]float64{{0.1, 0.2}}, []string{"a", "b"}, nil)
	if !errors.Is(err, types.ErrLabelLength) {
		t.Errorf("Expected ErrLabelLength, got %v", err)
	}
}

func BenchmarkNewMatrix(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	items := randomSet(rng, 300, 384)
	targets := randomSet(rng, 30, 384)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := NewMatrix(items, targets); err != nil {
			b.Fatal(err)
		}
	}
}

func randomSet(rng *rand.Rand, n, dim int) types.EmbeddingSet {
	vectors := make([][]float64, n)
	for i := range vectors {
		v := make([]float64, dim)
		for j := range v {
			v[j] = rng.NormFloat64()
		}
		vectors[i] = v
	}
	return types.EmbeddingSet{Vectors: vectors}
}

func assertStrings(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
