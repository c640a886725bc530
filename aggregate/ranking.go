package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/botirk38/semanticmap/types"
	"gonum.org/v1/gonum/mat"
)

// ColumnBest names the item group with the highest mean for one target group.
// ItemGroup is empty and Score NaN when the whole column is missing.
type ColumnBest struct {
	TargetGroup string
	ItemGroup   string
	Score       float64
}

// RowMatch holds the two best target groups for one item group.
// Missing entries have an empty name and a NaN score.
type RowMatch struct {
	ItemGroup   string
	Best        string
	BestScore   float64
	Second      string
	SecondScore float64
}

// BestByColumn finds, for every column of means, the row with the maximum value.
// Equal maxima resolve to the first row in order.
func BestByColumn(means mat.Matrix, rowNames, colNames []string) ([]ColumnBest, error) {
	if err := checkNames(means, rowNames, colNames); err != nil {
		return nil, err
	}

	rows, cols := means.Dims()
	out := make([]ColumnBest, cols)
	for j := 0; j < cols; j++ {
		best := ColumnBest{TargetGroup: colNames[j], Score: math.NaN()}
		found := false
		for i := 0; i < rows; i++ {
			v := means.At(i, j)
			if types.IsMissing(v) {
				continue
			}
			if !found || v > best.Score {
				found = true
				best.ItemGroup = rowNames[i]
				best.Score = v
			}
		}
		out[j] = best
	}
	return out, nil
}

// MatchesByRow ranks each row's columns by value, descending, and reports the
// top two. Missing values are not ranked; ties keep column order.
func MatchesByRow(means mat.Matrix, rowNames, colNames []string) ([]RowMatch, error) {
	if err := checkNames(means, rowNames, colNames); err != nil {
		return nil, err
	}

	rows, cols := means.Dims()
	out := make([]RowMatch, rows)
	for i := 0; i < rows; i++ {
		order := make([]int, 0, cols)
		for j := 0; j < cols; j++ {
			if !types.IsMissing(means.At(i, j)) {
				order = append(order, j)
			}
		}
		sort.SliceStable(order, func(a, b int) bool {
			return means.At(i, order[a]) > means.At(i, order[b])
		})

		match := RowMatch{ItemGroup: rowNames[i], BestScore: math.NaN(), SecondScore: math.NaN()}
		if len(order) > 0 {
			match.Best = colNames[order[0]]
			match.BestScore = means.At(i, order[0])
		}
		if len(order) > 1 {
			match.Second = colNames[order[1]]
			match.SecondScore = means.At(i, order[1])
		}
		out[i] = match
	}
	return out, nil
}

func checkNames(means mat.Matrix, rowNames, colNames []string) error {
	rows, cols := means.Dims()
	if len(rowNames) != rows {
		return fmt.Errorf("%w: %d row names for %d rows", types.ErrLabelLength, len(rowNames), rows)
	}
	if len(colNames) != cols {
		return fmt.Errorf("%w: %d column names for %d columns", types.ErrLabelLength, len(colNames), cols)
	}
	return nil
}
