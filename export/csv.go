// Package export writes mapping results as CSV tables and SQLite rows for
// downstream rendering.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/botirk38/semanticmap/aggregate"
	"github.com/botirk38/semanticmap/profile"
	"github.com/botirk38/semanticmap/similarity"
	"github.com/botirk38/semanticmap/types"
)

// Missing is written for NaN cells.
const Missing = "NA"

// GroupColumn heads the label column of group tables.
const GroupColumn = "group"

// CSVOption configures table writers.
type CSVOption func(*csvConfig)

type csvConfig struct {
	min    float64
	useMin bool
}

// WithMinimum writes cells below min as missing.
func WithMinimum(min float64) CSVOption {
	return func(c *csvConfig) {
		c.min = min
		c.useMin = true
	}
}

func formatValue(v float64) string {
	if types.IsMissing(v) {
		return Missing
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteSimilarityCSV writes one row per item: the label, one column per target,
// then the profile columns when p is non-nil.
func WriteSimilarityCSV(w io.Writer, m *similarity.Matrix, p *profile.Profiles) error {
	rows, cols := m.Dims()
	if p != nil && len(p.Stats) != rows {
		return fmt.Errorf("%w: %d profiles for %d rows", types.ErrLabelLength, len(p.Stats), rows)
	}

	cw := csv.NewWriter(w)
	header := m.Header()
	if p != nil {
		header = append(header, p.Columns()...)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i := 0; i < rows; i++ {
		rec := make([]string, 0, len(header))
		rec = append(rec, m.RowLabels[i])
		for j := 0; j < cols; j++ {
			rec = append(rec, formatValue(m.At(i, j)))
		}
		if p != nil {
			for _, v := range p.Values(i) {
				rec = append(rec, formatValue(v))
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteMeansCSV writes the item-group by target-group mean matrix.
func WriteMeansCSV(w io.Writer, r *aggregate.Result, opts ...CSVOption) error {
	var cfg csvConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	cw := csv.NewWriter(w)
	header := append([]string{GroupColumn}, r.TargetGroups...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, g := range r.ItemGroups {
		rec := make([]string, 0, len(header))
		rec = append(rec, g)
		for j := range r.TargetGroups {
			v := r.Means.At(i, j)
			if cfg.useMin && !types.IsMissing(v) && v < cfg.min {
				rec = append(rec, Missing)
				continue
			}
			rec = append(rec, formatValue(v))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteMatchesCSV writes the top-two ranking, one row per item group.
func WriteMatchesCSV(w io.Writer, r *aggregate.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"item_group", "best", "best_score", "second", "second_score"}); err != nil {
		return err
	}

	for _, m := range r.Matches {
		rec := []string{
			m.ItemGroup,
			orMissing(m.Best),
			formatValue(m.BestScore),
			orMissing(m.Second),
			formatValue(m.SecondScore),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func orMissing(s string) string {
	if s == "" {
		return Missing
	}
	return s
}
