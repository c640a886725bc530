package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/botirk38/semanticmap"
	"github.com/botirk38/semanticmap/types"
)

type csvTable struct {
	Path    string
	Headers []string
	Rows    [][]string
	index   map[string]int
}

func readCSV(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s: %w: need a header and at least one row", path, types.ErrInvalidInput)
	}

	t := &csvTable{Path: path, Headers: records[0], Rows: records[1:], index: make(map[string]int)}
	for i, h := range t.Headers {
		t.index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return t, nil
}

// column returns the index of name, or -1.
func (t *csvTable) column(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// readStatements reads an id,group,text table. Only text is required.
func readStatements(path string) ([]semanticmap.Statement, error) {
	t, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	textCol := t.column("text")
	if textCol < 0 {
		return nil, fmt.Errorf("%s: %w: missing text column", path, types.ErrInvalidInput)
	}
	idCol, groupCol := t.column("id"), t.column("group")

	out := make([]semanticmap.Statement, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, semanticmap.Statement{
			ID:    cell(row, idCol),
			Group: cell(row, groupCol),
			Text:  cell(row, textCol),
		})
	}
	return out, nil
}

// readEmbeddings reads an id,group,v1..vD table. Every column other than id and
// group is a vector component, in header order.
func readEmbeddings(path string) (types.EmbeddingSet, []string, error) {
	t, err := readCSV(path)
	if err != nil {
		return types.EmbeddingSet{}, nil, err
	}

	idCol, groupCol := t.column("id"), t.column("group")
	var valueCols []int
	for i := range t.Headers {
		if i != idCol && i != groupCol {
			valueCols = append(valueCols, i)
		}
	}
	if len(valueCols) == 0 {
		return types.EmbeddingSet{}, nil, fmt.Errorf("%s: %w: no vector columns", path, types.ErrInvalidInput)
	}

	set := types.EmbeddingSet{Vectors: make([][]float64, len(t.Rows))}
	groups := make([]string, len(t.Rows))
	if idCol >= 0 {
		set.Labels = make([]string, len(t.Rows))
	}

	for r, row := range t.Rows {
		vec := make([]float64, len(valueCols))
		for k, c := range valueCols {
			v, err := strconv.ParseFloat(cell(row, c), 64)
			if err != nil {
				return types.EmbeddingSet{}, nil, fmt.Errorf("%s row %d: %w: %v", path, r+2, types.ErrInvalidInput, err)
			}
			vec[k] = v
		}
		set.Vectors[r] = vec

		label := strconv.Itoa(r + 1)
		if idCol >= 0 {
			if id := cell(row, idCol); id != "" {
				label = id
			}
			set.Labels[r] = label
		}
		groups[r] = cell(row, groupCol)
		if groups[r] == "" {
			groups[r] = label
		}
	}
	return set, groups, nil
}
