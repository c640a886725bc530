// Package semanticmap maps item statements onto scale statements by embedding
// similarity and reports per-item profile shape and group-level matches.
package semanticmap

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/botirk38/semanticmap/aggregate"
	"github.com/botirk38/semanticmap/logging"
	"github.com/botirk38/semanticmap/options"
	"github.com/botirk38/semanticmap/profile"
	"github.com/botirk38/semanticmap/providers"
	"github.com/botirk38/semanticmap/similarity"
	"github.com/botirk38/semanticmap/types"
)

// Statement is one text to embed. Group defaults to ID when empty.
type Statement struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Group string `json:"group"`
}

// Report is the outcome of one mapping run.
type Report struct {
	// Similarity is the item-by-scale matrix, rescaled to [0, 1] under WithNorm01.
	Similarity *similarity.Matrix
	Profiles   *profile.Profiles
	// Groups is always computed from the cosine scale, never the rescaled one.
	Groups   *aggregate.Result
	Warnings []types.Warning
}

// MapResult holds the result of an async Map operation.
type MapResult struct {
	Report *Report
	Error  error
}

// Mapper runs the embed, similarity, profile and aggregate stages.
type Mapper struct {
	provider types.EmbeddingProvider
	backend  types.VectorBackend
	cfg      *options.Config
}

// New creates a Mapper with functional options.
func New(opts ...options.Option) (*Mapper, error) {
	cfg := options.NewConfig()

	if err := cfg.Apply(opts...); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return NewMapper(cfg.Provider, cfg.Backend, cfg)
}

// NewMapper creates a Mapper from explicit parts. provider may be nil when only
// MapEmbeddings is used; backend may be nil to disable caching.
func NewMapper(provider types.EmbeddingProvider, backend types.VectorBackend, cfg *options.Config) (*Mapper, error) {
	if cfg == nil {
		cfg = options.NewConfig()
	}
	if backend != nil && provider == nil {
		return nil, errors.New("backend requires a provider")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard
	}

	if backend != nil {
		provider = providers.NewCachingProvider(provider, backend)
	}

	return &Mapper{
		provider: provider,
		backend:  backend,
		cfg:      cfg,
	}, nil
}

// Map embeds both statement sets and maps items onto scales.
func (m *Mapper) Map(ctx context.Context, items, scales []Statement) (*Report, error) {
	if m.provider == nil {
		return nil, types.ErrNoProvider
	}
	if len(items) == 0 || len(scales) == 0 {
		return nil, fmt.Errorf("%w: need at least one item and one scale", types.ErrInvalidInput)
	}

	// One upstream call for both sets lets a cache deduplicate across them
	texts := make([]string, 0, len(items)+len(scales))
	for _, s := range items {
		texts = append(texts, s.Text)
	}
	for _, s := range scales {
		texts = append(texts, s.Text)
	}

	start := time.Now()
	vectors, err := m.provider.EmbedTexts(ctx, texts)
	m.log(logging.Entry{
		Timestamp: start,
		Stage:     logging.StageEmbed,
		Provider:  m.provider.Name(),
		Rows:      len(items),
		Cols:      len(scales),
		Duration:  time.Since(start),
		Err:       err,
	})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", types.ErrEmptyResponse, len(vectors), len(texts))
	}

	itemIDs, itemGroups := labelsOf(items)
	scaleIDs, scaleGroups := labelsOf(scales)

	itemSet := types.NewEmbeddingSet(vectors[:len(items)], itemIDs)
	scaleSet := types.NewEmbeddingSet(vectors[len(items):], scaleIDs)

	return m.MapEmbeddings(itemSet, scaleSet, itemGroups, scaleGroups)
}

// MapEmbeddings runs the analytics stages on precomputed embeddings. Nil group
// vectors put every row (or column) in its own group, named by its label.
func (m *Mapper) MapEmbeddings(items, scales types.EmbeddingSet, itemGroups, scaleGroups []string) (*Report, error) {
	start := time.Now()
	raw, err := similarity.NewMatrix(items, scales, similarity.WithIDColumn(m.cfg.IDColumn))
	rows, cols := items.Len(), scales.Len()
	m.log(logging.Entry{Timestamp: start, Stage: logging.StageSimilarity, Rows: rows, Cols: cols, Duration: time.Since(start), Err: err})
	if err != nil {
		return nil, fmt.Errorf("similarity: %w", err)
	}

	out := raw
	if m.cfg.Norm01 {
		out = raw.Rescaled01()
	}

	start = time.Now()
	profiles := profile.ComputeMatrix(out)
	m.log(logging.Entry{Timestamp: start, Stage: logging.StageProfile, Rows: rows, Cols: cols, Duration: time.Since(start), Warnings: len(profiles.Warnings)})

	if itemGroups == nil {
		itemGroups = raw.RowLabels
	}
	if scaleGroups == nil {
		scaleGroups = raw.ColLabels
	}

	start = time.Now()
	groups, err := aggregate.Aggregate(raw, itemGroups, scaleGroups, m.cfg.AggregateOptions()...)
	entry := logging.Entry{Timestamp: start, Stage: logging.StageAggregate, Rows: rows, Cols: cols, Duration: time.Since(start), Err: err}
	if groups != nil {
		entry.Rows, entry.Cols = len(groups.ItemGroups), len(groups.TargetGroups)
		entry.Warnings = len(groups.Warnings)
	}
	m.log(entry)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	warnings := make([]types.Warning, 0, len(profiles.Warnings)+len(groups.Warnings))
	warnings = append(warnings, profiles.Warnings...)
	warnings = append(warnings, groups.Warnings...)

	return &Report{
		Similarity: out,
		Profiles:   profiles,
		Groups:     groups,
		Warnings:   warnings,
	}, nil
}

// MapAsync runs Map in a goroutine.
// Returns a channel that will receive the result when complete.
func (m *Mapper) MapAsync(ctx context.Context, items, scales []Statement) <-chan MapResult {
	resultCh := make(chan MapResult, 1)
	go func() {
		defer close(resultCh)
		report, err := m.Map(ctx, items, scales)
		resultCh <- MapResult{Report: report, Error: err}
	}()
	return resultCh
}

// Close releases the provider and the cache backend.
func (m *Mapper) Close() error {
	if m.provider != nil {
		m.provider.Close()
	}
	if m.backend != nil {
		return m.backend.Close()
	}
	return nil
}

func (m *Mapper) log(entry logging.Entry) {
	m.cfg.Logger(entry)
}

// labelsOf returns identity labels (position when ID is empty) and group labels
// (identity label when Group is empty).
func labelsOf(statements []Statement) ([]string, []string) {
	ids := make([]string, len(statements))
	groups := make([]string, len(statements))
	for i, s := range statements {
		ids[i] = s.ID
		if ids[i] == "" {
			ids[i] = strconv.Itoa(i + 1)
		}
		groups[i] = s.Group
		if groups[i] == "" {
			groups[i] = ids[i]
		}
	}
	return ids, groups
}
