package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/botirk38/semanticmap"
	"github.com/botirk38/semanticmap/aggregate"
	"github.com/botirk38/semanticmap/backends"
	"github.com/botirk38/semanticmap/export"
	"github.com/botirk38/semanticmap/logging"
	"github.com/botirk38/semanticmap/options"
	"github.com/botirk38/semanticmap/providers"
	"github.com/botirk38/semanticmap/types"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

// Output file names written into --out.
const (
	similarityFile = "similarity.csv"
	meansFile      = "group_means.csv"
	matchesFile    = "matches.csv"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "semanticmap",
		Short: "Map inventory items onto reference scales by embedding similarity",
		Long: `semanticmap embeds item and scale statements, computes their cosine
similarity matrix and per-item profile statistics, and ranks the best matching
scale groups for every item group using Fisher-z averaged means.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("env-file", "", "Load environment variables from this file (default .env)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newMatchCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				_ = json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "semanticmap version %s\n", version)
			}
		},
	}
}

type matchOptions struct {
	items      string
	scales     string
	embeddings bool
	config     string
	out        string
	sqlite     string
	min        float64
	useMin     bool
	verbose    bool
	jsonOut    bool
}

func newMatchCmd() *cobra.Command {
	var opts matchOptions

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Map items onto scales and write the result tables",
		Long: `match reads two CSV files. With text input each has the columns id,group,text;
with --embeddings each has id,group followed by one column per vector component.

It writes similarity.csv, group_means.csv and matches.csv into --out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			if err := loadEnv(envFile); err != nil {
				return err
			}
			opts.jsonOut, _ = cmd.Flags().GetBool("json")
			opts.useMin = cmd.Flags().Changed("min")
			return runMatch(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.items, "items", "", "Items CSV file")
	cmd.Flags().StringVar(&opts.scales, "scales", "", "Scales CSV file")
	cmd.Flags().BoolVar(&opts.embeddings, "embeddings", false, "Inputs hold precomputed vectors instead of text")
	cmd.Flags().StringVar(&opts.config, "config", "", "YAML config file")
	cmd.Flags().StringVar(&opts.out, "out", ".", "Output directory")
	cmd.Flags().StringVar(&opts.sqlite, "sqlite", "", "Also save the run to this SQLite database")
	cmd.Flags().Float64Var(&opts.min, "min", 0, "Write group means below this value as NA")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log every stage")
	_ = cmd.MarkFlagRequired("items")
	_ = cmd.MarkFlagRequired("scales")

	return cmd
}

func runMatch(ctx context.Context, opts matchOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}

	mapperOpts := []options.Option{}
	if cfg.Analysis.Norm01 {
		mapperOpts = append(mapperOpts, options.WithNorm01())
	}
	if cfg.Analysis.IDColumn != "" {
		mapperOpts = append(mapperOpts, options.WithIDColumn(cfg.Analysis.IDColumn))
	}
	if cfg.Analysis.Clamp > 0 {
		mapperOpts = append(mapperOpts, options.WithClamp(cfg.Analysis.Clamp))
	}
	if opts.verbose {
		mapperOpts = append(mapperOpts, options.WithLogger(logging.Simplelog(1)))
	}

	var report *semanticmap.Report
	if opts.embeddings {
		report, err = mapEmbeddingFiles(opts, mapperOpts)
	} else {
		report, err = mapTextFiles(ctx, cfg, opts, mapperOpts)
	}
	if err != nil {
		return err
	}

	written, err := writeTables(opts, report)
	if err != nil {
		return err
	}

	var runID int64
	if opts.sqlite != "" {
		store, err := export.OpenSQLite(opts.sqlite)
		if err != nil {
			return err
		}
		defer store.Close()

		runID, err = store.SaveReport(ctx, runName(opts), report.Similarity, report.Profiles, report.Groups)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
	}

	if opts.jsonOut {
		return json.NewEncoder(stdout).Encode(newSummary(report, written, runID))
	}

	rows, cols := report.Similarity.Dims()
	fmt.Fprintf(stdout, "Mapped %d items onto %d scales (%d warnings)\n", rows, cols, len(report.Warnings))
	for _, m := range report.Groups.Matches {
		fmt.Fprintf(stdout, "  %s -> %s", m.ItemGroup, orDash(m.Best))
		if m.Second != "" {
			fmt.Fprintf(stdout, " (then %s)", m.Second)
		}
		fmt.Fprintln(stdout)
	}
	for _, path := range written {
		fmt.Fprintf(stdout, "Wrote %s\n", path)
	}
	if runID > 0 {
		fmt.Fprintf(stdout, "Saved run %d to %s\n", runID, opts.sqlite)
	}
	return nil
}

func mapEmbeddingFiles(opts matchOptions, mapperOpts []options.Option) (*semanticmap.Report, error) {
	items, itemGroups, err := readEmbeddings(opts.items)
	if err != nil {
		return nil, err
	}
	scales, scaleGroups, err := readEmbeddings(opts.scales)
	if err != nil {
		return nil, err
	}

	mapper, err := semanticmap.New(mapperOpts...)
	if err != nil {
		return nil, err
	}
	defer mapper.Close()

	return mapper.MapEmbeddings(items, scales, itemGroups, scaleGroups)
}

func mapTextFiles(ctx context.Context, cfg *fileConfig, opts matchOptions, mapperOpts []options.Option) (*semanticmap.Report, error) {
	items, err := readStatements(opts.items)
	if err != nil {
		return nil, err
	}
	scales, err := readStatements(opts.scales)
	if err != nil {
		return nil, err
	}

	provider, err := providers.New(ctx, cfg.providerSettings())
	if err != nil {
		return nil, err
	}
	mapperOpts = append(mapperOpts, options.WithCustomProvider(provider))

	if cfg.Cache.Type != "" {
		factory := &backends.BackendFactory{}
		backend, err := factory.NewBackend(ctx, types.BackendType(cfg.Cache.Type), cfg.backendSettings())
		if err != nil {
			provider.Close()
			return nil, err
		}
		mapperOpts = append(mapperOpts, options.WithCustomBackend(backend))
	}

	mapper, err := semanticmap.New(mapperOpts...)
	if err != nil {
		provider.Close()
		return nil, err
	}
	defer mapper.Close()

	return mapper.Map(ctx, items, scales)
}

func writeTables(opts matchOptions, report *semanticmap.Report) ([]string, error) {
	if err := os.MkdirAll(opts.out, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var meansOpts []export.CSVOption
	if opts.useMin {
		meansOpts = append(meansOpts, export.WithMinimum(opts.min))
	}

	tables := []struct {
		name  string
		write func(io.Writer) error
	}{
		{similarityFile, func(w io.Writer) error {
			return export.WriteSimilarityCSV(w, report.Similarity, report.Profiles)
		}},
		{meansFile, func(w io.Writer) error {
			return export.WriteMeansCSV(w, report.Groups, meansOpts...)
		}},
		{matchesFile, func(w io.Writer) error {
			return export.WriteMatchesCSV(w, report.Groups)
		}},
	}

	written := make([]string, 0, len(tables))
	for _, table := range tables {
		path := filepath.Join(opts.out, table.name)
		if err := writeFile(path, table.write); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func runName(opts matchOptions) string {
	base := func(p string) string {
		return strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	}
	return base(opts.items) + "->" + base(opts.scales)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

type matchSummary struct {
	ItemGroup   string   `json:"item_group"`
	Best        string   `json:"best,omitempty"`
	BestScore   *float64 `json:"best_score"`
	Second      string   `json:"second,omitempty"`
	SecondScore *float64 `json:"second_score"`
}

type runSummary struct {
	Items    int            `json:"items"`
	Scales   int            `json:"scales"`
	Warnings []string       `json:"warnings"`
	Matches  []matchSummary `json:"matches"`
	Outputs  []string       `json:"outputs"`
	RunID    int64          `json:"run_id,omitempty"`
}

// score maps a missing value to JSON null.
func score(v float64) *float64 {
	if types.IsMissing(v) {
		return nil
	}
	return &v
}

func newSummary(report *semanticmap.Report, outputs []string, runID int64) runSummary {
	rows, cols := report.Similarity.Dims()
	s := runSummary{
		Items:    rows,
		Scales:   cols,
		Warnings: make([]string, 0, len(report.Warnings)),
		Matches:  make([]matchSummary, 0, len(report.Groups.Matches)),
		Outputs:  outputs,
		RunID:    runID,
	}
	for _, w := range report.Warnings {
		s.Warnings = append(s.Warnings, w.String())
	}
	for _, m := range report.Groups.Matches {
		s.Matches = append(s.Matches, summarizeMatch(m))
	}
	return s
}

func summarizeMatch(m aggregate.RowMatch) matchSummary {
	return matchSummary{
		ItemGroup:   m.ItemGroup,
		Best:        m.Best,
		BestScore:   score(m.BestScore),
		Second:      m.Second,
		SecondScore: score(m.SecondScore),
	}
}
