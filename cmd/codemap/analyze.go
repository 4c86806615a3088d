package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phobologic/codemap/internal/codemodel"
	"github.com/phobologic/codemap/internal/config"
	"github.com/phobologic/codemap/internal/logging"
	"github.com/phobologic/codemap/internal/pipestats"
	"github.com/phobologic/codemap/internal/report"
	"github.com/phobologic/codemap/internal/textreport"
	"github.com/phobologic/codemap/internal/watchrun"
)

var (
	analyzeConfigPath  string
	analyzeOut         string
	analyzeFormat      string
	analyzeLogLevel    string
	analyzeWatch       bool
	analyzeProgress    bool
	analyzeMetricsFile string
	analyzeInclude     []string
	analyzeExclude     []string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a repository and emit a report",
	Long: `Run the full analysis pipeline (walk, metrics, dependency graph,
structure graph, clone detection, smell detection, narrative synthesis)
over path (default: current directory) and write the resulting report.

Examples:
  codemap analyze
  codemap analyze --format text ./myrepo
  codemap analyze --watch --progress ./myrepo
  codemap analyze --metrics-file run.prom ./myrepo`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeConfigPath, "config", "", "path to a .codemap.toml config file")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "write the report to this path instead of stdout")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "json", "output format: json or text")
	analyzeCmd.Flags().StringVar(&analyzeLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	analyzeCmd.Flags().BoolVar(&analyzeWatch, "watch", false, "re-run the analysis whenever a watched file changes")
	analyzeCmd.Flags().BoolVar(&analyzeProgress, "progress", false, "show a live stage-progress bar on stderr")
	analyzeCmd.Flags().StringVar(&analyzeMetricsFile, "metrics-file", "", "dump Prometheus text-format metrics to this path after each run")
	analyzeCmd.Flags().StringSliceVar(&analyzeInclude, "include", nil, "only analyze files matching this glob (repeatable)")
	analyzeCmd.Flags().StringSliceVar(&analyzeExclude, "exclude", nil, "skip files matching this glob (repeatable)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	v := viper.New()
	cfg, err := config.Load(v, analyzeConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cmd.ErrOrStderr(), cfg.LogFormat, logging.LevelFromString(analyzeLogLevel))

	includeGlobs, err := compileGlobs(analyzeInclude)
	if err != nil {
		return fmt.Errorf("compiling --include patterns: %w", err)
	}
	excludeGlobs, err := compileGlobs(analyzeExclude)
	if err != nil {
		return fmt.Errorf("compiling --exclude patterns: %w", err)
	}

	opts := report.Options{
		MaxEntries:           cfg.MaxEntries,
		ExtraIgnoreGlobs:     cfg.IgnoredDirGlobs,
		MetricsMaxFileSize:   cfg.MetricsMaxFileSize,
		DepGraphMaxFileSize:  cfg.DepGraphMaxFileSize,
		StructureMaxFileSize: cfg.DepGraphMaxFileSize,
	}

	var stats *pipestats.Collector
	if analyzeMetricsFile != "" {
		stats = pipestats.New()
	}

	var tracker *progressTracker
	if analyzeProgress {
		tracker = newProgressTracker(cmd.ErrOrStderr())
		tracker.Start()
		defer tracker.Stop()
	}

	runOnce := func() error {
		start := time.Now()
		if tracker != nil {
			tracker.SetStage("walk")
		}
		rep, err := report.Analyze(cmd.Context(), root, opts, logger, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return err
		}
		if stats != nil {
			stats.ObserveStage("analyze", time.Since(start))
			stats.FilesWalked.Set(float64(rep.Summary.Totals.Files))
			for _, iss := range rep.Issues {
				stats.IssuesTotal.WithLabelValues(string(iss.Severity)).Inc()
			}
			pairs := 0
			for _, entries := range rep.Clones {
				pairs += len(entries)
			}
			stats.ClonePairs.Set(float64(pairs))
			if err := stats.Dump(analyzeMetricsFile); err != nil {
				logger.Warn("failed to dump metrics", "error", err)
			}
		}
		if tracker != nil {
			tracker.SetStage("done")
		}
		rep = filterReport(rep, includeGlobs, excludeGlobs)
		return writeReport(cmd, rep)
	}

	if !analyzeWatch {
		return runOnce()
	}

	if stats != nil {
		stats.WatchRunsTotal.Inc()
	}
	if err := runOnce(); err != nil {
		logger.Error("analysis failed", "error", err)
	}

	w, err := watchrun.New(root, time.Second, cfg.IgnoredDirGlobs, func() {
		if stats != nil {
			stats.WatchRunsTotal.Inc()
		}
		if err := runOnce(); err != nil {
			logger.Error("analysis failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	logger.Info("watching for changes", "root", root)
	return w.Run()
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// filterReport drops structure-graph symbols and metrics entries for files
// that don't pass --include/--exclude, without re-running the pipeline.
func filterReport(rep report.Report, include, exclude []glob.Glob) report.Report {
	if len(include) == 0 && len(exclude) == 0 {
		return rep
	}
	keep := func(path string) bool {
		if len(include) > 0 {
			matched := false
			for _, g := range include {
				if g.Match(path) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
		for _, g := range exclude {
			if g.Match(path) {
				return false
			}
		}
		return true
	}

	filteredMetrics := make(map[string]codemodel.FileMetrics, len(rep.Metrics.Files))
	for path, m := range rep.Metrics.Files {
		if keep(path) {
			filteredMetrics[path] = m
		}
	}
	rep.Metrics.Files = filteredMetrics

	var filteredSymbols []codemodel.Symbol
	for _, s := range rep.StructureGraph.Symbols {
		if keep(s.Path) {
			filteredSymbols = append(filteredSymbols, s)
		}
	}
	rep.StructureGraph.Symbols = filteredSymbols

	return rep
}

func writeReport(cmd *cobra.Command, rep report.Report) error {
	var out []byte
	var err error
	switch analyzeFormat {
	case "text":
		out = []byte(textreport.Render(rep))
	default:
		out, err = json.MarshalIndent(rep, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	if analyzeOut == "" {
		_, err = cmd.OutOrStdout().Write(append(out, '\n'))
		return err
	}
	return os.WriteFile(analyzeOut, append(out, '\n'), 0o644)
}
