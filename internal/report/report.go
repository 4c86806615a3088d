// Package report orchestrates the full analysis pipeline in dependency
// order: Walker → Tree, Metrics → Dependency Graph → Structure Graph →
// {Clones, Smells} → Narrative, and assembles the final Report, the
// core's single external entry point.
package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/codemap/internal/centrality"
	"github.com/phobologic/codemap/internal/clones"
	"github.com/phobologic/codemap/internal/codemodel"
	"github.com/phobologic/codemap/internal/depgraph"
	"github.com/phobologic/codemap/internal/langid"
	"github.com/phobologic/codemap/internal/metrics"
	"github.com/phobologic/codemap/internal/narrative"
	"github.com/phobologic/codemap/internal/smells"
	"github.com/phobologic/codemap/internal/structure"
	"github.com/phobologic/codemap/internal/walker"
)

// Options controls pass-level limits. Zero values fall back to each
// package's own default.
type Options struct {
	MaxEntries          int
	ExtraIgnoreGlobs    []string
	MetricsMaxFileSize  int64
	DepGraphMaxFileSize int64
	StructureMaxFileSize int64
}

// Totals is summary.totals.
type Totals struct {
	Directories    int   `json:"directories"`
	Files          int   `json:"files"`
	Truncated      bool  `json:"truncated"`
	WalkDurationMs int64 `json:"walkDurationMs"`
}

// LanguageCount is one entry of summary.languages.
type LanguageCount struct {
	Language string `json:"language"`
	Files    int    `json:"files"`
	Lines    int    `json:"lines"`
	Bytes    int64  `json:"bytes"`
}

// FileSize is one entry of summary.largestFiles.
type FileSize struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Language string `json:"language"`
}

// FileLines is one entry of summary.longestFiles.
type FileLines struct {
	Path      string `json:"path"`
	LineCount int    `json:"lineCount"`
}

// Summary is the report's summary block.
type Summary struct {
	Totals        Totals          `json:"totals"`
	Languages     []LanguageCount `json:"languages"`
	LargestFiles  []FileSize      `json:"largestFiles"`
	LongestFiles  []FileLines     `json:"longestFiles"`
	WarningsCount int             `json:"warningsCount"`
}

// Dependencies is the report's dependencies block.
type Dependencies struct {
	Nodes      []string               `json:"nodes"`
	Edges      []depgraph.Edge        `json:"edges"`
	Unresolved []depgraph.Unresolved  `json:"unresolved"`
}

// StructureTotals summarizes the structure graph's node counts.
type StructureTotals struct {
	Packages int `json:"packages"`
	Files    int `json:"files"`
	Symbols  int `json:"symbols"`
}

// StructureGraph is the report's structureGraph block.
type StructureGraph struct {
	Nodes         []codemodel.StructureNode `json:"nodes"`
	Edges         []codemodel.Edge          `json:"edges"`
	Symbols       []codemodel.Symbol        `json:"symbols"`
	Totals        StructureTotals           `json:"totals"`
	IncomingCalls map[string]int            `json:"incomingCalls"`
	Exports       map[string][]string       `json:"exports"`
	ExportUsage   map[string]int            `json:"exportUsage"`
}

// MetricsBlock is the report's metrics block.
type MetricsBlock struct {
	Files map[string]codemodel.FileMetrics `json:"files"`
}

// Report is the fully assembled analysis result.
type Report struct {
	RootPath           string                       `json:"rootPath"`
	GeneratedAt        string                       `json:"generatedAt"`
	Summary            Summary                      `json:"summary"`
	FileTree           *codemodel.TreeNode          `json:"fileTree"`
	Dependencies       Dependencies                 `json:"dependencies"`
	DependencyInsights depgraph.Insights            `json:"dependencyInsights"`
	StructureGraph     StructureGraph               `json:"structureGraph"`
	Clones             map[string][]codemodel.CloneEntry `json:"clones"`
	Metrics            MetricsBlock                 `json:"metrics"`
	Issues             []codemodel.Issue            `json:"issues"`
	Narrative          narrative.Report             `json:"narrative"`
}

// Analyze runs the full pipeline against rootPath, which must name an
// existing directory; a relative rootPath is made absolute first, so
// Report.RootPath is always absolute. generatedAt must be supplied by the
// caller (an ISO-8601 UTC timestamp): this package reads the clock only to
// time the walk, never to stamp the report, so callers own the timestamp
// and runs stay reproducible in tests.
func Analyze(ctx context.Context, rootPath string, opts Options, logger *slog.Logger, generatedAt string) (Report, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if abs, err := filepath.Abs(rootPath); err == nil {
		rootPath = abs
	}
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	logger.Info("analysis starting", "root", rootPath)

	info, err := os.Stat(rootPath)
	if err != nil {
		return Report{}, fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return Report{}, fmt.Errorf("%s: not a directory", rootPath)
	}

	walkStart := time.Now()
	walkRes, err := walker.Walk(rootPath, walker.Config{MaxEntries: opts.MaxEntries, ExtraIgnoreGlobs: opts.ExtraIgnoreGlobs})
	if err != nil {
		return Report{}, fmt.Errorf("walking %s: %w", rootPath, err)
	}
	walkDuration := time.Since(walkStart)
	tree := walker.BuildTree(walkRes)

	var metricsRes metrics.Result
	var depRes depgraph.Result

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		metricsRes = metrics.Analyze(rootPath, walkRes.Files, langid.For, metrics.Config{MaxFileSize: opts.MetricsMaxFileSize})
		return nil
	})
	g.Go(func() error {
		depRes = depgraph.Analyze(rootPath, walkRes.Files, langid.For, depgraph.Config{MaxFileSize: opts.DepGraphMaxFileSize})
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	structRes := structure.Build(rootPath, walkRes.Files, langid.For, depRes.Edges, structure.Config{MaxFileSize: opts.StructureMaxFileSize})

	var cloneEntries map[string][]codemodel.CloneEntry
	var smellIssues []codemodel.Issue

	g2, _ := errgroup.WithContext(ctx)
	g2.Go(func() error {
		cloneEntries = clones.Detect(cloneInputsFrom(structRes.Symbols))
		return nil
	})
	g2.Go(func() error {
		smellIssues = smells.Detect(smellSymbolsFrom(structRes.Symbols))
		return nil
	})
	if err := g2.Wait(); err != nil {
		return Report{}, err
	}

	allIssues := collectIssues(walkRes, metricsRes, depRes, smellIssues)

	insights := depgraph.ComputeInsights(depRes.Edges)
	summary := buildSummary(walkRes, metricsRes, walkDuration)
	centralFiles := centrality.Rank(nodePaths(walkRes.Files), depRes.Edges)

	narr := narrative.Synthesize(narrative.Input{
		RootPath:         rootPath,
		TotalDirectories: summary.Totals.Directories,
		TotalFiles:       summary.Totals.Files,
		Truncated:        summary.Totals.Truncated,
		WalkDurationMs:   summary.Totals.WalkDurationMs,
		Languages:        toNarrativeLanguages(summary.Languages),
		LargestFiles:     toNarrativeFileSizes(summary.LargestFiles),
		LongestFiles:     toNarrativeFileLines(summary.LongestFiles),
		WarningsCount:    summary.WarningsCount,
		FanOut:           insights.FanOut,
		FanIn:            insights.FanIn,
		ExternalPackages: insights.ExternalPackages,
		UnresolvedCount:  len(depRes.Unresolved),
		CentralFiles:     centralFiles,
		Metrics:          metricsRes.Files,
		Issues:           allIssues,
		Symbols:          toNarrativeSymbols(structRes.Symbols),
		Clones:           cloneEntries,
	})

	rep := Report{
		RootPath:    rootPath,
		GeneratedAt: generatedAt,
		Summary:     summary,
		FileTree:    tree,
		Dependencies: Dependencies{
			Nodes:      nodePaths(walkRes.Files),
			Edges:      depRes.Edges,
			Unresolved: depRes.Unresolved,
		},
		DependencyInsights: insights,
		StructureGraph: StructureGraph{
			Nodes:   structRes.Nodes,
			Edges:   structRes.Edges,
			Symbols: stripSymbolText(structRes.Symbols),
			Totals:  structureTotals(structRes.Nodes),
			IncomingCalls: structRes.IncomingCalls,
			Exports:       structRes.Exports,
			ExportUsage:   structRes.ExportUsage,
		},
		Clones:  cloneEntries,
		Metrics: MetricsBlock{Files: metricsRes.Files},
		Issues:  allIssues,
		Narrative: narr,
	}

	logger.Info("analysis complete", "files", summary.Totals.Files, "issues", len(allIssues))

	return rep, nil
}

func cloneInputsFrom(symbols []codemodel.Symbol) []clones.Input {
	var out []clones.Input
	for _, s := range symbols {
		if !s.Kind.IsFunctionLike() {
			continue
		}
		out = append(out, clones.Input{
			ID: s.ID, Name: s.Name, FilePath: s.Path, Language: s.Language, Text: s.Text, StartLine: s.StartLine,
		})
	}
	return out
}

func smellSymbolsFrom(symbols []codemodel.Symbol) []smells.Symbol {
	out := make([]smells.Symbol, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, smells.Symbol{
			ID: s.ID, Name: s.Name, Path: s.Path, Kind: s.Kind, StartLine: s.StartLine, EndLine: s.EndLine, Text: s.Text,
		})
	}
	return out
}

func toNarrativeSymbols(symbols []codemodel.Symbol) []narrative.SymbolRef {
	out := make([]narrative.SymbolRef, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, narrative.SymbolRef{ID: s.ID, Name: s.Name, Path: s.Path, StartLine: s.StartLine, EndLine: s.EndLine})
	}
	return out
}

func toNarrativeLanguages(langs []LanguageCount) []narrative.LanguageStat {
	out := make([]narrative.LanguageStat, 0, len(langs))
	for _, l := range langs {
		out = append(out, narrative.LanguageStat{Language: l.Language, Files: l.Files, Lines: l.Lines, Bytes: l.Bytes})
	}
	return out
}

func toNarrativeFileSizes(files []FileSize) []narrative.FileSize {
	out := make([]narrative.FileSize, 0, len(files))
	for _, f := range files {
		out = append(out, narrative.FileSize{Path: f.Path, Size: f.Size, Language: f.Language})
	}
	return out
}

func toNarrativeFileLines(files []FileLines) []narrative.FileLines {
	out := make([]narrative.FileLines, 0, len(files))
	for _, f := range files {
		out = append(out, narrative.FileLines{Path: f.Path, LineCount: f.LineCount})
	}
	return out
}

func nodePaths(files []codemodel.File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func stripSymbolText(symbols []codemodel.Symbol) []codemodel.Symbol {
	out := make([]codemodel.Symbol, len(symbols))
	for i, s := range symbols {
		s.Text = ""
		out[i] = s
	}
	return out
}

func structureTotals(nodes []codemodel.StructureNode) StructureTotals {
	var t StructureTotals
	for _, n := range nodes {
		switch n.Kind {
		case codemodel.NodePackage:
			t.Packages++
		case codemodel.NodeFile:
			t.Files++
		case codemodel.NodeSymbol:
			t.Symbols++
		}
	}
	return t
}

func collectIssues(walkRes walker.Result, metricsRes metrics.Result, depRes depgraph.Result, smellIssues []codemodel.Issue) []codemodel.Issue {
	var out []codemodel.Issue
	for _, w := range walkRes.Warnings {
		out = append(out, codemodel.Issue{
			Category: codemodel.IssueFilesystem, Severity: codemodel.SeverityWarning, Path: w.Path,
			Type: string(w.Type), Message: w.Error,
		})
	}
	out = append(out, metricsRes.Issues...)
	out = append(out, depRes.Issues...)
	out = append(out, smellIssues...)
	return out
}

func buildSummary(walkRes walker.Result, metricsRes metrics.Result, walkDuration time.Duration) Summary {
	langTotals := make(map[string]*LanguageCount)
	for _, f := range walkRes.Files {
		lang := langid.For(f.Ext)
		if lang == "" {
			lang = "unknown"
		}
		lc, ok := langTotals[lang]
		if !ok {
			lc = &LanguageCount{Language: lang}
			langTotals[lang] = lc
		}
		lc.Files++
		lc.Bytes += f.Size
		if fm, ok := metricsRes.Files[f.Path]; ok && fm.LineCount != nil {
			lc.Lines += *fm.LineCount
		}
	}
	languages := make([]LanguageCount, 0, len(langTotals))
	for _, lc := range langTotals {
		languages = append(languages, *lc)
	}
	sort.Slice(languages, func(i, j int) bool {
		if languages[i].Files != languages[j].Files {
			return languages[i].Files > languages[j].Files
		}
		return languages[i].Language < languages[j].Language
	})

	largest := append([]codemodel.File(nil), walkRes.Files...)
	sort.Slice(largest, func(i, j int) bool {
		if largest[i].Size != largest[j].Size {
			return largest[i].Size > largest[j].Size
		}
		return largest[i].Path < largest[j].Path
	})
	var largestFiles []FileSize
	for i, f := range largest {
		if i >= 3 {
			break
		}
		largestFiles = append(largestFiles, FileSize{Path: f.Path, Size: f.Size, Language: langid.For(f.Ext)})
	}

	type pathLines struct {
		path  string
		lines int
	}
	var byLines []pathLines
	for path, fm := range metricsRes.Files {
		if fm.LineCount != nil {
			byLines = append(byLines, pathLines{path, *fm.LineCount})
		}
	}
	sort.Slice(byLines, func(i, j int) bool {
		if byLines[i].lines != byLines[j].lines {
			return byLines[i].lines > byLines[j].lines
		}
		return byLines[i].path < byLines[j].path
	})
	var longestFiles []FileLines
	for i, pl := range byLines {
		if i >= 3 {
			break
		}
		longestFiles = append(longestFiles, FileLines{Path: pl.path, LineCount: pl.lines})
	}

	return Summary{
		Totals: Totals{
			Directories:    len(walkRes.Directories),
			Files:          len(walkRes.Files),
			Truncated:      walkRes.Truncated,
			WalkDurationMs: walkDuration.Milliseconds(),
		},
		Languages:     languages,
		LargestFiles:  largestFiles,
		LongestFiles:  longestFiles,
		WarningsCount: len(walkRes.Warnings),
	}
}
