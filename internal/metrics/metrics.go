// Package metrics computes per-file line/complexity/TODO counts and the
// quality issues derived from them.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/phobologic/codemap/internal/codemodel"
)

// DefaultMaxFileSize is the metrics pass's read cutoff (512 KiB).
const DefaultMaxFileSize = 512 * 1024

const (
	largeFileLines    = 300
	highComplexity    = 35.0
)

var (
	lineSplitRe    = regexp.MustCompile(`\r?\n`)
	decisionRe     = regexp.MustCompile(`\b(if|else if|for|while|case|catch|throw|function|class|=>|switch)\b`)
	todoRe         = regexp.MustCompile(`\b(TODO|FIXME|HACK|XXX)\b`)
)

// Config controls the metrics pass's size cutoff.
type Config struct {
	MaxFileSize int64
}

// Result is the metrics pass's output: one FileMetrics per analyzed path,
// plus the issues it raised.
type Result struct {
	Files  map[string]codemodel.FileMetrics
	Issues []codemodel.Issue
}

// Analyze computes metrics for every file, reading from rootPath joined
// with each file's relative path. Files larger than cfg.MaxFileSize are
// skipped (an info issue is raised, not an error).
func Analyze(rootPath string, files []codemodel.File, languageFor func(ext string) string, cfg Config) Result {
	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	res := Result{Files: make(map[string]codemodel.FileMetrics, len(files))}

	for _, f := range files {
		lang := languageFor(f.Ext)

		if f.Size > maxSize {
			res.Files[f.Path] = codemodel.FileMetrics{Language: lang, Size: f.Size, TODOCount: 0, Skipped: true}
			res.Issues = append(res.Issues, codemodel.Issue{
				Category: codemodel.IssueMetric, Severity: codemodel.SeverityInfo, Path: f.Path,
				Type: "file-too-large", Message: fmt.Sprintf("%s: %d bytes exceeds metrics limit of %d bytes", f.Path, f.Size, maxSize),
			})
			continue
		}

		data, err := os.ReadFile(filepath.Join(rootPath, filepath.FromSlash(f.Path)))
		if err != nil {
			res.Files[f.Path] = codemodel.FileMetrics{Language: lang, Size: f.Size, Skipped: true}
			res.Issues = append(res.Issues, codemodel.Issue{
				Category: codemodel.IssueMetric, Severity: codemodel.SeverityWarning, Path: f.Path,
				Type: "file-read-error", Message: fmt.Sprintf("%s: %v", f.Path, err),
			})
			continue
		}

		text := string(data)
		lineCount := len(lineSplitRe.Split(text, -1))
		decisions := len(decisionRe.FindAllString(text, -1))
		todos := len(todoRe.FindAllString(text, -1))

		var complexity float64
		if lineCount > 0 {
			complexity = round2(float64(decisions) / float64(lineCount) * 100)
		}

		lc := lineCount
		cs := complexity
		res.Files[f.Path] = codemodel.FileMetrics{
			Language: lang, Size: f.Size, LineCount: &lc, ComplexityScore: &cs, TODOCount: todos,
		}

		if lineCount > largeFileLines {
			res.Issues = append(res.Issues, codemodel.Issue{
				Category: codemodel.IssueMetric, Severity: codemodel.SeverityWarning, Path: f.Path,
				Type: "large-file", Message: fmt.Sprintf("%s: %d lines exceeds %d", f.Path, lineCount, largeFileLines),
			})
		}
		if complexity > highComplexity {
			res.Issues = append(res.Issues, codemodel.Issue{
				Category: codemodel.IssueMetric, Severity: codemodel.SeverityWarning, Path: f.Path,
				Type: "high-complexity", Message: fmt.Sprintf("%s: complexity score %.2f exceeds %.0f", f.Path, complexity, highComplexity),
			})
		}
		if todos > 0 {
			res.Issues = append(res.Issues, codemodel.Issue{
				Category: codemodel.IssueMetric, Severity: codemodel.SeverityInfo, Path: f.Path,
				Type: "todo-comments", Message: fmt.Sprintf("%s: %d TODO-style comment(s)", f.Path, todos),
			})
		}
	}

	return res
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
