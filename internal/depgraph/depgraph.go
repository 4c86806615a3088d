// Package depgraph extracts import specifiers per file with language-
// specific regexes and resolves relative specifiers against the discovered
// file set, then derives fan-in/fan-out/external-package insights from
// the resolved edge set.
package depgraph

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/phobologic/codemap/internal/codemodel"
)

// DefaultMaxFileSize is the dependency-graph pass's read cutoff (256 KiB).
const DefaultMaxFileSize = 256 * 1024

var (
	jsStaticImportRe  = regexp.MustCompile(`import\s+(?:[\w${}*\s,]+from\s+)?['"]([^'"]+)['"]`)
	jsDynamicImportRe = regexp.MustCompile(`import\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	jsRequireRe       = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)

	pyImportRe     = regexp.MustCompile(`(?m)^\s*import\s+([\w.]+(?:\s*,\s*[\w.]+)*)`)
	pyFromImportRe = regexp.MustCompile(`(?m)^\s*from\s+([\w.]+)\s+import\s+`)

	goSingleImportRe = regexp.MustCompile(`import\s+"([^"]+)"`)
	goBlockImportRe  = regexp.MustCompile(`import\s*\(([^)]*)\)`)
	goQuotedLineRe   = regexp.MustCompile(`"([^"]+)"`)

	jsExts = map[string]bool{".js": true, ".jsx": true, ".mjs": true, ".cjs": true, ".ts": true, ".tsx": true}
)

// Edge is a resolved or unresolved dependency edge as emitted in the report.
type Edge struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Specifier string `json:"specifier"`
	Kind      string `json:"kind"` // "local" or "external"
}

// Unresolved is one specifier that could not be resolved to a local file.
type Unresolved struct {
	Source    string `json:"source"`
	Specifier string `json:"specifier,omitempty"`
	Reason    string `json:"reason"`
}

// Result is the dependency-graph pass's output.
type Result struct {
	Edges      []Edge
	Unresolved []Unresolved
	Issues     []codemodel.Issue
}

// Insights is dependencyInsights in the report: top 5 by fan-out, fan-in,
// and external-package reference count.
type Insights struct {
	FanOut           []NamedCount `json:"fanOut"`
	FanIn            []NamedCount `json:"fanIn"`
	ExternalPackages []NamedCount `json:"externalPackages"`
}

// NamedCount pairs a name (file path or package specifier) with a count.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Config controls the dependency-graph pass's size cutoff.
type Config struct {
	MaxFileSize int64
}

// Analyze extracts and resolves import specifiers for every file whose
// language is recognized (go, python, javascript/typescript family).
func Analyze(rootPath string, files []codemodel.File, languageFor func(ext string) string, cfg Config) Result {
	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	fileSet := make(map[string]struct{}, len(files))
	for _, f := range files {
		fileSet[f.Path] = struct{}{}
	}

	var res Result

	for _, f := range files {
		lang := languageFor(f.Ext)
		if !supportedLanguage(lang) {
			continue
		}

		if f.Size > maxSize {
			res.Unresolved = append(res.Unresolved, Unresolved{Source: f.Path, Reason: fmt.Sprintf("File too large (%d bytes, limit %d)", f.Size, maxSize)})
			continue
		}

		data, err := os.ReadFile(filepath.Join(rootPath, filepath.FromSlash(f.Path)))
		if err != nil {
			res.Unresolved = append(res.Unresolved, Unresolved{Source: f.Path, Reason: fmt.Sprintf("read error: %v", err)})
			continue
		}

		for _, spec := range extractSpecifiers(lang, string(data)) {
			if isRelative(spec) {
				target, found := resolveRelative(f.Path, spec, fileSet)
				if found {
					res.Edges = append(res.Edges, Edge{Source: f.Path, Target: target, Specifier: spec, Kind: "local"})
				} else {
					res.Unresolved = append(res.Unresolved, Unresolved{Source: f.Path, Specifier: spec, Reason: "could not resolve relative specifier"})
					res.Issues = append(res.Issues, codemodel.Issue{
						Category: codemodel.IssueDependency, Severity: codemodel.SeverityInfo, Path: f.Path,
						Type: "unresolved-import", Message: fmt.Sprintf("%s: could not resolve %q", f.Path, spec),
					})
				}
				continue
			}
			res.Edges = append(res.Edges, Edge{Source: f.Path, Target: "", Specifier: spec, Kind: "external"})
		}
	}

	sort.Slice(res.Edges, func(i, j int) bool {
		if res.Edges[i].Source != res.Edges[j].Source {
			return res.Edges[i].Source < res.Edges[j].Source
		}
		return res.Edges[i].Specifier < res.Edges[j].Specifier
	})

	return res
}

func supportedLanguage(lang string) bool {
	switch lang {
	case "go", "python", "javascript", "typescript":
		return true
	default:
		return false
	}
}

func extractSpecifiers(lang, source string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	switch lang {
	case "javascript", "typescript":
		for _, m := range jsStaticImportRe.FindAllStringSubmatch(source, -1) {
			add(m[1])
		}
		for _, m := range jsDynamicImportRe.FindAllStringSubmatch(source, -1) {
			add(m[1])
		}
		for _, m := range jsRequireRe.FindAllStringSubmatch(source, -1) {
			add(m[1])
		}
	case "python":
		for _, m := range pyImportRe.FindAllStringSubmatch(source, -1) {
			for _, part := range strings.Split(m[1], ",") {
				add(strings.TrimSpace(part))
			}
		}
		for _, m := range pyFromImportRe.FindAllStringSubmatch(source, -1) {
			add(m[1])
		}
	case "go":
		for _, m := range goSingleImportRe.FindAllStringSubmatch(source, -1) {
			add(m[1])
		}
		for _, m := range goBlockImportRe.FindAllStringSubmatch(source, -1) {
			// The reference behavior captures every quoted line inside the
			// block verbatim, including ones inside // comments — this is
			// intentional, not a bug to fix.
			for _, line := range goQuotedLineRe.FindAllStringSubmatch(m[1], -1) {
				add(line[1])
			}
		}
	}
	return out
}

func isRelative(spec string) bool {
	return strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/")
}

var resolveExts = []string{"", ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".json"}

func resolveRelative(sourcePath, spec string, fileSet map[string]struct{}) (string, bool) {
	dir := path.Dir(sourcePath)
	joined := path.Clean(path.Join(dir, spec))

	for _, ext := range resolveExts {
		candidate := joined + ext
		if _, ok := fileSet[candidate]; ok {
			return candidate, true
		}
	}
	for _, ext := range jsIndexExts() {
		candidate := path.Join(joined, "index"+ext)
		if _, ok := fileSet[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}

func jsIndexExts() []string {
	return []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"}
}

// ComputeInsights derives the top-5 fan-out, fan-in, and external-package
// lists from a resolved edge set.
func ComputeInsights(edges []Edge) Insights {
	fanOut := make(map[string]int)
	fanIn := make(map[string]int)
	external := make(map[string]int)

	for _, e := range edges {
		switch e.Kind {
		case "local":
			fanOut[e.Source]++
			fanIn[e.Target]++
		case "external":
			external[e.Specifier]++
		}
	}

	return Insights{
		FanOut:           topN(fanOut, 5),
		FanIn:            topN(fanIn, 5),
		ExternalPackages: topN(external, 5),
	}
}

func topN(counts map[string]int, n int) []NamedCount {
	out := make([]NamedCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, NamedCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// JSFamilyExt reports whether ext is in the JS/TS extension set, i.e.
// whether a file with that extension is itself parseable by the AST pass.
func JSFamilyExt(ext string) bool {
	return jsExts[ext]
}
