// Package walker performs the bounded, depth-first filesystem traversal
// that seeds the analysis pipeline, folding the result into the hierarchical
// tree the report's fileTree uses.
package walker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/codemap/internal/codemodel"
)

// DefaultMaxEntries is the traversal cap used when Config.MaxEntries is zero.
const DefaultMaxEntries = 2000

var ignoredDirs = map[string]struct{}{
	".git": {}, ".hg": {}, ".svn": {}, "node_modules": {}, "vendor": {},
	"dist": {}, "build": {}, ".cache": {}, ".next": {}, ".nuxt": {},
	".idea": {}, ".vscode": {}, "coverage": {}, "__pycache__": {},
}

// ignoredDirPaths holds compound ignored-directory entries that are matched
// by relative path rather than bare name (so e.g. a vendored "ios/Pods"
// directory is ignored without also ignoring an unrelated top-level
// "Pods" directory).
var ignoredDirPaths = map[string]struct{}{
	"ios/Pods": {},
}

var ignoredFiles = map[string]struct{}{
	".DS_Store": {}, "Thumbs.db": {},
}

// Config controls traversal limits and extra ignore patterns.
type Config struct {
	MaxEntries int
	// ExtraIgnoreGlobs are doublestar patterns (relative to root) matched
	// against every visited path, in addition to the fixed ignored-name
	// sets above. See internal/config for how these are populated from a
	// project's .codemap.toml.
	ExtraIgnoreGlobs []string
}

// Result is everything the walker produces from one traversal.
type Result struct {
	Files       []codemodel.File
	Directories []codemodel.Directory
	Warnings    []codemodel.Warning
	Truncated   bool
}

type frame struct {
	path  string
	depth int
}

// Walk traverses root depth-first using an explicit stack, recording files
// and directories until MaxEntries is reached. rootPath must be an absolute,
// existing directory; callers (internal/report) are responsible for that
// validation — Walk itself treats a stat failure on root as fatal, since a
// root that cannot be read leaves nothing to analyze.
func Walk(rootPath string, cfg Config) (Result, error) {
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	rootInfo, err := os.Stat(rootPath)
	if err != nil {
		return Result{}, fmt.Errorf("root path: %w", err)
	}
	if !rootInfo.IsDir() {
		return Result{}, fmt.Errorf("%s: not a directory", rootPath)
	}

	gi := loadGitignore(rootPath)
	extra := compileExtraIgnores(cfg.ExtraIgnoreGlobs)

	res := Result{
		Directories: []codemodel.Directory{{Path: ".", Name: filepath.Base(rootPath), Depth: 0, ModTime: rootInfo.ModTime().Unix()}},
	}

	stack := []frame{{path: rootPath, depth: 0}}
	total := 1 // the root directory itself

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(cur.path)
		if err != nil {
			res.Warnings = append(res.Warnings, codemodel.Warning{
				Type: codemodel.WarningReadError, Path: relPath(rootPath, cur.path), Error: err.Error(),
			})
			continue
		}

		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		for _, entry := range entries {
			name := entry.Name()
			absPath := filepath.Join(cur.path, name)
			rel := relPath(rootPath, absPath)

			if entry.IsDir() {
				if _, skip := ignoredDirs[name]; skip {
					continue
				}
				if _, skip := ignoredDirPaths[rel]; skip {
					continue
				}
				if isIgnored(rel, gi, extra) {
					continue
				}

				if total >= maxEntries {
					res.Warnings = append(res.Warnings, codemodel.Warning{Type: codemodel.WarningLimitReached, Path: rel})
					res.Truncated = true
					return res, nil
				}

				info, err := entry.Info()
				if err != nil {
					res.Warnings = append(res.Warnings, codemodel.Warning{Type: codemodel.WarningStatError, Path: rel, Error: err.Error()})
					continue
				}

				res.Directories = append(res.Directories, codemodel.Directory{
					Path: rel, Name: name, Depth: cur.depth + 1, ModTime: info.ModTime().Unix(),
				})
				total++
				stack = append(stack, frame{path: absPath, depth: cur.depth + 1})
				continue
			}

			if _, skip := ignoredFiles[name]; skip {
				continue
			}
			if isIgnored(rel, gi, extra) {
				continue
			}

			if total >= maxEntries {
				res.Warnings = append(res.Warnings, codemodel.Warning{Type: codemodel.WarningLimitReached, Path: rel})
				res.Truncated = true
				return res, nil
			}

			info, err := entry.Info()
			if err != nil {
				res.Warnings = append(res.Warnings, codemodel.Warning{Type: codemodel.WarningStatError, Path: rel, Error: err.Error()})
				continue
			}

			isSymlink := entry.Type()&os.ModeSymlink != 0
			res.Files = append(res.Files, codemodel.File{
				Path: rel, Name: name, Ext: strings.ToLower(filepath.Ext(name)),
				Size: info.Size(), ModTime: info.ModTime().Unix(), Depth: cur.depth + 1,
				IsSymbolicLink: isSymlink,
			})
			total++
		}
	}

	sort.Slice(res.Files, func(i, j int) bool { return res.Files[i].Path < res.Files[j].Path })
	sort.Slice(res.Directories, func(i, j int) bool { return res.Directories[i].Path < res.Directories[j].Path })

	return res, nil
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}

func compileExtraIgnores(globs []string) []string {
	// Patterns are validated by internal/config at load time; here we just
	// keep the literal set for doublestar.Match at walk time.
	out := make([]string, 0, len(globs))
	out = append(out, globs...)
	return out
}

func isIgnored(rel string, gi *ignore.GitIgnore, extra []string) bool {
	if gi != nil && gi.MatchesPath(rel) {
		return true
	}
	for _, pattern := range extra {
		if matched, _ := doublestarMatch(pattern, rel); matched {
			return true
		}
	}
	return false
}
