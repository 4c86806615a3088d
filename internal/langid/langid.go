// Package langid maps file extensions to language names. It is a
// deliberately small stand-in for a full tree-sitter grammar registry:
// codemap only needs a language label for metrics/dependency-graph
// routing and the astjs/fallback-symbol split, not a compiled grammar
// per language.
package langid

var extensionMap = map[string]string{
	".go":    "go",
	".py":    "python",
	".rb":    "ruby",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".rs":    "rust",
	".md":    "markdown",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".sh":    "shell",
	".html":  "html",
	".css":   "css",
}

// For returns the language name for a file extension (including the
// leading dot), or "" if unrecognized.
func For(ext string) string {
	return extensionMap[ext]
}
