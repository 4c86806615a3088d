package walker

import "github.com/bmatcuk/doublestar/v4"

// doublestarMatch matches a project-relative path against a doublestar glob
// pattern, e.g. "**/*.generated.go" or "legacy/**". Config validates
// patterns at load time, so a compile error here just means "no match"
// rather than a fatal traversal error.
func doublestarMatch(pattern, rel string) (bool, error) {
	return doublestar.Match(pattern, rel)
}
