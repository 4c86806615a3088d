package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const (
	sentinelStart = "<!-- codemap:start -->"
	sentinelEnd   = "<!-- codemap:end -->"
)

var initDryRun bool

var initCmd = &cobra.Command{
	Use:   "init [path-to-AGENTS.md]",
	Short: "Write a codemap usage section to an AGENTS.md-style file",
	Long: `Write (or update) a codemap usage section in an AGENTS.md/CLAUDE.md-style
file. The section is wrapped in sentinel comments so later runs can update
it in place without touching surrounding content. Creates the file if it
does not exist.

path-to-AGENTS.md defaults to ./AGENTS.md.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initDryRun, "dry-run", false, "print what would be written without modifying the file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	section := generateSection()

	if initDryRun && len(args) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), section)
		return err
	}

	path := "AGENTS.md"
	if len(args) > 0 {
		path = args[0]
	}

	existing, _ := os.ReadFile(path)
	updated := applySection(string(existing), section)

	if initDryRun {
		_, err := fmt.Fprint(cmd.OutOrStdout(), updated)
		return err
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, err := fmt.Fprintf(cmd.ErrOrStderr(), "wrote codemap section to %s\n", path)
	return err
}

func generateSection() string {
	body := `## codemap — Repository Analysis

Run ` + "`codemap analyze`" + ` via the Bash tool at the start of any task on an
unfamiliar codebase. It produces a JSON report covering the file tree,
dependency graph, structure graph, near-duplicate functions, code smells,
and a narrative summary — use it before broad manual exploration.

**Availability:** Check with ` + "`codemap --version`" + ` first; skip gracefully if
not found.

**Run it:**
` + "```" + `bash
codemap analyze                              # current directory, JSON to stdout
codemap analyze --format text /path/to/repo  # human-readable summary
codemap analyze --out report.json            # write to a file instead
codemap analyze --watch --progress           # re-analyze on every change
` + "```" + `

**All flags:** ` + "`codemap analyze --help`" + `

**How to use the report — follow these rules:**

1. **Read ` + "`narrative.hotspots`" + ` first.** It names the highest-complexity,
   longest, heaviest, and most-central files before you open anything.

2. **Use ` + "`structureGraph.symbols`" + ` instead of Grep to find definitions.**
   It lists every top-level definition with file and line number.

3. **Use ` + "`dependencies`" + ` and ` + "`dependencyInsights`" + ` to trace import chains**
   before reading a file to understand what it imports or depends on.

4. **Check ` + "`clones`" + ` before writing a new helper** — it may already exist
   as a near-duplicate elsewhere in the tree.

5. **Only fall back to Glob/Grep for things codemap cannot answer** — e.g.
   finding all usages of a symbol, or searching within a file you've
   already identified.`

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing
// sentinel block if present or appending if not.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
