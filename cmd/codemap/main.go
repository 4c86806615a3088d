// Command codemap runs the analysis pipeline over a repository and emits
// a JSON report. It is a thin cobra CLI over internal/report.Analyze; see
// internal/report for the actual pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "codemap",
	Short:   "codemap maps a repository's structure, dependencies, clones, and smells",
	Version: version,
}

func init() {
	rootCmd.SetVersionTemplate("codemap version {{.Version}}\n")
}
