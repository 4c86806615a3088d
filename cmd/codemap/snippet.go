package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phobologic/codemap/internal/snippet"
)

var snippetMaxBytes int

var snippetCmd = &cobra.Command{
	Use:   "snippet <root> <file>",
	Short: "Print the leading bytes of one file under root",
	Long: `Read the first N bytes of a file under root, the way a UI would fetch
a source preview alongside a report. Rejects file paths that escape root.`,
	Args: cobra.ExactArgs(2),
	RunE: runSnippet,
}

func init() {
	snippetCmd.Flags().IntVar(&snippetMaxBytes, "max-bytes", 0, "maximum bytes to read (clamped to [1KiB, 512KiB]; 0 uses the default)")
	rootCmd.AddCommand(snippetCmd)
}

func runSnippet(cmd *cobra.Command, args []string) error {
	root, file := args[0], args[1]

	maxBytes := snippetMaxBytes
	if maxBytes <= 0 {
		maxBytes = 64 * 1024
	}

	s, err := snippet.Read(root, file, maxBytes)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snippet: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
