// Package textreport renders a report.Report as human-readable text for
// `codemap analyze --format text`, using a TOON-style tabular-section and
// value-quoting approach restyled as prose-friendly tables instead of a
// wire-oriented format, since codemap's default output is JSON.
package textreport

import (
	"fmt"
	"strings"

	"github.com/phobologic/codemap/internal/codemodel"
	"github.com/phobologic/codemap/internal/report"
)

// Render renders rep as a plain-text summary: narrative overview, key
// facts, hotspots, actions and clones as lists up top, followed by tabular
// sections for issues and dependency insights.
func Render(rep report.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "codemap report for %s\n", rep.RootPath)
	fmt.Fprintf(&b, "generated %s\n\n", rep.GeneratedAt)

	if rep.Narrative.Overview != "" {
		b.WriteString(rep.Narrative.Overview)
		b.WriteString("\n\n")
	}

	writeList(&b, "Key facts", rep.Narrative.KeyFacts)
	writeList(&b, "Hotspots", rep.Narrative.Hotspots)
	writeList(&b, "Recommended actions", rep.Narrative.Actions)
	writeList(&b, "Near-duplicate functions", rep.Narrative.Clones)

	writeIssuesTable(&b, rep.Issues)
	writeDependencyInsights(&b, rep)

	return strings.TrimRight(b.String(), "\n")
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
	b.WriteString("\n")
}

func writeIssuesTable(b *strings.Builder, issues []codemodel.Issue) {
	if len(issues) == 0 {
		return
	}
	b.WriteString(formatTabular("issues", []string{"severity", "category", "type", "path", "message"}, issueRows(issues)))
	b.WriteString("\n\n")
}

func issueRows(issues []codemodel.Issue) [][]string {
	rows := make([][]string, 0, len(issues))
	for _, iss := range issues {
		rows = append(rows, []string{
			string(iss.Severity), string(iss.Category), iss.Type, iss.Path, iss.Message,
		})
	}
	return rows
}

func writeDependencyInsights(b *strings.Builder, rep report.Report) {
	insights := rep.DependencyInsights
	if len(insights.FanOut) == 0 && len(insights.FanIn) == 0 && len(insights.ExternalPackages) == 0 {
		return
	}

	var fanOutRows, fanInRows, pkgRows [][]string
	for _, n := range insights.FanOut {
		fanOutRows = append(fanOutRows, []string{n.Name, fmt.Sprintf("%d", n.Count)})
	}
	for _, n := range insights.FanIn {
		fanInRows = append(fanInRows, []string{n.Name, fmt.Sprintf("%d", n.Count)})
	}
	for _, n := range insights.ExternalPackages {
		pkgRows = append(pkgRows, []string{n.Name, fmt.Sprintf("%d", n.Count)})
	}

	b.WriteString(formatTabular("fanOut", []string{"file", "count"}, fanOutRows))
	b.WriteString("\n")
	b.WriteString(formatTabular("fanIn", []string{"file", "count"}, fanInRows))
	b.WriteString("\n")
	b.WriteString(formatTabular("externalPackages", []string{"package", "count"}, pkgRows))
	b.WriteString("\n")
}

// formatTabular renders rows as a TOON-style compact table: a header naming
// the section, its row count, and its columns, followed by one
// comma-joined, value-quoted line per row.
func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}
	if strings.ContainsAny(value, ",:\"\\{}[]\n\r\t") {
		return quote(value)
	}
	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
