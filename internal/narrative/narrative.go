// Package narrative stitches the rest of the report into prose and
// structured highlights for human consumption: an overview paragraph, key
// facts, hotspots, recommended actions, and a formatted view of the
// detected clones. It generalizes a top-N selection idea from "pick the
// highest-ranked files" to "pick the highest-ranked facts per category".
package narrative

import (
	"fmt"
	"sort"
	"strings"

	"github.com/phobologic/codemap/internal/centrality"
	"github.com/phobologic/codemap/internal/codemodel"
	"github.com/phobologic/codemap/internal/depgraph"
)

const (
	complexityHotspotThreshold = 35.0
	longFileHotspotThreshold   = 400
	heavyFileHotspotThreshold  = 200 * 1024
)

// LanguageStat is one entry of the summary's language-mix breakdown.
type LanguageStat struct {
	Language string
	Files    int
	Lines    int
	Bytes    int64
}

// FileSize names one of the largest files by byte size.
type FileSize struct {
	Path     string
	Size     int64
	Language string
}

// FileLines names one of the longest files by line count.
type FileLines struct {
	Path      string
	LineCount int
}

// SymbolRef is the subset of a structure-graph symbol the narrative needs
// to label a clone entry or a complexity hotspot.
type SymbolRef struct {
	ID        string
	Name      string
	Path      string
	StartLine int
	EndLine   int
}

// Input is everything the narrative synthesizer reads from the rest of
// the report. It never mutates or re-derives upstream data; it only
// selects and formats.
type Input struct {
	RootPath         string
	TotalDirectories int
	TotalFiles       int
	Truncated        bool
	WalkDurationMs   int64
	Languages        []LanguageStat
	LargestFiles     []FileSize
	LongestFiles     []FileLines
	WarningsCount    int

	FanOut           []depgraph.NamedCount
	FanIn            []depgraph.NamedCount
	ExternalPackages []depgraph.NamedCount
	UnresolvedCount  int
	CentralFiles     []centrality.FileRank

	Metrics map[string]codemodel.FileMetrics
	Issues  []codemodel.Issue

	Symbols []SymbolRef
	Clones  map[string][]codemodel.CloneEntry
}

// Report is the narrative block embedded in the final report.
type Report struct {
	Overview      string        `json:"overview"`
	KeyFacts      []string      `json:"keyFacts"`
	Hotspots      []string      `json:"hotspots"`
	Actions       []string      `json:"actions"`
	Clones        []string      `json:"clones"`
	ClonesDetails []CloneDetail `json:"clonesDetails"`
	Metrics       []string      `json:"metrics"`
}

// CloneDetail is the structured mirror of one formatted clone line.
type CloneDetail struct {
	SourceID    string
	SourceName  string
	SourcePath  string
	SourceStart int
	SourceEnd   int
	TargetID    string
	TargetName  string
	TargetPath  string
	TargetStart int
	TargetEnd   int
	Similarity  float64
}

// Synthesize builds the narrative block. Every list is robust to missing
// data: absent inputs simply produce shorter (possibly empty) lists.
func Synthesize(in Input) Report {
	return Report{
		Overview:      overview(in),
		KeyFacts:      keyFacts(in),
		Hotspots:      hotspots(in),
		Actions:       actions(in),
		Clones:        formattedClones(in),
		ClonesDetails: clonesDetails(in),
		Metrics:       metricsSummary(in),
	}
}

func overview(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scanned %d files across %d directories", in.TotalFiles, in.TotalDirectories)
	if dom := dominantLanguage(in.Languages); dom != "" {
		fmt.Fprintf(&b, ", dominated by %s", dom)
	}
	if in.WalkDurationMs > 0 {
		fmt.Fprintf(&b, ", in %dms", in.WalkDurationMs)
	}
	b.WriteString(".")
	if in.Truncated {
		b.WriteString(" Traversal was truncated before completing; results reflect a partial tree.")
	}
	return b.String()
}

func dominantLanguage(langs []LanguageStat) string {
	if len(langs) == 0 {
		return ""
	}
	best := langs[0]
	totalFiles := 0
	for _, l := range langs {
		totalFiles += l.Files
		if l.Files > best.Files {
			best = l
		}
	}
	if totalFiles == 0 {
		return ""
	}
	pct := 100 * best.Files / totalFiles
	return fmt.Sprintf("%s (%d%% of files)", best.Language, pct)
}

func keyFacts(in Input) []string {
	var facts []string

	langs := append([]LanguageStat(nil), in.Languages...)
	sort.Slice(langs, func(i, j int) bool { return langs[i].Files > langs[j].Files })
	totalFiles := 0
	for _, l := range langs {
		totalFiles += l.Files
	}
	for i, l := range langs {
		if i >= 3 {
			break
		}
		pct := 0
		if totalFiles > 0 {
			pct = 100 * l.Files / totalFiles
		}
		facts = append(facts, fmt.Sprintf("%s: %d files (%d%%)", l.Language, l.Files, pct))
	}

	facts = append(facts, fmt.Sprintf("%d directories, %d files", in.TotalDirectories, in.TotalFiles))

	largest := append([]FileSize(nil), in.LargestFiles...)
	sort.Slice(largest, func(i, j int) bool { return largest[i].Size > largest[j].Size })
	for i, f := range largest {
		if i >= 3 {
			break
		}
		facts = append(facts, fmt.Sprintf("largest file: %s (%d bytes)", f.Path, f.Size))
	}

	severities := make(map[codemodel.IssueSeverity]int)
	for _, iss := range in.Issues {
		severities[iss.Severity]++
	}
	if len(in.Issues) > 0 {
		facts = append(facts, fmt.Sprintf("issues: %d error, %d warning, %d info",
			severities[codemodel.SeverityError], severities[codemodel.SeverityWarning], severities[codemodel.SeverityInfo]))
	}

	for i, p := range in.ExternalPackages {
		if i >= 3 {
			break
		}
		facts = append(facts, fmt.Sprintf("external package %s referenced %d times", p.Name, p.Count))
	}

	return facts
}

func hotspots(in Input) []string {
	var out []string

	type complexityHotspot struct {
		path  string
		score float64
	}
	var complex []complexityHotspot
	for path, m := range in.Metrics {
		if m.ComplexityScore != nil && *m.ComplexityScore >= complexityHotspotThreshold {
			complex = append(complex, complexityHotspot{path, *m.ComplexityScore})
		}
	}
	sort.Slice(complex, func(i, j int) bool {
		if complex[i].score != complex[j].score {
			return complex[i].score > complex[j].score
		}
		return complex[i].path < complex[j].path
	})
	for i, c := range complex {
		if i >= 3 {
			break
		}
		out = append(out, fmt.Sprintf("high complexity: %s (score %.0f)", c.path, c.score))
	}

	longest := append([]FileLines(nil), in.LongestFiles...)
	sort.Slice(longest, func(i, j int) bool { return longest[i].LineCount > longest[j].LineCount })
	for i, f := range longest {
		if i >= 3 || f.LineCount < longFileHotspotThreshold {
			break
		}
		out = append(out, fmt.Sprintf("longest file: %s (%d lines)", f.Path, f.LineCount))
	}

	heaviest := append([]FileSize(nil), in.LargestFiles...)
	sort.Slice(heaviest, func(i, j int) bool { return heaviest[i].Size > heaviest[j].Size })
	for i, f := range heaviest {
		if i >= 3 || f.Size < heavyFileHotspotThreshold {
			break
		}
		out = append(out, fmt.Sprintf("heaviest file: %s (%d bytes)", f.Path, f.Size))
	}

	for i, fo := range in.FanOut {
		if i >= 3 {
			break
		}
		out = append(out, fmt.Sprintf("high fan-out: %s (%d dependencies)", fo.Name, fo.Count))
	}
	for i, fi := range in.FanIn {
		if i >= 3 {
			break
		}
		out = append(out, fmt.Sprintf("high fan-in: %s (%d dependents)", fi.Name, fi.Count))
	}

	for i, c := range in.CentralFiles {
		if i >= 3 || c.Rank <= 0 {
			break
		}
		out = append(out, fmt.Sprintf("most central (PageRank): %s (%.4f)", c.Path, c.Rank))
	}

	if in.UnresolvedCount > 0 {
		out = append(out, fmt.Sprintf("%d unresolved imports", in.UnresolvedCount))
	}

	todoTotal := 0
	for _, m := range in.Metrics {
		todoTotal += m.TODOCount
	}
	if todoTotal > 0 {
		out = append(out, fmt.Sprintf("%d TODO/FIXME markers", todoTotal))
	}

	return out
}

func actions(in Input) []string {
	var out []string

	errorCount := 0
	for _, iss := range in.Issues {
		if iss.Severity == codemodel.SeverityError {
			errorCount++
		}
	}
	if errorCount > 0 {
		out = append(out, fmt.Sprintf("Address %d error-level issues first (long functions, branch-heavy functions, oversized classes).", errorCount))
	}

	if in.UnresolvedCount > 0 {
		out = append(out, fmt.Sprintf("Resolve %d unresolved imports; they block accurate dependency analysis.", in.UnresolvedCount))
	}

	if len(in.Clones) > 0 {
		out = append(out, "Review the flagged near-duplicate functions for extraction opportunities.")
	}

	if len(in.FanIn) > 0 {
		out = append(out, fmt.Sprintf("%s is the most depended-upon module; changes there have the widest blast radius.", in.FanIn[0].Name))
	}

	if in.Truncated {
		out = append(out, "Re-run with a higher maxEntries to analyze the full tree; this run was truncated.")
	}

	return out
}

func formattedClones(in Input) []string {
	details := clonesDetails(in)
	out := make([]string, 0, len(details))
	for _, d := range details {
		pct := int(d.Similarity*100 + 0.5)
		out = append(out, fmt.Sprintf("%s — %s → %s — %s (%d%% similar) [%d-%d]",
			d.SourceName, d.SourcePath, d.TargetName, d.TargetPath, pct, d.TargetStart, d.TargetEnd))
	}
	return out
}

func clonesDetails(in Input) []CloneDetail {
	if len(in.Clones) == 0 {
		return nil
	}

	symbolByID := make(map[string]SymbolRef, len(in.Symbols))
	for _, s := range in.Symbols {
		symbolByID[s.ID] = s
	}

	sourceIDs := make([]string, 0, len(in.Clones))
	for id := range in.Clones {
		sourceIDs = append(sourceIDs, id)
	}
	sort.Strings(sourceIDs)

	var out []CloneDetail
	for _, sourceID := range sourceIDs {
		src := symbolByID[sourceID]
		for _, entry := range in.Clones[sourceID] {
			tgt := symbolByID[entry.TargetID]
			startLine, endLine := entry.StartLine, entry.EndLine
			if tgt.StartLine != 0 {
				startLine, endLine = tgt.StartLine, tgt.EndLine
			}
			out = append(out, CloneDetail{
				SourceID: sourceID, SourceName: nameOr(src.Name, sourceID), SourcePath: src.Path,
				SourceStart: src.StartLine, SourceEnd: src.EndLine,
				TargetID: entry.TargetID, TargetName: nameOr(tgt.Name, entry.TargetID), TargetPath: entry.FilePath,
				TargetStart: startLine, TargetEnd: endLine,
				Similarity: entry.Similarity,
			})
		}
	}
	return out
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

func metricsSummary(in Input) []string {
	if len(in.Metrics) == 0 {
		return nil
	}
	var totalLines int
	var skipped int
	for _, m := range in.Metrics {
		if m.Skipped {
			skipped++
			continue
		}
		if m.LineCount != nil {
			totalLines += *m.LineCount
		}
	}
	out := []string{fmt.Sprintf("%d files analyzed, %d total lines", len(in.Metrics)-skipped, totalLines)}
	if skipped > 0 {
		out = append(out, fmt.Sprintf("%d files skipped as oversized", skipped))
	}
	return out
}
