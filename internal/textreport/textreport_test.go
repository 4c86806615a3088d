package textreport

import (
	"strings"
	"testing"

	"github.com/phobologic/codemap/internal/codemodel"
	"github.com/phobologic/codemap/internal/depgraph"
	"github.com/phobologic/codemap/internal/narrative"
	"github.com/phobologic/codemap/internal/report"
)

func TestRenderIncludesOverviewAndIssues(t *testing.T) {
	t.Parallel()

	rep := report.Report{
		RootPath:    "/repo",
		GeneratedAt: "2026-08-03T00:00:00Z",
		Narrative: narrative.Report{
			Overview: "Scanned 2 files across 1 directories.",
			KeyFacts: []string{"go: 2 files (100%)"},
		},
		Issues: []codemodel.Issue{
			{Category: codemodel.IssueSmell, Severity: codemodel.SeverityWarning, Path: "a.go", Type: "long-function", Message: "foo is 60 lines"},
		},
		DependencyInsights: depgraph.Insights{
			FanOut: []depgraph.NamedCount{{Name: "a.go", Count: 3}},
		},
	}

	out := Render(rep)
	if !strings.Contains(out, "/repo") {
		t.Fatalf("expected root path in output, got:\n%s", out)
	}
	if !strings.Contains(out, "Scanned 2 files") {
		t.Fatalf("expected narrative overview in output, got:\n%s", out)
	}
	if !strings.Contains(out, "long-function") {
		t.Fatalf("expected issue row in output, got:\n%s", out)
	}
	if !strings.Contains(out, "fanOut[1]") {
		t.Fatalf("expected fanOut table in output, got:\n%s", out)
	}
}

func TestEncodeValueQuotesSpecialCharacters(t *testing.T) {
	t.Parallel()

	if got := encodeValue(""); got != `""` {
		t.Fatalf("expected empty string to be quoted, got %q", got)
	}
	if got := encodeValue("a,b"); got != `"a,b"` {
		t.Fatalf("expected comma-containing value to be quoted, got %q", got)
	}
	if got := encodeValue("plain"); got != "plain" {
		t.Fatalf("expected plain value to pass through unquoted, got %q", got)
	}
}
