package clones

import "testing"

func TestDetectExactDuplicateFunctions(t *testing.T) {
	t.Parallel()

	body := `function add(a, b) {
  var sum = a + b;
  console.log(sum);
  return sum;
}`
	inputs := []Input{
		{ID: "file:a.js#add", FilePath: "a.js", Language: "javascript", Text: body, StartLine: 1},
		{ID: "file:b.js#add2", FilePath: "b.js", Language: "javascript", Text: body, StartLine: 10},
	}

	entries := Detect(inputs)

	a := entries["file:a.js#add"]
	if len(a) != 1 || a[0].TargetID != "file:b.js#add2" {
		t.Fatalf("expected one clone entry pointing at b.js#add2, got %+v", a)
	}
	if a[0].Similarity != 1.0 {
		t.Fatalf("expected similarity 1.0 for identical bodies, got %v", a[0].Similarity)
	}
	if a[0].StartLine != 10 || a[0].EndLine != 13 {
		t.Fatalf("expected file-absolute lines 10-13 for b.js#add2 (StartLine 10 + 4-line body), got %d-%d", a[0].StartLine, a[0].EndLine)
	}

	b := entries["file:b.js#add2"]
	if len(b) != 1 || b[0].TargetID != "file:a.js#add" {
		t.Fatalf("expected directed entry back at a.js#add, got %+v", b)
	}
	if b[0].StartLine != 1 || b[0].EndLine != 4 {
		t.Fatalf("expected file-absolute lines 1-4 for a.js#add (StartLine 1 + 4-line body), got %d-%d", b[0].StartLine, b[0].EndLine)
	}
}

func TestDetectIgnoresShortSymbols(t *testing.T) {
	t.Parallel()

	inputs := []Input{
		{ID: "file:a.js#f", FilePath: "a.js", Language: "javascript", Text: "function f() { return a; }"},
		{ID: "file:b.js#g", FilePath: "b.js", Language: "javascript", Text: "function g() { return a; }"},
	}

	entries := Detect(inputs)
	if len(entries) != 0 {
		t.Fatalf("expected no entries for near-empty bodies, got %+v", entries)
	}
}

func TestDetectRespectsLanguageCompatibility(t *testing.T) {
	t.Parallel()

	body := `function process(list) {
  var total = 0;
  for (var i = 0; i < list.length; i++) {
    total += list[i];
  }
  return total;
}`
	inputs := []Input{
		{ID: "file:a.js#process", FilePath: "a.js", Language: "javascript", Text: body},
		{ID: "file:a.py#process", FilePath: "a.py", Language: "python", Text: body},
	}

	entries := Detect(inputs)
	if len(entries) != 0 {
		t.Fatalf("expected no cross-language matches, got %+v", entries)
	}
}

func TestDetectCommentsDoNotAffectTokens(t *testing.T) {
	t.Parallel()

	plain := `function sum(a, b) {
  var total = a + b;
  return total;
}`
	commented := `function sum(a, b) {
  // add the two numbers
  var total = a + b; /* running total */
  return total;
}`
	inputs := []Input{
		{ID: "file:a.js#sum", FilePath: "a.js", Language: "javascript", Text: plain},
		{ID: "file:b.js#sum", FilePath: "b.js", Language: "javascript", Text: commented},
	}

	entries := Detect(inputs)
	a := entries["file:a.js#sum"]
	if len(a) != 1 {
		t.Fatalf("expected comments to be stripped before comparison, got %+v", a)
	}
	if a[0].Similarity < similarityCutoff {
		t.Fatalf("expected similarity above cutoff, got %v", a[0].Similarity)
	}
}
