// Package clones finds near-duplicate function-like symbols via k-gram
// shingling, winnowing, and a Dice-coefficient fallback. Exact-duplicate
// symbols are short-circuited with an xxhash fast path before the full
// comparison runs (a hash-then-compare structure built around the pinned
// fingerprinting constants below).
package clones

import (
	"regexp"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/phobologic/codemap/internal/codemodel"
)

const (
	kgramSize        = 3
	winnowWindow     = 4
	hashModulus      = 1_000_003
	tokenMultiplier  = 31
	separatorMix     = 131
	maxTokens        = 5000
	minTokens        = 5
	similarityCutoff = 0.55
	maxPairs         = 250_000
	maxMatchesPerPair = 200
	maxIndicesPerHash = 64
)

var (
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRe  = regexp.MustCompile(`//[^\n]*`)
	tokenRe        = regexp.MustCompile(`[A-Za-z0-9_]+`)
)

// Input is one function-like symbol considered for clone detection.
type Input struct {
	ID       string
	Name     string
	FilePath string
	Language string
	Text     string
	// StartLine is the symbol's first line in its file (1-based); used to
	// translate token-offset match ranges back into source line numbers.
	StartLine int
}

// prepared is the per-symbol working state built once and reused across
// every pairwise comparison it participates in.
type prepared struct {
	in           Input
	tokens       []string
	tokenOffsets []int // byte offset of each token in the comment-stripped text
	lineOffsets  []int // cumulative byte offset of the start of each line
	fingerprint  map[uint64][]int // hash -> k-gram start indices (bounded)
	counts       map[string]int  // token multiset, for Dice
	exactHash    uint64
}

// Detect runs the full pipeline over every function-like symbol among
// inputs, returning directed clone entries keyed by source symbol id.
func Detect(inputs []Input) map[string][]codemodel.CloneEntry {
	items := prepareAll(inputs)
	out := make(map[string][]codemodel.CloneEntry)

	pairCount := 0
pairs:
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if pairCount >= maxPairs {
				break pairs
			}
			pairCount++

			a, b := items[i], items[j]
			if !languagesCompatible(a.in.Language, b.in.Language) {
				continue
			}

			sim, rangeA, rangeB, ok := compare(a, b)
			if !ok || sim < similarityCutoff {
				continue
			}
			sim = roundTo2(sim)

			out[a.in.ID] = append(out[a.in.ID], entryFor(b, rangeB, sim))
			out[b.in.ID] = append(out[b.in.ID], entryFor(a, rangeA, sim))
		}
	}

	return out
}

func entryFor(to prepared, toRange [2]int, sim float64) codemodel.CloneEntry {
	startLine, endLine := to.in.StartLine, to.in.StartLine
	if toRange[0] >= 0 && toRange[1] >= toRange[0] {
		startLine = to.in.StartLine - 1 + lineForOffset(to.lineOffsets, to.tokenOffsets[toRange[0]])
		endLine = to.in.StartLine - 1 + lineForOffset(to.lineOffsets, to.tokenOffsets[toRange[1]])
	}
	return codemodel.CloneEntry{
		TargetID:   to.in.ID,
		FilePath:   to.in.FilePath,
		StartLine:  startLine,
		EndLine:    endLine,
		Similarity: sim,
	}
}

// prepareAll tokenizes, fingerprints, and hashes every candidate symbol,
// dropping those with fewer than minTokens tokens.
func prepareAll(inputs []Input) []prepared {
	out := make([]prepared, 0, len(inputs))
	for _, in := range inputs {
		stripped := stripComments(in.Text)
		toks, offsets := tokenize(stripped)
		if len(toks) < minTokens {
			continue
		}
		if len(toks) > maxTokens {
			toks = toks[:maxTokens]
			offsets = offsets[:maxTokens]
		}

		p := prepared{
			in:           in,
			tokens:       toks,
			tokenOffsets: offsets,
			lineOffsets:  lineOffsetTable(stripped),
			fingerprint:  fingerprint(toks),
			counts:       multiset(toks),
			exactHash:    xxhash.Sum64String(strings.Join(toks, " ")),
		}
		out = append(out, p)
	}
	return out
}

// stripComments replaces the interior bytes of block and line comments
// with spaces, preserving line layout and byte offsets.
func stripComments(src string) string {
	b := []byte(src)
	for _, loc := range blockCommentRe.FindAllIndex(b, -1) {
		blankExceptNewlines(b, loc[0], loc[1])
	}
	for _, loc := range lineCommentRe.FindAllIndex(b, -1) {
		blankExceptNewlines(b, loc[0], loc[1])
	}
	return string(b)
}

func blankExceptNewlines(b []byte, start, end int) {
	for i := start; i < end; i++ {
		if b[i] != '\n' {
			b[i] = ' '
		}
	}
}

// tokenize splits on [A-Za-z0-9_]+, lowercases, and drops a lone "_".
func tokenize(src string) ([]string, []int) {
	locs := tokenRe.FindAllStringIndex(src, -1)
	toks := make([]string, 0, len(locs))
	offsets := make([]int, 0, len(locs))
	for _, loc := range locs {
		raw := src[loc[0]:loc[1]]
		if raw == "_" {
			continue
		}
		toks = append(toks, strings.ToLower(raw))
		offsets = append(offsets, loc[0])
	}
	return toks, offsets
}

func lineOffsetTable(src string) []int {
	offsets := []int{0}
	for i, c := range src {
		if c == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

func lineForOffset(lineOffsets []int, byteOffset int) int {
	idx := sort.Search(len(lineOffsets), func(i int) bool { return lineOffsets[i] > byteOffset })
	return idx // lineOffsets[0]=0 means line 1 starts at index 0, so idx is 1-based line number
}

func multiset(tokens []string) map[string]int {
	m := make(map[string]int, len(tokens))
	for _, t := range tokens {
		m[t]++
	}
	return m
}

// rollingHash computes a k-gram hash: a character-wise
// multiply-accumulate over the k tokens with prime modulus 1,000,003,
// per-token multiplier 31, and separator mix 131 between tokens.
func rollingHash(tokens []string) uint64 {
	var h uint64
	for i, tok := range tokens {
		if i > 0 {
			h = (h*separatorMix + 1) % hashModulus
		}
		for _, r := range tok {
			h = (h*tokenMultiplier + uint64(r)) % hashModulus
		}
	}
	return h
}

// fingerprint computes k-gram hashes then winnows with window w=4. Ties
// within a window are broken by latest index; adjacent duplicate
// selections are suppressed.
func fingerprint(tokens []string) map[uint64][]int {
	if len(tokens) < kgramSize {
		return map[uint64][]int{}
	}

	hashes := make([]uint64, 0, len(tokens)-kgramSize+1)
	for i := 0; i+kgramSize <= len(tokens); i++ {
		hashes = append(hashes, rollingHash(tokens[i:i+kgramSize]))
	}

	out := make(map[uint64][]int)
	add := func(h uint64, idx int) {
		list := out[h]
		if len(list) > 0 && list[len(list)-1] == idx {
			return
		}
		if len(list) >= maxIndicesPerHash {
			return
		}
		out[h] = append(list, idx)
	}

	if len(hashes) <= winnowWindow {
		minIdx := globalMinLatest(hashes)
		add(hashes[minIdx], minIdx)
		return out
	}

	lastSelected := -1
	for start := 0; start+winnowWindow <= len(hashes); start++ {
		window := hashes[start : start+winnowWindow]
		minIdx := start + minLatestInWindow(window)
		if minIdx == lastSelected {
			continue
		}
		add(hashes[minIdx], minIdx)
		lastSelected = minIdx
	}
	return out
}

func minLatestInWindow(window []uint64) int {
	best := 0
	for i := 1; i < len(window); i++ {
		if window[i] <= window[best] {
			best = i
		}
	}
	return best
}

func globalMinLatest(hashes []uint64) int {
	best := 0
	for i := 1; i < len(hashes); i++ {
		if hashes[i] <= hashes[best] {
			best = i
		}
	}
	return best
}

// languagesCompatible normalizes the JS/TS family to "js-family" and
// compares case-insensitively; a missing language on either side is
// permissive.
func languagesCompatible(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	return normalizeLanguage(a) == normalizeLanguage(b)
}

func normalizeLanguage(lang string) string {
	switch strings.ToLower(lang) {
	case "javascript", "typescript", "js", "ts", "jsx", "tsx":
		return "js-family"
	default:
		return strings.ToLower(lang)
	}
}

// segment is an inclusive [start,end] token-index range on one side of a
// match.
type segment struct{ start, end int }

// compare runs the pairwise similarity comparison: fingerprint-hash
// overlap with greedy segment extension when shared hashes exist, Dice
// otherwise, and the max of both when both are available. It returns the
// best similarity plus the merged token-index range on each side.
func compare(a, b prepared) (float64, [2]int, [2]int, bool) {
	if a.exactHash == b.exactHash {
		return 1.0, [2]int{0, len(a.tokens) - 1}, [2]int{0, len(b.tokens) - 1}, true
	}

	dice := diceSimilarity(a.counts, b.counts)

	segOverlap, segA, segB := 0.0, [2]int{-1, -1}, [2]int{-1, -1}
	if sharesHash(a.fingerprint, b.fingerprint) {
		segOverlap, segA, segB = segmentOverlap(a, b)
	}

	if segOverlap >= dice {
		return segOverlap, segA, segB, true
	}
	return dice, segA, segB, true
}

func sharesHash(a, b map[uint64][]int) bool {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	for h := range small {
		if _, ok := large[h]; ok {
			return true
		}
	}
	return false
}

func diceSimilarity(a, b map[string]int) float64 {
	var shared, totalA, totalB int
	for tok, ca := range a {
		totalA += ca
		if cb, ok := b[tok]; ok {
			shared += min(ca, cb)
		}
	}
	for _, cb := range b {
		totalB += cb
	}
	if totalA+totalB == 0 {
		return 0
	}
	return 2 * float64(shared) / float64(totalA+totalB)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// segmentOverlap enumerates shared-hash index pairs (bounded by
// MAX_MATCHES_PER_PAIR), extends each pair greedily while tokens are
// equal, merges overlapping/adjacent segments per side, and returns
// overlapTokens / max(|tokensA|, |tokensB|) along with the merged ranges.
func segmentOverlap(a, b prepared) (float64, [2]int, [2]int) {
	type idxPair struct{ ia, ib int }
	var pairs []idxPair

collect:
	for h, idxA := range a.fingerprint {
		idxB, ok := b.fingerprint[h]
		if !ok {
			continue
		}
		for _, ia := range idxA {
			for _, ib := range idxB {
				pairs = append(pairs, idxPair{ia, ib})
				if len(pairs) >= maxMatchesPerPair {
					break collect
				}
			}
		}
	}

	var segsA, segsB []segment
	for _, p := range pairs {
		sa, ea := extendMatch(a.tokens, b.tokens, p.ia, p.ib)
		startA, endA := sa, ea
		startB := p.ib - (p.ia - sa)
		endB := p.ib + (ea - p.ia)
		segsA = append(segsA, segment{startA, endA})
		segsB = append(segsB, segment{startB, endB})
	}

	mergedA := mergeSegments(segsA)
	mergedB := mergeSegments(segsB)

	overlapTokens := countTokens(mergedA)
	maxLen := len(a.tokens)
	if len(b.tokens) > maxLen {
		maxLen = len(b.tokens)
	}
	if maxLen == 0 {
		return 0, [2]int{-1, -1}, [2]int{-1, -1}
	}

	rangeA := spanOf(mergedA)
	rangeB := spanOf(mergedB)
	return float64(overlapTokens) / float64(maxLen), rangeA, rangeB
}

// extendMatch grows the k-gram seed match at (ia,ib) left and right while
// the underlying tokens stay equal on both sides.
func extendMatch(tokensA, tokensB []string, ia, ib int) (int, int) {
	startA, startB := ia, ib
	for startA > 0 && startB > 0 && tokensA[startA-1] == tokensB[startB-1] {
		startA--
		startB--
	}
	endA, endB := ia+kgramSize-1, ib+kgramSize-1
	for endA+1 < len(tokensA) && endB+1 < len(tokensB) && tokensA[endA+1] == tokensB[endB+1] {
		endA++
		endB++
	}
	return startA, endA
}

func mergeSegments(segs []segment) []segment {
	if len(segs) == 0 {
		return nil
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].start < segs[j].start })
	merged := []segment{segs[0]}
	for _, s := range segs[1:] {
		last := &merged[len(merged)-1]
		if s.start <= last.end+1 {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

func countTokens(segs []segment) int {
	n := 0
	for _, s := range segs {
		n += s.end - s.start + 1
	}
	return n
}

func spanOf(segs []segment) [2]int {
	if len(segs) == 0 {
		return [2]int{-1, -1}
	}
	start, end := segs[0].start, segs[0].end
	for _, s := range segs[1:] {
		if s.start < start {
			start = s.start
		}
		if s.end > end {
			end = s.end
		}
	}
	return [2]int{start, end}
}

func roundTo2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
