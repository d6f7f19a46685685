// Package imperative detects command-like spans in normalized text.
// Detection is rule/pattern based: four closed families backed by compiled
// matchers, with suppression predicates applied before spans are finalized.
// No dynamic rule registration; the tables in vocab.go are the whole grammar.
package imperative

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Category identifies a pattern family.
type Category string

const (
	DirectCommand   Category = "direct_command"
	RequestFrame    Category = "request_frame"
	CodeFenceMarker Category = "code_fence_marker"
	ToolCallIntent  Category = "tool_call_intent"
)

// familyRank breaks ties between overlapping spans of equal length:
// the family ordered first wins.
var familyRank = map[Category]int{
	DirectCommand:   0,
	RequestFrame:    1,
	CodeFenceMarker: 2,
	ToolCallIntent:  3,
}

// Span is one detected imperative in normalized rune coordinates.
// Spans returned by Detect are ordered and non-overlapping.
type Span struct {
	Start    int
	End      int
	Category Category
	Text     string
}

var (
	verbAlt = alternation(verbForms)

	// Verb-initial: restricted verb at start of input, line, or sentence.
	directInitialRe = regexp.MustCompile(`(?m)(?:\A|^|[.!?:;]\s)\s*(` + verbAlt + `)\b`)

	// Modal plus restricted verb.
	directModalRe = regexp.MustCompile(`\b(?:` + alternation(modals) + `)\s+(?:now\s+|immediately\s+)?(` + verbAlt + `)\b`)

	// Politeness/obligation marker immediately followed by a restricted verb.
	requestFrameRe = regexp.MustCompile(`\b(?:` + alternation(requestMarkers) + `)\s+(` + verbAlt + `)\b`)

	// Fence opener line; the execution directive check happens in code.
	fenceOpenerRe = regexp.MustCompile("(?m)^ {0,3}(?:`{3,}|~{3,})[^\n]*")

	// Identifier immediately followed by a parenthesized argument list.
	toolCallRe = regexp.MustCompile(`\b([a-z_][a-z0-9_]*(?:\.[a-z_][a-z0-9_]*)*)\(([^()\n]{0,200})\)`)

	toolMarkerRe = regexp.MustCompile(alternationLiteral(toolMarkers))
)

func alternationLiteral(forms []string) string {
	escaped := make([]string, len(forms))
	for i, f := range forms {
		escaped[i] = regexp.QuoteMeta(f)
	}
	return strings.Join(escaped, "|")
}

// candidate is a raw match in byte coordinates, before suppression and
// overlap resolution.
type candidate struct {
	start, end int
	category   Category
}

// Detect scans normalized text and returns ordered, non-overlapping
// imperative spans in rune coordinates. All matching happens on the fully
// normalized text in one pass.
func Detect(text string) []Span {
	return detect(text, nil)
}

// DetectSkipping is Detect with protected regions, given in rune
// coordinates and sorted left to right. Candidates intersecting a protected
// region are dropped before overlap resolution. The enforcement gate
// reverifies neutralized text through this entry point so the markers it
// spliced do not re-match; ordinary detection has no protected regions, so
// marker-shaped text arriving from a caller is scanned like anything else.
func DetectSkipping(text string, protected [][2]int) []Span {
	return detect(text, runeRegionsToBytes(text, protected))
}

func detect(text string, protected [][2]int) []Span {
	var cands []candidate

	// DirectCommand: verb-initial and modal constructions. The span covers
	// the verb token itself.
	for _, sub := range directInitialRe.FindAllStringSubmatchIndex(text, -1) {
		cands = append(cands, candidate{sub[2], sub[3], DirectCommand})
	}
	for _, sub := range directModalRe.FindAllStringSubmatchIndex(text, -1) {
		cands = append(cands, candidate{sub[2], sub[3], DirectCommand})
	}

	// RequestFrame: span covers the verb token following the marker.
	for _, sub := range requestFrameRe.FindAllStringSubmatchIndex(text, -1) {
		cands = append(cands, candidate{sub[2], sub[3], RequestFrame})
	}

	// CodeFenceMarker: fence openers whose tag or adjoining comment is an
	// execution directive. The span covers the opener line.
	for _, loc := range fenceOpenerRe.FindAllStringIndex(text, -1) {
		if isExecFence(text[loc[0]:loc[1]]) {
			cands = append(cands, candidate{loc[0], loc[1], CodeFenceMarker})
		}
	}

	// ToolCallIntent: call-like syntax and explicit tool markers.
	for _, loc := range toolCallRe.FindAllStringIndex(text, -1) {
		cands = append(cands, candidate{loc[0], loc[1], ToolCallIntent})
	}
	for _, loc := range toolMarkerRe.FindAllStringIndex(text, -1) {
		cands = append(cands, candidate{loc[0], loc[1], ToolCallIntent})
	}

	// Suppression runs before spans are finalized, never after.
	kept := cands[:0]
	for _, c := range cands {
		if suppressed(text, c.start) || insideAny(c, protected) {
			continue
		}
		kept = append(kept, c)
	}

	resolved := resolveOverlaps(kept)

	return toRuneSpans(text, resolved)
}

// isExecFence reports whether a fence opener line carries an execution
// directive in its language tag or an adjoining auto-run comment.
func isExecFence(line string) bool {
	rest := strings.TrimLeft(line, " `~")
	tag := rest
	if i := strings.IndexAny(rest, " \t"); i >= 0 {
		tag = rest[:i]
	}
	if execFenceTags[tag] {
		return true
	}
	for _, suf := range execFenceSuffixes {
		if strings.HasSuffix(tag, suf) {
			return true
		}
	}
	for _, c := range autoRunComments {
		if strings.Contains(line, c) {
			return true
		}
	}
	return false
}

// insideAny reports whether the candidate intersects any of the regions.
func insideAny(c candidate, regions [][2]int) bool {
	for _, r := range regions {
		if c.start < r[1] && c.end > r[0] {
			return true
		}
	}
	return false
}

// runeRegionsToBytes converts sorted rune-coordinate regions into byte
// coordinates in a single pass over the text.
func runeRegionsToBytes(text string, regions [][2]int) [][2]int {
	out := make([][2]int, 0, len(regions))
	b, r := 0, 0
	advance := func(target int) int {
		for r < target && b < len(text) {
			_, size := utf8.DecodeRuneInString(text[b:])
			b += size
			r++
		}
		return b
	}
	for _, reg := range regions {
		start := advance(reg[0])
		end := advance(reg[1])
		out = append(out, [2]int{start, end})
	}
	return out
}

// resolveOverlaps enforces the overlap policy: the longer span wins; equal
// lengths break toward the family ordered first. Output is sorted by start.
func resolveOverlaps(cands []candidate) []candidate {
	order := make([]candidate, len(cands))
	copy(order, cands)
	sort.Slice(order, func(i, j int) bool {
		li, lj := order[i].end-order[i].start, order[j].end-order[j].start
		if li != lj {
			return li > lj
		}
		if familyRank[order[i].category] != familyRank[order[j].category] {
			return familyRank[order[i].category] < familyRank[order[j].category]
		}
		return order[i].start < order[j].start
	})

	var accepted []candidate
	for _, c := range order {
		overlaps := false
		for _, a := range accepted {
			if c.start < a.end && c.end > a.start {
				overlaps = true
				break
			}
		}
		if !overlaps {
			accepted = append(accepted, c)
		}
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].start < accepted[j].start })
	return accepted
}

// toRuneSpans converts byte-coordinate candidates (sorted by start) into
// rune-coordinate spans in a single pass over the text.
func toRuneSpans(text string, cands []candidate) []Span {
	spans := make([]Span, 0, len(cands))
	byteToRune := func(target, fromByte, fromRune int) (int, int) {
		b, r := fromByte, fromRune
		for b < target {
			_, size := utf8.DecodeRuneInString(text[b:])
			b += size
			r++
		}
		return b, r
	}

	b, r := 0, 0
	for _, c := range cands {
		var startRune, endRune int
		b, r = byteToRune(c.start, b, r)
		startRune = r
		b, r = byteToRune(c.end, b, r)
		endRune = r
		spans = append(spans, Span{
			Start:    startRune,
			End:      endRune,
			Category: c.category,
			Text:     text[c.start:c.end],
		})
	}
	return spans
}
