// Package normalize canonicalizes merged input text while preserving
// per-rune provenance. Four transforms run in a fixed order: NFKC
// compatibility normalization, Unicode case folding, invisible-character
// stripping, and confusable folding. Each transform threads an explicit
// position map: output rune i always has a tag, and a tag's channel never
// changes. Byte-identical input yields byte-identical output; nothing here
// depends on locale or time.
package normalize

import (
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/tracewall/tracewall/internal/provenance"
)

// Stats counts what each transform changed, for reporting.
type Stats struct {
	NFKCChanges       int `json:"nfkc_changes"`
	CaseChanges       int `json:"case_changes"`
	InvisiblesRemoved int `json:"invisibles_removed"`
	ConfusablesFolded int `json:"confusables_folded"`
}

// Result is the normalized buffer with positionally aligned provenance:
// Tags[i] is the provenance of Runes[i].
type Result struct {
	Runes []rune
	Tags  []provenance.Tag
	Stats Stats
}

// Text returns the normalized buffer as a string.
func (r Result) Text() string {
	return string(r.Runes)
}

// Normalize applies the full transform sequence to a merged buffer.
func Normalize(m provenance.Merged) Result {
	var res Result
	res.Runes, res.Tags = m.Runes, m.Tags

	res.Runes, res.Tags = nfkcStep(res.Runes, res.Tags, &res.Stats)
	res.Runes, res.Tags = foldStep(res.Runes, res.Tags, &res.Stats)
	res.Runes, res.Tags = stripStep(res.Runes, res.Tags, &res.Stats)
	res.Runes, res.Tags = confusableStep(res.Runes, res.Tags, &res.Stats)

	return res
}

// nfkcStep applies NFKC normalization chunk by chunk. The source is split at
// normalization boundaries; each chunk normalizes independently, so the
// position map only has to relate a chunk's input runes to its output runes.
// An unchanged chunk keeps its tags positionally; any rewritten chunk, even
// one that keeps its rune count (combining marks can reorder), gives every
// output rune the sticky-untrusted merge of the chunk's input tags. A chunk
// that normalizes to nothing drops its tags from the map (the provenance
// still exists in the merged buffer).
func nfkcStep(runes []rune, tags []provenance.Tag, st *Stats) ([]rune, []provenance.Tag) {
	src := string(runes)
	outRunes := make([]rune, 0, len(runes))
	outTags := make([]provenance.Tag, 0, len(tags))

	byteOff := 0
	runeOff := 0
	for byteOff < len(src) {
		n := norm.NFKC.NextBoundaryInString(src[byteOff:], true)
		if n <= 0 {
			n = len(src) - byteOff
		}
		chunk := src[byteOff : byteOff+n]
		chunkRunes := utf8.RuneCountInString(chunk)

		normed := norm.NFKC.String(chunk)
		if normed != chunk {
			st.NFKCChanges++
		}

		nr := []rune(normed)
		if normed == chunk {
			for k, r := range nr {
				outRunes = append(outRunes, r)
				outTags = append(outTags, tags[runeOff+k])
			}
		} else if len(nr) > 0 {
			merged := provenance.MergeTags(tags[runeOff : runeOff+chunkRunes])
			for _, r := range nr {
				outRunes = append(outRunes, r)
				outTags = append(outTags, merged)
			}
		}

		byteOff += n
		runeOff += chunkRunes
	}
	return outRunes, outTags
}

// foldStep applies full Unicode case folding rune by rune. Folding one rune
// can expand it (ß → ss); each expanded rune inherits the source rune's tag.
// A fresh Caser per call: Casers are stateful and must not be shared
// across concurrent verifications.
func foldStep(runes []rune, tags []provenance.Tag, st *Stats) ([]rune, []provenance.Tag) {
	caser := cases.Fold()
	outRunes := make([]rune, 0, len(runes))
	outTags := make([]provenance.Tag, 0, len(tags))

	for i, r := range runes {
		folded := caser.String(string(r))
		if folded != string(r) {
			st.CaseChanges++
		}
		for _, fr := range folded {
			outRunes = append(outRunes, fr)
			outTags = append(outTags, tags[i])
		}
	}
	return outRunes, outTags
}

// stripStep removes the fixed set of invisible and format-control code
// points, deleting their tags from the map.
func stripStep(runes []rune, tags []provenance.Tag, st *Stats) ([]rune, []provenance.Tag) {
	outRunes := make([]rune, 0, len(runes))
	outTags := make([]provenance.Tag, 0, len(tags))

	for i, r := range runes {
		if invisibles[r] {
			st.InvisiblesRemoved++
			continue
		}
		outRunes = append(outRunes, r)
		outTags = append(outTags, tags[i])
	}
	return outRunes, outTags
}

// confusableStep maps confusable code points to their canonical Latin
// representative. Strictly one-to-one, so tags pass through unchanged.
func confusableStep(runes []rune, tags []provenance.Tag, st *Stats) ([]rune, []provenance.Tag) {
	for i, r := range runes {
		if canon, ok := confusables[r]; ok {
			runes[i] = canon
			st.ConfusablesFolded++
		}
	}
	return runes, tags
}
