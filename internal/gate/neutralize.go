package gate

import (
	"github.com/tracewall/tracewall/internal/provenance"
	"github.com/tracewall/tracewall/internal/verify"
)

const (
	markerOpen  = "⟦neutralized:"
	markerClose = "⟧"
)

// Neutralize replaces each violating span in the first-pass normalized text
// with an inert marker wrapping the matched text, and returns the rune
// regions the markers occupy so the second pass can skip exactly those.
// Runes outside violating spans are untouched. The wrapped span text keeps
// its original per-rune tags, and the marker scaffolding carries the tag of
// the span's first untrusted rune, so re-verification sees the same channel
// attribution rune for rune.
func Neutralize(r *verify.Result) (provenance.Merged, [][2]int) {
	runes := r.Normalized.Runes
	tags := r.Normalized.Tags

	outR := make([]rune, 0, len(runes))
	outT := make([]provenance.Tag, 0, len(tags))
	regions := make([][2]int, 0, len(r.Violations))

	prev := 0
	for _, v := range r.Violations {
		s := v.Span
		outR = append(outR, runes[prev:s.Start]...)
		outT = append(outT, tags[prev:s.Start]...)

		regionStart := len(outR)
		markerTag := tags[v.FirstUntrustedOffset]
		for _, mr := range []rune(markerOpen) {
			outR = append(outR, mr)
			outT = append(outT, markerTag)
		}
		for i := s.Start; i < s.End; i++ {
			mr := runes[i]
			// A bracket inside the span would truncate the marker region,
			// so degrade it to a placeholder.
			if mr == '⟦' || mr == '⟧' {
				mr = '·'
			}
			outR = append(outR, mr)
			outT = append(outT, tags[i])
		}
		for _, mr := range []rune(markerClose) {
			outR = append(outR, mr)
			outT = append(outT, markerTag)
		}
		regions = append(regions, [2]int{regionStart, len(outR)})
		prev = s.End
	}
	outR = append(outR, runes[prev:]...)
	outT = append(outT, tags[prev:]...)

	return provenance.Merged{Runes: outR, Tags: outT}, regions
}
