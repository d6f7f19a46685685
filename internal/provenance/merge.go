package provenance

import "unicode/utf8"

// Default input bounds. Checked before any detection runs.
const (
	DefaultMaxSegmentBytes = 1_000_000
	DefaultMaxSegments     = 1000
	DefaultMaxTotalBytes   = 10_000_000
)

// Limits bounds the size of a single verification call.
type Limits struct {
	MaxSegmentBytes int
	MaxSegments     int
	MaxTotalBytes   int
}

// DefaultLimits returns the built-in input bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxSegmentBytes: DefaultMaxSegmentBytes,
		MaxSegments:     DefaultMaxSegments,
		MaxTotalBytes:   DefaultMaxTotalBytes,
	}
}

// Merged is the concatenated input buffer with positionally aligned tags:
// Tags[i] is the provenance of Runes[i].
type Merged struct {
	Runes []rune
	Tags  []Tag
}

// Text returns the merged buffer as a string.
func (m Merged) Text() string {
	return string(m.Runes)
}

// Merge concatenates segments in caller order and builds the parallel
// provenance array. No reordering, no deduplication. Empty segments
// contribute zero tags. An empty segment list yields an empty buffer,
// which trivially passes downstream.
func Merge(segments []Segment, limits Limits) (Merged, error) {
	if limits.MaxSegments > 0 && len(segments) > limits.MaxSegments {
		return Merged{}, &LimitError{Limit: "segment count", Max: limits.MaxSegments, Got: len(segments)}
	}

	total := 0
	for i, seg := range segments {
		if _, ok := ParseChannel(string(seg.Channel)); !ok {
			return Merged{}, &SegmentError{Index: i, Label: string(seg.Channel)}
		}
		if !utf8.ValidString(seg.Text) {
			return Merged{}, &TextError{Index: i, SourceID: seg.SourceID}
		}
		if limits.MaxSegmentBytes > 0 && len(seg.Text) > limits.MaxSegmentBytes {
			return Merged{}, &LimitError{Limit: "segment bytes", Max: limits.MaxSegmentBytes, Got: len(seg.Text)}
		}
		total += len(seg.Text)
	}
	if limits.MaxTotalBytes > 0 && total > limits.MaxTotalBytes {
		return Merged{}, &LimitError{Limit: "total bytes", Max: limits.MaxTotalBytes, Got: total}
	}

	var m Merged
	for _, seg := range segments {
		pos := 0
		for _, r := range seg.Text {
			m.Runes = append(m.Runes, r)
			m.Tags = append(m.Tags, Tag{
				Channel:          seg.Channel,
				SourceID:         seg.SourceID,
				OriginalPosition: pos,
			})
			pos++
		}
	}
	return m, nil
}
