package provenance

import (
	"errors"
	"strings"
	"testing"
)

func TestMergeAlignsTagsWithRunes(t *testing.T) {
	segments := []Segment{
		{Text: "abc", Channel: Trusted, SourceID: "sys"},
		{Text: "héllo", Channel: Untrusted, SourceID: "doc"},
	}

	m, err := Merge(segments, DefaultLimits())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if len(m.Runes) != len(m.Tags) {
		t.Fatalf("runes/tags length mismatch: %d vs %d", len(m.Runes), len(m.Tags))
	}
	if got := m.Text(); got != "abchéllo" {
		t.Errorf("merged text = %q, want %q", got, "abchéllo")
	}

	// First three runes trusted, rest untrusted, positions restart per segment.
	for i := 0; i < 3; i++ {
		if m.Tags[i].Channel != Trusted || m.Tags[i].SourceID != "sys" || m.Tags[i].OriginalPosition != i {
			t.Errorf("tag %d = %+v, want trusted sys pos %d", i, m.Tags[i], i)
		}
	}
	for i := 3; i < len(m.Tags); i++ {
		if m.Tags[i].Channel != Untrusted || m.Tags[i].SourceID != "doc" {
			t.Errorf("tag %d = %+v, want untrusted doc", i, m.Tags[i])
		}
		if m.Tags[i].OriginalPosition != i-3 {
			t.Errorf("tag %d position = %d, want %d", i, m.Tags[i].OriginalPosition, i-3)
		}
	}
}

func TestMergeEmptyInput(t *testing.T) {
	m, err := Merge(nil, DefaultLimits())
	if err != nil {
		t.Fatalf("Merge(nil) failed: %v", err)
	}
	if len(m.Runes) != 0 || len(m.Tags) != 0 {
		t.Errorf("empty input produced %d runes, %d tags", len(m.Runes), len(m.Tags))
	}
}

func TestMergeRejectsUnknownChannel(t *testing.T) {
	_, err := Merge([]Segment{{Text: "x", Channel: "system", SourceID: "a"}}, DefaultLimits())
	var segErr *SegmentError
	if !errors.As(err, &segErr) {
		t.Fatalf("want SegmentError, got %v", err)
	}
	if segErr.Index != 0 || segErr.Label != "system" {
		t.Errorf("SegmentError = %+v", segErr)
	}
}

func TestMergeRejectsInvalidUTF8(t *testing.T) {
	_, err := Merge([]Segment{
		{Text: "ok", Channel: Trusted, SourceID: "a"},
		{Text: "bad\xff\xfe", Channel: Untrusted, SourceID: "b"},
	}, DefaultLimits())
	var textErr *TextError
	if !errors.As(err, &textErr) {
		t.Fatalf("want TextError, got %v", err)
	}
	if textErr.Index != 1 || textErr.SourceID != "b" {
		t.Errorf("TextError = %+v", textErr)
	}
}

func TestMergeLimits(t *testing.T) {
	limits := Limits{MaxSegmentBytes: 10, MaxSegments: 2, MaxTotalBytes: 15}

	tests := []struct {
		name     string
		segments []Segment
		limit    string
	}{
		{
			name: "segment bytes",
			segments: []Segment{
				{Text: strings.Repeat("a", 11), Channel: Trusted},
			},
			limit: "segment bytes",
		},
		{
			name: "segment count",
			segments: []Segment{
				{Text: "a", Channel: Trusted},
				{Text: "b", Channel: Trusted},
				{Text: "c", Channel: Trusted},
			},
			limit: "segment count",
		},
		{
			name: "total bytes",
			segments: []Segment{
				{Text: strings.Repeat("a", 10), Channel: Trusted},
				{Text: strings.Repeat("b", 10), Channel: Trusted},
			},
			limit: "total bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Merge(tt.segments, limits)
			var limErr *LimitError
			if !errors.As(err, &limErr) {
				t.Fatalf("want LimitError, got %v", err)
			}
			if limErr.Limit != tt.limit {
				t.Errorf("limit = %q, want %q", limErr.Limit, tt.limit)
			}
		})
	}
}

func TestMergeTagsStickyUntrusted(t *testing.T) {
	trusted := Tag{Channel: Trusted, SourceID: "sys"}
	untrusted := Tag{Channel: Untrusted, SourceID: "doc", OriginalPosition: 7}

	got := MergeTags([]Tag{trusted, untrusted, trusted})
	if got.Channel != Untrusted || got.SourceID != "doc" || got.OriginalPosition != 7 {
		t.Errorf("MergeTags = %+v, want first untrusted contributor", got)
	}

	got = MergeTags([]Tag{trusted, {Channel: Trusted, SourceID: "other"}})
	if got != trusted {
		t.Errorf("MergeTags all-trusted = %+v, want first tag", got)
	}
}

func TestParseChannelFailsClosed(t *testing.T) {
	for _, label := range []string{"", "Trusted", "TRUSTED", "system", "unknown"} {
		if _, ok := ParseChannel(label); ok {
			t.Errorf("ParseChannel(%q) accepted, want rejection", label)
		}
	}
	if ch, ok := ParseChannel("untrusted"); !ok || ch != Untrusted {
		t.Errorf("ParseChannel(untrusted) = %v %v", ch, ok)
	}
}
