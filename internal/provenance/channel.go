// Package provenance builds per-character trust tags from mixed
// trusted/untrusted text segments. Every rune of the merged buffer carries a
// Tag recording which channel and source it came from; downstream stages
// thread those tags through normalization so a violation can always be
// traced back to its origin.
package provenance

// Channel classifies the trust level of an input segment.
type Channel string

const (
	Trusted   Channel = "trusted"
	Untrusted Channel = "untrusted"
)

// ParseChannel converts a caller-supplied channel label to a Channel.
// Unknown labels are rejected: fail closed, never default to trusted.
func ParseChannel(label string) (Channel, bool) {
	switch Channel(label) {
	case Trusted:
		return Trusted, true
	case Untrusted:
		return Untrusted, true
	default:
		return "", false
	}
}

// Segment is one caller-supplied piece of input text. Read-only to the core.
type Segment struct {
	Text     string  `json:"text"`
	Channel  Channel `json:"channel"`
	SourceID string  `json:"source_id"`
}

// Tag is the provenance of a single rune in the merged buffer.
// The Channel never changes once assigned; only the position a tag is
// attached to moves as normalization transforms the text.
type Tag struct {
	Channel          Channel
	SourceID         string
	OriginalPosition int
}

// MergeTags combines the tags of runes that a transform collapsed into one
// output rune. Untrusted is sticky: if any contributor is untrusted, the
// result is the first untrusted contributor's tag.
func MergeTags(tags []Tag) Tag {
	for _, t := range tags {
		if t.Channel == Untrusted {
			return t
		}
	}
	return tags[0]
}
