package imperative

import "strings"

// descriptivePhrases introduce text that talks about a command rather than
// issuing one. A candidate match preceded by one of these inside the same
// clause is discarded.
var descriptivePhrases = []string{
	"specifies that",
	"specifies",
	"describes",
	"describing",
	"supports",
	"documents",
	"documentation",
	"refers to",
	"referred to as",
	"for example",
	"for instance",
	"e.g.",
	"such as",
	"is used to",
	"can be used to",
	"explains",
	"defined as",
	"definition of",
	"stands for",
	"meaning of",
}

// suppressLookback bounds how far back (in bytes) a descriptive frame is
// searched for. Clause boundaries cut the window short.
const suppressLookback = 48

// suppressed reports whether the candidate starting at the given byte offset
// sits inside a descriptive frame.
func suppressed(text string, start int) bool {
	lo := start - suppressLookback
	if lo < 0 {
		lo = 0
	}
	window := text[lo:start]

	// Only look within the current clause.
	if i := strings.LastIndexAny(window, ".!?\n;"); i >= 0 {
		window = window[i+1:]
	}

	for _, p := range descriptivePhrases {
		if strings.Contains(window, p) {
			return true
		}
	}
	return false
}
