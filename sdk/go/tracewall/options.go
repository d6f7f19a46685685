package tracewall

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	mode        string
	journalPath string
	storePath   string
	maxSegment  int
	maxSegments int
	maxTotal    int
}

// WithMode sets the enforcement mode: "block" (default) or "rewrite".
func WithMode(mode string) Option {
	return func(c *clientConfig) { c.mode = mode }
}

// WithJournal records every attestation to a hash-chained JSONL journal.
func WithJournal(path string) Option {
	return func(c *clientConfig) { c.journalPath = path }
}

// WithStore records every attestation to a SQLite store.
func WithStore(path string) Option {
	return func(c *clientConfig) { c.storePath = path }
}

// WithLimits overrides the input size limits. Non-positive values keep the
// defaults.
func WithLimits(maxSegmentBytes, maxSegments, maxTotalBytes int) Option {
	return func(c *clientConfig) {
		c.maxSegment = maxSegmentBytes
		c.maxSegments = maxSegments
		c.maxTotal = maxTotalBytes
	}
}
