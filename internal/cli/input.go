package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tracewall/tracewall/internal/provenance"
)

// segmentDoc is the accepted request file shape: either a bare array of
// segments or an object wrapping one.
type segmentDoc struct {
	Segments []provenance.Segment `json:"segments"`
}

// readSegments loads tagged segments from a file, or stdin when path is "-".
func readSegments(path string) ([]provenance.Segment, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var segments []provenance.Segment
	if err := json.Unmarshal(data, &segments); err == nil {
		return segments, nil
	}

	var doc segmentDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse input: expected a JSON array of segments or {\"segments\": [...]}: %w", err)
	}
	return doc.Segments, nil
}
