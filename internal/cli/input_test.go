package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tracewall/tracewall/internal/provenance"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadSegmentsBareArray(t *testing.T) {
	path := writeInput(t, `[{"text":"hi","channel":"trusted","source_id":"sys"}]`)
	segments, err := readSegments(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(segments) != 1 {
		t.Fatalf("segments = %d", len(segments))
	}
	if segments[0].Channel != provenance.Trusted || segments[0].Text != "hi" {
		t.Errorf("segment = %+v", segments[0])
	}
}

func TestReadSegmentsWrappedObject(t *testing.T) {
	path := writeInput(t, `{"segments":[{"text":"a","channel":"untrusted","source_id":"doc"},{"text":"b","channel":"trusted","source_id":"sys"}]}`)
	segments, err := readSegments(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(segments) != 2 {
		t.Fatalf("segments = %d", len(segments))
	}
	if segments[0].Channel != provenance.Untrusted {
		t.Errorf("segment = %+v", segments[0])
	}
}

func TestReadSegmentsRejectsMalformedInput(t *testing.T) {
	path := writeInput(t, `"just a string"`)
	if _, err := readSegments(path); err == nil {
		t.Error("malformed input accepted")
	}
}

func TestReadSegmentsMissingFile(t *testing.T) {
	if _, err := readSegments(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("missing file did not error")
	}
}
