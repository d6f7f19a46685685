package daemon

import (
	"strings"
	"testing"

	"github.com/tracewall/tracewall/internal/provenance"
)

func TestValidateJob(t *testing.T) {
	segs := []provenance.Segment{{Text: "hi", Channel: provenance.Trusted, SourceID: "s"}}

	tests := []struct {
		name    string
		job     Job
		wantErr string
	}{
		{"valid", Job{ID: "req-001", Segments: segs}, ""},
		{"valid with mode", Job{ID: "req_2", Mode: "rewrite", Segments: segs}, ""},
		{"missing id", Job{Segments: segs}, "ID is required"},
		{"path traversal", Job{ID: "..", Segments: segs}, ".."},
		{"invalid characters", Job{ID: "a/b", Segments: segs}, "invalid characters"},
		{"invalid mode", Job{ID: "r", Mode: "open", Segments: segs}, "invalid mode"},
		{"no segments", Job{ID: "r"}, "no segments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJob(&tt.job)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}
