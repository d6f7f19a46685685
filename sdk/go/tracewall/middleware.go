package tracewall

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
)

// maxMiddlewareBody caps how much request body the middleware will buffer.
const maxMiddlewareBody = 10 << 20

// Middleware returns an http.Handler that gates each request body as
// untrusted text before passing to the next handler. Blocked requests
// receive a 403 with a JSON body. Allowed requests proceed with the body
// replaced by the gated output, so downstream handlers only ever see
// verified text.
func (c *Client) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxMiddlewareBody))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		r.Body.Close()

		result, err := c.Gate([]Segment{
			{Text: string(body), Channel: "untrusted", SourceID: r.RemoteAddr},
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if !result.Allowed() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]any{
				"blocked":    true,
				"decision":   string(result.Decision),
				"violations": result.Violations,
			})
			return
		}

		gated := []byte(result.Output)
		r.Body = io.NopCloser(bytes.NewReader(gated))
		r.ContentLength = int64(len(gated))
		r.Header.Set("Content-Length", strconv.Itoa(len(gated)))
		next.ServeHTTP(w, r)
	})
}
