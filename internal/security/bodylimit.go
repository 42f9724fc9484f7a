package security

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/procurehq/backend-procure/internal/common"
)

// BodyLimit caps the size of request payloads. Compute and save requests
// carry whole documents (every line item with its charge rows), so the cap
// bounds document size rather than typical request size.
type BodyLimit struct {
	Max int64
}

// Middleware rejects oversized payloads with 413 using the canonical error
// shape. The body is buffered so downstream decoders see an ordinary reader
// with an accurate ContentLength.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request payload exceeds limit", nil)
			return
		}

		buf, err := io.ReadAll(io.LimitReader(r.Body, b.Max+1))
		if err != nil && !errors.Is(err, io.EOF) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unreadable request body", nil)
			return
		}
		if int64(len(buf)) > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request payload exceeds limit", nil)
			return
		}

		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(buf))
		r.ContentLength = int64(len(buf))
		next.ServeHTTP(w, r)
	})
}
