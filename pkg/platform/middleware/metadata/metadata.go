// Package metadata attaches request correlation data to the context.
//
// Client IP addresses and User-Agent strings are deliberately not captured:
// they could re-identify a reporter.
package metadata

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"vozsegura/pkg/requestcontext"
)

// RequestIDHeader is read from the caller when present and echoed on the response.
const RequestIDHeader = "X-Request-ID"

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID stores a request id in the context. A caller-supplied id is kept
// only when it is short and free of unusual characters.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if !validRequestID.MatchString(requestID) {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
