package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"consentgate/pkg/requestcontext"
)

// RequestID assigns each request a correlation ID, honoring one supplied by
// the caller, and stamps the request-scoped clock so every decision made
// during the request observes a single evaluation time.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
