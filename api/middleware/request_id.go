package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags each request with a correlation id, honoring a well-formed
// inbound header and minting a fresh uuid otherwise. Arbitrary client-chosen
// strings are rejected to keep the log field bounded.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if _, err := uuid.Parse(reqID); err != nil {
				reqID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
