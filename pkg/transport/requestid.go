package transport

import (
	"net/http"

	"github.com/rhuss/datapilot/pkg/api"
)

// RequestIDHeader is the header used to propagate request IDs.
const RequestIDHeader = "X-Request-ID"

// RequestID returns middleware that assigns a request ID to each request.
// A client-supplied X-Request-ID is reused when api.ValidateRequestID
// accepts it; otherwise a new ID is generated. The ID is stored in the context
// (see RequestIDFromContext) and echoed in the response header.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if !api.ValidateRequestID(id) {
				id = api.NewRequestID()
			}
			w.Header().Set(RequestIDHeader, id)
			ctx := ContextWithRequestID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
