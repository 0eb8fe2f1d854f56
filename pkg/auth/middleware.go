package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rhuss/datapilot/pkg/api"
	"github.com/rhuss/datapilot/pkg/observability"
)

// Middleware creates HTTP middleware from an AuthChain.
// It checks the bypass list, runs authentication, and injects the resolved
// session into the request context.
//
// Every authentication failure except an inactive account produces the same
// 401 response with a "WWW-Authenticate: Bearer" challenge. An inactive
// account produces 400 with a distinct error type.
func Middleware(chain *AuthChain, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			result := chain.Authenticate(r.Context(), r)
			if result.Decision != Yes || result.Session == nil {
				if errors.Is(result.Err, ErrInactiveAccount) {
					slog.Warn("inactive account rejected",
						"path", r.URL.Path,
						"remote_addr", r.RemoteAddr,
					)
					observability.AuthRejectedTotal.WithLabelValues("inactive").Inc()
					writeError(w, http.StatusBadRequest, api.NewInactiveUserError(ErrInactiveAccount.Error()))
					return
				}

				slog.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", result.Err,
				)
				observability.AuthRejectedTotal.WithLabelValues("unauthenticated").Inc()
				WriteUnauthorized(w, ErrUnauthenticated.Error())
				return
			}

			if result.Session.Username == "" || result.Session.TenantID == "" {
				slog.Error("authenticator returned session without subject or tenant",
					"method", result.Session.Method,
				)
				writeError(w, http.StatusInternalServerError, api.NewServerError("internal authentication error"))
				return
			}

			slog.Debug("authentication succeeded",
				"subject", result.Session.Username,
				"tenant_id", result.Session.TenantID,
				"method", result.Session.Method,
				"path", r.URL.Path,
			)

			ctx := SetSession(r.Context(), result.Session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WriteUnauthorized writes a 401 response with the bearer challenge header.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, api.NewUnauthorizedError(message))
}

func writeError(w http.ResponseWriter, status int, apiErr *api.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}

// DefaultBypassEndpoints lists endpoints that skip authentication.
var DefaultBypassEndpoints = []string{
	"/",
	"/healthz",
	"/readyz",
	"/metrics",
	"/api/v1/token",
	"/api/v1/registrar_conexao",
}
