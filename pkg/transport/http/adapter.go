package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/datapilot/pkg/api"
	"github.com/rhuss/datapilot/pkg/auth"
	"github.com/rhuss/datapilot/pkg/observability"
	"github.com/rhuss/datapilot/pkg/transport"
)

// WelcomeMessage is returned by GET /.
const WelcomeMessage = "Bem-vindo à API do DataPilot!"

// Routes served by the adapter. They are also the known route labels for
// request metrics.
const (
	RouteWelcome    = "/"
	RouteHealthz    = "/healthz"
	RouteReadyz     = "/readyz"
	RouteToken      = "/api/v1/token"
	RouteChat       = "/api/v1/chat"
	RouteConnection = "/api/v1/registrar_conexao"
)

// Routes lists every route registered by NewAdapter.
var Routes = []string{RouteWelcome, RouteHealthz, RouteReadyz, RouteToken, RouteChat, RouteConnection}

// Adapter serves the gateway API over HTTP.
// It routes requests to the appropriate service and serializes responses.
type Adapter struct {
	tokens     transport.TokenIssuer
	dispatcher transport.Dispatcher
	sealer     transport.SecretSealer
	health     transport.HealthChecker // nil skips the readiness probe
	mux        *http.ServeMux
	config     Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 1 << 20, // 1 MB
	}
}

// NewAdapter creates an HTTP adapter for the given services. health is
// optional; when nil, /readyz always reports ready.
//
// The adapter does not authenticate. Wrap Handler() with auth.Middleware so
// that protected routes see a session in the request context.
func NewAdapter(tokens transport.TokenIssuer, dispatcher transport.Dispatcher, sealer transport.SecretSealer, health transport.HealthChecker, cfg Config) *Adapter {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}

	a := &Adapter{
		tokens:     tokens,
		dispatcher: dispatcher,
		sealer:     sealer,
		health:     health,
		mux:        http.NewServeMux(),
		config:     cfg,
	}

	a.mux.HandleFunc("GET /{$}", a.handleWelcome)
	a.mux.HandleFunc("GET "+RouteHealthz, a.handleHealthz)
	a.mux.HandleFunc("GET "+RouteReadyz, a.handleReadyz)
	a.mux.HandleFunc("POST "+RouteToken, a.handleToken)
	a.mux.HandleFunc("POST "+RouteChat, a.handleChat)
	a.mux.HandleFunc("POST "+RouteConnection, a.handleRegisterConnection)

	return a
}

// Handle mounts an additional handler (metrics, MCP) on the adapter's mux.
func (a *Adapter) Handle(pattern string, h http.Handler) {
	a.mux.Handle(pattern, h)
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest.
func (a *Adapter) Handler() http.Handler {
	return a.mux
}

func (a *Adapter) handleWelcome(w http.ResponseWriter, r *http.Request) {
	transport.WriteJSON(w, http.StatusOK, api.MessageResponse{Message: WelcomeMessage})
}

func (a *Adapter) handleHealthz(w http.ResponseWriter, r *http.Request) {
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *Adapter) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health.HealthCheck(r.Context()); err != nil {
			slog.Warn("readiness check failed", "error", err)
			transport.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleToken handles POST /api/v1/token. Credentials arrive either as an
// OAuth2 password form or as a JSON body.
func (a *Adapter) handleToken(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest

	if isForm(r.Header.Get("Content-Type")) {
		r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)
		if err := r.ParseForm(); err != nil {
			a.writeDecodeError(w, err)
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if !a.decodeJSON(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		transport.WriteAPIError(w, api.NewInvalidRequestError("username", "username and password are required"))
		return
	}

	tok, err := a.tokens.Login(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidCredentials):
		observability.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		slog.Warn("login failed", "remote_addr", r.RemoteAddr, "request_id", transport.RequestIDFromContext(r.Context()))
		transport.WriteAPIError(w, api.NewUnauthorizedError(auth.ErrInvalidCredentials.Error()))
		return
	case errors.Is(err, auth.ErrInactiveAccount):
		observability.LoginAttemptsTotal.WithLabelValues("inactive").Inc()
		slog.Warn("login for inactive account", "remote_addr", r.RemoteAddr)
		transport.WriteAPIError(w, api.NewInactiveUserError(auth.ErrInactiveAccount.Error()))
		return
	default:
		observability.LoginAttemptsTotal.WithLabelValues("error").Inc()
		slog.Error("login error", "error", err)
		transport.WriteAPIError(w, api.NewServerError("internal server error"))
		return
	}

	observability.LoginAttemptsTotal.WithLabelValues("success").Inc()
	transport.WriteJSON(w, http.StatusOK, api.TokenResponse{
		AccessToken: tok.Value,
		TokenType:   api.TokenTypeBearer,
		ExpiresIn:   expiresIn(tok.ExpiresAt),
	})
}

// handleChat handles POST /api/v1/chat.
func (a *Adapter) handleChat(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		transport.WriteAPIError(w, api.NewUnauthorizedError(auth.ErrUnauthenticated.Error()))
		return
	}

	var req api.ChatRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}

	res := a.dispatcher.Dispatch(r.Context(), sess, req.Question)
	transport.WriteJSON(w, http.StatusOK, api.ChatResponse{
		OrganizationID:  res.OrganizationID,
		ToolUsed:        res.Tool.String(),
		Query:           res.Query,
		SimulatedResult: res.SimulatedResult,
	})
}

// handleRegisterConnection handles POST /api/v1/registrar_conexao. The
// password is encrypted and echoed back; nothing is persisted.
func (a *Adapter) handleRegisterConnection(w http.ResponseWriter, r *http.Request) {
	var req api.ConnectionRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}

	for _, f := range []struct{ param, value string }{
		{"db_type", req.DBType},
		{"host", req.Host},
		{"username", req.Username},
		{"password", req.Password},
	} {
		if f.value == "" {
			transport.WriteAPIError(w, api.NewInvalidRequestError(f.param, f.param+" is required"))
			return
		}
	}

	sealed, err := a.sealer.Encrypt(req.Password)
	if err != nil {
		slog.Error("encrypting connection password", "error", err)
		transport.WriteAPIError(w, api.NewServerError("internal server error"))
		return
	}

	transport.WriteJSON(w, http.StatusOK, api.ConnectionResponse{
		Message:           fmt.Sprintf("Conexão para o host '%s' registrada com sucesso.", req.Host),
		EncryptedPassword: sealed,
	})
}

// decodeJSON validates the content type, limits the body size and decodes
// the body into v. It writes the error response and returns false on failure.
func (a *Adapter) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(ct, "application/json") {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.writeDecodeError(w, err)
		return false
	}
	return true
}

func (a *Adapter) writeDecodeError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
			http.StatusRequestEntityTooLarge,
		)
		return
	}
	transport.WriteErrorResponse(w,
		api.NewInvalidRequestError("body", "invalid request body: "+err.Error()),
		http.StatusBadRequest,
	)
}

func isForm(contentType string) bool {
	return strings.HasPrefix(contentType, "application/x-www-form-urlencoded")
}

// expiresIn returns the whole seconds until exp, never negative.
func expiresIn(exp time.Time) int64 {
	s := math.Round(time.Until(exp).Seconds())
	if s < 0 {
		return 0
	}
	return int64(s)
}
