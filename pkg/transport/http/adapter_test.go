package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rhuss/datapilot/pkg/api"
	"github.com/rhuss/datapilot/pkg/auth"
	"github.com/rhuss/datapilot/pkg/auth/jwt"
	"github.com/rhuss/datapilot/pkg/dispatch"
	"github.com/rhuss/datapilot/pkg/observability"
	"github.com/rhuss/datapilot/pkg/tools"
	"github.com/rhuss/datapilot/pkg/transport"
)

// mockDispatcher records the last call and returns a fixed result.
type mockDispatcher struct {
	gotSession *auth.Session
	gotText    string
}

func (m *mockDispatcher) Dispatch(_ context.Context, sess *auth.Session, text string) *dispatch.Result {
	m.gotSession = sess
	m.gotText = text
	return &dispatch.Result{
		OrganizationID:  sess.TenantID,
		Tool:            tools.ToolKindSQL,
		Query:           "SELECT 1;",
		SimulatedResult: "ok",
	}
}

// mockSealer prefixes the plaintext, or fails when err is set.
type mockSealer struct {
	err error
}

func (m *mockSealer) Encrypt(plaintext string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "sealed:" + plaintext, nil
}

type mockHealth struct {
	err error
}

func (m *mockHealth) HealthCheck(context.Context) error { return m.err }

// loginFunc adapts a function to transport.TokenIssuer.
type loginFunc func(ctx context.Context, username, password string) (jwt.Token, error)

func (f loginFunc) Login(ctx context.Context, username, password string) (jwt.Token, error) {
	return f(ctx, username, password)
}

// loginAs returns a TokenIssuer that accepts johndoe/secret1, issues an
// already expiring token for "expiring" and reports disabled for "disabled".
func loginAs() transport.TokenIssuer {
	return loginFunc(func(_ context.Context, username, password string) (jwt.Token, error) {
		switch {
		case username == "johndoe" && password == "secret1":
			return jwt.Token{Value: "tok-johndoe", ExpiresAt: time.Now().Add(30 * time.Minute)}, nil
		case username == "expiring" && password == "secret":
			return jwt.Token{Value: "tok-expiring", ExpiresAt: time.Now()}, nil
		case username == "disabled" && password == "secret":
			return jwt.Token{}, auth.ErrInactiveAccount
		case username == "broken":
			return jwt.Token{}, errors.New("database on fire")
		default:
			return jwt.Token{}, auth.ErrInvalidCredentials
		}
	})
}

type fixture struct {
	adapter    *Adapter
	dispatcher *mockDispatcher
	sealer     *mockSealer
	health     *mockHealth
}

func newFixture() fixture {
	f := fixture{
		dispatcher: &mockDispatcher{},
		sealer:     &mockSealer{},
		health:     &mockHealth{},
	}
	f.adapter = NewAdapter(loginAs(), f.dispatcher, f.sealer, f.health, Config{MaxBodySize: 1024})
	return f
}

func (f fixture) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.adapter.Handler().ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, path string, v any) *http.Request {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *api.APIError {
	t.Helper()
	var resp api.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error == nil {
		t.Fatal("error response has no error object")
	}
	return resp.Error
}

func TestWelcome(t *testing.T) {
	f := newFixture()
	rec := f.serve(httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got api.MessageResponse
	json.NewDecoder(rec.Body).Decode(&got)
	if got.Message != WelcomeMessage {
		t.Errorf("message = %q, want %q", got.Message, WelcomeMessage)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	f := newFixture()

	if rec := f.serve(httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("/healthz status = %d, want 200", rec.Code)
	}
	if rec := f.serve(httptest.NewRequest(http.MethodGet, "/readyz", nil)); rec.Code != http.StatusOK {
		t.Errorf("/readyz status = %d, want 200", rec.Code)
	}

	f.health.err = errors.New("connection refused")
	if rec := f.serve(httptest.NewRequest(http.MethodGet, "/readyz", nil)); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/readyz with failing store status = %d, want 503", rec.Code)
	}
}

func TestTokenExpiresInAlwaysPresent(t *testing.T) {
	f := newFixture()
	rec := f.serve(jsonRequest(t, http.MethodPost, RouteToken, api.LoginRequest{Username: "expiring", Password: "secret"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := raw["expires_in"]
	if !ok {
		t.Fatalf("expires_in missing from %v", raw)
	}
	if string(got) != "0" {
		t.Errorf("expires_in = %s, want 0", got)
	}
}

func TestTokenJSON(t *testing.T) {
	f := newFixture()
	before := observability.CounterValue(observability.LoginAttemptsTotal, "success")

	rec := f.serve(jsonRequest(t, http.MethodPost, RouteToken, api.LoginRequest{Username: "johndoe", Password: "secret1"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	var got api.TokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.AccessToken != "tok-johndoe" {
		t.Errorf("access_token = %q, want tok-johndoe", got.AccessToken)
	}
	if got.TokenType != "bearer" {
		t.Errorf("token_type = %q, want bearer", got.TokenType)
	}
	if got.ExpiresIn <= 0 || got.ExpiresIn > 1800 {
		t.Errorf("expires_in = %d, want within (0, 1800]", got.ExpiresIn)
	}
	if after := observability.CounterValue(observability.LoginAttemptsTotal, "success"); after != before+1 {
		t.Errorf("success counter = %v, want %v", after, before+1)
	}
}

func TestTokenForm(t *testing.T) {
	f := newFixture()
	form := url.Values{"username": {"johndoe"}, "password": {"secret1"}, "grant_type": {"password"}}
	req := httptest.NewRequest(http.MethodPost, RouteToken, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := f.serve(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	var got api.TokenResponse
	json.NewDecoder(rec.Body).Decode(&got)
	if got.AccessToken != "tok-johndoe" {
		t.Errorf("access_token = %q, want tok-johndoe", got.AccessToken)
	}
}

func TestTokenFailures(t *testing.T) {
	tests := []struct {
		name        string
		username    string
		password    string
		wantStatus  int
		wantType    api.ErrorType
		wantMessage string
		wantAuth    string
	}{
		{"wrong password", "johndoe", "nope", http.StatusUnauthorized, api.ErrorTypeUnauthorized, "incorrect username or password", "Bearer"},
		{"unknown user", "ghost", "secret1", http.StatusUnauthorized, api.ErrorTypeUnauthorized, "incorrect username or password", "Bearer"},
		{"inactive user", "disabled", "secret", http.StatusBadRequest, api.ErrorTypeInactiveUser, "inactive user", ""},
		{"store failure", "broken", "x", http.StatusInternalServerError, api.ErrorTypeServerError, "internal server error", ""},
		{"missing password", "johndoe", "", http.StatusBadRequest, api.ErrorTypeInvalidRequest, "username and password are required", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			rec := f.serve(jsonRequest(t, http.MethodPost, RouteToken, api.LoginRequest{Username: tt.username, Password: tt.password}))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("WWW-Authenticate"); got != tt.wantAuth {
				t.Errorf("WWW-Authenticate = %q, want %q", got, tt.wantAuth)
			}
			apiErr := decodeError(t, rec)
			if apiErr.Type != tt.wantType {
				t.Errorf("error type = %q, want %q", apiErr.Type, tt.wantType)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("error message = %q, want %q", apiErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestChatRequiresSession(t *testing.T) {
	f := newFixture()
	rec := f.serve(jsonRequest(t, http.MethodPost, RouteChat, api.ChatRequest{Question: "quanto vendemos"}))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if f.dispatcher.gotSession != nil {
		t.Error("dispatcher must not run without a session")
	}
}

func TestChatDispatchesForSessionTenant(t *testing.T) {
	f := newFixture()
	req := jsonRequest(t, http.MethodPost, RouteChat, map[string]string{"pergunta": "quanto vendemos"})
	sess := &auth.Session{Username: "johndoe", TenantID: "org_a", Active: true, Method: "jwt"}
	req = req.WithContext(auth.SetSession(req.Context(), sess))

	rec := f.serve(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	if f.dispatcher.gotText != "quanto vendemos" {
		t.Errorf("dispatched text = %q, want %q", f.dispatcher.gotText, "quanto vendemos")
	}
	var got api.ChatResponse
	json.NewDecoder(rec.Body).Decode(&got)
	if got.OrganizationID != "org_a" {
		t.Errorf("organization_id = %q, want org_a", got.OrganizationID)
	}
	if got.ToolUsed != "SQL_TOOL" {
		t.Errorf("tool_used = %q, want SQL_TOOL", got.ToolUsed)
	}
	if got.Query != "SELECT 1;" {
		t.Errorf("query = %q, want %q", got.Query, "SELECT 1;")
	}
}

func TestInvalidJSONBodyReturns400(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodPost, RouteConnection, strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")

	rec := f.serve(req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if apiErr := decodeError(t, rec); apiErr.Type != api.ErrorTypeInvalidRequest {
		t.Errorf("error type = %q, want invalid_request", apiErr.Type)
	}
}

func TestOversizedBodyReturns413(t *testing.T) {
	f := newFixture()
	big := `{"db_type":"postgres","host":"` + strings.Repeat("h", 2048) + `"}`
	req := httptest.NewRequest(http.MethodPost, RouteConnection, strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")

	rec := f.serve(req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestWrongContentTypeReturns415(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodPost, RouteConnection, strings.NewReader("host=x"))
	req.Header.Set("Content-Type", "text/plain")

	rec := f.serve(req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rec.Code)
	}
}

func TestRegisterConnection(t *testing.T) {
	f := newFixture()
	rec := f.serve(jsonRequest(t, http.MethodPost, RouteConnection, api.ConnectionRequest{
		DBType:   "postgres",
		Host:     "db.example.com",
		Username: "reporter",
		Password: "hunter2",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	var got api.ConnectionResponse
	json.NewDecoder(rec.Body).Decode(&got)
	want := "Conexão para o host 'db.example.com' registrada com sucesso."
	if got.Message != want {
		t.Errorf("message = %q, want %q", got.Message, want)
	}
	if got.EncryptedPassword != "sealed:hunter2" {
		t.Errorf("encrypted_password = %q, want sealed:hunter2", got.EncryptedPassword)
	}
}

func TestRegisterConnectionErrors(t *testing.T) {
	t.Run("missing host", func(t *testing.T) {
		f := newFixture()
		rec := f.serve(jsonRequest(t, http.MethodPost, RouteConnection, api.ConnectionRequest{
			DBType: "postgres", Username: "u", Password: "p",
		}))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if apiErr := decodeError(t, rec); apiErr.Param != "host" {
			t.Errorf("param = %q, want host", apiErr.Param)
		}
	})

	t.Run("encryption failure", func(t *testing.T) {
		f := newFixture()
		f.sealer.err = errors.New("no entropy")
		rec := f.serve(jsonRequest(t, http.MethodPost, RouteConnection, api.ConnectionRequest{
			DBType: "postgres", Host: "h", Username: "u", Password: "p",
		}))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
		if apiErr := decodeError(t, rec); strings.Contains(apiErr.Message, "entropy") {
			t.Error("encryption failure reason must not leak")
		}
	})
}

func TestUnknownPathReturns404(t *testing.T) {
	f := newFixture()
	rec := f.serve(httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture()
	rec := f.serve(httptest.NewRequest(http.MethodGet, RouteToken, nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleMountsExtraRoutes(t *testing.T) {
	f := newFixture()
	f.adapter.Handle("GET /metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("metrics"))
	}))

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Body.String() != "metrics" {
		t.Errorf("body = %q, want metrics", rec.Body.String())
	}
}
