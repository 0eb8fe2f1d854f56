// Package gateway assembles the datapilot services from a loaded
// configuration: credential store, token issuance, the auth chain, the
// dispatch router and the HTTP server with its middleware.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/datapilot/pkg/auth"
	"github.com/rhuss/datapilot/pkg/auth/apikey"
	"github.com/rhuss/datapilot/pkg/auth/jwt"
	"github.com/rhuss/datapilot/pkg/auth/password"
	"github.com/rhuss/datapilot/pkg/auth/session"
	"github.com/rhuss/datapilot/pkg/config"
	"github.com/rhuss/datapilot/pkg/credential"
	"github.com/rhuss/datapilot/pkg/credential/memory"
	"github.com/rhuss/datapilot/pkg/credential/postgres"
	"github.com/rhuss/datapilot/pkg/dispatch"
	"github.com/rhuss/datapilot/pkg/mcpserver"
	"github.com/rhuss/datapilot/pkg/observability"
	"github.com/rhuss/datapilot/pkg/secret"
	"github.com/rhuss/datapilot/pkg/tools"
	"github.com/rhuss/datapilot/pkg/tools/builtins/fallback"
	"github.com/rhuss/datapilot/pkg/tools/builtins/sqlquery"
	"github.com/rhuss/datapilot/pkg/tools/registry"
	"github.com/rhuss/datapilot/pkg/transport"
	transporthttp "github.com/rhuss/datapilot/pkg/transport/http"
)

// Gateway holds the assembled services.
type Gateway struct {
	Server   *transporthttp.Server
	Sessions *session.Service
	Router   *dispatch.Router
	Store    credential.Store
}

// New builds a Gateway from cfg. cfg must have passed Validate.
// The caller owns the returned Gateway and must Close it.
func New(ctx context.Context, cfg *config.Config) (*Gateway, error) {
	hasher := password.New(cfg.Directory.BcryptCost)

	store, err := newStore(ctx, cfg.Directory, hasher)
	if err != nil {
		return nil, fmt.Errorf("creating credential store: %w", err)
	}

	g, err := assemble(cfg, store, hasher)
	if err != nil {
		store.Close()
		return nil, err
	}
	return g, nil
}

func assemble(cfg *config.Config, store credential.Store, hasher *password.Hasher) (*Gateway, error) {
	jwtCfg := jwt.Config{
		SigningKey: []byte(cfg.Auth.SigningKey),
		Issuer:     cfg.Auth.Issuer,
		TTL:        cfg.Auth.TokenTTL,
	}
	issuer, err := jwt.NewIssuer(jwtCfg)
	if err != nil {
		return nil, fmt.Errorf("creating token issuer: %w", err)
	}
	validator, err := jwt.NewValidator(jwtCfg)
	if err != nil {
		return nil, fmt.Errorf("creating token validator: %w", err)
	}
	sessions := session.New(store, hasher, issuer, validator)

	encryptor, err := secret.NewEncryptor(cfg.Secrets.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	router, err := newRouter(cfg.Dispatch)
	if err != nil {
		return nil, err
	}

	adapter := transporthttp.NewAdapter(sessions, router, encryptor, store, transporthttp.Config{
		MaxBodySize: cfg.Server.MaxBodySize,
	})

	routes := slices.Clone(transporthttp.Routes)
	if cfg.MCP.Enabled {
		adapter.Handle(cfg.MCP.Path, mcpserver.Handler(router))
		routes = append(routes, cfg.MCP.Path)
		slog.Info("mcp endpoint enabled", "path", cfg.MCP.Path)
	}
	if cfg.Observability.Metrics.Enabled {
		adapter.Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
		routes = append(routes, cfg.Observability.Metrics.Path)
	}

	middlewares := []transport.Middleware{
		observability.MetricsMiddleware(routes...),
		auth.Middleware(newAuthChain(cfg.Auth, sessions), bypassEndpoints(cfg)),
	}

	srv := transporthttp.NewServer(adapter.Handler(), middlewares,
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	)

	return &Gateway{
		Server:   srv,
		Sessions: sessions,
		Router:   router,
		Store:    store,
	}, nil
}

// Handler returns the fully wrapped HTTP handler.
func (g *Gateway) Handler() http.Handler {
	return g.Server.Handler()
}

// Close releases the credential store.
func (g *Gateway) Close() error {
	return g.Store.Close()
}

func newStore(ctx context.Context, dir config.DirectoryConfig, hasher *password.Hasher) (credential.Store, error) {
	switch dir.Type {
	case "postgres":
		s, err := postgres.New(ctx, postgres.Config{
			DSN:            dir.Postgres.DSN,
			MaxConns:       dir.Postgres.MaxConns,
			MigrateOnStart: dir.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("credential store", "type", "postgres", "max_conns", dir.Postgres.MaxConns)
		return s, nil

	case "memory", "":
		users := make([]memory.User, 0, len(dir.Users)+2)
		for _, u := range dir.Users {
			users = append(users, memory.User{
				Username:     u.Username,
				Password:     u.Password,
				PasswordHash: u.PasswordHash,
				TenantID:     u.TenantID,
				Disabled:     u.Disabled,
			})
		}
		if dir.DemoUsers {
			slog.Warn("seeding demo users; do not use outside local development")
			users = append(users, memory.DemoUsers()...)
		}
		s, err := memory.FromUsers(users, hasher)
		if err != nil {
			return nil, err
		}
		slog.Info("credential store", "type", "memory", "users", s.Len(), "bcrypt_cost", hasher.Cost())
		return s, nil

	default:
		return nil, fmt.Errorf("unknown directory type %q", dir.Type)
	}
}

func newRouter(cfg config.DispatchConfig) (*dispatch.Router, error) {
	reg := registry.New()
	reg.Register(sqlquery.New(sqlquery.Config{Month: cfg.ReportMonth}))
	reg.Register(fallback.New(""))
	return routerWith(cfg, reg)
}

// routerWith builds the router over reg. Every allowed tool, and NONE,
// must have an executor.
func routerWith(cfg config.DispatchConfig, reg *registry.Registry) (*dispatch.Router, error) {
	var classifier tools.Classifier
	if len(cfg.SQLKeywords) > 0 {
		classifier = tools.NewKeywordClassifier([]tools.KeywordRule{
			{Kind: tools.ToolKindSQL, Keywords: cfg.SQLKeywords},
		})
	}

	allowed, err := cfg.AllowedToolKinds()
	if err != nil {
		return nil, fmt.Errorf("dispatch.allowed_tools: %w", err)
	}
	for _, k := range append([]tools.ToolKind{tools.ToolKindNone}, allowed...) {
		if !reg.Has(k) {
			return nil, fmt.Errorf("dispatch: no executor registered for tool %s", k)
		}
	}
	slog.Info("dispatch router ready", "tools", reg.Kinds(), "allowed", allowed)

	return dispatch.New(classifier, reg, dispatch.Config{AllowedTools: allowed}), nil
}

// newAuthChain evaluates the token authenticator first; API keys never
// look like tokens, so at most one of them votes.
func newAuthChain(cfg config.AuthConfig, sessions *session.Service) *auth.AuthChain {
	chain := &auth.AuthChain{
		Authenticators: []auth.Authenticator{session.NewAuthenticator(sessions)},
	}
	if len(cfg.APIKeys) > 0 {
		entries := make([]apikey.RawKeyEntry, 0, len(cfg.APIKeys))
		for _, k := range cfg.APIKeys {
			entries = append(entries, apikey.RawKeyEntry{
				Key:      k.Key,
				Subject:  k.Subject,
				TenantID: k.TenantID,
			})
		}
		chain.Authenticators = append(chain.Authenticators, apikey.New(entries))
		slog.Info("api key authentication enabled", "keys", len(entries))
	}
	return chain
}

func bypassEndpoints(cfg *config.Config) []string {
	if len(cfg.Auth.BypassEndpoints) > 0 {
		return cfg.Auth.BypassEndpoints
	}
	bypass := slices.Clone(auth.DefaultBypassEndpoints)
	if cfg.Observability.Metrics.Enabled && !slices.Contains(bypass, cfg.Observability.Metrics.Path) {
		bypass = append(bypass, cfg.Observability.Metrics.Path)
	}
	return bypass
}
