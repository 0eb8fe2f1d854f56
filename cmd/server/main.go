// Command server runs the datapilot gateway.
//
// Configuration is read from a YAML file and environment variables; see
// pkg/config for the full list. The most common variables:
//
//	DATAPILOT_ENV            - "local" or "production" (default: production)
//	DATAPILOT_PORT           - Listen port (default: 8000)
//	DATAPILOT_JWT_SECRET_KEY - HMAC signing key, at least 32 bytes (JWT_SECRET_KEY also accepted)
//	DATAPILOT_ENCRYPTION_KEY - hex AES-256 key for connection passwords
//	DATAPILOT_DIRECTORY      - "memory" or "postgres" (default: memory)
//	DATAPILOT_POSTGRES_DSN   - Postgres connection string for the postgres directory
//	DATAPILOT_DEBUG          - Debug categories (e.g. "auth,dispatch" or "all")
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/rhuss/datapilot/pkg/config"
	"github.com/rhuss/datapilot/pkg/debug"
	"github.com/rhuss/datapilot/pkg/gateway"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
		"directory", cfg.Directory.Type,
		"token_ttl", cfg.Auth.TokenTTL,
		"signing_key_generated", cfg.Auth.SigningKeyGenerated,
		"mcp", cfg.MCP.Enabled,
	)

	g, err := gateway.New(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer g.Close()

	return g.Server.ListenAndServe()
}
