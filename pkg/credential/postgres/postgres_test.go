package postgres

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"

	"github.com/rhuss/datapilot/pkg/auth/password"
	"github.com/rhuss/datapilot/pkg/credential"
)

func init() {
	// Point testcontainers at the podman socket when no Docker host is set.
	if os.Getenv("DOCKER_HOST") == "" {
		out, err := exec.Command("podman", "machine", "inspect", "--format", "{{.ConnectionInfo.PodmanSocket.Path}}").Output()
		if err == nil {
			sock := strings.TrimSpace(string(out))
			if sock != "" {
				os.Setenv("DOCKER_HOST", "unix://"+sock)
			}
		}
	}
	// Ryuk needs privileged mode with podman.
	if os.Getenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED", "true")
	}
}

// setupTestDB starts a PostgreSQL container and returns a migrated Store.
// Tests are skipped if no container runtime is available.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}

	_, podmanErr := exec.LookPath("podman")
	_, dockerErr := exec.LookPath("docker")
	if podmanErr != nil && dockerErr != nil {
		t.Skip("no container runtime found, skipping integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("datapilot_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container: %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// seedUser inserts a user directly, the way an operator would.
func seedUser(t *testing.T, s *Store, username, tenant, hash string, active bool) {
	t.Helper()
	_, err := s.pool.Exec(context.Background(),
		"INSERT INTO users (username, tenant_id, password_hash, active) VALUES ($1, $2, $3, $4)",
		username, tenant, hash, active,
	)
	if err != nil {
		t.Fatalf("seeding user %q: %v", username, err)
	}
}

func TestPostgres_Lookup(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	h := password.New(bcrypt.MinCost)

	hash, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	seedUser(t, store, "johndoe", "org_a", hash, true)
	seedUser(t, store, "olduser", "org_a", hash, false)

	id, err := store.Lookup(ctx, "johndoe")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if id.Username != "johndoe" || id.TenantID != "org_a" || !id.Active {
		t.Errorf("got %+v, want johndoe/org_a/active", id)
	}
	if !h.Verify("secret1", id.PasswordHash) {
		t.Error("stored hash does not verify")
	}

	disabled, err := store.Lookup(ctx, "olduser")
	if err != nil {
		t.Fatalf("Lookup(olduser): %v", err)
	}
	if disabled.Active {
		t.Error("olduser: Active = true, want false")
	}
}

func TestPostgres_LookupNotFound(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	seedUser(t, store, "johndoe", "org_a", "x", true)

	for _, name := range []string{"nobody", "JOHNDOE", ""} {
		if _, err := store.Lookup(ctx, name); !errors.Is(err, credential.ErrNotFound) {
			t.Errorf("Lookup(%q) error = %v, want ErrNotFound", name, err)
		}
	}
}

func TestPostgres_MigrateIdempotent(t *testing.T) {
	store := setupTestDB(t)
	if err := store.migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestPostgres_HealthCheck(t *testing.T) {
	store := setupTestDB(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		name   string
		want   int
		wantOK bool
	}{
		{"001_create_users.sql", 1, true},
		{"010_add_index.sql", 10, true},
		{"README.md", 0, false},
		{"create_users.sql", 0, false},
		{"abc_create.sql", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := migrationVersion(tt.name)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("migrationVersion(%q) = (%d, %v), want (%d, %v)", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
