package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/product-manager/internal/app"
	"github.com/prn-tf/product-manager/internal/config"
	"github.com/prn-tf/product-manager/internal/domain"
	"github.com/prn-tf/product-manager/internal/service"
)

const testPassword = "Abc12345!"

// harness runs commands against one SQLite file, reopening it for every run
// the way separate pmgr invocations would.
type harness struct {
	t      *testing.T
	dbPath string
}

func newHarness(t *testing.T) *harness {
	return &harness{t: t, dbPath: filepath.Join(t.TempDir(), "pmgr.db")}
}

func (h *harness) opener() appOpener {
	return func(ctx context.Context, _ string, autoMigrate bool) (*app.App, func() error, error) {
		cfg := &config.Config{
			Database: config.DatabaseConfig{Driver: "sqlite", Path: h.dbPath, AutoMigrate: autoMigrate},
			KV:       config.KVConfig{Backend: "sqlite"},
			Storage:  config.StorageConfig{UserStore: "auto", SessionStore: "kv"},
			Auth: config.AuthConfig{
				Mode:             app.ModeSecure,
				PBKDF2Iterations: 1000,
				SessionTTL:       time.Hour,
				RememberMeTTL:    2 * time.Hour,
			},
		}
		a, err := app.New(ctx, cfg, zerolog.Nop())
		if err != nil {
			return nil, nil, err
		}
		return a, a.Close, nil
	}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	c := &cli{
		in:      bufio.NewReader(strings.NewReader(stdin)),
		out:     &out,
		errOut:  &errOut,
		openApp: h.opener(),
	}
	err := execute(context.Background(), c, args)
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run("", args...)
	require.NoError(h.t, err, "pmgr %s", strings.Join(args, " "))
	return out
}

func TestCLI_SessionFlow(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(testPassword+"\n", "signup", "--email", "a@x.com")
	require.NoError(t, err)
	require.Contains(t, out, "Signed up as a (a@x.com)")

	// The session is restored by the next invocation.
	out = h.mustRun("whoami")
	require.Contains(t, out, "a@x.com")

	h.mustRun("logout")
	_, err = h.run("", "whoami")
	require.ErrorIs(t, err, service.ErrNotAuthenticated)

	_, err = h.run("wrong\n", "login", "--email", "a@x.com")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	out = h.mustRun("login", "--email", "a@x.com", "--password", testPassword, "--remember", "--json")
	var view struct {
		User      domain.User `json:"user"`
		ExpiresAt time.Time   `json:"expiresAt"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.Equal(t, "a@x.com", view.User.Email)
	require.Empty(t, view.User.PasswordHash)
	require.NotContains(t, out, "token")
}

func TestCLI_ProductCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun("signup", "--email", "a@x.com", "--password", testPassword)

	out := h.mustRun("product", "create", "--name", "Desk Lamp", "--price", "29.99", "--category", "Lighting", "--stock", "2", "--json")
	var created domain.Product
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.Equal(t, 29.99, created.Price)

	_, err := h.run("", "product", "create", "--name", "Bad", "--price", "9.999")
	require.ErrorIs(t, err, domain.ErrProductPricePrecision)

	h.mustRun("product", "create", "--name", "Chair", "--price", "50")

	out = h.mustRun("product", "list")
	require.Contains(t, out, "Desk Lamp")
	require.Contains(t, out, "Chair")

	out = h.mustRun("product", "update", created.ID, "--price", "24.5")
	require.Contains(t, out, "24.50")

	out = h.mustRun("product", "search", "LIGHT", "--json")
	var found struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	require.Equal(t, 1, found.Count)

	out = h.mustRun("product", "stats", "--json")
	var stats domain.ProductStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	require.Equal(t, 2, stats.TotalProducts)
	require.InDelta(t, 49.0, stats.TotalValue, 1e-9)

	h.mustRun("product", "delete", created.ID)
	_, err = h.run("", "product", "get", created.ID)
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	out, err = h.run("n\n", "product", "clear")
	require.NoError(t, err)
	require.Contains(t, out, "Aborted")

	out = h.mustRun("product", "clear", "--force")
	require.Contains(t, out, "Deleted 1 products")

	out = h.mustRun("product", "list")
	require.Contains(t, out, "No products found")
}

func TestCLI_ProductsRequireLogin(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "product", "list")
	require.ErrorIs(t, err, service.ErrNotAuthenticated)
}

func TestCLI_Passwd(t *testing.T) {
	h := newHarness(t)
	h.mustRun("signup", "--email", "a@x.com", "--password", testPassword)

	_, err := h.run("", "passwd", "--current", "nope", "--new", "Xyz98765?")
	require.ErrorIs(t, err, service.ErrCurrentPasswordIncorrect)

	_, err = h.run(testPassword+"\nXyz98765?\n", "passwd")
	require.NoError(t, err)

	h.mustRun("logout")
	h.mustRun("login", "--email", "a@x.com", "--password", "Xyz98765?")
}

func TestCLI_ResetAndMigrate(t *testing.T) {
	h := newHarness(t)
	h.mustRun("signup", "--email", "a@x.com", "--password", testPassword)

	out := h.mustRun("migrate", "status", "--json")
	var health struct {
		IndexedReady  bool  `json:"indexedReady"`
		SchemaVersion int64 `json:"schemaVersion"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &health))
	require.True(t, health.IndexedReady)
	require.Positive(t, health.SchemaVersion)

	out = h.mustRun("migrate", "up")
	require.Contains(t, out, "Migrations applied")

	out = h.mustRun("reset", "--force")
	require.Contains(t, out, "All data cleared")

	_, err := h.run("", "whoami")
	require.ErrorIs(t, err, service.ErrNotAuthenticated)

	_, err = h.run("", "login", "--email", "a@x.com", "--password", testPassword)
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestCLI_Version(t *testing.T) {
	var out bytes.Buffer
	c := &cli{
		in:     bufio.NewReader(strings.NewReader("")),
		out:    &out,
		errOut: &out,
		openApp: func(context.Context, string, bool) (*app.App, func() error, error) {
			t.Fatal("version must not open the stores")
			return nil, nil, nil
		},
	}
	require.NoError(t, execute(context.Background(), c, []string{"version"}))
	require.Contains(t, out.String(), "pmgr dev")
}
