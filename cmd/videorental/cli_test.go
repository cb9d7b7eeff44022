package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-video-rental/internal/domain"
	"github.com/tbourn/go-video-rental/internal/repo"
)

// cliEnv points the configuration at a fresh SQLite file and returns its path.
func cliEnv(t *testing.T) string {
	t.Helper()
	orig := log.Logger
	t.Cleanup(func() { log.Logger = orig })

	path := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", path)
	t.Setenv("JWT_SECRET", "cli-test-secret")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("ADMIN_EMAIL", "")
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

const seedYAML = `movies:
  - title: The Shawshank Redemption
    genre: Drama
    director: Frank Darabont
    duration_minutes: 142
    rating: 9.3
    actors: [Tim Robbins, Morgan Freeman]
    total_copies: 5
  - title: Twelve Angry Men
    genre: Courtroom drama
    director: Sidney Lumet
    duration_minutes: 96
    rating: 9.0
`

func TestParseSeed(t *testing.T) {
	items, err := parseSeed(strings.NewReader(seedYAML))
	if err != nil {
		t.Fatalf("parseSeed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d; want 2", len(items))
	}
	first, second := items[0], items[1]
	if first.TotalCopies == nil || *first.TotalCopies != 5 || len(first.Actors) != 2 || first.DurationMinutes != 142 {
		t.Fatalf("first entry: %+v", first)
	}
	if second.TotalCopies != nil {
		t.Fatalf("missing total_copies should stay nil, got %d", *second.TotalCopies)
	}

	bad := map[string]string{
		"unknown key":   "movies:\n  - title: X\n    available_copies: 3\n",
		"missing title": "movies:\n  - genre: Drama\n",
		"empty":         "",
		"not yaml":      "movies: [",
	}
	for name, doc := range bad {
		if _, err := parseSeed(strings.NewReader(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestReadPassword_FromPipe(t *testing.T) {
	got, err := readPassword(strings.NewReader("s3cret\r\nignored\n"), io.Discard)
	if err != nil || got != "s3cret" {
		t.Fatalf("readPassword = %q, %v", got, err)
	}
	if got, err := readPassword(strings.NewReader("last-line"), io.Discard); err != nil || got != "last-line" {
		t.Fatalf("no trailing newline: %q, %v", got, err)
	}
	if _, err := readPassword(strings.NewReader("\n"), io.Discard); err == nil {
		t.Fatalf("expected error for empty password")
	}
}

func TestMigrateAndSeed(t *testing.T) {
	dbPath := cliEnv(t)
	if _, err := runCLI(t, "", "migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("store not created: %v", err)
	}

	seedPath := filepath.Join(t.TempDir(), "movies.yaml")
	if err := os.WriteFile(seedPath, []byte(seedYAML), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	out, err := runCLI(t, "", "seed", "--file", seedPath)
	if err != nil || !strings.Contains(out, "created 2, skipped 0") {
		t.Fatalf("first seed: %q, %v", out, err)
	}
	out, err = runCLI(t, "", "seed", "-f", seedPath)
	if err != nil || !strings.Contains(out, "created 0, skipped 2") {
		t.Fatalf("second seed: %q, %v", out, err)
	}

	if _, err := runCLI(t, "", "seed", "--file", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing seed file")
	}
}

func TestAdminCreate(t *testing.T) {
	dbPath := cliEnv(t)
	flags := []string{"admin", "create", "--first-name", "Ada", "--last-name", "Lovelace", "--address", "London", "--phone", "555-0100"}

	// A second administrator is promoted even though identities already exist.
	for _, email := range []string{"root@example.com", "ops@example.com"} {
		out, err := runCLI(t, "hunter22\n", append(flags, "--email", email)...)
		if err != nil || !strings.Contains(out, "administrator "+email) {
			t.Fatalf("admin create %s: %q, %v", email, out, err)
		}
	}
	if _, err := runCLI(t, "hunter22\n", append(flags, "--email", "ops@example.com")...); err == nil {
		t.Fatalf("expected duplicate email to fail")
	}

	t.Setenv("ADMIN_EMAIL", "env@example.com")
	if _, err := runCLI(t, "hunter22\n", flags...); err != nil {
		t.Fatalf("admin create from ADMIN_EMAIL: %v", err)
	}
	t.Setenv("ADMIN_EMAIL", "")
	if _, err := runCLI(t, "hunter22\n", flags...); err == nil {
		t.Fatalf("expected missing email to fail")
	}
	if _, err := runCLI(t, "hunter22\n", "admin", "create", "--email", "x@example.com"); err == nil {
		t.Fatalf("expected missing required flags to fail")
	}

	db, err := repo.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = repo.Close(db) }()
	for _, email := range []string{"root@example.com", "ops@example.com", "env@example.com"} {
		u, err := repo.GetUserByEmail(context.Background(), db, email)
		if err != nil {
			t.Fatalf("lookup %s: %v", email, err)
		}
		if u.Role != domain.RoleAdministrator {
			t.Fatalf("%s role = %q", email, u.Role)
		}
	}
}

func TestConfigErrorStopsCommands(t *testing.T) {
	cliEnv(t)
	t.Setenv("JWT_SECRET", "")
	if _, err := runCLI(t, "", "migrate"); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected config error, got %v", err)
	}
}
