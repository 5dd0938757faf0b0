package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("shipped migrations failed validation: %v", err)
	}
}

func TestValidateDirReportsAllProblems(t *testing.T) {
	dir := t.TempDir()

	writeFile := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	writeFile("bad-name.sql", "-- +goose Up\n-- +goose Down\n")
	writeFile("20250101000000_missing_down.sql", "-- +goose Up\n")

	err := ValidateDir(dir)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "bad-name.sql") {
		t.Fatalf("expected filename problem in %q", msg)
	}
	if !strings.Contains(msg, "missing_down") {
		t.Fatalf("expected missing Down problem in %q", msg)
	}
}
