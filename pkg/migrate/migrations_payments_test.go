package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestPaymentIntentsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_payment_intents.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS payment_intents",
		"CONSTRAINT ux_payment_intents_payment_merchant UNIQUE (payment_id, merchant_id)",
		"CHECK (amount_minor > 0)",
		"FOREIGN KEY (merchant_id) REFERENCES merchant_accounts(merchant_id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS payment_intents",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestPaymentAttemptsMigrationReferencesIntent(t *testing.T) {
	content := readMigration(t, "*_create_payment_attempts.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS payment_attempts",
		"UNIQUE (attempt_id, payment_id, merchant_id)",
		"REFERENCES payment_intents(payment_id, merchant_id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS payment_attempts",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestAuditEventsMigrationIndexesUnpublishedRows(t *testing.T) {
	content := readMigration(t, "*_create_audit_events.sql")

	if !strings.Contains(content, "WHERE published_at IS NULL") {
		t.Errorf("expected partial index on unpublished events")
	}
}
