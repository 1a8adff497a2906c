package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/setdecrunner/backend/pkg/migrate"
)

func TestMigrationDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestProductionsMigrationCarriesBothOwnerColumns(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_productions.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no productions migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"owner_user_id uuid",
		"owner uuid",
		"members jsonb NOT NULL DEFAULT '[]'",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_productions_slug",
		"DROP TABLE IF EXISTS productions",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestUsersMigrationKeepsLegacyMembershipColumn(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_users.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no users migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	if !strings.Contains(string(data), "production_ids uuid[] NOT NULL") {
		t.Error("users migration must keep the production_ids membership column")
	}
}
