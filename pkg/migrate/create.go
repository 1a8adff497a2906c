package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var migrationNameRe = regexp.MustCompile(`[^a-z0-9]+`)

// CreateSQLMigration writes an empty timestamped goose migration:
//
//	<dir>/<YYYYMMDDHHMMSS>_<name>.sql
//
// The name is lowercased and squeezed to [a-z0-9_] so filenames stay
// shell-safe.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}

	slug := migrationNameRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		return "", fmt.Errorf("migration name %q is empty after sanitizing", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	path := filepath.Join(dir, time.Now().UTC().Format("20060102150405")+"_"+slug+".sql")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("migration already exists: %s", path)
	}

	var b strings.Builder
	b.WriteString("-- +goose Up\n")
	b.WriteString("-- +goose StatementBegin\n")
	fmt.Fprintf(&b, "-- %s\n", slug)
	b.WriteString("-- +goose StatementEnd\n\n")
	b.WriteString("-- +goose Down\n")
	b.WriteString("-- +goose StatementBegin\n")
	fmt.Fprintf(&b, "-- rollback %s\n", slug)
	b.WriteString("-- +goose StatementEnd\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}
