package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const versionLayout = "20060102150405"

var (
	sqlFileRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	// Money columns are declared one per line as "<name>_paise <type>".
	paiseColumnRe = regexp.MustCompile(`(?im)^\s*(?:ADD\s+COLUMN\s+(?:IF\s+NOT\s+EXISTS\s+)?)?([a-z0-9_]+_paise)\s+([a-z]+)`)
)

// File is one goose SQL migration.
type File struct {
	Version int64
	Name    string
	Path    string
}

// ValidateDir checks the SQL migrations in dir.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("migrations dir %q: %w", dir, err)
	}
	_, err := Scan(os.DirFS(dir))
	return err
}

// Scan lists the migrations in fsys ordered by version. It rejects bad
// filenames, duplicate versions, files missing a goose Up or Down section
// and money columns that are not stored as bigint paise.
func Scan(fsys fs.FS) ([]File, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	files := make([]File, 0, len(entries))
	seen := map[int64]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected %s_name.sql)", name, versionLayout)
		}
		version, _ := strconv.ParseInt(m[1], 10, 64)
		if prev, ok := seen[version]; ok {
			return nil, fmt.Errorf("duplicate migration version %d in %q and %q", version, prev, name)
		}
		seen[version] = name

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", name, err)
		}
		if err := lintSQL(name, string(body)); err != nil {
			return nil, err
		}
		files = append(files, File{Version: version, Name: m[2], Path: path.Clean(name)})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

func lintSQL(name, body string) error {
	if !strings.Contains(body, "-- +goose Up") {
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	}
	if !strings.Contains(body, "-- +goose Down") {
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	}
	for _, m := range paiseColumnRe.FindAllStringSubmatch(body, -1) {
		if !strings.EqualFold(m[2], "bigint") {
			return fmt.Errorf("migration %q: money column %s must be bigint paise, got %s", name, m[1], m[2])
		}
	}
	return nil
}

// LatestVersion returns the highest version in fsys, or 0 when it is empty.
func LatestVersion(fsys fs.FS) (int64, error) {
	files, err := Scan(fsys)
	if err != nil || len(files) == 0 {
		return 0, err
	}
	return files[len(files)-1].Version, nil
}
