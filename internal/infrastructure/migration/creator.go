package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const upHeader = "-- Migration: %s\n-- Description: %s\n\n"

const downHeader = "-- Migration: %s (Rollback)\n\n"

var (
	nonWord    = regexp.MustCompile(`[^a-z0-9_]+`)
	separators = regexp.MustCompile(`[\s\-_]+`)
)

// MigrationFile describes a generated up/down migration pair
type MigrationFile struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

// CreateMigration writes an empty up/down pair named <timestamp>_<name> into dir
func CreateMigration(dir, name, description string, now time.Time) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	version := now.UTC().Format("20060102150405")
	base := filepath.Join(dir, version+"_"+slug)
	mf := &MigrationFile{
		Version:  version,
		Name:     slug,
		UpPath:   base + ".up.sql",
		DownPath: base + ".down.sql",
	}

	if err := os.WriteFile(mf.UpPath, []byte(fmt.Sprintf(upHeader, slug, description)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := os.WriteFile(mf.DownPath, []byte(fmt.Sprintf(downHeader, slug)), 0o644); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}
	return mf, nil
}

// sanitizeName lowercases name and collapses separators into single underscores
func sanitizeName(name string) string {
	s := separators.ReplaceAllString(strings.ToLower(name), "_")
	s = nonWord.ReplaceAllString(s, "")
	return strings.Trim(s, "_")
}

// ListMigrations returns the sorted base names of every *.up.sql file in source
func ListMigrations(source fs.FS) ([]string, error) {
	matches, err := fs.Glob(source, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = strings.TrimSuffix(m, ".up.sql")
	}
	sort.Strings(names)
	return names, nil
}
