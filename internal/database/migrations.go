package database

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
)

// Migration is a versioned pair of SQL scripts.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// Catalog is a set of migrations ordered by version.
type Catalog []Migration

//go:embed migrations/*.sql
var embeddedScripts embed.FS

var scriptName = regexp.MustCompile(`^(\d{6})_([a-z0-9_]+)\.(up|down)\.sql$`)

// EmbeddedCatalog returns the migrations compiled into the binary.
func EmbeddedCatalog() (Catalog, error) {
	return ParseCatalog(embeddedScripts, "migrations")
}

// ParseCatalog reads NNNNNN_name.up.sql and NNNNNN_name.down.sql pairs from
// dir. Files not following that pattern are ignored; a version with only one
// half, or two names, is an error.
func ParseCatalog(fsys fs.FS, dir string) (Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := scriptName.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		version, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", entry.Name(), err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: match[2]}
			byVersion[version] = m
		} else if m.Name != match[2] {
			return nil, fmt.Errorf("migration version %06d used by %q and %q", version, m.Name, match[2])
		}

		body, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if match[3] == "up" {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	catalog := make(Catalog, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("migration %s needs both an up and a down script", m)
		}
		catalog = append(catalog, *m)
	}
	sort.Slice(catalog, func(i, j int) bool { return catalog[i].Version < catalog[j].Version })
	return catalog, nil
}

// Find returns the migration with version.
func (c Catalog) Find(version int) (Migration, bool) {
	for _, m := range c {
		if m.Version == version {
			return m, true
		}
	}
	return Migration{}, false
}

// Pending returns the migrations whose versions are not in applied, in order.
func (c Catalog) Pending(applied []int) []Migration {
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}
	var pending []Migration
	for _, m := range c {
		if !done[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending
}

// Unknown returns the applied versions this catalog has no script for.
func (c Catalog) Unknown(applied []int) []int {
	var unknown []int
	for _, v := range applied {
		if _, ok := c.Find(v); !ok {
			unknown = append(unknown, v)
		}
	}
	sort.Ints(unknown)
	return unknown
}
