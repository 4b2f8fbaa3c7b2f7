// Package migration applies versioned migrations and records them in a
// history table.
package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"

	"github.com/burugo/migrate"
)

// Migration is one versioned change. Steps run in order on migrate and in
// reverse order on rollback.
type Migration struct {
	Version int64
	Name    string
	Steps   []migrate.Step
}

var (
	ErrDuplicateVersion = errors.New("migration: duplicate version")
	ErrUnknownVersion   = errors.New("migration: applied version is not registered")
	ErrInvalidFile      = errors.New("migration: invalid migration file set")
)

// migrationFilenameRegex parses NNN_name.up.sql / NNN_name.down.sql.
var migrationFilenameRegex = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_]+)\.(up|down)\.sql$`)

// LoadFS discovers SQL migration pairs in dir. Files not matching the naming
// scheme and subdirectories are skipped; a missing dir yields no migrations.
// A version needs an up file; the down file is optional.
func LoadFS(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Migration{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory %s: %w", dir, err)
	}

	type pair struct {
		name     string
		up, down *string
	}
	byVersion := map[int64]*pair{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := migrationFilenameRegex.FindStringSubmatch(entry.Name())
		if len(match) != 4 {
			continue
		}
		version, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			// out of int64 range
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}
		body := string(data)

		p, ok := byVersion[version]
		if !ok {
			p = &pair{name: match[2]}
			byVersion[version] = p
		} else if p.name != match[2] {
			return nil, fmt.Errorf("%w: version %d named both %q and %q", ErrInvalidFile, version, p.name, match[2])
		}
		if match[3] == "up" {
			p.up = &body
		} else {
			p.down = &body
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for version, p := range byVersion {
		if p.up == nil {
			return nil, fmt.Errorf("%w: version %d (%s) has no up file", ErrInvalidFile, version, p.name)
		}
		step := migrate.SQLStep{UpSQL: *p.up}
		if p.down != nil {
			step.DownSQL = *p.down
		}
		migrations = append(migrations, Migration{
			Version: version,
			Name:    p.name,
			Steps:   []migrate.Step{step},
		})
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}
