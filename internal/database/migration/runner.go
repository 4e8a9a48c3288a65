package migration

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// lockKey serializes schema changes across concurrent starts of the server
// and the refresh CLI against the same database.
const lockKey int64 = 831407226

// Runner applies the versioned scripts in Dir (V<n>__name.sql, ascending)
// exactly once each. Applied versions are recorded with a checksum; a
// changed script for an already-applied version is an error, never a re-run.
type Runner struct {
	Dir    string
	Logger *log.Logger
}

type script struct {
	version  int64
	name     string
	filename string
	body     string
	checksum string
}

func (r Runner) Run(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("nil db")
	}

	dir := strings.TrimSpace(r.Dir)
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			return err
		}
		dir = filepath.Join(filepath.Dir(exe), "migrations")
	}

	scripts, err := readScripts(dir)
	if err != nil {
		return err
	}
	if len(scripts) == 0 {
		return nil
	}

	if _, err := db.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, lockKey); err != nil {
		return err
	}
	defer func() {
		_, _ = db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockKey)
	}()

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	applied, err := appliedChecksums(ctx, db)
	if err != nil {
		return err
	}

	for _, sc := range scripts {
		if sum, ok := applied[sc.version]; ok {
			if sum != sc.checksum {
				return fmt.Errorf("migration %s changed after being applied (version %d)", sc.filename, sc.version)
			}
			continue
		}
		if err := r.apply(ctx, db, sc); err != nil {
			return err
		}
	}

	return nil
}

func readScripts(dir string) ([]script, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	seen := map[int64]string{}
	scripts := make([]script, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		version, base, ok := parseScriptName(name)
		if !ok {
			continue
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("version %d claimed by both %s and %s", version, prev, name)
		}
		seen[version] = name

		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		body := strings.TrimSpace(string(b))
		if body == "" {
			return nil, fmt.Errorf("empty migration %s", name)
		}

		sum := sha256.Sum256([]byte(body))
		scripts = append(scripts, script{
			version:  version,
			name:     base,
			filename: name,
			body:     body,
			checksum: hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(scripts, func(i, j int) bool { return scripts[i].version < scripts[j].version })
	return scripts, nil
}

// parseScriptName splits "V3__add_snapshot_index.sql" into (3,
// "add_snapshot_index", true).
func parseScriptName(name string) (int64, string, bool) {
	if !strings.HasPrefix(name, "V") || !strings.HasSuffix(name, ".sql") {
		return 0, "", false
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(name, "V"), ".sql")
	verStr, base, ok := strings.Cut(rest, "__")
	if !ok || base == "" {
		return 0, "", false
	}
	version, err := strconv.ParseInt(verStr, 10, 64)
	if err != nil || version < 0 {
		return 0, "", false
	}
	return version, base, true
}

func appliedChecksums(ctx context.Context, db *sql.DB) (map[int64]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT version, checksum FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64]string{}
	for rows.Next() {
		var version int64
		var checksum string
		if err := rows.Scan(&version, &checksum); err != nil {
			return nil, err
		}
		out[version] = checksum
	}
	return out, rows.Err()
}

func (r Runner) apply(ctx context.Context, db *sql.DB, sc script) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, sc.body); err != nil {
		return fmt.Errorf("migration %s failed: %w", sc.filename, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, checksum) VALUES ($1, $2, $3)`,
		sc.version, sc.name, sc.checksum,
	); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if r.Logger != nil {
		r.Logger.Printf("[Migration] applied | version=%d name=%s", sc.version, sc.name)
	}
	return nil
}
