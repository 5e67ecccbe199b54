package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/julielab/jcore/errors"
	"github.com/julielab/jcore/logger"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

const migrationDir = "sqlite/migrations"

// Migration is one embedded schema change. Version is the numeric file
// prefix, e.g. "001" for 001_create_embeddings.sql.
type Migration struct {
	Version string
	File    string
}

// Migrations lists the embedded migrations in the order they are applied.
func Migrations() ([]Migration, error) {
	entries, err := migrations.ReadDir(migrationDir)
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}
	var out []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, _, _ := strings.Cut(entry.Name(), "_")
		out = append(out, Migration{Version: version, File: entry.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out, nil
}

// AppliedVersions returns the versions recorded in schema_migrations.
func AppliedVersions(db *sql.DB) ([]string, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, errors.Wrap(err, "query schema_migrations")
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "scan schema_migrations")
		}
		versions = append(versions, v)
	}
	return versions, errors.Wrap(rows.Err(), "iterate schema_migrations")
}

// Migrate runs all pending migrations in version order. Each migration and
// its schema_migrations row are committed in one transaction.
// If log is provided, logs migration progress; otherwise operates silently.
func Migrate(db *sql.DB, log *zap.SugaredLogger) error {
	all, err := Migrations()
	if err != nil {
		return err
	}

	applied := 0
	for _, m := range all {
		// schema_migrations is created by 000
		var exists bool
		err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", m.Version).Scan(&exists)
		if err != nil && m.Version != "000" {
			return errors.Wrapf(err, "schema_migrations table missing, but migration is not 000: %s", m.File)
		}
		if exists {
			if log != nil {
				log.Debugw("Skipping migration (already applied)",
					logger.FieldFile, m.File,
					"version", m.Version,
				)
			}
			continue
		}

		if err := apply(db, m); err != nil {
			return err
		}
		applied++
		if log != nil {
			log.Infow("Applied migration",
				logger.FieldFile, m.File,
				"version", m.Version,
			)
		}
	}

	if log != nil {
		log.Infow("Migrations complete",
			"total_migrations", len(all),
			"applied", applied,
		)
	}
	return nil
}

func apply(db *sql.DB, m Migration) error {
	stmts, err := migrations.ReadFile(path.Join(migrationDir, m.File))
	if err != nil {
		return errors.Wrapf(err, "read %s", m.File)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin tx for %s", m.File)
	}
	if _, err := tx.Exec(string(stmts)); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "execute %s", m.File)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "record %s", m.File)
	}
	return errors.Wrapf(tx.Commit(), "commit %s", m.File)
}
