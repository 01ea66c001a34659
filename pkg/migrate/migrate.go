package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pressly/goose/v3"
)

// DefaultDir is where the storefront keeps its goose files, relative to the
// repository root.
const DefaultDir = "pkg/migrate/migrations"

// The migration SQL is Postgres-only (jsonb columns among others). SQLite dev
// databases go through MaybeRunDev instead.
const dialect = "postgres"

var errNoDB = errors.New("database handle required")

// commands lists the goose verbs the CLI may forward. reset is not one of
// them; walk down with MigrateToVersion.
var commands = map[string]bool{
	"up":        true,
	"up-by-one": true,
	"down":      true,
	"redo":      true,
	"status":    true,
	"version":   true,
}

// Run forwards command to goose against db.
func Run(ctx context.Context, db *sql.DB, dir string, command string, args ...string) error {
	if !commands[command] {
		return fmt.Errorf("unsupported migration command %q", command)
	}
	if err := prepare(db, dir); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion walks the schema up or down until it sits at version.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, version string) error {
	target, err := ParseVersion(version)
	if err != nil {
		return err
	}
	if err := prepare(db, dir); err != nil {
		return err
	}

	current, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch {
	case current < target:
		err = goose.UpToContext(ctx, db, dir, target)
	case current > target:
		err = goose.DownToContext(ctx, db, dir, target)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %d -> %d: %w", current, target, err)
	}
	return nil
}

// ParseVersion accepts the YYYYMMDDHHMMSS prefix CreateSQLMigration stamps on
// new files.
func ParseVersion(version string) (int64, error) {
	if version == "" {
		return 0, errors.New("migration version required")
	}
	if _, err := time.Parse(versionLayout, version); err != nil {
		return 0, fmt.Errorf("migration version %q is not YYYYMMDDHHMMSS", version)
	}
	return strconv.ParseInt(version, 10, 64)
}

func prepare(db *sql.DB, dir string) error {
	if db == nil {
		return errNoDB
	}
	if dir == "" {
		return errors.New("migrations dir required")
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return nil
}
