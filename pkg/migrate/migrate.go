// Package migrate owns the BazaarLink Postgres schema and the goose tooling
// around it.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/pressly/goose/v3"
)

// DefaultDir is where the migrate binary reads and writes SQL files.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Command is a schema operation understood by the migrate binary.
type Command string

const (
	CommandUp       Command = "up"
	CommandDown     Command = "down"
	CommandStatus   Command = "status"
	CommandVersion  Command = "version"
	CommandCreate   Command = "create"
	CommandValidate Command = "validate"
)

// Commands lists every supported command in usage order.
var Commands = []Command{CommandUp, CommandDown, CommandStatus, CommandVersion, CommandCreate, CommandValidate}

// ParseCommand validates a raw -cmd value.
func ParseCommand(raw string) (Command, error) {
	for _, c := range Commands {
		if string(c) == raw {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown migrate command %q", raw)
}

// NeedsDB reports whether the command talks to Postgres.
func (c Command) NeedsDB() bool {
	return c != CommandCreate && c != CommandValidate
}

// EmbeddedFS exposes the SQL files compiled into the binary.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(fmt.Sprintf("migrate: embedded migrations: %v", err))
	}
	return sub
}

// Run executes a goose command against the SQL files in dir.
func Run(ctx context.Context, db *sql.DB, dir string, command Command, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	if !command.NeedsDB() || command == CommandVersion {
		return fmt.Errorf("command %q is not a goose run command", command)
	}
	if err := goose.SetDialect(string(goose.DialectPostgres)); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, string(command), db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion moves the schema up or down until it sits at targetVersion.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, targetVersion string) error {
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil || len(targetVersion) != len(versionLayout) {
		return fmt.Errorf("invalid version %q (expected %s)", targetVersion, versionLayout)
	}
	if err := goose.SetDialect(string(goose.DialectPostgres)); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch {
	case current < target:
		err = goose.UpToContext(ctx, db, dir, target)
	case current > target:
		err = goose.DownToContext(ctx, db, dir, target)
	}
	if err != nil {
		return fmt.Errorf("migrate %d -> %d: %w", current, target, err)
	}
	return nil
}
