package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/bazaarlink-backend/pkg/config"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db"
	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
	"github.com/angelmondragon/bazaarlink-backend/pkg/migrate"
)

const usageText = `bazaarlink migrate manages the marketplace schema (orders, wallets, cashouts, outbox).

Usage:
  migrate -cmd <command> [-dir %s] [-name <name>] [-version <YYYYMMDDHHMMSS>]

Commands:
  %s

create and validate run offline. Every other command connects with
%s_DB_DSN (or %s_DB_HOST/PORT/USER/PASSWORD/NAME), loaded from .env when present.

Flags:
`

type options struct {
	cmd     migrate.Command
	dir     string
	name    string
	version string
}

func main() {
	_ = godotenv.Load()
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "migrate:", err)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cmd := fs.String("cmd", string(migrate.CommandUp), "schema command")
	dir := fs.String("dir", migrate.DefaultDir, "goose migrations directory")
	name := fs.String("name", "", "migration name for -cmd=create")
	version := fs.String("version", "", "target version for -cmd=version")
	fs.Usage = func() {
		names := make([]string, 0, len(migrate.Commands))
		for _, c := range migrate.Commands {
			names = append(names, string(c))
		}
		fmt.Fprintf(stderr, usageText, migrate.DefaultDir, strings.Join(names, " | "), config.EnvPrefix, config.EnvPrefix)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	parsed, err := migrate.ParseCommand(*cmd)
	if err != nil {
		fs.Usage()
		return options{}, err
	}
	opts := options{cmd: parsed, dir: *dir, name: *name, version: *version}
	switch {
	case opts.cmd == migrate.CommandCreate && opts.name == "":
		return options{}, errors.New("-name is required for create")
	case opts.cmd == migrate.CommandVersion && opts.version == "":
		return options{}, errors.New("-version is required for version")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	switch opts.cmd {
	case migrate.CommandCreate:
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, "created migration:", path)
		return nil
	case migrate.CommandValidate:
		files, err := migrate.Scan(os.DirFS(opts.dir))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%d migrations valid in %s\n", len(files), opts.dir)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
		"cmd": string(opts.cmd),
		"dir": opts.dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()
	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql database: %w", err)
	}

	if opts.cmd == migrate.CommandVersion {
		err = migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version)
	} else {
		err = migrate.Run(ctx, sqlDB, opts.dir, opts.cmd)
	}
	if err != nil {
		logg.Error(ctx, "migration failed", err)
		return err
	}
	logg.Info(ctx, "migration finished")
	return nil
}
