// Command migrate manages the DealerDesk database schema.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dealerdesk/backend/internal/infrastructure/config"
	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"github.com/dealerdesk/backend/internal/infrastructure/migration"
	"github.com/dealerdesk/backend/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const usage = `DealerDesk schema migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  version               Show the applied version
  force <version>       Mark a version as applied (clears a dirty state)
  create <name> [desc]  Write a new up/down pair into the migrations directory
  list                  List available migrations

Flags:
`

// dbCommand runs against a connected migrator
type dbCommand func(m *migration.Migrator, log *zap.Logger, args []string) error

var dbCommands = map[string]dbCommand{
	"up":   func(m *migration.Migrator, _ *zap.Logger, _ []string) error { return m.Up() },
	"down": func(m *migration.Migrator, _ *zap.Logger, _ []string) error { return m.Down() },
	"step": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := intArg(args, "step count")
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"force": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		return m.Force(v)
	},
	"version": func(m *migration.Migrator, log *zap.Logger, _ []string) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	},
}

func main() {
	flags := flag.NewFlagSet("migrate", flag.ExitOnError)
	dir := flags.String("path", "", "read migrations from this directory instead of the embedded set")
	level := flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Usage = func() {
		fmt.Fprint(flags.Output(), usage)
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	args := flags.Args()
	if len(args) == 0 {
		flags.Usage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{Level: *level, Format: "console", TimeFormat: time.DateTime})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(args[0], args[1:], *dir, log); err != nil {
		log.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func run(command string, args []string, dir string, log *zap.Logger) error {
	switch command {
	case "create":
		return create(args, dir, log)
	case "list":
		return list(dir)
	}

	cmd, ok := dbCommands[command]
	if !ok {
		return fmt.Errorf("unknown command %q", command)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	var m *migration.Migrator
	if dir != "" {
		m, err = migration.NewFromPath(db, dir, log)
	} else {
		m, err = migration.NewFromFS(db, migrations.FS, log)
	}
	if err != nil {
		return err
	}
	defer m.Close()

	return cmd(m, log, args)
}

func create(args []string, dir string, log *zap.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("migration name required: migrate create <name> [description]")
	}
	if dir == "" {
		dir = "migrations"
	}
	var description string
	if len(args) > 1 {
		description = args[1]
	}
	mf, err := migration.CreateMigration(dir, args[0], description, time.Now())
	if err != nil {
		return err
	}
	log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath))
	return nil
}

func list(dir string) error {
	var source fs.FS = migrations.FS
	if dir != "" {
		source = os.DirFS(dir)
	}
	names, err := migration.ListMigrations(source)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func intArg(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s required", what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, args[0])
	}
	return n, nil
}
