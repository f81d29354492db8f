// Package migration applies the DealerDesk schema with golang-migrate and
// scaffolds new migration files.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Migrator runs migrations from an fs.FS against a PostgreSQL database
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

// NewFromFS reads migrations from the root of source, usually the embedded set
func NewFromFS(db *sql.DB, source fs.FS, log *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}
	src, err := iofs.New(source, ".")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	m.Log = migrateLogger{log.Named("migrate")}
	return &Migrator{m: m, log: log}, nil
}

// NewFromPath reads migrations from a directory on disk
func NewFromPath(db *sql.DB, dir string, log *zap.Logger) (*Migrator, error) {
	return NewFromFS(db, os.DirFS(dir), log)
}

// Up applies every pending migration
func (m *Migrator) Up() error { return m.run("up", m.m.Up) }

// Down rolls back every applied migration
func (m *Migrator) Down() error { return m.run("down", m.m.Down) }

// Steps applies n migrations, rolling back when n is negative
func (m *Migrator) Steps(n int) error {
	return m.run(fmt.Sprintf("step %d", n), func() error { return m.m.Steps(n) })
}

// Version reports the applied version. A fresh database is version 0.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied without running anything. It exists to
// clear a dirty flag after a failed migration was repaired by hand.
func (m *Migrator) Force(version int) error {
	m.log.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

// run treats "nothing to do" as success and logs the resulting version
func (m *Migrator) run(op string, fn func() error) error {
	m.log.Info("Running migrations", zap.String("op", op))
	err := fn()
	if errors.Is(err, migrate.ErrNoChange) {
		m.log.Info("Schema already current", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", op, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.log.Info("Migrations finished", zap.String("op", op), zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// migrateLogger adapts zap to golang-migrate's logger
type migrateLogger struct{ l *zap.Logger }

func (l migrateLogger) Printf(format string, v ...any) {
	l.l.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.l.Core().Enabled(zap.DebugLevel)
}
