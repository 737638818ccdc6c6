// Package migrations applies the embedded postgres schema with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed sql/*.sql
var files embed.FS

// Source returns the embedded migration files.
func Source() (source.Driver, error) {
	return iofs.New(files, "sql")
}

// Runner drives schema migrations against one database.
type Runner struct {
	m   *migrate.Migrate
	log *logrus.Entry
}

// New opens databaseURL (postgres://...) with the embedded migrations.
func New(databaseURL string, log *logrus.Entry) (*Runner, error) {
	src, err := Source()
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	m.Log = migrateLogger{log}
	return &Runner{m: m, log: log}, nil
}

// Up applies every pending migration. Being up to date is not an error.
func (r *Runner) Up() error {
	return r.run("up", r.m.Up)
}

// Down rolls back every applied migration.
func (r *Runner) Down() error {
	return r.run("down", r.m.Down)
}

func (r *Runner) run(direction string, step func() error) error {
	const op = "migrations.Runner.run"
	log := r.log.WithFields(logrus.Fields{"operation": op, "direction": direction})

	err := step()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("schema already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}

	version, dirty, err := r.m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}
	log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("migrations applied")
	return nil
}

// Close releases the source and database handles.
func (r *Runner) Close() error {
	srcErr, dbErr := r.m.Close()
	return errors.Join(srcErr, dbErr)
}

type migrateLogger struct{ log *logrus.Entry }

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Debugf(format, v...)
}

func (l migrateLogger) Verbose() bool {
	return l.log.Logger.IsLevelEnabled(logrus.DebugLevel)
}
