//go:build cgo

// Package sqlstore is the production store.Store backend: an embedded Dolt
// engine reached through database/sql over the MySQL wire protocol, the
// same stack and open sequence the teacher's internal/storage/dolt package
// uses for its embedded mode.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	embedded "github.com/dolthub/driver"
)

const embeddedOpenMaxElapsed = 30 * time.Second

func newEmbeddedOpenBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = embeddedOpenMaxElapsed
	return bo
}

// Config is the subset of connection parameters legion's embedded store
// needs. Database is the Dolt database name, not a filesystem path.
type Config struct {
	Path          string
	Database      string
	CommitterName string
	CommitterEmail string
}

func (c Config) withDefaults() Config {
	if c.Database == "" {
		c.Database = "legion"
	}
	if c.CommitterName == "" {
		c.CommitterName = "legion-engine"
	}
	if c.CommitterEmail == "" {
		c.CommitterEmail = "legion-engine@local"
	}
	return c
}

// Open creates the database directory if needed, ensures the Dolt database
// and schema exist, and returns a *sql.DB ready for use. Mirrors the
// teacher's newEmbeddedMode: a short-lived connector initializes the
// database and schema, then a fresh connector backs the long-lived
// connection this function returns.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	cfg = cfg.withDefaults()

	if info, err := os.Stat(cfg.Path); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("database path %q is a file, not a directory", cfg.Path)
	}
	if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute database path: %w", err)
	}

	initDSN := fmt.Sprintf("file://%s?commitname=%s&commitemail=%s",
		absPath, cfg.CommitterName, cfg.CommitterEmail)
	dbDSN := fmt.Sprintf("file://%s?commitname=%s&commitemail=%s&database=%s",
		absPath, cfg.CommitterName, cfg.CommitterEmail, cfg.Database)

	configureRetries := func(c *embedded.Config) {
		c.BackOff = newEmbeddedOpenBackoff()
	}

	if err := withEmbeddedDolt(ctx, initDSN, configureRetries, func(ctx context.Context, db *sql.DB) error {
		_, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", cfg.Database))
		return err
	}); err != nil {
		return nil, fmt.Errorf("create dolt database: %w", err)
	}

	if err := withEmbeddedDolt(ctx, dbDSN, configureRetries, func(ctx context.Context, db *sql.DB) error {
		return initSchema(ctx, db)
	}); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	connector, err := embedded.NewConnector(mustParseDSN(dbDSN, configureRetries))
	if err != nil {
		return nil, fmt.Errorf("open embedded connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping embedded dolt: %w", err)
	}
	return db, nil
}

func mustParseDSN(dsn string, configure func(*embedded.Config)) embedded.Config {
	cfg, err := embedded.ParseDSN(dsn)
	if err != nil {
		panic(fmt.Sprintf("sqlstore: invalid embedded DSN %q: %v", dsn, err))
	}
	if configure != nil {
		configure(&cfg)
	}
	return cfg
}

// withEmbeddedDolt executes exactly one unit of work against a throwaway
// embedded connector: open, run fn, close db then connector to release the
// engine's filesystem locks. Grounded on the teacher's embedded_uow.go.
func withEmbeddedDolt(
	ctx context.Context,
	dsn string,
	configure func(cfg *embedded.Config),
	fn func(ctx context.Context, db *sql.DB) error,
) (err error) {
	cfg, err := embedded.ParseDSN(dsn)
	if err != nil {
		return err
	}
	if configure != nil {
		configure(&cfg)
	}

	connector, err := embedded.NewConnector(cfg)
	if err != nil {
		return err
	}
	db := sql.OpenDB(connector)
	defer func() {
		closeErr := db.Close()
		connErr := connector.Close()
		if err == nil {
			err = closeErr
		}
		if err == nil {
			err = connErr
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		return err
	}
	return fn(ctx, db)
}
