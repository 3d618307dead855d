// Package db holds the process-wide DuckDB connection that point queries
// read from.
package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

var (
	instance *sql.DB
	once     sync.Once
	initErr  error
)

// Config holds database configuration.
type Config struct {
	DataDir string
	DBName  string

	// Extensions are installed and loaded on open. Failures are logged and
	// skipped, since offline hosts cannot download them.
	Extensions []string
	Log        *slog.Logger
}

// Get returns the singleton DuckDB connection, opening it on first use.
// An empty DataDir opens an in-memory database.
func Get(cfg Config) (*sql.DB, error) {
	once.Do(func() {
		instance, initErr = open(cfg)
	})
	return instance, initErr
}

func open(cfg Config) (*sql.DB, error) {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	dsn := ""
	if cfg.DataDir != "" {
		dir := filepath.Join(cfg.DataDir, "duckdb")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating duckdb directory: %w", err)
		}
		dsn = filepath.Join(dir, cfg.DBName+".duckdb")
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening duckdb %s: %w", dsn, err)
	}

	for _, ext := range cfg.Extensions {
		if _, err := conn.Exec(fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			log.Warn("duckdb extension unavailable", "extension", ext, "error", err)
		}
	}
	log.Info("duckdb opened", "path", dsn)
	return conn, nil
}

// Close closes the database connection.
func Close() error {
	if instance != nil {
		return instance.Close()
	}
	return nil
}
