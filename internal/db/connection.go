// Package db is the Postgres side of bulk parsing: a thin connection
// wrapper and a batch driver that reads raw addresses from a source
// table and writes structured rows back.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/ukaddresskit/ukaddresskit/internal/config"
)

// Connection wraps the shared database handle.
type Connection struct {
	DB *sql.DB
}

// NewConnection opens a Postgres connection from the standard PG*
// environment variables and verifies it with a ping.
func NewConnection() (*Connection, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.GetEnv("PGHOST", "localhost"),
		config.GetEnv("PGPORT", "5432"),
		config.GetEnv("PGUSER", "postgres"),
		config.GetEnv("PGPASSWORD", ""),
		config.GetEnv("PGDATABASE", "ukaddresskit"),
		config.GetEnv("PGSSLMODE", "disable"))

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(config.GetEnvInt("UKADDRESS_DB_MAX_CONNS", 20))
	db.SetMaxIdleConns(config.GetEnvInt("UKADDRESS_DB_MAX_CONNS", 20) / 2)

	return &Connection{DB: db}, nil
}

// Close closes the underlying handle.
func (c *Connection) Close() error {
	return c.DB.Close()
}
