package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"
)

const connectTimeout = 10 * time.Second

type ConnectionConfig struct {
	URL    string
	Schema string
	// MaxOpenConns bounds the pool; role sync workers and event handlers share it
	MaxOpenConns int
}

// NewConnection opens the pool and checks that the schema every repository
// qualifies its tables with exists.
func NewConnection(ctx context.Context, cfg ConnectionConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`
	if err := db.GetContext(ctx, &exists, query, cfg.Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to look up schema %s: %w", cfg.Schema, err)
	}
	if !exists {
		db.Close()
		return nil, fmt.Errorf("schema %s does not exist", cfg.Schema)
	}

	return db, nil
}
