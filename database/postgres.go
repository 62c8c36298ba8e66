package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
)

// DBClient wraps the remote relational backend (a hosted Postgres in the
// Supabase mold) that holds the clients, lps and lp_leads tables.
type DBClient struct {
	DB *sql.DB
}

// NewPostgresDB connects using DATABASE_URL. When the variable is unset
// there are no remote credentials at all and every remote call must
// degrade to the local store, so the constructor reports that instead of
// guessing a default.
func NewPostgresDB() (*DBClient, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("error opening database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database (ping failed): %w", err)
	}

	log.Println("Successfully connected to PostgreSQL database!")
	return &DBClient{DB: db}, nil
}

// EnsureSchema creates the remote tables if they do not exist. Rows are
// schemaless JSONB documents keyed by id, matching the shape the local
// repository works with.
func (c *DBClient) EnsureSchema() error {
	for _, table := range []string{"clients", "lps", "lp_leads"} {
		stmt := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id        TEXT PRIMARY KEY,
				data      JSONB NOT NULL,
				criado_em TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`, table)
		if _, err := c.DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to ensure table %s: %w", table, err)
		}
	}
	return nil
}

func (c *DBClient) Close() {
	if c.DB != nil {
		err := c.DB.Close()
		if err != nil {
			log.Printf("Error closing database connection: %v", err)
		} else {
			log.Println("PostgreSQL database connection closed.")
		}
	}
}
