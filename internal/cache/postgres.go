package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// Postgres is a pgvector-backed embedding cache.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects to the database at url and ensures the cache
// schema exists.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	if url == "" {
		return nil, errors.New("database URL is required")
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &Postgres{db: db}
	if err := p.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS embedding_cache (
			model      TEXT NOT NULL,
			file_key   TEXT NOT NULL,
			embedding  vector NOT NULL,
			dim        INTEGER NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (model, file_key)
		)`,
	}
	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating embedding cache: %w", err)
		}
	}
	return nil
}

// Get retrieves a cached embedding, nil when the key is unknown.
func (p *Postgres) Get(ctx context.Context, model, key string) ([]float32, error) {
	var vec pgvector.Vector
	err := p.db.QueryRowContext(ctx,
		`SELECT embedding FROM embedding_cache WHERE model = $1 AND file_key = $2`,
		model, key,
	).Scan(&vec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query embedding cache: %w", err)
	}
	return vec.Slice(), nil
}

// Put stores an embedding, keeping any existing entry.
func (p *Postgres) Put(ctx context.Context, model, key string, vec []float32) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO embedding_cache (model, file_key, embedding, dim)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (model, file_key) DO NOTHING`,
		model, key, pgvector.NewVector(vec), len(vec),
	)
	if err != nil {
		return fmt.Errorf("insert embedding cache: %w", err)
	}
	return nil
}

// Count returns the number of cached embeddings for a model.
func (p *Postgres) Count(ctx context.Context, model string) (int, error) {
	var count int
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM embedding_cache WHERE model = $1`, model,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count embedding cache: %w", err)
	}
	return count, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("closing database connection: %w", err)
	}
	return nil
}
