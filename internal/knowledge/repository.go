package knowledge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the read side of the knowledge base.
type Store interface {
	// FindActiveBySubstring returns active entries whose content, title or
	// keywords contain token, newest first.
	FindActiveBySubstring(ctx context.Context, token string, limit int) ([]Entry, error)
}

// PostgresRepository implements Store with pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) FindActiveBySubstring(ctx context.Context, token string, limit int) ([]Entry, error) {
	// strpos keeps the match literal, so % and _ in the token are not wildcards.
	rows, err := r.pool.Query(ctx,
		`SELECT id, category, title, content, COALESCE(keywords, ''), COALESCE(source, ''), is_active, created_at
		 FROM knowledge_base
		 WHERE is_active
		   AND (strpos(content, $1) > 0 OR strpos(title, $1) > 0 OR strpos(COALESCE(keywords, ''), $1) > 0)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		token, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge for %q: %w", token, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Category, &e.Title, &e.Content, &e.Keywords, &e.Source, &e.Active, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning knowledge entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Insert adds an entry. Used by seeding and tests; the answer path never writes.
func (r *PostgresRepository) Insert(ctx context.Context, e *Entry) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO knowledge_base (category, title, content, keywords, source, is_active)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)
		 RETURNING id, created_at`,
		e.Category, e.Title, e.Content, e.Keywords, e.Source, e.Active,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting knowledge entry: %w", err)
	}
	return nil
}
