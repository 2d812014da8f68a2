package dialogue

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrTurnNotFound = errors.New("dialogue turn not found")

// Log is the read side used for context assembly. Turns come back newest
// first.
type Log interface {
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error)
}

// PostgresRepository persists turns in the dialogues table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const turnColumns = `id, patient_id, session_id, user_message, ai_response, message_type, is_handover, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTurn(row scanner) (Turn, error) {
	var t Turn
	err := row.Scan(&t.ID, &t.PatientID, &t.SessionID, &t.UserMessage, &t.AIResponse, &t.MessageType, &t.IsHandover, &t.CreatedAt)
	return t, err
}

func (r *PostgresRepository) RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+turnColumns+`
		 FROM dialogues
		 WHERE session_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Insert stores a turn and reports whether a row was written. Re-inserting
// the same ID is a no-op so redelivered events do not duplicate rows.
func (r *PostgresRepository) Insert(ctx context.Context, t *Turn) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO dialogues (`+turnColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO NOTHING`,
		t.ID, t.PatientID, t.SessionID, t.UserMessage, t.AIResponse, t.MessageType, t.IsHandover, t.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("inserting turn: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListBySession returns one page of a session in chronological order.
func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string, page, pageSize int) ([]Turn, error) {
	offset := (page - 1) * pageSize
	rows, err := r.pool.Query(ctx,
		`SELECT `+turnColumns+`
		 FROM dialogues
		 WHERE session_id = $1
		 ORDER BY created_at ASC, id ASC
		 LIMIT $2 OFFSET $3`,
		sessionID, pageSize, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing session turns: %w", err)
	}
	defer rows.Close()

	turns := []Turn{}
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (r *PostgresRepository) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM dialogues WHERE session_id = $1`, sessionID,
	).Scan(&count)
	return count, err
}

// MarkHandover flags a turn for human follow-up and returns the updated row.
func (r *PostgresRepository) MarkHandover(ctx context.Context, id uuid.UUID) (*Turn, error) {
	rows, err := r.pool.Query(ctx,
		`UPDATE dialogues SET is_handover = TRUE
		 WHERE id = $1
		 RETURNING `+turnColumns,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("marking handover: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("marking handover: %w", err)
		}
		return nil, ErrTurnNotFound
	}
	t, err := scanTurn(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning turn: %w", err)
	}
	return &t, nil
}

// ListPendingHandover returns flagged turns, oldest first.
func (r *PostgresRepository) ListPendingHandover(ctx context.Context, limit int) ([]Turn, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+turnColumns+`
		 FROM dialogues
		 WHERE is_handover
		 ORDER BY created_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing handover turns: %w", err)
	}
	defer rows.Close()

	turns := []Turn{}
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
