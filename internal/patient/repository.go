package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store reads patient profiles.
type Store interface {
	// Get returns nil, nil when the patient does not exist.
	Get(ctx context.Context, id int64) (*Profile, error)
}

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, COALESCE(age, 0), COALESCE(gender, ''),
		        COALESCE(medical_history, ''), COALESCE(allergy_history, '')
		 FROM patients WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.MedicalHistory, &p.AllergyHistory)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting patient %d: %w", id, err)
	}
	return &p, nil
}

// Insert creates a patient. Used by seeding and tests.
func (r *PostgresRepository) Insert(ctx context.Context, p *Profile) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO patients (name, age, gender, medical_history, allergy_history)
		 VALUES ($1, NULLIF($2, 0), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''))
		 RETURNING id`,
		p.Name, p.Age, p.Gender, p.MedicalHistory, p.AllergyHistory,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("inserting patient: %w", err)
	}
	return nil
}
