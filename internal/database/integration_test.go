//go:build integration

package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalcare/aftercare/internal/database"
	"github.com/dentalcare/aftercare/internal/dialogue"
	"github.com/dentalcare/aftercare/internal/knowledge"
	"github.com/dentalcare/aftercare/internal/patient"
	"github.com/dentalcare/aftercare/internal/testutil"
)

func TestPostgresRepositories(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	cfg := testutil.Postgres(t)
	ctx := context.Background()

	require.NoError(t, database.RunMigrations(cfg.DSN(), cfg.MigrationsPath), testutil.DSN(cfg))
	// Re-running is a no-op.
	require.NoError(t, database.RunMigrations(cfg.DSN(), cfg.MigrationsPath))

	pool, err := database.NewPostgresPool(ctx, cfg)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, database.HealthCheck(ctx, pool))

	patients := patient.NewPostgresRepository(pool)
	kb := knowledge.NewPostgresRepository(pool)
	turns := dialogue.NewPostgresRepository(pool)

	t.Run("knowledge seed is searchable", func(t *testing.T) {
		entries, err := kb.FindActiveBySubstring(ctx, "implant", 5)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		for _, e := range entries {
			assert.Equal(t, "implant", e.Category)
			assert.True(t, e.Active)
		}
	})

	t.Run("knowledge match is literal and skips inactive", func(t *testing.T) {
		require.NoError(t, kb.Insert(ctx, &knowledge.Entry{
			Category: "misc", Title: "Retired advice", Content: "Rinse with 100% alcohol", Active: false,
		}))
		entries, err := kb.FindActiveBySubstring(ctx, "100%", 5)
		require.NoError(t, err)
		assert.Empty(t, entries)

		entries, err = kb.FindActiveBySubstring(ctx, "%", 5)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("knowledge newest first", func(t *testing.T) {
		e := &knowledge.Entry{Category: "pain", Title: "Night pain", Content: "Pain at night eases with the head raised.", Active: true}
		require.NoError(t, kb.Insert(ctx, e))

		entries, err := kb.FindActiveBySubstring(ctx, "pain", 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, e.ID, entries[0].ID)
	})

	var patientID int64
	t.Run("patient insert and get", func(t *testing.T) {
		p := &patient.Profile{Name: "Test Patient", Age: 72, AllergyHistory: "penicillin"}
		require.NoError(t, patients.Insert(ctx, p))
		require.NotZero(t, p.ID)
		patientID = p.ID

		got, err := patients.Get(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 72, got.Age)
		assert.Equal(t, "penicillin", got.AllergyHistory)
		assert.Empty(t, got.MedicalHistory)

		missing, err := patients.Get(ctx, p.ID+1000)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("dialogue turns", func(t *testing.T) {
		require.NotZero(t, patientID)
		base := time.Now().UTC().Truncate(time.Millisecond)

		var ids []uuid.UUID
		for i, msg := range []string{"Does it hurt?", "Can I brush?", "Thanks"} {
			turn := &dialogue.Turn{
				ID:          uuid.New(),
				PatientID:   patientID,
				SessionID:   "s-1",
				UserMessage: msg,
				AIResponse:  "answer",
				MessageType: dialogue.DefaultMessageType,
				CreatedAt:   base.Add(time.Duration(i) * time.Second),
			}
			inserted, err := turns.Insert(ctx, turn)
			require.NoError(t, err)
			assert.True(t, inserted)
			// Redelivery does not duplicate.
			inserted, err = turns.Insert(ctx, turn)
			require.NoError(t, err)
			assert.False(t, inserted)
			ids = append(ids, turn.ID)
		}

		count, err := turns.CountBySession(ctx, "s-1")
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)

		recent, err := turns.RecentTurns(ctx, "s-1", 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "Thanks", recent[0].UserMessage)
		assert.Equal(t, "Can I brush?", recent[1].UserMessage)

		page, err := turns.ListBySession(ctx, "s-1", 1, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "Does it hurt?", page[0].UserMessage)

		page, err = turns.ListBySession(ctx, "s-1", 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "Thanks", page[0].UserMessage)

		empty, err := turns.ListBySession(ctx, "unknown", 1, 10)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		marked, err := turns.MarkHandover(ctx, ids[0])
		require.NoError(t, err)
		assert.True(t, marked.IsHandover)

		_, err = turns.MarkHandover(ctx, uuid.New())
		assert.ErrorIs(t, err, dialogue.ErrTurnNotFound)

		pending, err := turns.ListPendingHandover(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, ids[0], pending[0].ID)
	})

	t.Run("rollback removes schema", func(t *testing.T) {
		pool.Close()
		require.NoError(t, database.RollbackMigrations(cfg.DSN(), cfg.MigrationsPath, 2))

		p2, err := database.NewPostgresPool(ctx, cfg)
		require.NoError(t, err)
		defer p2.Close()

		var exists bool
		require.NoError(t, p2.QueryRow(ctx, `SELECT to_regclass('public.dialogues') IS NOT NULL`).Scan(&exists))
		assert.False(t, exists)

		assert.Error(t, database.RollbackMigrations(cfg.DSN(), cfg.MigrationsPath, 0))
	})
}
