package dialogue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T, maxTurns int, ttl time.Duration) (*ShortTermStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewShortTermStore(client, maxTurns, ttl), mr
}

func turn(session string, i int) *Turn {
	return &Turn{
		ID:          uuid.New(),
		PatientID:   1,
		SessionID:   session,
		UserMessage: fmt.Sprintf("q%d", i),
		AIResponse:  fmt.Sprintf("a%d", i),
		MessageType: DefaultMessageType,
		CreatedAt:   time.Date(2026, 1, 1, 0, i, 0, 0, time.UTC),
	}
}

func TestShortTermStore_AppendAndRecent(t *testing.T) {
	store, _ := setupMiniredis(t, 20, 30*time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Append(ctx, turn("s1", i)))
	}

	turns, err := store.RecentTurns(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "q3", turns[0].UserMessage, "newest first")
	assert.Equal(t, "q1", turns[2].UserMessage)
}

func TestShortTermStore_LimitTakesNewest(t *testing.T) {
	store, _ := setupMiniredis(t, 20, 30*time.Minute)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Append(ctx, turn("s1", i)))
	}

	turns, err := store.RecentTurns(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "q5", turns[0].UserMessage)
	assert.Equal(t, "q4", turns[1].UserMessage)
}

func TestShortTermStore_Trim(t *testing.T) {
	store, mr := setupMiniredis(t, 3, 30*time.Minute)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Append(ctx, turn("s1", i)))
	}

	items, err := mr.List("dialogue_session:s1")
	require.NoError(t, err)
	assert.Len(t, items, 3)

	turns, err := store.RecentTurns(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "q5", turns[0].UserMessage)
	assert.Equal(t, "q3", turns[2].UserMessage)
}

func TestShortTermStore_TTL(t *testing.T) {
	store, mr := setupMiniredis(t, 20, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, turn("s1", 1)))
	mr.FastForward(61 * time.Second)

	turns, err := store.RecentTurns(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestShortTermStore_SkipsMalformedEntries(t *testing.T) {
	store, mr := setupMiniredis(t, 20, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, turn("s1", 1)))
	_, err := mr.Lpush("dialogue_session:s1", "{broken")
	require.NoError(t, err)

	turns, err := store.RecentTurns(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "q1", turns[0].UserMessage)
}

func TestShortTermStore_IsolatedBySession(t *testing.T) {
	store, _ := setupMiniredis(t, 20, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, turn("s1", 1)))
	require.NoError(t, store.Append(ctx, turn("s2", 2)))

	turns, err := store.RecentTurns(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "q1", turns[0].UserMessage)
}

func TestShortTermStore_Unavailable(t *testing.T) {
	store, mr := setupMiniredis(t, 20, time.Minute)
	mr.Close()

	_, err := store.RecentTurns(context.Background(), "s1", 3)
	assert.Error(t, err)
}
