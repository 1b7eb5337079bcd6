//go:build integration

package session

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/types"
)

// Set TEST_REDIS_URL (or REDIS_URL) to run these, e.g.
// TEST_REDIS_URL=redis://localhost:6379/15

func setupRedis(t *testing.T, ttl time.Duration) *RedisStore {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		url = os.Getenv("REDIS_URL")
	}
	if url == "" {
		t.Skip("TEST_REDIS_URL not set, skipping integration test")
	}

	store := NewRedisStore(NewRedisPool(url, 4), ttl)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisStore_CreateGetReplace(t *testing.T) {
	store := setupRedis(t, time.Minute)
	ctx := context.Background()
	id := "session_" + uuid.NewString()

	s := &types.Session{ID: id, Role: "PM", Status: types.StatusInProgress, Version: 1}
	require.NoError(t, store.Create(ctx, s))
	assert.ErrorIs(t, store.Create(ctx, s), ErrExists)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "PM", got.Role)

	got.Version = 2
	got.Seniority = "Junior"
	require.NoError(t, store.Replace(ctx, got, 1))
	assert.ErrorIs(t, store.Replace(ctx, got, 1), ErrVersionConflict)

	_, err = store.Get(ctx, "session_missing_"+uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Expires(t *testing.T) {
	store := setupRedis(t, time.Second)
	ctx := context.Background()
	id := "session_" + uuid.NewString()

	require.NoError(t, store.Create(ctx, &types.Session{ID: id, Version: 1}))

	assert.Eventually(t, func() bool {
		_, err := store.Get(ctx, id)
		return err != nil
	}, 5*time.Second, 200*time.Millisecond)
}

func TestRedisStore_MachineSerializesAnswers(t *testing.T) {
	store := setupRedis(t, time.Minute)
	m := NewMachine(store, WithMaxAttempts(20))
	ctx := context.Background()
	id := "session_" + uuid.NewString()

	_, err := m.Create(ctx, id, "PM", "Junior", []string{"A/B Testing"}, types.InterviewPlan{})
	require.NoError(t, err)
	_, err = m.AppendQuestion(ctx, id, Question{Text: "Q1"})
	require.NoError(t, err)

	const n = 6
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.RecordAnswer(ctx, id, "answer"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	s, err := m.Read(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, s.QuestionsAnswered())
}
