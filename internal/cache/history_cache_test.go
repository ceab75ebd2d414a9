package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ironlog/fitness-app/internal/domain"
)

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.messages = append(n.messages, message)
}

func makeLogs(n int) []domain.WorkoutLog {
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	logs := make([]domain.WorkoutLog, n)
	for i := range logs {
		logs[i] = domain.WorkoutLog{
			ID:          primitive.NewObjectID(),
			ProgramName: domain.CustomWorkoutLabel,
			Date:        base.AddDate(0, 0, n-i),
		}
	}
	return logs
}

func newCache(serverLogs *[]domain.WorkoutLog, fetchErr *error, notifier Notifier) *HistoryCache {
	fetch := func(ctx context.Context) ([]domain.WorkoutLog, error) {
		if fetchErr != nil && *fetchErr != nil {
			return nil, *fetchErr
		}
		return *serverLogs, nil
	}
	return NewHistoryCache(fetch, notifier, zerolog.Nop())
}

func TestApplyPending(t *testing.T) {
	server := makeLogs(2)
	c := newCache(&server, nil, nil)
	c.Seed(server)

	id := c.ApplyPending(domain.WorkoutLog{ProgramName: "Push Day"})

	entries := c.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, StatusPending, entries[0].Status)
	assert.Equal(t, "Push Day", entries[0].Log.ProgramName)
	// Confirmed rows keep their order behind the pending head.
	assert.Equal(t, server[0].ID.Hex(), entries[1].ID)
	assert.Equal(t, server[1].ID.Hex(), entries[2].ID)
}

func TestReconcile(t *testing.T) {
	t.Run("pending entry never coexists with its confirmed row", func(t *testing.T) {
		server := makeLogs(2)
		c := newCache(&server, nil, nil)
		c.Seed(server)

		submitted := domain.WorkoutLog{ProgramName: "Push Day"}
		c.ApplyPending(submitted)

		// Server confirms: the new log now leads the authoritative list.
		confirmed := submitted
		confirmed.ID = primitive.NewObjectID()
		server = append([]domain.WorkoutLog{confirmed}, server...)

		require.NoError(t, c.Reconcile(context.Background()))

		entries := c.Entries()
		require.Len(t, entries, 3)
		for _, e := range entries {
			assert.Equal(t, StatusConfirmed, e.Status)
		}
		assert.Equal(t, confirmed.ID.Hex(), entries[0].ID)
	})

	t.Run("failed refetch keeps the optimistic entry", func(t *testing.T) {
		server := makeLogs(1)
		fetchErr := error(nil)
		c := newCache(&server, &fetchErr, nil)
		c.Seed(server)
		id := c.ApplyPending(domain.WorkoutLog{ProgramName: "Push Day"})

		fetchErr = assert.AnError
		require.Error(t, c.Reconcile(context.Background()))

		entries := c.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, id, entries[0].ID)
		assert.Equal(t, StatusPending, entries[0].Status)
	})
}

func TestRollback(t *testing.T) {
	t.Run("restores the exact pre-mutation state", func(t *testing.T) {
		server := makeLogs(3)
		notifier := &recordingNotifier{}
		c := newCache(&server, nil, notifier)
		c.Seed(server)
		before := c.Entries()

		c.ApplyPending(domain.WorkoutLog{ProgramName: "Push Day"})
		require.Len(t, c.Entries(), 4)

		c.Rollback(assert.AnError)
		assert.Equal(t, before, c.Entries())
		require.Len(t, notifier.messages, 1)
		assert.Equal(t, "Could not save your workout. Please try again.", notifier.messages[0])
	})

	t.Run("rollback without a mutation in flight is a no-op on the list", func(t *testing.T) {
		server := makeLogs(2)
		notifier := &recordingNotifier{}
		c := newCache(&server, nil, notifier)
		c.Seed(server)
		before := c.Entries()

		c.Rollback(assert.AnError)
		assert.Equal(t, before, c.Entries())
	})

	t.Run("one snapshot covers stacked mutations", func(t *testing.T) {
		server := makeLogs(1)
		notifier := &recordingNotifier{}
		c := newCache(&server, nil, notifier)
		c.Seed(server)
		before := c.Entries()

		c.ApplyPending(domain.WorkoutLog{ProgramName: "First"})
		c.ApplyPending(domain.WorkoutLog{ProgramName: "Second"})
		require.Len(t, c.Entries(), 3)

		c.Rollback(assert.AnError)
		assert.Equal(t, before, c.Entries())
	})
}
