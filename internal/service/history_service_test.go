package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ironlog/fitness-app/internal/domain"
)

// seedHistory inserts n logs with strictly descending dates so the expected
// page order is deterministic.
func seedHistory(t *testing.T, logs *fakeLogRepo, userID primitive.ObjectID, n int) []primitive.ObjectID {
	t.Helper()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	ids := make([]primitive.ObjectID, n)
	for i := 0; i < n; i++ {
		log := &domain.WorkoutLog{
			UserID:      userID,
			ProgramName: domain.CustomWorkoutLabel,
			Date:        base.AddDate(0, 0, n-i), // ids[0] is the newest
		}
		_, err := logs.CreateSessionLog(context.Background(), log, nil)
		require.NoError(t, err)
		ids[i] = log.ID
	}
	return ids
}

func TestGetHistory(t *testing.T) {
	userID := primitive.NewObjectID()

	t.Run("pages chain without gaps or duplicates", func(t *testing.T) {
		logs := newFakeLogRepo()
		svc := NewHistoryService(logs)
		want := seedHistory(t, logs, userID, 5)

		var got []primitive.ObjectID
		var cursor *string
		pages := 0
		for {
			page, err := svc.GetHistory(context.Background(), userID, 2, cursor)
			require.NoError(t, err)
			pages++
			for _, item := range page.Items {
				got = append(got, item.ID)
			}
			if page.NextCursor == nil {
				break
			}
			cursor = page.NextCursor
		}

		assert.Equal(t, 3, pages) // 2 + 2 + 1
		assert.Equal(t, want, got)
	})

	t.Run("final page has no cursor", func(t *testing.T) {
		logs := newFakeLogRepo()
		svc := NewHistoryService(logs)
		seedHistory(t, logs, userID, 2)

		page, err := svc.GetHistory(context.Background(), userID, 5, nil)
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
		assert.Nil(t, page.NextCursor)
	})

	t.Run("empty history", func(t *testing.T) {
		svc := NewHistoryService(newFakeLogRepo())
		page, err := svc.GetHistory(context.Background(), userID, 10, nil)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Nil(t, page.NextCursor)
	})

	t.Run("limit defaults and clamps", func(t *testing.T) {
		logs := newFakeLogRepo()
		svc := NewHistoryService(logs)

		_, err := svc.GetHistory(context.Background(), userID, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(defaultHistoryLimit+1), logs.lastLimit)

		_, err = svc.GetHistory(context.Background(), userID, 500, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(maxHistoryLimit+1), logs.lastLimit)
	})

	t.Run("malformed cursor", func(t *testing.T) {
		svc := NewHistoryService(newFakeLogRepo())
		bad := "not-an-object-id"
		_, err := svc.GetHistory(context.Background(), userID, 10, &bad)
		assert.ErrorIs(t, err, ErrInvalidCursor)
	})

	t.Run("other users' logs are invisible", func(t *testing.T) {
		logs := newFakeLogRepo()
		svc := NewHistoryService(logs)
		seedHistory(t, logs, primitive.NewObjectID(), 3)

		page, err := svc.GetHistory(context.Background(), userID, 10, nil)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})
}
