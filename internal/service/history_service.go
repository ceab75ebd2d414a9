package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ironlog/fitness-app/internal/domain"
	"ironlog/fitness-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrInvalidCursor = errors.New("invalid history cursor")
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 50
)

// HistoryPage is one page of workout history. NextCursor is absent on the
// final page; otherwise it is the id of the first row of the next page.
type HistoryPage struct {
	Items      []domain.WorkoutLog
	NextCursor *string
}

// HistoryService reads workout history with id-based cursor pagination.
type HistoryService interface {
	GetHistory(ctx context.Context, userID primitive.ObjectID, limit int, cursor *string) (*HistoryPage, error)
}

// historyService implements the HistoryService interface.
type historyService struct {
	logRepo repository.WorkoutLogRepository
}

// NewHistoryService creates a new instance of historyService.
func NewHistoryService(logRepo repository.WorkoutLogRepository) HistoryService {
	return &historyService{logRepo: logRepo}
}

// GetHistory fetches limit+1 rows in date-descending order. When the extra
// row comes back it is trimmed from the page and its id becomes the next
// cursor, so chained calls enumerate every row exactly once.
func (s *historyService) GetHistory(ctx context.Context, userID primitive.ObjectID, limit int, cursor *string) (*HistoryPage, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	var cursorID *primitive.ObjectID
	if cursor != nil && *cursor != "" {
		id, err := primitive.ObjectIDFromHex(*cursor)
		if err != nil {
			return nil, ErrInvalidCursor
		}
		cursorID = &id
	}

	logs, err := s.logRepo.GetPage(ctx, userID, int64(limit)+1, cursorID)
	if err != nil {
		return nil, err
	}

	page := &HistoryPage{Items: logs}
	if len(logs) > limit {
		next := logs[limit].ID.Hex()
		page.Items = logs[:limit]
		page.NextCursor = &next
	}
	return page, nil
}
