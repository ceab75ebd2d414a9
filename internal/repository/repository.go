package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ironlog/fitness-app/internal/domain"
)

// Error constants for the repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// ProgramRepository persists whole program aggregates. Soft-deleted
// programs are invisible to every method except GetName, which the logging
// service uses for name snapshots.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error)
	GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Program, error)
	Update(ctx context.Context, program *domain.Program) error
	SoftDelete(ctx context.Context, id, ownerID primitive.ObjectID) error
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	GetName(ctx context.Context, id primitive.ObjectID) (string, error)
}

// OngoingWorkoutRepository persists the at-most-one in-progress workout per
// user. Create must fail with ErrDuplicate when one already exists.
type OngoingWorkoutRepository interface {
	Create(ctx context.Context, workout *domain.OngoingWorkout) (primitive.ObjectID, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.OngoingWorkout, error)
	Update(ctx context.Context, workout *domain.OngoingWorkout) error
	DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error
}

// WorkoutLogRepository persists finished workouts across the three log
// collections. CreateSessionLog must be atomic: either every row of the
// log, its exercises, and their sets is visible, or none are.
type WorkoutLogRepository interface {
	CreateSessionLog(ctx context.Context, log *domain.WorkoutLog, exercises []domain.CompletedExercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error)
	// GetPage returns up to limit logs for the user in date-descending
	// order. A non-nil cursor names the log id the page starts at
	// (inclusive). Callers fetch limit+1 to detect a next page.
	GetPage(ctx context.Context, userID primitive.ObjectID, limit int64, cursor *primitive.ObjectID) ([]domain.WorkoutLog, error)
	// GetExercises returns the completed exercises of a log, each with its
	// sets populated, ordered by orderIndex.
	GetExercises(ctx context.Context, logID primitive.ObjectID) ([]domain.CompletedExercise, error)
}
