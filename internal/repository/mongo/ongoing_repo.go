package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ironlog/fitness-app/internal/domain"
	"ironlog/fitness-app/internal/repository"
)

const ongoingCollectionName = "ongoing_workouts"

// mongoOngoingWorkoutRepository implements repository.OngoingWorkoutRepository.
// The unique index on userId is what enforces the at-most-one-ongoing-workout
// rule: concurrent starts race on the insert and the loser gets ErrDuplicate.
type mongoOngoingWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoOngoingWorkoutRepository creates a new OngoingWorkout repository.
func NewMongoOngoingWorkoutRepository(db *mongo.Database) repository.OngoingWorkoutRepository {
	return &mongoOngoingWorkoutRepository{
		collection: db.Collection(ongoingCollectionName),
	}
}

// Create inserts the ongoing-workout snapshot for a user.
func (r *mongoOngoingWorkoutRepository) Create(ctx context.Context, workout *domain.OngoingWorkout) (primitive.ObjectID, error) {
	if workout.UserID == primitive.NilObjectID || workout.ProgramID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("ongoing workout requires userId and programId")
	}
	workout.ID = primitive.NewObjectID()
	workout.UpdatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ongoing workout ID")
	}
	return insertedID, nil
}

// GetByUserID retrieves the user's ongoing workout, if any.
func (r *mongoOngoingWorkoutRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.OngoingWorkout, error) {
	var workout domain.OngoingWorkout
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// Update replaces the ongoing workout document (phase changes, pause
// bookkeeping). The snapshot itself never changes after start.
func (r *mongoOngoingWorkoutRepository) Update(ctx context.Context, workout *domain.OngoingWorkout) error {
	if workout.ID == primitive.NilObjectID {
		return errors.New("ongoing workout ID is required for update")
	}
	workout.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": workout.ID}, workout)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByUserID clears the user's ongoing workout. Deleting an absent
// document is not an error: cancel and orphan cleanup are unconditional.
func (r *mongoOngoingWorkoutRepository) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"userId": userID})
	return err
}

// EnsureOngoingWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureOngoingWorkoutIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
