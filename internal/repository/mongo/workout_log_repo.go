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

const (
	workoutLogCollectionName        = "workout_logs"
	completedExerciseCollectionName = "completed_exercises"
	completedSetCollectionName      = "completed_sets"
)

// mongoWorkoutLogRepository implements repository.WorkoutLogRepository.
// It holds the client as well as the collections because the multi-row
// log write runs inside a session transaction.
type mongoWorkoutLogRepository struct {
	client    *mongo.Client
	logs      *mongo.Collection
	exercises *mongo.Collection
	sets      *mongo.Collection
}

// NewMongoWorkoutLogRepository creates a new WorkoutLog repository.
func NewMongoWorkoutLogRepository(client *mongo.Client, db *mongo.Database) repository.WorkoutLogRepository {
	return &mongoWorkoutLogRepository{
		client:    client,
		logs:      db.Collection(workoutLogCollectionName),
		exercises: db.Collection(completedExerciseCollectionName),
		sets:      db.Collection(completedSetCollectionName),
	}
}

// CreateSessionLog writes the log row, its completed exercises, and their
// sets inside a single transaction. Any insert failure aborts the whole
// write: no partial exercises or sets are ever observable.
func (r *mongoWorkoutLogRepository) CreateSessionLog(ctx context.Context, log *domain.WorkoutLog, exercises []domain.CompletedExercise) (primitive.ObjectID, error) {
	if log.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("workout log requires userId")
	}

	log.ID = primitive.NewObjectID()
	log.CreatedAt = time.Now().UTC()

	session, err := r.client.StartSession()
	if err != nil {
		return primitive.NilObjectID, err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.logs.InsertOne(sc, log); err != nil {
			return nil, err
		}

		for i := range exercises {
			ex := &exercises[i]
			ex.ID = primitive.NewObjectID()
			ex.LogID = log.ID

			if _, err := r.exercises.InsertOne(sc, ex); err != nil {
				return nil, err
			}

			if len(ex.Sets) == 0 {
				continue
			}
			docs := make([]interface{}, len(ex.Sets))
			for j := range ex.Sets {
				ex.Sets[j].ID = primitive.NewObjectID()
				ex.Sets[j].CompletedExerciseID = ex.ID
				docs[j] = ex.Sets[j]
			}
			if _, err := r.sets.InsertMany(sc, docs); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return primitive.NilObjectID, err
	}

	return log.ID, nil
}

// GetByID retrieves a single workout log row (without exercises).
func (r *mongoWorkoutLogRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error) {
	var log domain.WorkoutLog
	err := r.logs.FindOne(ctx, bson.M{"_id": id}).Decode(&log)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &log, nil
}

// GetPage returns up to limit logs in (date desc, _id desc) order. When a
// cursor is given, its row is resolved first and the page starts at that
// row inclusive, so chained calls enumerate every row exactly once. A
// cursor whose row has vanished falls back to the first page.
func (r *mongoWorkoutLogRepository) GetPage(ctx context.Context, userID primitive.ObjectID, limit int64, cursor *primitive.ObjectID) ([]domain.WorkoutLog, error) {
	filter := bson.M{"userId": userID}

	if cursor != nil {
		var anchor domain.WorkoutLog
		err := r.logs.FindOne(ctx, bson.M{"_id": *cursor, "userId": userID}).Decode(&anchor)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
		if err == nil {
			filter["$or"] = bson.A{
				bson.M{"date": bson.M{"$lt": anchor.Date}},
				bson.M{"date": anchor.Date, "_id": bson.M{"$lte": anchor.ID}},
			}
		}
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cur, err := r.logs.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	logs := []domain.WorkoutLog{}
	if err = cur.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// GetExercises returns the completed exercises of a log with their sets
// populated, both ordered by orderIndex.
func (r *mongoWorkoutLogRepository) GetExercises(ctx context.Context, logID primitive.ObjectID) ([]domain.CompletedExercise, error) {
	exercises := []domain.CompletedExercise{}
	findOptions := options.Find().SetSort(bson.D{{Key: "orderIndex", Value: 1}})

	cur, err := r.exercises.Find(ctx, bson.M{"logId": logID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if err = cur.All(ctx, &exercises); err != nil {
		return nil, err
	}
	if len(exercises) == 0 {
		return exercises, nil
	}

	ids := make([]primitive.ObjectID, len(exercises))
	byID := make(map[primitive.ObjectID]*domain.CompletedExercise, len(exercises))
	for i := range exercises {
		ids[i] = exercises[i].ID
		exercises[i].Sets = []domain.CompletedSet{}
		byID[exercises[i].ID] = &exercises[i]
	}

	setCur, err := r.sets.Find(ctx,
		bson.M{"completedExerciseId": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "orderIndex", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer setCur.Close(ctx)

	var sets []domain.CompletedSet
	if err = setCur.All(ctx, &sets); err != nil {
		return nil, err
	}
	for _, s := range sets {
		if ex, ok := byID[s.CompletedExerciseID]; ok {
			ex.Sets = append(ex.Sets, s)
		}
	}
	return exercises, nil
}

// EnsureWorkoutLogIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutLogIndexes(ctx context.Context, db *mongo.Database) {
	_, _ = db.Collection(workoutLogCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// Pagination order
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index(),
		},
	})
	_, _ = db.Collection(completedExerciseCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "logId", Value: 1}, {Key: "orderIndex", Value: 1}},
			Options: options.Index(),
		},
	})
	_, _ = db.Collection(completedSetCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "completedExerciseId", Value: 1}, {Key: "orderIndex", Value: 1}},
			Options: options.Index(),
		},
	})
}
