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

const programCollectionName = "programs"

// mongoProgramRepository implements repository.ProgramRepository. The whole
// periodization tree is embedded in one document, so every mutation is a
// single-document write and needs no transaction.
type mongoProgramRepository struct {
	collection *mongo.Collection
}

// NewMongoProgramRepository creates a new Program repository.
func NewMongoProgramRepository(db *mongo.Database) repository.ProgramRepository {
	return &mongoProgramRepository{
		collection: db.Collection(programCollectionName),
	}
}

// notDeleted filters out soft-deleted programs.
func notDeleted(filter bson.M) bson.M {
	filter["deletedAt"] = bson.M{"$exists": false}
	return filter
}

// Create inserts a new program aggregate.
func (r *mongoProgramRepository) Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error) {
	if program.OwnerID == primitive.NilObjectID || program.Name == "" {
		return primitive.NilObjectID, errors.New("program requires ownerId and name")
	}
	program.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now
	if program.Macrocycles == nil {
		program.Macrocycles = []domain.Macrocycle{}
	}

	result, err := r.collection.InsertOne(ctx, program)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted program ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single non-deleted program by its ID.
func (r *mongoProgramRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error) {
	var program domain.Program
	err := r.collection.FindOne(ctx, notDeleted(bson.M{"_id": id})).Decode(&program)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &program, nil
}

// GetByOwnerID retrieves all non-deleted programs owned by the user,
// most recently updated first.
func (r *mongoProgramRepository) GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Program, error) {
	programs := []domain.Program{}
	filter := notDeleted(bson.M{"ownerId": ownerID})
	findOptions := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}

// Update replaces the whole aggregate document.
func (r *mongoProgramRepository) Update(ctx context.Context, program *domain.Program) error {
	if program.ID == primitive.NilObjectID {
		return errors.New("program ID is required for update")
	}
	program.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, notDeleted(bson.M{"_id": program.ID}), program)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SoftDelete marks the program deleted. Logs referencing it keep working;
// the document is never removed while history rows point at it.
func (r *mongoProgramRepository) SoftDelete(ctx context.Context, id, ownerID primitive.ObjectID) error {
	filter := notDeleted(bson.M{"_id": id, "ownerId": ownerID})
	update := bson.M{"$set": bson.M{
		"deletedAt": time.Now().UTC(),
		"updatedAt": time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Exists reports whether a non-deleted program with the given id exists.
// Used by the orphaned-workout reconciliation at load time.
func (r *mongoProgramRepository) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, notDeleted(bson.M{"_id": id}), options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetName resolves a program name for snapshotting, including soft-deleted
// programs: a log written against a just-deleted program still gets the
// real name rather than the custom-workout sentinel.
func (r *mongoProgramRepository) GetName(ctx context.Context, id primitive.ObjectID) (string, error) {
	var doc struct {
		Name string `bson:"name"`
	}
	opts := options.FindOne().SetProjection(bson.M{"name": 1})
	err := r.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", repository.ErrNotFound
		}
		return "", err
	}
	return doc.Name, nil
}

// EnsureProgramIndexes creates necessary indexes. Call during startup.
func EnsureProgramIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "updatedAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
