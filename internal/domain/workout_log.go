package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CustomWorkoutLabel is the program-name snapshot used when the referenced
// program cannot be resolved at logging time.
const CustomWorkoutLabel = "Custom Workout"

// WorkoutLog is the durable record of one finished workout. ProgramName is
// denormalized at write time so renaming or deleting the program never
// corrupts history.
type WorkoutLog struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	ProgramID       primitive.ObjectID `bson:"programId,omitempty" json:"programId,omitempty"`
	ProgramName     string             `bson:"programName" json:"programName"`
	SessionID       primitive.ObjectID `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	Date            time.Time          `bson:"date" json:"date"`
	DurationSeconds int                `bson:"durationSeconds" json:"durationSeconds"`
	FatigueLevel    int                `bson:"fatigueLevel" json:"fatigueLevel"`   // 1-10
	MentalClarity   int                `bson:"mentalClarity" json:"mentalClarity"` // 1-10
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Discomforts     []string           `bson:"discomforts,omitempty" json:"discomforts,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// CompletedExercise is one exercise of a logged workout. ExerciseDefID is
// nil for custom/ad-hoc exercises; ExerciseName is always snapshotted.
// Sets is assembled from its own collection and not stored on this row.
type CompletedExercise struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	LogID         primitive.ObjectID  `bson:"logId" json:"logId"`
	ExerciseDefID *primitive.ObjectID `bson:"exerciseDefId,omitempty" json:"exerciseDefId,omitempty"`
	ExerciseName  string              `bson:"exerciseName" json:"exerciseName"`
	OrderIndex    int                 `bson:"orderIndex" json:"orderIndex"`
	Sets          []CompletedSet      `bson:"-" json:"sets"`
}

// CompletedSet is one performed set of a completed exercise.
type CompletedSet struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompletedExerciseID primitive.ObjectID `bson:"completedExerciseId" json:"completedExerciseId"`
	OrderIndex          int                `bson:"orderIndex" json:"orderIndex"`
	Weight              float64            `bson:"weight" json:"weight"`
	Reps                int                `bson:"reps" json:"reps"`
	RPE                 *float64           `bson:"rpe,omitempty" json:"rpe,omitempty"`
	RIR                 *float64           `bson:"rir,omitempty" json:"rir,omitempty"`
}
