package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutPhase is the persisted phase of an in-progress workout. Idle is
// the absence of an OngoingWorkout document; Completed and Cancelled are
// its deletion, so only the three phases below are ever stored.
type WorkoutPhase string

const (
	PhaseActive    WorkoutPhase = "active"
	PhasePaused    WorkoutPhase = "paused"
	PhaseFinishing WorkoutPhase = "finishing"
)

// ReadinessCheck is the optional pre-workout survey. Values are 1-5 and
// advisory only; they never block starting a workout.
type ReadinessCheck struct {
	SleepQuality int `bson:"sleepQuality" json:"sleepQuality"`
	StressLevel  int `bson:"stressLevel" json:"stressLevel"`
	Soreness     int `bson:"soreness" json:"soreness"`
	Motivation   int `bson:"motivation" json:"motivation"`
}

// OngoingWorkout is the single source of truth for resuming a workout after
// an app restart. At most one exists per user (unique index on userId).
// Session is a value copy taken at start time, never a live reference.
type OngoingWorkout struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID `bson:"userId" json:"userId"`
	ProgramID        primitive.ObjectID `bson:"programId" json:"programId"`
	WeekVariant      *WeekVariant       `bson:"weekVariant,omitempty" json:"weekVariant,omitempty"`
	Session          Session            `bson:"session" json:"session"`
	Phase            WorkoutPhase       `bson:"phase" json:"phase"`
	Readiness        *ReadinessCheck    `bson:"readiness,omitempty" json:"readiness,omitempty"`
	StartedAt        time.Time          `bson:"startedAt" json:"startedAt"`
	PausedDurationMs int64              `bson:"pausedDurationMs" json:"pausedDurationMs"`
	PausedAt         *time.Time         `bson:"pausedAt,omitempty" json:"pausedAt,omitempty"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ActiveDuration returns the time spent actually training up to now,
// excluding all paused intervals (including a pause still in progress).
func (w *OngoingWorkout) ActiveDuration(now time.Time) time.Duration {
	d := now.Sub(w.StartedAt) - time.Duration(w.PausedDurationMs)*time.Millisecond
	if w.PausedAt != nil {
		d -= now.Sub(*w.PausedAt)
	}
	if d < 0 {
		d = 0
	}
	return d
}
