package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ironlog/fitness-app/internal/analysis"
	"ironlog/fitness-app/internal/domain"
)

func loggingFixture(t *testing.T) (LoggingService, *fakeLogRepo, *fakeProgramRepo, *fakeDispatcher) {
	t.Helper()
	logs := newFakeLogRepo()
	programs := newFakeProgramRepo()
	dispatch := &fakeDispatcher{}
	return NewLoggingService(logs, programs, dispatch, zerolog.Nop()), logs, programs, dispatch
}

func baseLogInput(userID primitive.ObjectID) LogSessionInput {
	return LogSessionInput{
		UserID:          userID,
		Date:            time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC),
		DurationSeconds: 3600,
		FatigueLevel:    5,
		MentalClarity:   8,
		Exercises: []CompletedExerciseInput{
			{Name: "Squat", Sets: []CompletedSetInput{
				{Weight: 140, Reps: 5},
				{Weight: 150, Reps: 3},
			}},
			{Name: "Leg Press", Sets: []CompletedSetInput{
				{Weight: 200, Reps: 10},
			}},
		},
	}
}

func TestLogSession(t *testing.T) {
	userID := primitive.NewObjectID()

	t.Run("snapshots the program name", func(t *testing.T) {
		svc, _, programs, _ := loggingFixture(t)
		program := programs.put(domain.NewProgram(userID, "Peaking Block", ""))

		input := baseLogInput(userID)
		input.ProgramID = program.ID

		log, err := svc.LogSession(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, "Peaking Block", log.ProgramName)
		assert.False(t, log.ID.IsZero())
	})

	t.Run("missing program falls back to the custom label", func(t *testing.T) {
		svc, _, _, _ := loggingFixture(t)
		input := baseLogInput(userID)
		input.ProgramID = primitive.NewObjectID() // never created

		log, err := svc.LogSession(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, domain.CustomWorkoutLabel, log.ProgramName)
	})

	t.Run("ad-hoc workout without a program", func(t *testing.T) {
		svc, _, _, _ := loggingFixture(t)
		log, err := svc.LogSession(context.Background(), baseLogInput(userID))
		require.NoError(t, err)
		assert.Equal(t, domain.CustomWorkoutLabel, log.ProgramName)
	})

	t.Run("soft-deleted program keeps its name in the log", func(t *testing.T) {
		svc, _, programs, _ := loggingFixture(t)
		program := programs.put(domain.NewProgram(userID, "Old Block", ""))
		require.NoError(t, programs.SoftDelete(context.Background(), program.ID, userID))

		input := baseLogInput(userID)
		input.ProgramID = program.ID

		log, err := svc.LogSession(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, "Old Block", log.ProgramName)
	})

	t.Run("assigns positional order indexes", func(t *testing.T) {
		svc, logs, _, _ := loggingFixture(t)
		log, err := svc.LogSession(context.Background(), baseLogInput(userID))
		require.NoError(t, err)

		exercises, err := logs.GetExercises(context.Background(), log.ID)
		require.NoError(t, err)
		require.Len(t, exercises, 2)
		for i, ex := range exercises {
			assert.Equal(t, i, ex.OrderIndex)
			assert.Equal(t, log.ID, ex.LogID)
			for j, set := range ex.Sets {
				assert.Equal(t, j, set.OrderIndex)
				assert.Equal(t, ex.ID, set.CompletedExerciseID)
			}
		}
	})

	t.Run("enqueues the analysis job after commit", func(t *testing.T) {
		svc, _, _, dispatch := loggingFixture(t)
		log, err := svc.LogSession(context.Background(), baseLogInput(userID))
		require.NoError(t, err)

		jobs := dispatch.enqueued()
		require.Len(t, jobs, 1)
		assert.Equal(t, analysis.JobTypeAnalyzeWorkout, jobs[0].Type)
		assert.Equal(t, log.ID, jobs[0].LogID)
		assert.Equal(t, userID, jobs[0].UserID)
	})

	t.Run("aborted transaction surfaces one generic error and no job", func(t *testing.T) {
		svc, logs, _, dispatch := loggingFixture(t)
		logs.createErr = assert.AnError

		_, err := svc.LogSession(context.Background(), baseLogInput(userID))
		assert.ErrorIs(t, err, ErrLogWriteFailed)
		assert.Empty(t, dispatch.enqueued())
		assert.Empty(t, logs.logs)
	})
}

func TestGetLog(t *testing.T) {
	userID := primitive.NewObjectID()
	svc, _, _, _ := loggingFixture(t)
	created, err := svc.LogSession(context.Background(), baseLogInput(userID))
	require.NoError(t, err)

	t.Run("owner reads log with exercises", func(t *testing.T) {
		log, exercises, err := svc.GetLog(context.Background(), userID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, log.ID)
		require.Len(t, exercises, 2)
		assert.Equal(t, "Squat", exercises[0].ExerciseName)
	})

	t.Run("other users see not found, not forbidden", func(t *testing.T) {
		_, _, err := svc.GetLog(context.Background(), primitive.NewObjectID(), created.ID)
		assert.ErrorIs(t, err, ErrLogNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, _, err := svc.GetLog(context.Background(), userID, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrLogNotFound)
	})
}
