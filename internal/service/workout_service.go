package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ironlog/fitness-app/internal/domain"
	"ironlog/fitness-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrWorkoutAlreadyActive = errors.New("a workout is already in progress")
	ErrNoOngoingWorkout     = errors.New("no workout is in progress")
	ErrSessionNotFound      = errors.New("session not found in program")
	ErrWorkoutNotActive     = errors.New("workout is not active")
	ErrWorkoutNotPaused     = errors.New("workout is not paused")
	ErrWorkoutNotFinishable = errors.New("workout cannot be finished from its current phase")
)

// StartWorkoutInput carries everything needed to begin executing a session.
// Readiness is the optional pre-workout survey; it is advisory only.
type StartWorkoutInput struct {
	ProgramID   primitive.ObjectID
	SessionID   primitive.ObjectID
	WeekVariant *domain.WeekVariant
	Readiness   *domain.ReadinessCheck
}

// FinishWorkoutInput carries the wrap-up metrics and the performed work.
// DurationMinutesOverride wins over measured elapsed time; it backs the
// manual "log past workout" mode. LogDate defaults to the start time.
type FinishWorkoutInput struct {
	Notes                   string
	Discomforts             []string
	FatigueLevel            int
	MentalClarity           int
	DurationMinutesOverride *int
	LogDate                 *time.Time
	Exercises               []CompletedExerciseInput
}

// WorkoutService is the workout-execution state machine. The persisted
// phase only ever holds active, paused, or finishing: Idle is the absence
// of an ongoing workout, Completed and Cancelled are its removal.
type WorkoutService interface {
	Start(ctx context.Context, userID primitive.ObjectID, input StartWorkoutInput) (*domain.OngoingWorkout, error)
	Pause(ctx context.Context, userID primitive.ObjectID) (*domain.OngoingWorkout, error)
	Resume(ctx context.Context, userID primitive.ObjectID) (*domain.OngoingWorkout, error)
	Cancel(ctx context.Context, userID primitive.ObjectID) error
	Finish(ctx context.Context, userID primitive.ObjectID, input FinishWorkoutInput) (*domain.WorkoutLog, error)
	// Recover is the app-load reconciliation step: it returns the ongoing
	// workout if one exists and still points at a live program, and
	// silently clears orphaned state (program deleted underneath it).
	// (nil, nil) means Idle.
	Recover(ctx context.Context, userID primitive.ObjectID) (*domain.OngoingWorkout, error)
}

// workoutService implements the WorkoutService interface.
type workoutService struct {
	ongoingRepo repository.OngoingWorkoutRepository
	programRepo repository.ProgramRepository
	logging     LoggingService
	now         func() time.Time
	logger      zerolog.Logger
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(
	ongoingRepo repository.OngoingWorkoutRepository,
	programRepo repository.ProgramRepository,
	logging LoggingService,
	logger zerolog.Logger,
) WorkoutService {
	return &workoutService{
		ongoingRepo: ongoingRepo,
		programRepo: programRepo,
		logging:     logging,
		now:         time.Now,
		logger:      logger.With().Str("service", "workout").Logger(),
	}
}

// Start begins executing a session. The session is copied by value into the
// ongoing snapshot so later plan edits cannot corrupt the in-progress
// workout. Starting while another workout exists is rejected, never
// silently overwritten; the unique userId index closes the race between
// two concurrent starts.
func (s *workoutService) Start(ctx context.Context, userID primitive.ObjectID, input StartWorkoutInput) (*domain.OngoingWorkout, error) {
	program, err := s.programRepo.GetByID(ctx, input.ProgramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	if program.OwnerID != userID {
		return nil, ErrProgramAccessDenied
	}

	session, _ := program.FindSession(input.SessionID)
	if session == nil {
		return nil, ErrSessionNotFound
	}

	workout := &domain.OngoingWorkout{
		UserID:      userID,
		ProgramID:   program.ID,
		WeekVariant: input.WeekVariant,
		Session:     session.Snapshot(),
		Phase:       domain.PhaseActive,
		Readiness:   input.Readiness,
		StartedAt:   s.now().UTC(),
	}

	id, err := s.ongoingRepo.Create(ctx, workout)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrWorkoutAlreadyActive
		}
		return nil, err
	}
	workout.ID = id
	s.logger.Info().
		Str("sessionId", session.ID.Hex()).
		Str("programId", program.ID.Hex()).
		Msg("workout started")
	return workout, nil
}

// Pause records the pause start so total duration excludes the interval.
func (s *workoutService) Pause(ctx context.Context, userID primitive.ObjectID) (*domain.OngoingWorkout, error) {
	workout, err := s.getOngoing(ctx, userID)
	if err != nil {
		return nil, err
	}
	if workout.Phase != domain.PhaseActive {
		return nil, ErrWorkoutNotActive
	}

	now := s.now().UTC()
	workout.Phase = domain.PhasePaused
	workout.PausedAt = &now
	if err := s.ongoingRepo.Update(ctx, workout); err != nil {
		return nil, err
	}
	return workout, nil
}

// Resume folds the just-ended pause into the accumulated paused duration.
func (s *workoutService) Resume(ctx context.Context, userID primitive.ObjectID) (*domain.OngoingWorkout, error) {
	workout, err := s.getOngoing(ctx, userID)
	if err != nil {
		return nil, err
	}
	if workout.Phase != domain.PhasePaused || workout.PausedAt == nil {
		return nil, ErrWorkoutNotPaused
	}

	workout.PausedDurationMs += s.now().UTC().Sub(*workout.PausedAt).Milliseconds()
	workout.PausedAt = nil
	workout.Phase = domain.PhaseActive
	if err := s.ongoingRepo.Update(ctx, workout); err != nil {
		return nil, err
	}
	return workout, nil
}

// Cancel discards the ongoing workout unconditionally. No log is written
// and there is no intermediate cancelling state.
func (s *workoutService) Cancel(ctx context.Context, userID primitive.ObjectID) error {
	return s.ongoingRepo.DeleteByUserID(ctx, userID)
}

// Finish moves the workout through finishing to completed. The snapshot is
// only cleared after the durable write confirms; on failure the phase
// stays finishing so the caller can retry without losing captured metrics.
func (s *workoutService) Finish(ctx context.Context, userID primitive.ObjectID, input FinishWorkoutInput) (*domain.WorkoutLog, error) {
	workout, err := s.getOngoing(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch workout.Phase {
	case domain.PhaseActive, domain.PhasePaused, domain.PhaseFinishing:
		// PhaseFinishing means a previous attempt's write failed; retrying
		// is exactly what the contract asks for.
	default:
		return nil, ErrWorkoutNotFinishable
	}

	now := s.now().UTC()
	if workout.Phase != domain.PhaseFinishing {
		workout.Phase = domain.PhaseFinishing
		if err := s.ongoingRepo.Update(ctx, workout); err != nil {
			return nil, err
		}
	}

	durationSeconds := int(workout.ActiveDuration(now).Seconds())
	if input.DurationMinutesOverride != nil {
		durationSeconds = *input.DurationMinutesOverride * 60
	}

	logDate := workout.StartedAt
	if input.LogDate != nil {
		logDate = *input.LogDate
	}

	log, err := s.logging.LogSession(ctx, LogSessionInput{
		UserID:          userID,
		ProgramID:       workout.ProgramID,
		SessionID:       workout.Session.ID,
		Date:            logDate,
		DurationSeconds: durationSeconds,
		FatigueLevel:    input.FatigueLevel,
		MentalClarity:   input.MentalClarity,
		Notes:           input.Notes,
		Discomforts:     input.Discomforts,
		Exercises:       input.Exercises,
	})
	if err != nil {
		// Still finishing; the user retries or cancels explicitly.
		return nil, err
	}

	if err := s.ongoingRepo.DeleteByUserID(ctx, userID); err != nil {
		// The log is durable; a stale finishing snapshot is cleaned up by
		// the next Recover rather than failing the finish.
		s.logger.Warn().Err(err).Msg("failed to clear ongoing workout after logging")
	}
	s.logger.Info().Str("logId", log.ID.Hex()).Msg("workout completed")
	return log, nil
}

// Recover self-heals orphaned state at load time: a snapshot whose program
// is gone is cleared with a warning, never surfaced as an error.
func (s *workoutService) Recover(ctx context.Context, userID primitive.ObjectID) (*domain.OngoingWorkout, error) {
	workout, err := s.ongoingRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil // Idle
		}
		return nil, err
	}

	exists, err := s.programRepo.Exists(ctx, workout.ProgramID)
	if err != nil {
		return nil, err
	}
	if !exists {
		s.logger.Warn().
			Str("programId", workout.ProgramID.Hex()).
			Msg("ongoing workout is orphaned, clearing")
		if err := s.ongoingRepo.DeleteByUserID(ctx, userID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return workout, nil
}

func (s *workoutService) getOngoing(ctx context.Context, userID primitive.ObjectID) (*domain.OngoingWorkout, error) {
	workout, err := s.ongoingRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoOngoingWorkout
		}
		return nil, err
	}
	return workout, nil
}
