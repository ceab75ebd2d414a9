package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ironlog/fitness-app/internal/analysis"
	"ironlog/fitness-app/internal/domain"
	"ironlog/fitness-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrLogNotFound = errors.New("workout log not found")
	// ErrLogWriteFailed is the single generic failure surfaced when the
	// transactional write aborts; details stay in the logs to preserve the
	// atomicity contract at the API boundary.
	ErrLogWriteFailed = errors.New("failed to write workout log")
)

// JobDispatcher is the fire-and-forget channel to the analysis worker.
type JobDispatcher interface {
	Enqueue(job analysis.Job)
}

// CompletedSetInput is one performed set as submitted by the client.
type CompletedSetInput struct {
	Weight float64
	Reps   int
	RPE    *float64
	RIR    *float64
}

// CompletedExerciseInput is one exercise of the submitted session.
// ExerciseID is nil for custom/ad-hoc exercises; ExerciseName is always
// required and snapshotted verbatim.
type CompletedExerciseInput struct {
	ExerciseID *primitive.ObjectID
	Name       string
	Sets       []CompletedSetInput
}

// LogSessionInput is the already-validated log creation request. Structural
// validation (ranges, minimum one exercise) happens at the API boundary.
type LogSessionInput struct {
	UserID          primitive.ObjectID
	ProgramID       primitive.ObjectID
	SessionID       primitive.ObjectID
	Date            time.Time
	DurationSeconds int
	FatigueLevel    int
	MentalClarity   int
	Notes           string
	Discomforts     []string
	Exercises       []CompletedExerciseInput
}

// LoggingService converts a finished session into durable history rows.
type LoggingService interface {
	LogSession(ctx context.Context, input LogSessionInput) (*domain.WorkoutLog, error)
	GetLog(ctx context.Context, userID, logID primitive.ObjectID) (*domain.WorkoutLog, []domain.CompletedExercise, error)
}

// loggingService implements the LoggingService interface.
type loggingService struct {
	logRepo     repository.WorkoutLogRepository
	programRepo repository.ProgramRepository
	dispatcher  JobDispatcher
	logger      zerolog.Logger
}

// NewLoggingService creates a new instance of loggingService.
func NewLoggingService(
	logRepo repository.WorkoutLogRepository,
	programRepo repository.ProgramRepository,
	dispatcher JobDispatcher,
	logger zerolog.Logger,
) LoggingService {
	return &loggingService{
		logRepo:     logRepo,
		programRepo: programRepo,
		dispatcher:  dispatcher,
		logger:      logger.With().Str("service", "logging").Logger(),
	}
}

// LogSession durably persists one finished session.
//
// The program name is resolved first; a missing program is tolerated and
// falls back to the custom-workout sentinel rather than failing the whole
// operation. The log, its exercises, and their sets are then written in one
// atomic transaction with positional orderIndex values. Only after the
// commit is the ANALYZE_WORKOUT job enqueued; the enqueue is best-effort
// and never affects the returned log.
func (s *loggingService) LogSession(ctx context.Context, input LogSessionInput) (*domain.WorkoutLog, error) {
	programName := domain.CustomWorkoutLabel
	if input.ProgramID != primitive.NilObjectID {
		name, err := s.programRepo.GetName(ctx, input.ProgramID)
		switch {
		case err == nil:
			programName = name
		case errors.Is(err, repository.ErrNotFound):
			s.logger.Warn().
				Str("programId", input.ProgramID.Hex()).
				Msg("program missing at log time, using custom workout label")
		default:
			return nil, err
		}
	}

	log := &domain.WorkoutLog{
		UserID:          input.UserID,
		ProgramID:       input.ProgramID,
		ProgramName:     programName,
		SessionID:       input.SessionID,
		Date:            input.Date,
		DurationSeconds: input.DurationSeconds,
		FatigueLevel:    input.FatigueLevel,
		MentalClarity:   input.MentalClarity,
		Notes:           input.Notes,
		Discomforts:     input.Discomforts,
	}

	exercises := make([]domain.CompletedExercise, len(input.Exercises))
	for i, ex := range input.Exercises {
		sets := make([]domain.CompletedSet, len(ex.Sets))
		for j, set := range ex.Sets {
			sets[j] = domain.CompletedSet{
				OrderIndex: j,
				Weight:     set.Weight,
				Reps:       set.Reps,
				RPE:        set.RPE,
				RIR:        set.RIR,
			}
		}
		exercises[i] = domain.CompletedExercise{
			ExerciseDefID: ex.ExerciseID,
			ExerciseName:  ex.Name,
			OrderIndex:    i,
			Sets:          sets,
		}
	}

	logID, err := s.logRepo.CreateSessionLog(ctx, log, exercises)
	if err != nil {
		s.logger.Error().Err(err).Msg("session log transaction aborted")
		return nil, ErrLogWriteFailed
	}
	log.ID = logID

	// Post-commit, fire-and-forget: a dropped or failed job never rolls
	// back or blocks the already-committed transaction.
	s.dispatcher.Enqueue(analysis.Job{
		Type:   analysis.JobTypeAnalyzeWorkout,
		LogID:  logID,
		UserID: input.UserID,
	})

	return log, nil
}

// GetLog returns one log with its exercises and sets reassembled in
// orderIndex order.
func (s *loggingService) GetLog(ctx context.Context, userID, logID primitive.ObjectID) (*domain.WorkoutLog, []domain.CompletedExercise, error) {
	log, err := s.logRepo.GetByID(ctx, logID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrLogNotFound
		}
		return nil, nil, err
	}
	if log.UserID != userID {
		return nil, nil, ErrLogNotFound
	}

	exercises, err := s.logRepo.GetExercises(ctx, logID)
	if err != nil {
		return nil, nil, err
	}
	return log, exercises, nil
}
