package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ironlog/fitness-app/internal/domain"
	"ironlog/fitness-app/internal/service"
)

// WorkoutHandler drives the workout-execution state machine over HTTP.
type WorkoutHandler struct {
	workoutService service.WorkoutService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- Request DTOs ---

type ReadinessRequest struct {
	SleepQuality int `json:"sleepQuality" binding:"required,min=1,max=5"`
	StressLevel  int `json:"stressLevel" binding:"required,min=1,max=5"`
	Soreness     int `json:"soreness" binding:"required,min=1,max=5"`
	Motivation   int `json:"motivation" binding:"required,min=1,max=5"`
}

type StartWorkoutRequest struct {
	ProgramID   string            `json:"programId" binding:"required"`
	SessionID   string            `json:"sessionId" binding:"required"`
	WeekVariant *string           `json:"weekVariant" binding:"omitempty,oneof=A B C D"`
	Readiness   *ReadinessRequest `json:"readiness"`
}

type CompletedSetRequest struct {
	Weight float64  `json:"weight" binding:"min=0"`
	Reps   int      `json:"reps" binding:"required,min=1"`
	RPE    *float64 `json:"rpe" binding:"omitempty,min=0,max=10"`
	RIR    *float64 `json:"rir" binding:"omitempty,min=0,max=10"`
}

type CompletedExerciseRequest struct {
	ExerciseID *string               `json:"exerciseId"`
	Name       string                `json:"name" binding:"required"`
	Sets       []CompletedSetRequest `json:"sets" binding:"required,min=1,dive"`
}

type FinishWorkoutRequest struct {
	Notes                   string                     `json:"notes"`
	Discomforts             []string                   `json:"discomforts"`
	FatigueLevel            int                        `json:"fatigueLevel" binding:"required,min=1,max=10"`
	MentalClarity           int                        `json:"mentalClarity" binding:"required,min=1,max=10"`
	DurationMinutesOverride *int                       `json:"durationMinutesOverride" binding:"omitempty,min=1"`
	LogDate                 *time.Time                 `json:"logDate"`
	CompletedExercises      []CompletedExerciseRequest `json:"completedExercises" binding:"required,min=1,dive"`
}

// --- Handler Methods ---

func (h *WorkoutHandler) Start(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req StartWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, fmt.Sprintf("Validation error: %v", err))
		return
	}

	programID, err := primitive.ObjectIDFromHex(req.ProgramID)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "Invalid program id")
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(req.SessionID)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "Invalid session id")
		return
	}

	input := service.StartWorkoutInput{ProgramID: programID, SessionID: sessionID}
	if req.WeekVariant != nil {
		v := domain.WeekVariant(*req.WeekVariant)
		input.WeekVariant = &v
	}
	if req.Readiness != nil {
		input.Readiness = &domain.ReadinessCheck{
			SleepQuality: req.Readiness.SleepQuality,
			StressLevel:  req.Readiness.StressLevel,
			Soreness:     req.Readiness.Soreness,
			Motivation:   req.Readiness.Motivation,
		}
	}

	workout, err := h.workoutService.Start(c.Request.Context(), userID, input)
	if err != nil {
		h.respondWorkoutError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, workout)
}

func (h *WorkoutHandler) Pause(c *gin.Context) {
	h.transition(c, h.workoutService.Pause)
}

func (h *WorkoutHandler) Resume(c *gin.Context) {
	h.transition(c, h.workoutService.Resume)
}

func (h *WorkoutHandler) Cancel(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	if err := h.workoutService.Cancel(c.Request.Context(), userID); err != nil {
		h.respondWorkoutError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"cancelled": true})
}

func (h *WorkoutHandler) Finish(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req FinishWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercises, err := mapCompletedExercises(req.CompletedExercises)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}

	log, err := h.workoutService.Finish(c.Request.Context(), userID, service.FinishWorkoutInput{
		Notes:                   req.Notes,
		Discomforts:             req.Discomforts,
		FatigueLevel:            req.FatigueLevel,
		MentalClarity:           req.MentalClarity,
		DurationMinutesOverride: req.DurationMinutesOverride,
		LogDate:                 req.LogDate,
		Exercises:               exercises,
	})
	if err != nil {
		h.respondWorkoutError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, log)
}

// GetOngoing returns the ongoing workout for the caller, reconciling
// orphaned state on the way. data is null when nothing is in progress.
func (h *WorkoutHandler) GetOngoing(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	workout, err := h.workoutService.Recover(c.Request.Context(), userID)
	if err != nil {
		h.respondWorkoutError(c, err)
		return
	}
	respondOK(c, http.StatusOK, workout)
}

// --- Helpers ---

func (h *WorkoutHandler) transition(c *gin.Context, fn func(context.Context, primitive.ObjectID) (*domain.OngoingWorkout, error)) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	workout, err := fn(c.Request.Context(), userID)
	if err != nil {
		h.respondWorkoutError(c, err)
		return
	}
	respondOK(c, http.StatusOK, workout)
}

func mapCompletedExercises(reqs []CompletedExerciseRequest) ([]service.CompletedExerciseInput, error) {
	exercises := make([]service.CompletedExerciseInput, 0, len(reqs))
	for _, ex := range reqs {
		input := service.CompletedExerciseInput{Name: ex.Name}
		if ex.ExerciseID != nil {
			id, err := primitive.ObjectIDFromHex(*ex.ExerciseID)
			if err != nil {
				return nil, fmt.Errorf("invalid exercise id %q", *ex.ExerciseID)
			}
			input.ExerciseID = &id
		}
		for _, set := range ex.Sets {
			input.Sets = append(input.Sets, service.CompletedSetInput{
				Weight: set.Weight,
				Reps:   set.Reps,
				RPE:    set.RPE,
				RIR:    set.RIR,
			})
		}
		exercises = append(exercises, input)
	}
	return exercises, nil
}

func (h *WorkoutHandler) respondWorkoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWorkoutAlreadyActive):
		respondError(c, http.StatusConflict, CodeWorkoutActive, err.Error())
	case errors.Is(err, service.ErrNoOngoingWorkout),
		errors.Is(err, service.ErrProgramNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, service.ErrProgramAccessDenied):
		respondError(c, http.StatusForbidden, CodeForbidden, err.Error())
	case errors.Is(err, service.ErrWorkoutNotActive),
		errors.Is(err, service.ErrWorkoutNotPaused),
		errors.Is(err, service.ErrWorkoutNotFinishable):
		respondError(c, http.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, service.ErrLogWriteFailed):
		respondError(c, http.StatusInternalServerError, CodeInternal, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, CodeInternal, "An unexpected error occurred")
	}
}
