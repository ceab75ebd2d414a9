package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ironlog/fitness-app/internal/domain"
	"ironlog/fitness-app/internal/service"
)

// HistoryHandler serves the workout history: paginated listing, single-log
// detail, and direct log creation for manually entered past workouts.
type HistoryHandler struct {
	historyService service.HistoryService
	loggingService service.LoggingService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historyService service.HistoryService, loggingService service.LoggingService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService, loggingService: loggingService}
}

// --- Request/Response DTOs ---

// CreateLogRequest logs a workout that was not driven through the live
// state machine. ProgramID and SessionID are optional: absent means an
// ad-hoc workout, logged under the custom label.
type CreateLogRequest struct {
	ProgramID          *string                    `json:"programId"`
	SessionID          *string                    `json:"sessionId"`
	Date               time.Time                  `json:"date" binding:"required"`
	DurationMinutes    int                        `json:"durationMinutes" binding:"required,min=1"`
	FatigueLevel       int                        `json:"fatigueLevel" binding:"required,min=1,max=10"`
	MentalClarity      int                        `json:"mentalClarity" binding:"required,min=1,max=10"`
	Notes              string                     `json:"notes"`
	Discomforts        []string                   `json:"discomforts"`
	CompletedExercises []CompletedExerciseRequest `json:"completedExercises" binding:"required,min=1,dive"`
}

type HistoryPageResponse struct {
	Items      []domain.WorkoutLog `json:"items"`
	NextCursor *string             `json:"nextCursor,omitempty"`
}

type LogDetailResponse struct {
	Log       domain.WorkoutLog          `json:"log"`
	Exercises []domain.CompletedExercise `json:"exercises"`
}

// --- Handler Methods ---

func (h *HistoryHandler) GetHistory(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(c, http.StatusBadRequest, CodeValidation, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	var cursor *string
	if raw := c.Query("cursor"); raw != "" {
		cursor = &raw
	}

	page, err := h.historyService.GetHistory(c.Request.Context(), userID, limit, cursor)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCursor) {
			respondError(c, http.StatusBadRequest, CodeValidation, err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to load history")
		return
	}
	respondOK(c, http.StatusOK, HistoryPageResponse{Items: page.Items, NextCursor: page.NextCursor})
}

func (h *HistoryHandler) GetLog(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	logID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	log, exercises, err := h.loggingService.GetLog(c.Request.Context(), userID, logID)
	if err != nil {
		if errors.Is(err, service.ErrLogNotFound) {
			respondError(c, http.StatusNotFound, CodeNotFound, err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to load workout log")
		return
	}
	respondOK(c, http.StatusOK, LogDetailResponse{Log: *log, Exercises: exercises})
}

// CreateLog writes a workout log directly, bypassing the state machine.
func (h *HistoryHandler) CreateLog(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req CreateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, fmt.Sprintf("Validation error: %v", err))
		return
	}

	input := service.LogSessionInput{
		UserID:          userID,
		Date:            req.Date,
		DurationSeconds: req.DurationMinutes * 60,
		FatigueLevel:    req.FatigueLevel,
		MentalClarity:   req.MentalClarity,
		Notes:           req.Notes,
		Discomforts:     req.Discomforts,
	}
	if req.ProgramID != nil {
		id, err := primitive.ObjectIDFromHex(*req.ProgramID)
		if err != nil {
			respondError(c, http.StatusBadRequest, CodeValidation, "Invalid program id")
			return
		}
		input.ProgramID = id
	}
	if req.SessionID != nil {
		id, err := primitive.ObjectIDFromHex(*req.SessionID)
		if err != nil {
			respondError(c, http.StatusBadRequest, CodeValidation, "Invalid session id")
			return
		}
		input.SessionID = id
	}

	exercises, err := mapCompletedExercises(req.CompletedExercises)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	input.Exercises = exercises

	log, err := h.loggingService.LogSession(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrLogWriteFailed) {
			respondError(c, http.StatusInternalServerError, CodeInternal, err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, CodeInternal, "An unexpected error occurred")
		return
	}
	respondOK(c, http.StatusCreated, log)
}
