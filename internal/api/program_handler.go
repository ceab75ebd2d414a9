package api

import (
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ironlog/fitness-app/internal/domain"
	"ironlog/fitness-app/internal/service"
	"ironlog/fitness-app/internal/storage"
)

// ProgramHandler exposes the periodization tree operations.
type ProgramHandler struct {
	programService service.ProgramService
	fileStorage    storage.FileStorage
}

// NewProgramHandler creates a new ProgramHandler.
func NewProgramHandler(programService service.ProgramService, fileStorage storage.FileStorage) *ProgramHandler {
	return &ProgramHandler{programService: programService, fileStorage: fileStorage}
}

// --- Request DTOs ---

type CreateProgramRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type RenameRequest struct {
	Name string `json:"name" binding:"required"`
}

type AddMacrocycleRequest struct {
	Name string `json:"name" binding:"required"`
}

type AddMesocycleRequest struct {
	Name       string `json:"name" binding:"required"`
	Goal       string `json:"goal" binding:"required,oneof=accumulation intensification realization deload custom"`
	CustomGoal string `json:"customGoal"`
}

type AddWeekRequest struct {
	Name string `json:"name" binding:"required"`
}

type AddSessionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// ReorderRequest moves a sibling from one position to another. ParentID
// scopes the sibling list and is unused for the macrocycle level.
type ReorderRequest struct {
	Level    string `json:"level" binding:"required,oneof=macrocycle mesocycle week session"`
	ParentID string `json:"parentId"`
	From     *int   `json:"from" binding:"required,min=0"`
	To       *int   `json:"to" binding:"required,min=0"`
}

// SetVariantRequest assigns or clears (null) a week variant.
type SetVariantRequest struct {
	Variant *string `json:"variant" binding:"omitempty,oneof=A B C D"`
}

type SetPeriodizationRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type SetComplexityRequest struct {
	Complex *bool `json:"complex" binding:"required"`
}

type InstantiateTemplateRequest struct {
	TemplateProgramID string `json:"templateProgramId" binding:"required"`
}

type BackgroundUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type SetBackgroundRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

// BackgroundUploadResponse carries the presigned PUT URL and the key the
// client reports back once the upload succeeded.
type BackgroundUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// --- Handler Methods ---

func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, fmt.Sprintf("Validation error: %v", err))
		return
	}

	program, err := h.programService.CreateProgram(c.Request.Context(), userID, req.Name, req.Description)
	if err != nil {
		h.respondProgramError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, program)
}

func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	programs, err := h.programService.ListPrograms(c.Request.Context(), userID)
	if err != nil {
		h.respondProgramError(c, err)
		return
	}
	respondOK(c, http.StatusOK, programs)
}

func (h *ProgramHandler) GetProgram(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	programID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	program, err := h.programService.GetProgram(c.Request.Context(), userID, programID)
	if err != nil {
		h.respondProgramError(c, err)
		return
	}
	respondOK(c, http.StatusOK, program)
}

func (h *ProgramHandler) RenameProgram(c *gin.Context) {
	h.mutation(c, func(userID, programID primitive.ObjectID, c *gin.Context) (*domain.Program, error) {
		var req RenameRequest
		if err := bindJSON(c, &req); err != nil {
			return nil, err
		}
		return h.programService.RenameProgram(c.Request.Context(), userID, programID, req.Name)
	})
}

func (h *ProgramHandler) DeleteProgram(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	programID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.programService.DeleteProgram(c.Request.Context(), userID, programID); err != nil {
		h.respondProgramError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *ProgramHandler) AddMacrocycle(c *gin.Context) {
	h.mutation(c, func(userID, programID primitive.ObjectID, c *gin.Context) (*domain.Program, error) {
		var req AddMacrocycleRequest
		if err := bindJSON(c, &req); err != nil {
			return nil, err
		}
		return h.programService.AddMacrocycle(c.Request.Context(), userID, programID, req.Name)
	})
}

func (h *ProgramHandler) AddMesocycle(c *gin.Context) {
	h.mutation(c, func(userID, programID primitive.ObjectID, c *gin.Context) (*domain.Program, error) {
		macroID, err := paramObjectID(c, "macroId")
		if err != nil {
			return nil, err
		}
		var req AddMesocycleRequest
		if err := bindJSON(c, &req); err != nil {
			return nil, err
		}
		return h.programService.AddMesocycle(c.Request.Context(), userID, programID, macroID,
			req.Name, domain.MesocycleGoal(req.Goal), req.CustomGoal)
	})
}

func (h *ProgramHandler) AddWeek(c *gin.Context) {
	h.mutation(c, func(userID, programID primitive.ObjectID, c *gin.Context) (*domain.Program, error) {
		mesoID, err := paramObjectID(c, "mesoId")
		if err != nil {
			return nil, err
		}
		var req AddWeekRequest
		if err := bindJSON(c, &req); err != nil {
			return nil, err
		}
		return h.programService.AddWeek(c.Request.Context(), userID, programID, mesoID, req.Name)
	})
}

func (h *ProgramHandler) AddSession(c *gin.Context) {
	h.mutation(c, func(userID, programID primitive.ObjectID, c *gin.Context) (*domain.Program, error) {
		weekID, err := paramObjectID(c, "weekId")
		if err != nil {
			return nil, err
		}
		var req AddSessionRequest
		if err := bindJSON(c, &req); err != nil {
			return nil, err
		}
		return h.programService.AddSession(c.Request.Context(), userID, programID, weekID, req.Name, req.Description)
	})
}

// RemoveNode cascades to all descendants. The confirmation step lives in
// the client; the API assumes it already happened.
func (h *ProgramHandler) RemoveNode(c *gin.Context) {
	h.mutation(c, func(userID, programID primitive.ObjectID, c *gin.Context) (*domain.Program, error) {
		nodeID, err := paramObjectID(c, "nodeId")
		if err != nil {
			return nil, err
		}
		return h.programService.RemoveNode(c.Request.Context(), userID, programID, nodeID)
	})
}

func (h *ProgramHandler) RenameNode(c *gin.Context) {
	h.mutation(c, func(userID, programID primitive.ObjectID, c *gin.Context) (*domain.Program, error) {
		nodeID, err := paramObjectID(c, "nodeId")
		if err != nil {
			return nil, err
		}
		var req RenameRequest
		if err := bindJSON(c, &req); err != nil {
			return nil, err
		}
		return h.programService.RenameNode(c.Request.Context(), userID, programID, nodeID, req.Name)
	})
}

func (h *ProgramHandler) Reorder(c *gin.Context) {
	h.mutation(c, func(userID, programID primitive.ObjectID, c *gin.Context) (*domain.Program, error) {
		var req ReorderRequest
		if err := bindJSON(c, &req); err != nil {
			return nil, err
		}
		ctx := c.Request.Context()

		if req.Level == "macrocycle" {
			return h.programService.MoveMacrocycle(ctx, userID, programID, *req.From, *req.To)
		}

		parentID, err := primitive.ObjectIDFromHex(req.ParentID)
		if err != nil {
			return nil, errBadID
		}
		switch req.Level {
		case "mesocycle":
			return h.programService.MoveMesocycle(ctx, userID, programID, parentID, *req.From, *req.To)
		case "week":
			return h.programService.MoveWeek(ctx, userID, programID, parentID, *req.From, *req.To)
		default:
			return h.programService.MoveSession(ctx, userID, programID, parentID, *req.From, *req.To)
		}
	})
}

func (h *ProgramHandler) SetWeekVariant(c *gin.Context) {
	h.mutation(c, func(userID, programID primitive.ObjectID, c *gin.Context) (*domain.Program, error) {
		weekID, err := paramObjectID(c, "weekId")
		if err != nil {
			return nil, err
		}
		var req SetVariantRequest
		if err := bindJSON(c, &req); err != nil {
			return nil, err
		}
		var variant *domain.WeekVariant
		if req.Variant != nil {
			v := domain.WeekVariant(*req.Variant)
			variant = &v
		}
		return h.programService.SetWeekVariant(c.Request.Context(), userID, programID, weekID, variant)
	})
}

func (h *ProgramHandler) SetPeriodizationABCD(c *gin.Context) {
	h.mutation(c, func(userID, programID primitive.ObjectID, c *gin.Context) (*domain.Program, error) {
		var req SetPeriodizationRequest
		if err := bindJSON(c, &req); err != nil {
			return nil, err
		}
		return h.programService.SetPeriodizationABCD(c.Request.Context(), userID, programID, *req.Enabled)
	})
}

func (h *ProgramHandler) SetComplexity(c *gin.Context) {
	h.mutation(c, func(userID, programID primitive.ObjectID, c *gin.Context) (*domain.Program, error) {
		var req SetComplexityRequest
		if err := bindJSON(c, &req); err != nil {
			return nil, err
		}
		return h.programService.SetComplex(c.Request.Context(), userID, programID, *req.Complex)
	})
}

func (h *ProgramHandler) InstantiateTemplate(c *gin.Context) {
	h.mutation(c, func(userID, programID primitive.ObjectID, c *gin.Context) (*domain.Program, error) {
		var req InstantiateTemplateRequest
		if err := bindJSON(c, &req); err != nil {
			return nil, err
		}
		templateID, err := primitive.ObjectIDFromHex(req.TemplateProgramID)
		if err != nil {
			return nil, errBadID
		}
		return h.programService.InstantiateTemplate(c.Request.Context(), userID, programID, templateID)
	})
}

// RequestBackgroundUploadURL issues a presigned PUT URL for a session
// background image. The client uploads directly and then confirms the key.
func (h *ProgramHandler) RequestBackgroundUploadURL(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	programID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	sessionID, err := paramObjectID(c, "sessionId")
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "Invalid session id")
		return
	}
	var req BackgroundUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, fmt.Sprintf("Validation error: %v", err))
		return
	}

	// Ownership check before handing out a URL.
	if _, err := h.programService.GetProgram(c.Request.Context(), userID, programID); err != nil {
		h.respondProgramError(c, err)
		return
	}

	objectKey := path.Join("backgrounds", userID.Hex(), sessionID.Hex(), uuid.NewString())
	uploadURL, err := h.fileStorage.GeneratePresignedUploadURL(c.Request.Context(), objectKey, req.ContentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to generate upload URL")
		return
	}
	respondOK(c, http.StatusOK, BackgroundUploadResponse{UploadURL: uploadURL, ObjectKey: objectKey})
}

// ConfirmBackground records the uploaded object key on the session.
func (h *ProgramHandler) ConfirmBackground(c *gin.Context) {
	h.mutation(c, func(userID, programID primitive.ObjectID, c *gin.Context) (*domain.Program, error) {
		sessionID, err := paramObjectID(c, "sessionId")
		if err != nil {
			return nil, err
		}
		var req SetBackgroundRequest
		if err := bindJSON(c, &req); err != nil {
			return nil, err
		}
		return h.programService.SetSessionBackground(c.Request.Context(), userID, programID, sessionID, req.ObjectKey)
	})
}

// GetBackgroundURL returns a presigned GET URL for a session background.
func (h *ProgramHandler) GetBackgroundURL(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	programID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	sessionID, err := paramObjectID(c, "sessionId")
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "Invalid session id")
		return
	}

	program, err := h.programService.GetProgram(c.Request.Context(), userID, programID)
	if err != nil {
		h.respondProgramError(c, err)
		return
	}
	session, _ := program.FindSession(sessionID)
	if session == nil || session.BackgroundKey == "" {
		respondError(c, http.StatusNotFound, CodeNotFound, "Session has no background image")
		return
	}

	downloadURL, err := h.fileStorage.GeneratePresignedDownloadURL(c.Request.Context(), session.BackgroundKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to generate download URL")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"downloadUrl": downloadURL})
}

// --- Helpers ---

var errBadID = errors.New("invalid object id")

func bindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return fmt.Errorf("%w: %v", errValidation, err)
	}
	return nil
}

var errValidation = errors.New("validation error")

func pathObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := paramObjectID(c, name)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, fmt.Sprintf("Invalid %s", name))
		return primitive.NilObjectID, false
	}
	return id, true
}

func paramObjectID(c *gin.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, errBadID
	}
	return id, nil
}

// mutation wraps the shared load-mutate-respond flow of the tree handlers.
func (h *ProgramHandler) mutation(c *gin.Context, fn func(userID, programID primitive.ObjectID, c *gin.Context) (*domain.Program, error)) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	programID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	program, err := fn(userID, programID, c)
	if err != nil {
		h.respondProgramError(c, err)
		return
	}
	respondOK(c, http.StatusOK, program)
}

func (h *ProgramHandler) respondProgramError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errValidation), errors.Is(err, errBadID):
		respondError(c, http.StatusBadRequest, CodeValidation, err.Error())
	case errors.Is(err, service.ErrProgramNotFound), errors.Is(err, domain.ErrNodeNotFound):
		respondError(c, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, service.ErrProgramAccessDenied):
		respondError(c, http.StatusForbidden, CodeForbidden, err.Error())
	case errors.Is(err, domain.ErrVariantsDisabled),
		errors.Is(err, domain.ErrInvalidVariant),
		errors.Is(err, domain.ErrIndexOutOfRange):
		respondError(c, http.StatusBadRequest, CodeValidation, err.Error())
	case errors.Is(err, domain.ErrProgramComplex):
		respondError(c, http.StatusConflict, CodeConflict, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, CodeInternal, "An unexpected error occurred")
	}
}
