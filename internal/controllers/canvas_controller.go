package controllers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/RealZimboGuy/flowlint/internal/flow"
	"github.com/RealZimboGuy/flowlint/internal/util"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/core"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/domain"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/models"
)

// CanvasStore is implemented by *repository.CanvasRepository.
type CanvasStore interface {
	Save(ctx context.Context, c *domain.Canvas) error
}

// CanvasesController lets editors push canvases to be validated later.
type CanvasesController struct {
	AuthController
	Canvases CanvasStore
}

func NewCanvasesController(canvases CanvasStore, userRepo UserRepo, authEnabled bool) *CanvasesController {
	return &CanvasesController{
		Canvases: canvases,
		AuthController: AuthController{
			UserRepo:    userRepo,
			AuthEnabled: authEnabled,
		},
	}
}

func (c *CanvasesController) handleSaveCanvas(w http.ResponseWriter, r *http.Request) {
	canvasID := r.PathValue("canvasId")
	if err := util.ValidateUUID(canvasID); err != nil {
		util.WriteErrorResponse(w, http.StatusBadRequest, "canvasId must be a UUID")
		return
	}

	var req models.SaveCanvasRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, util.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		util.WriteErrorResponse(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := validateSaveCanvas(req); err != nil {
		util.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	canvas := &domain.Canvas{
		ID:       canvasID,
		UnikID:   sql.NullString{String: req.UnikID, Valid: req.UnikID != ""},
		Name:     req.Name,
		FlowData: sql.NullString{String: string(req.FlowData), Valid: true},
	}
	if err := c.Canvases.Save(r.Context(), canvas); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save canvas", "canvasId", canvasID, "error", err)
		util.WriteErrorResponse(w, http.StatusInternalServerError, "failed to save canvas")
		return
	}

	username, _ := r.Context().Value(core.CtxKeyUsername).(string)
	slog.InfoContext(r.Context(), "Canvas saved", "canvasId", canvasID, "unikId", req.UnikID, "savedBy", username)
	util.WriteJSONResponse(w, http.StatusOK, models.SaveCanvasResponse{CanvasID: canvasID})
}

func validateSaveCanvas(req models.SaveCanvasRequest) error {
	if req.UnikID != "" {
		if err := util.ValidateUUID(req.UnikID); err != nil {
			return errors.New("unikId must be a UUID")
		}
	}
	if _, err := flow.Parse(req.FlowData); err != nil {
		return errors.New("Invalid flow data")
	}
	return nil
}
