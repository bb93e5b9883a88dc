package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/RealZimboGuy/flowlint/internal/util"
	"github.com/RealZimboGuy/flowlint/internal/validation"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/models"
)

// ValidationService is implemented by *validation.Service.
type ValidationService interface {
	ValidateCanvas(ctx context.Context, canvasID string, unikID string) (*models.ValidationResponse, error)
	ValidateFlowData(ctx context.Context, raw []byte) (*models.ValidationResponse, error)
	CheckUnik(ctx context.Context, unikID string, concurrency int) ([]validation.CanvasReport, error)
}

// ValidationController exposes canvas validation over HTTP.
type ValidationController struct {
	AuthController
	Service ValidationService
	// CheckConcurrency bounds the canvases validated in parallel by a unik check.
	CheckConcurrency int
}

func NewValidationController(service ValidationService, userRepo UserRepo, authEnabled bool) *ValidationController {
	return &ValidationController{
		Service: service,
		AuthController: AuthController{
			UserRepo:    userRepo,
			AuthEnabled: authEnabled,
		},
	}
}

func (c *ValidationController) handleValidateCanvas(w http.ResponseWriter, r *http.Request) {
	canvasID := r.PathValue("canvasId")
	if canvasID == "" {
		util.WriteErrorResponse(w, http.StatusBadRequest, "canvasId is required")
		return
	}
	if err := util.ValidateUUID(canvasID); err != nil {
		util.WriteErrorResponse(w, http.StatusBadRequest, "canvasId must be a UUID")
		return
	}
	unikID := r.URL.Query().Get("unikId")
	if unikID != "" {
		if err := util.ValidateUUID(unikID); err != nil {
			util.WriteErrorResponse(w, http.StatusBadRequest, "unikId must be a UUID")
			return
		}
	}

	result, err := c.Service.ValidateCanvas(r.Context(), canvasID, unikID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, result)
}

func (c *ValidationController) handleValidateFlow(w http.ResponseWriter, r *http.Request) {
	req, err := util.DecodeJSONBody[models.ValidateFlowRequest](w, r)
	if err != nil {
		util.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := c.Service.ValidateFlowData(r.Context(), req.FlowData)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, result)
}

func (c *ValidationController) handleCheckUnik(w http.ResponseWriter, r *http.Request) {
	unikID := r.URL.Query().Get("unikId")
	if unikID == "" {
		util.WriteErrorResponse(w, http.StatusBadRequest, "unikId is required")
		return
	}
	if err := util.ValidateUUID(unikID); err != nil {
		util.WriteErrorResponse(w, http.StatusBadRequest, "unikId must be a UUID")
		return
	}

	reports, err := c.Service.CheckUnik(r.Context(), unikID, c.CheckConcurrency)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	results := make([]models.CanvasValidationReport, 0, len(reports))
	for _, rep := range reports {
		results = append(results, rep.Model())
	}
	util.WriteJSONResponse(w, http.StatusOK, results)
}

// writeServiceError maps typed validation errors to their status. Internal
// causes are logged and never echoed to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := validation.StatusCode(err)
	message := "Internal Server Error"
	var verr *validation.Error
	if errors.As(err, &verr) {
		message = verr.Message
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Validation failed", "path", r.URL.Path, "error", err)
	}
	util.WriteErrorResponse(w, status, message)
}
