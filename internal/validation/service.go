package validation

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/RealZimboGuy/flowlint/internal/flow"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/domain"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/models"
)

// CanvasRepo is the read side of canvas persistence used by the service.
type CanvasRepo interface {
	FindByID(ctx context.Context, id string, unikID string) (*domain.Canvas, error)
	FindIDsByUnik(ctx context.Context, unikID string) ([]string, error)
}

type Service struct {
	canvases CanvasRepo
	catalog  Catalog
}

func NewService(canvases CanvasRepo, catalog Catalog) *Service {
	return &Service{canvases: canvases, catalog: catalog}
}

// ValidateCanvas loads the canvas, scoped to the unik when one is given,
// and validates its flow. Failures are *Error values carrying a status.
func (s *Service) ValidateCanvas(ctx context.Context, canvasID string, unikID string) (*models.ValidationResponse, error) {
	canvas, err := s.canvases.FindByID(ctx, canvasID, unikID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load canvas", "canvasId", canvasID, "error", err)
		return nil, Internal(err, "Error validating canvas %s", canvasID)
	}
	if canvas == nil {
		return nil, NotFound("Canvas %s not found", canvasID)
	}

	f, err := flow.Parse([]byte(canvas.FlowData.String))
	if err != nil {
		slog.WarnContext(ctx, "Canvas has unreadable flow data", "canvasId", canvasID, "error", err)
		return nil, parseError(err)
	}

	issues := ValidateFlow(f, s.catalog)
	slog.InfoContext(ctx, "Canvas validated", "canvasId", canvasID, "nodes", len(f.Nodes), "edges", len(f.Edges), "issues", len(issues))
	return &models.ValidationResponse{CanvasID: canvasID, IsValid: len(issues) == 0, Issues: issues}, nil
}

// ValidateFlowData validates a flow document that has not been saved.
func (s *Service) ValidateFlowData(ctx context.Context, raw []byte) (*models.ValidationResponse, error) {
	f, err := flow.Parse(raw)
	if err != nil {
		return nil, parseError(err)
	}
	issues := ValidateFlow(f, s.catalog)
	slog.DebugContext(ctx, "Draft flow validated", "nodes", len(f.Nodes), "issues", len(issues))
	return &models.ValidationResponse{IsValid: len(issues) == 0, Issues: issues}, nil
}

// CanvasReport is one entry of a unik-wide check. Err holds a not-found or
// bad-request failure for that canvas.
type CanvasReport struct {
	CanvasID string
	Result   *models.ValidationResponse
	Err      error
}

// CheckUnik validates every canvas of the unik with at most concurrency
// validations in flight. Reports follow canvas id order. An internal
// failure on any canvas aborts the whole check.
func (s *Service) CheckUnik(ctx context.Context, unikID string, concurrency int) ([]CanvasReport, error) {
	ids, err := s.canvases.FindIDsByUnik(ctx, unikID)
	if err != nil {
		return nil, Internal(err, "Error listing canvases of unik %s", unikID)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	reports := make([]CanvasReport, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, id := range ids {
		g.Go(func() error {
			res, err := s.ValidateCanvas(gctx, id, unikID)
			if err != nil && StatusCode(err) == http.StatusInternalServerError {
				return err
			}
			reports[i] = CanvasReport{CanvasID: id, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Model converts the report to its API form.
func (r CanvasReport) Model() models.CanvasValidationReport {
	m := models.CanvasValidationReport{CanvasID: r.CanvasID, Result: r.Result}
	if r.Err != nil {
		m.Error = r.Err.Error()
		var verr *Error
		if errors.As(r.Err, &verr) {
			m.Error = verr.Message
		}
	}
	return m
}

func parseError(err error) error {
	if errors.Is(err, flow.ErrEmptyFlowData) || errors.Is(err, flow.ErrMalformedFlowData) {
		return BadRequest(err, "Invalid flow data")
	}
	return Internal(err, "Error parsing flow data")
}
