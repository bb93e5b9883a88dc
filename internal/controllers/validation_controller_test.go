package controllers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/RealZimboGuy/flowlint/internal/validation"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/domain"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/models"
)

// MockCanvasRepo implements validation.CanvasRepo for testing
type MockCanvasRepo struct {
	FindByIDFunc      func(ctx context.Context, id string, unikID string) (*domain.Canvas, error)
	FindIDsByUnikFunc func(ctx context.Context, unikID string) ([]string, error)
}

func (m *MockCanvasRepo) FindByID(ctx context.Context, id string, unikID string) (*domain.Canvas, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id, unikID)
	}
	return nil, nil
}

func (m *MockCanvasRepo) FindIDsByUnik(ctx context.Context, unikID string) ([]string, error) {
	if m.FindIDsByUnikFunc != nil {
		return m.FindIDsByUnikFunc(ctx, unikID)
	}
	return nil, nil
}

const (
	testCanvasID = "9f0e3a1c-5d4b-4f2e-8c7a-1b2c3d4e5f60"
	testUnikID   = "1a2b3c4d-0000-4000-8000-000000000001"
)

func newTestValidationController(repo *MockCanvasRepo) *ValidationController {
	return NewValidationController(validation.NewService(repo, nil), &MockUserRepo{}, false)
}

func canvasWithFlow(id, flowData string) *domain.Canvas {
	return &domain.Canvas{ID: id, FlowData: sql.NullString{String: flowData, Valid: true}}
}

func serve(c *ValidationController, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	c.RegisterRoutes(mux, "/api/v1")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestValidationController_ValidCanvas(t *testing.T) {
	var gotUnik string
	repo := &MockCanvasRepo{
		FindByIDFunc: func(ctx context.Context, id string, unikID string) (*domain.Canvas, error) {
			gotUnik = unikID
			return canvasWithFlow(id, `{"nodes":[{"id":"a","data":{"label":"A","name":"x","inputs":{}}}],"edges":[]}`), nil
		},
	}
	c := newTestValidationController(repo)

	w := serve(c, httptest.NewRequest("GET", "/api/v1/validation/"+testCanvasID+"?unikId="+testUnikID, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotUnik != testUnikID {
		t.Errorf("Expected unikId to be passed through, got %q", gotUnik)
	}
	body := w.Body.String()
	var resp models.ValidationResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.IsValid || resp.CanvasID != testCanvasID {
		t.Errorf("Unexpected response %+v", resp)
	}
	if !strings.Contains(body, `"issues":[]`) {
		t.Errorf("Expected an empty issues array, got %s", body)
	}
}

func TestValidationController_ReportsIssues(t *testing.T) {
	repo := &MockCanvasRepo{
		FindByIDFunc: func(ctx context.Context, id string, unikID string) (*domain.Canvas, error) {
			return canvasWithFlow(id, `{"nodes":[{"id":"a","data":{"label":"A","name":"x","inputs":{}}}],
				"edges":[{"id":"e1","source":"a","target":"ghost"}]}`), nil
		},
	}
	w := serve(newTestValidationController(repo), httptest.NewRequest("GET", "/api/v1/validation/"+testCanvasID, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp models.ValidationResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.IsValid || len(resp.Issues) != 1 {
		t.Fatalf("Expected one issue, got %+v", resp)
	}
	if resp.Issues[0].NodeID != "a" || resp.Issues[0].Issues[0] != "Connected to non-existent target node ghost" {
		t.Errorf("Unexpected issue %+v", resp.Issues[0])
	}
}

func TestValidationController_NotFound(t *testing.T) {
	w := serve(newTestValidationController(&MockCanvasRepo{}),
		httptest.NewRequest("GET", "/api/v1/validation/00000000-0000-0000-0000-000000000000", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	var resp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error != "Canvas 00000000-0000-0000-0000-000000000000 not found" {
		t.Errorf("Unexpected error message %q", resp.Error)
	}
}

func TestValidationController_MalformedFlowData(t *testing.T) {
	repo := &MockCanvasRepo{
		FindByIDFunc: func(ctx context.Context, id string, unikID string) (*domain.Canvas, error) {
			return canvasWithFlow(id, "{not json"), nil
		},
	}
	w := serve(newTestValidationController(repo), httptest.NewRequest("GET", "/api/v1/validation/"+testCanvasID, nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestValidationController_RepoError(t *testing.T) {
	repo := &MockCanvasRepo{
		FindByIDFunc: func(ctx context.Context, id string, unikID string) (*domain.Canvas, error) {
			return nil, errors.New("pq: connection refused")
		},
	}
	w := serve(newTestValidationController(repo), httptest.NewRequest("GET", "/api/v1/validation/"+testCanvasID, nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Errorf("Internal error cause leaked to client: %s", w.Body.String())
	}
}

func TestValidationController_InvalidIDs(t *testing.T) {
	c := newTestValidationController(&MockCanvasRepo{
		FindByIDFunc: func(ctx context.Context, id string, unikID string) (*domain.Canvas, error) {
			t.Error("Repository should not be called")
			return nil, nil
		},
	})

	for _, path := range []string{
		"/api/v1/validation/not-a-uuid",
		"/api/v1/validation/" + testCanvasID + "?unikId=abc",
		"/api/v1/validation/00000000000000000000000000000000",
		"/api/v1/validation/urn:uuid:00000000-0000-0000-0000-000000000000",
		"/api/v1/validation/%7B00000000-0000-0000-0000-000000000000%7D",
		"/api/v1/validation/" + testCanvasID + "?unikId=urn:uuid:" + testUnikID,
	} {
		w := serve(c, httptest.NewRequest("GET", path, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", path, w.Code)
		}
	}
}

func TestValidationController_PostFlow(t *testing.T) {
	c := newTestValidationController(&MockCanvasRepo{})

	body := `{"flowData": "{\"nodes\":[{\"id\":\"a\",\"data\":{\"label\":\"A\",\"name\":\"x\",\"inputParams\":[{\"label\":\"Prompt\",\"name\":\"prompt\"}],\"inputs\":{}}}]}"}`
	w := serve(c, httptest.NewRequest("POST", "/api/v1/validation", strings.NewReader(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp models.ValidationResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.IsValid || len(resp.Issues) != 1 || resp.Issues[0].Issues[0] != "Prompt is required" {
		t.Errorf("Unexpected response %+v", resp)
	}
}

func TestValidationController_PostBadBody(t *testing.T) {
	c := newTestValidationController(&MockCanvasRepo{})

	for _, body := range []string{`nope`, `{}`, `{"flowData": "{not json"}`} {
		w := serve(c, httptest.NewRequest("POST", "/api/v1/validation", strings.NewReader(body)))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", body, w.Code)
		}
	}
}

func TestValidationController_RequiresAuthWhenEnabled(t *testing.T) {
	c := NewValidationController(validation.NewService(&MockCanvasRepo{}, nil), &MockUserRepo{}, true)

	w := serve(c, httptest.NewRequest("GET", "/api/v1/validation/"+testCanvasID, nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestValidationController_CheckUnik(t *testing.T) {
	repo := &MockCanvasRepo{
		FindIDsByUnikFunc: func(ctx context.Context, unikID string) ([]string, error) {
			if unikID != testUnikID {
				t.Errorf("Unexpected unik %s", unikID)
			}
			return []string{"c1", "c2"}, nil
		},
		FindByIDFunc: func(ctx context.Context, id string, unikID string) (*domain.Canvas, error) {
			if id == "c2" {
				return canvasWithFlow(id, "{not json"), nil
			}
			return canvasWithFlow(id, `{"nodes":[],"edges":[]}`), nil
		},
	}
	c := newTestValidationController(repo)
	c.CheckConcurrency = 2

	w := serve(c, httptest.NewRequest("GET", "/api/v1/validation?unikId="+testUnikID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var reports []models.CanvasValidationReport
	if err := json.NewDecoder(w.Body).Decode(&reports); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("Expected 2 reports, got %d", len(reports))
	}
	if reports[0].CanvasID != "c1" || reports[0].Result == nil || !reports[0].Result.IsValid {
		t.Errorf("Unexpected first report %+v", reports[0])
	}
	if reports[1].CanvasID != "c2" || reports[1].Result != nil || reports[1].Error != "Invalid flow data" {
		t.Errorf("Unexpected second report %+v", reports[1])
	}
}

func TestValidationController_CheckUnikRequiresUnik(t *testing.T) {
	c := newTestValidationController(&MockCanvasRepo{})
	for _, path := range []string{
		"/api/v1/validation",
		"/api/v1/validation?unikId=nope",
		"/api/v1/validation?unikId=1a2b3c4d000040008000000000000001",
	} {
		w := serve(c, httptest.NewRequest("GET", path, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", path, w.Code)
		}
	}
}
