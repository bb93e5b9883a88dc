package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/RealZimboGuy/flowlint/pkg/flowlint/domain"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/models"
)

type MockCanvasStore struct {
	SaveFunc func(ctx context.Context, c *domain.Canvas) error
}

func (m *MockCanvasStore) Save(ctx context.Context, c *domain.Canvas) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, c)
	}
	return nil
}

func saveCanvas(c *CanvasesController, canvasID, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	c.RegisterRoutes(mux, "/api/v1/")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("PUT", "/api/v1/canvases/"+canvasID, strings.NewReader(body)))
	return w
}

func TestCanvasesController_Save(t *testing.T) {
	var saved *domain.Canvas
	c := NewCanvasesController(&MockCanvasStore{
		SaveFunc: func(ctx context.Context, canvas *domain.Canvas) error {
			saved = canvas
			return nil
		},
	}, &MockUserRepo{}, false)

	body := `{"unikId": "` + testUnikID + `", "name": "support bot", "flowData": {"nodes": [], "edges": []}}`
	w := saveCanvas(c, testCanvasID, body)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp models.SaveCanvasResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.CanvasID != testCanvasID {
		t.Errorf("Expected canvasId %s, got %s", testCanvasID, resp.CanvasID)
	}
	if saved == nil || saved.ID != testCanvasID || saved.UnikID.String != testUnikID || saved.Name != "support bot" {
		t.Fatalf("Unexpected saved canvas %+v", saved)
	}
	if saved.FlowData.String != `{"nodes": [], "edges": []}` {
		t.Errorf("Expected flow data to be stored as sent, got %s", saved.FlowData.String)
	}
}

func TestCanvasesController_RejectsBadInput(t *testing.T) {
	c := NewCanvasesController(&MockCanvasStore{
		SaveFunc: func(ctx context.Context, canvas *domain.Canvas) error {
			t.Error("Save should not be called")
			return nil
		},
	}, &MockUserRepo{}, false)

	tests := []struct {
		name     string
		canvasID string
		body     string
	}{
		{"canvas id", "abc", `{"name": "x", "flowData": {}}`},
		{"urn canvas id", "urn:uuid:" + testCanvasID, `{"name": "x", "flowData": {}}`},
		{"unhyphenated unik id", testCanvasID, `{"unikId": "1a2b3c4d000040008000000000000001", "flowData": {}}`},
		{"unik id", testCanvasID, `{"unikId": "abc", "flowData": {}}`},
		{"unknown field", testCanvasID, `{"flowData": {}, "owner": "me"}`},
		{"malformed flow", testCanvasID, `{"flowData": "{not json"}`},
		{"missing flow", testCanvasID, `{"name": "x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := saveCanvas(c, tt.canvasID, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestCanvasesController_SaveFailure(t *testing.T) {
	c := NewCanvasesController(&MockCanvasStore{
		SaveFunc: func(ctx context.Context, canvas *domain.Canvas) error { return errors.New("disk full") },
	}, &MockUserRepo{}, false)

	w := saveCanvas(c, testCanvasID, `{"flowData": {"nodes": []}}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}
