package common

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/RealZimboGuy/flowlint/internal/config"
	"github.com/RealZimboGuy/flowlint/internal/repository"
	"github.com/RealZimboGuy/flowlint/internal/util"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/core"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/domain"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/models"
)

// RunCanvasRepositoryScenario exercises the canvas and user repositories
// against the configured database.
func RunCanvasRepositoryScenario(t *testing.T) {
	db, err := flowlint.OpenDatabase()
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	repo := repository.NewCanvasRepository(db, core.FixedClock(start))

	first := &domain.Canvas{
		ID:       ValidCanvasID,
		UnikID:   sql.NullString{String: UnikID, Valid: true},
		Name:     "first",
		FlowData: sql.NullString{String: `{"nodes":[],"edges":[]}`, Valid: true},
	}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("Failed to save canvas: %v", err)
	}

	later := repository.NewCanvasRepository(db, core.FixedClock(start.Add(time.Hour)))
	if err := later.Save(ctx, &domain.Canvas{
		ID:       ValidCanvasID,
		UnikID:   sql.NullString{String: UnikID, Valid: true},
		Name:     "renamed",
		FlowData: sql.NullString{String: InvalidFlow, Valid: true},
	}); err != nil {
		t.Fatalf("Failed to upsert canvas: %v", err)
	}
	if err := repo.Save(ctx, &domain.Canvas{ID: InvalidCanvasID, UnikID: sql.NullString{String: UnikID, Valid: true}}); err != nil {
		t.Fatalf("Failed to save canvas: %v", err)
	}

	got, err := repo.FindByID(ctx, ValidCanvasID, UnikID)
	if err != nil || got == nil {
		t.Fatalf("Expected canvas, got %v, %v", got, err)
	}
	if got.Name != "renamed" || got.FlowData.String != InvalidFlow {
		t.Errorf("Expected upsert to replace name and flow data, got %q", got.Name)
	}
	if !got.Created.Equal(start) {
		t.Errorf("Expected created to be kept at %s, got %s", start, got.Created)
	}
	if !got.Updated.Equal(start.Add(time.Hour)) {
		t.Errorf("Expected updated to move to %s, got %s", start.Add(time.Hour), got.Updated)
	}

	if c, err := repo.FindByID(ctx, ValidCanvasID, OtherUnikID); err != nil || c != nil {
		t.Errorf("Expected no canvas for another unik, got %v, %v", c, err)
	}
	if c, err := repo.FindByID(ctx, MissingCanvasID, ""); err != nil || c != nil {
		t.Errorf("Expected no canvas for unknown id, got %v, %v", c, err)
	}
	if c, err := repo.FindByID(ctx, InvalidCanvasID, ""); err != nil || c == nil || c.FlowData.Valid {
		t.Errorf("Expected canvas with NULL flow data, got %+v, %v", c, err)
	}

	ids, err := repo.FindIDsByUnik(ctx, UnikID)
	if err != nil {
		t.Fatalf("Failed to list canvases: %v", err)
	}
	if diff := cmp.Diff([]string{ValidCanvasID, InvalidCanvasID}, ids); diff != "" {
		t.Errorf("Canvas ids mismatch (-want +got):\n%s", diff)
	}

	users := repository.NewUserRepository(db, core.FixedClock(start))
	id, err := users.Save(ctx, &domain.User{Username: "repo-user", Password: "hash", ApiKey: sql.NullString{String: "repo-key", Valid: true}})
	if err != nil || id == 0 {
		t.Fatalf("Failed to save user: id=%d err=%v", id, err)
	}
	byKey, err := users.FindByApiKey(ctx, "repo-key")
	if err != nil || byKey == nil || byKey.ID != id || !byKey.Enabled.Bool {
		t.Errorf("Expected enabled user %d by api key, got %+v, %v", id, byKey, err)
	}
	if u, err := users.FindByUsername(ctx, "nobody"); err != nil || u != nil {
		t.Errorf("Expected no user, got %+v, %v", u, err)
	}
}

// RunValidationAPIScenario seeds the fixtures, starts the server on port and
// checks the validation endpoints end to end.
func RunValidationAPIScenario(t *testing.T, port int) {
	config.Set(config.COMPONENTS_FILE, WriteComponentsFile(t))

	db, err := flowlint.OpenDatabase()
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	SeedCanvases(t, db)
	db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := flowlint.Start(ctx, nil); err != nil {
			slog.Error("Server exited with error", "error", err)
		}
	}()
	defer func() {
		cancel()
		<-done
	}()

	base := "http://localhost:" + strconv.Itoa(port)
	client := &http.Client{Timeout: 10 * time.Second}
	WaitForHealthy(t, client, base)

	t.Run("valid canvas", func(t *testing.T) {
		res := getValidation(t, client, base, ValidCanvasID, UnikID, http.StatusOK)
		if !res.IsValid || len(res.Issues) != 0 || res.CanvasID != ValidCanvasID {
			t.Errorf("Expected valid canvas, got %+v", res)
		}
	})

	t.Run("invalid canvas", func(t *testing.T) {
		res := getValidation(t, client, base, InvalidCanvasID, "", http.StatusOK)
		want := []models.NodeIssue{
			{NodeID: "chatOpenAI_0", Label: "ChatOpenAI", Name: "chatOpenAI", Issues: []string{"Credential is required"}},
			{NodeID: "conversationChain_1", Label: "Conversation Chain", Name: "conversationChain", Issues: []string{
				"This node is not connected to anything",
				"Chat Model is required",
			}},
			{NodeID: "conversationChain_0", Label: "Conversation Chain", Name: "conversationChain", Issues: []string{
				"Connected to non-existent target node deleted_0",
			}},
		}
		if res.IsValid {
			t.Error("Expected canvas to be invalid")
		}
		if diff := cmp.Diff(want, res.Issues); diff != "" {
			t.Errorf("Issues mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown canvas", func(t *testing.T) {
		expectError(t, client, base+"/api/v1/validation/"+MissingCanvasID, http.StatusNotFound, "Canvas "+MissingCanvasID+" not found")
	})

	t.Run("other tenant", func(t *testing.T) {
		expectError(t, client, base+"/api/v1/validation/"+OtherCanvasID+"?unikId="+UnikID, http.StatusNotFound, "")
	})

	t.Run("malformed flow data", func(t *testing.T) {
		expectError(t, client, base+"/api/v1/validation/"+MalformedCanvasID, http.StatusBadRequest, "Invalid flow data")
	})

	t.Run("no credentials", func(t *testing.T) {
		resp, err := client.Get(base + "/api/v1/validation/" + ValidCanvasID)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("basic auth", func(t *testing.T) {
		req, _ := http.NewRequest("GET", base+"/api/v1/validation/"+ValidCanvasID, nil)
		req.SetBasicAuth(Username, Password)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("save then check unik", func(t *testing.T) {
		newID := "55555555-5555-4555-8555-555555555555"
		body := `{"unikId": "` + UnikID + `", "name": "pushed", "flowData": ` + InvalidFlow + `}`
		req, _ := http.NewRequest("PUT", base+"/api/v1/canvases/"+newID, strings.NewReader(body))
		req.Header.Set("X-API-Key", ApiKey)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}

		req, _ = http.NewRequest("GET", base+"/api/v1/validation?unikId="+UnikID, nil)
		req.Header.Set("X-API-Key", ApiKey)
		resp, err = client.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		reports, err := util.DecodeJSONBodyResponse[[]models.CanvasValidationReport](resp)
		if err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		var ids []string
		for _, rep := range reports {
			ids = append(ids, rep.CanvasID)
		}
		if diff := cmp.Diff([]string{ValidCanvasID, InvalidCanvasID, MalformedCanvasID, newID}, ids); diff != "" {
			t.Fatalf("Report order mismatch (-want +got):\n%s", diff)
		}
		if reports[2].Error != "Invalid flow data" {
			t.Errorf("Expected malformed canvas to report an error, got %+v", reports[2])
		}
		if reports[3].Result == nil || len(reports[3].Result.Issues) != 3 {
			t.Errorf("Expected saved canvas to be validated, got %+v", reports[3])
		}
	})

	t.Run("draft flow", func(t *testing.T) {
		body := `{"flowData": ` + InvalidFlow + `}`
		req, _ := http.NewRequest("POST", base+"/api/v1/validation", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", ApiKey)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		res, err := util.DecodeJSONBodyResponse[models.ValidationResponse](resp)
		if err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if res.IsValid || len(res.Issues) != 3 {
			t.Errorf("Expected three nodes with issues, got %+v", res)
		}
	})
}

// WaitForHealthy polls /health until the server answers 200.
func WaitForHealthy(t *testing.T, client *http.Client, base string) {
	t.Helper()
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := client.Get(base + "/health")
		if err == nil {
			health, derr := util.DecodeJSONBodyResponse[models.HealthResponse](resp)
			if derr == nil && resp.StatusCode == http.StatusOK {
				if health.Components != 2 {
					t.Errorf("Expected 2 catalog components, got %d", health.Components)
				}
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("Server at %s did not become healthy", base)
}

func getValidation(t *testing.T, client *http.Client, base, canvasID, unikID string, status int) models.ValidationResponse {
	t.Helper()
	url := fmt.Sprintf("%s/api/v1/validation/%s", base, canvasID)
	if unikID != "" {
		url += "?unikId=" + unikID
	}
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("X-API-Key", ApiKey)

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to GET %s: %v", url, err)
	}
	if resp.StatusCode != status {
		resp.Body.Close()
		t.Fatalf("Expected %d, got %d", status, resp.StatusCode)
	}
	res, err := util.DecodeJSONBodyResponse[models.ValidationResponse](resp)
	if err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return res
}

func expectError(t *testing.T, client *http.Client, url string, status int, message string) {
	t.Helper()
	req, _ := http.NewRequest("GET", url, nil)
	req.Header.Set("X-API-Key", ApiKey)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to GET %s: %v", url, err)
	}
	if resp.StatusCode != status {
		t.Errorf("Expected %d, got %d", status, resp.StatusCode)
	}
	body, err := util.DecodeJSONBodyResponse[models.ErrorResponse](resp)
	if err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	if message != "" && body.Error != message {
		t.Errorf("Expected error %q, got %q", message, body.Error)
	}
}
