package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/RealZimboGuy/flowlint/internal/util"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/models"
)

const healthPingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ComponentCounter is satisfied by *registry.Registry.
type ComponentCounter interface {
	Len() int
}

type HealthController struct {
	DB      Pinger
	Catalog ComponentCounter
}

func NewHealthController(db Pinger, catalog ComponentCounter) *HealthController {
	return &HealthController{DB: db, Catalog: catalog}
}

func (c *HealthController) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{Status: "UP", Database: "UP"}
	if c.Catalog != nil {
		resp.Components = c.Catalog.Len()
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()
	if c.DB != nil {
		if err := c.DB.PingContext(ctx); err != nil {
			slog.WarnContext(r.Context(), "Health check database ping failed", "error", err)
			resp.Status = "DOWN"
			resp.Database = "DOWN"
			util.WriteJSONResponse(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	util.WriteJSONResponse(w, http.StatusOK, resp)
}
