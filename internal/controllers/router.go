package controllers

import (
	"net/http"
	"strings"
)

// RegisterRoutes wires the HTTP routes for this controller under the API prefix.
func (c *ValidationController) RegisterRoutes(mux *http.ServeMux, prefix string) {
	prefix = strings.TrimSuffix(prefix, "/")
	mux.HandleFunc("GET "+prefix+"/validation/{canvasId}", c.RequireAuth(c.handleValidateCanvas))
	mux.HandleFunc("POST "+prefix+"/validation", c.RequireAuth(c.handleValidateFlow))
	mux.HandleFunc("GET "+prefix+"/validation", c.RequireAuth(c.handleCheckUnik))
}

func (c *CanvasesController) RegisterRoutes(mux *http.ServeMux, prefix string) {
	prefix = strings.TrimSuffix(prefix, "/")
	mux.HandleFunc("PUT "+prefix+"/canvases/{canvasId}", c.RequireAuth(c.handleSaveCanvas))
}

func (c *HealthController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", c.handleHealth)
}
