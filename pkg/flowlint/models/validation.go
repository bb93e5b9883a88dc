package models

import "encoding/json"

// NodeIssue lists the configuration problems found on one node. Edge
// problems with no surviving endpoint use the edge id and the name "edge".
type NodeIssue struct {
	NodeID string   `json:"nodeId"`
	Label  string   `json:"label"`
	Name   string   `json:"name"`
	Issues []string `json:"issues"`
}

// ValidationResponse is returned by GET /validation/{canvasId}.
type ValidationResponse struct {
	CanvasID string      `json:"canvasId,omitempty"`
	IsValid  bool        `json:"isValid"`
	Issues   []NodeIssue `json:"issues"`
}

// ValidateFlowRequest carries a draft flow document. FlowData may be the
// object itself or a string containing it.
type ValidateFlowRequest struct {
	FlowData json.RawMessage `json:"flowData"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	Components int    `json:"components"`
	Database   string `json:"database,omitempty"`
}

// CanvasValidationReport is one entry of GET /validation?unikId=. Error is
// set instead of Result when the canvas could not be validated.
type CanvasValidationReport struct {
	CanvasID string              `json:"canvasId"`
	Result   *ValidationResponse `json:"result,omitempty"`
	Error    string              `json:"error,omitempty"`
}

type SaveCanvasRequest struct {
	UnikID   string          `json:"unikId,omitempty"`
	Name     string          `json:"name"`
	FlowData json.RawMessage `json:"flowData"`
}

type SaveCanvasResponse struct {
	CanvasID string `json:"canvasId"`
}
