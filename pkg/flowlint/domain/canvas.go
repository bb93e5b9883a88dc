package domain

import (
	"database/sql"
	"time"
)

// Canvas is a persisted visual flow. FlowData holds the serialized
// {nodes, edges} document, sometimes as stringified JSON.
type Canvas struct {
	ID       string
	UnikID   sql.NullString
	Name     string
	FlowData sql.NullString
	Created  time.Time
	Updated  time.Time
}
