package domain

import (
	"database/sql"
)

type User struct {
	ID       int64          `json:"id"`
	Username string         `json:"username"`
	Password string         `json:"-"`
	ApiKey   sql.NullString `json:"-"`
	Created  sql.NullTime   `json:"created"`
	Enabled  sql.NullBool   `json:"enabled"`
}
