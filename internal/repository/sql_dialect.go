package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/RealZimboGuy/flowlint/internal/config"
)

// placeholder returns the correct bind variable for the given index based on DB type.
// Postgres uses $1, $2... while MySQL and SQLite use ?
func placeholder(i int) string {
	if config.GetSystemSettingString(config.DATABASE_TYPE) == config.DATABASE_TYPE_POSTGRES {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// placeholders returns "$1, $2, ..." or "?, ?, ..." for n bind variables.
func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = placeholder(i + 1)
	}
	return strings.Join(parts, ", ")
}

func supportsReturning() bool {
	return config.GetSystemSettingString(config.DATABASE_TYPE) == config.DATABASE_TYPE_POSTGRES
}

// upsertClause builds the conflict handling for an insert keyed on the given
// column, updating the listed columns from the incoming row.
func upsertClause(key string, columns ...string) string {
	sets := make([]string, len(columns))
	if config.GetSystemSettingString(config.DATABASE_TYPE) == config.DATABASE_TYPE_MYSQL {
		for i, c := range columns {
			sets[i] = fmt.Sprintf("%s = VALUES(%s)", c, c)
		}
		return " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	// postgres and sqlite share the same syntax
	for i, c := range columns {
		sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
	}
	return fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", key, strings.Join(sets, ", "))
}

func formatDateInDatabase(t time.Time) string {
	switch config.GetSystemSettingString(config.DATABASE_TYPE) {
	case config.DATABASE_TYPE_SQLLITE:
		return t.UTC().Format("2006-01-02 15:04:05.000")
	case config.DATABASE_TYPE_MYSQL:
		return t.UTC().Format("2006-01-02 15:04:05.000000")
	}
	// PostgreSQL supports RFC3339
	return t.UTC().Format(time.RFC3339Nano)
}
