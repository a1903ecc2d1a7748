package dialect

import (
	"fmt"
	"strings"
)

// Dialect names.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
	MySQL    = "mysql"
)

// Names lists the supported dialects.
func Names() []string {
	return []string{SQLite, Postgres, MySQL}
}

// Parse returns the canonical name of a dialect. Common aliases such as
// "sqlite3", "postgresql" and "pg" are accepted.
func Parse(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case SQLite, "sqlite3":
		return SQLite, nil
	case Postgres, "postgresql", "pg":
		return Postgres, nil
	case MySQL, "mariadb":
		return MySQL, nil
	default:
		return "", fmt.Errorf("dialect: unsupported dialect %q", s)
	}
}
