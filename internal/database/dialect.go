package database

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// dialect papers over the few differences between SQLite and Postgres:
// bind placeholders and the column type used for exact amounts.
type dialect struct {
	driver string
}

func newDialect(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
		return dialect{driver: driver}, nil
	}
	return dialect{}, fmt.Errorf("unsupported database driver %q (expected %s or %s)", driver, DriverSQLite, DriverPostgres)
}

// amountType is TEXT on SQLite so decimals round-trip without float conversion.
func (d dialect) amountType() string {
	if d.driver == DriverPostgres {
		return "NUMERIC(38,18)"
	}
	return "TEXT"
}

// dsn adds the SQLite pragmas the store relies on; Postgres DSNs pass through.
func (d dialect) dsn(path string) string {
	if d.driver == DriverPostgres {
		return path
	}
	// _txlock=immediate takes the write lock at BEGIN so the cap check and the insert are serialized
	return path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_txlock=immediate"
}

// rebind rewrites ? placeholders to $1..$n for Postgres.
func (d dialect) rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
