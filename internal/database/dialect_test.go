package database

import (
	"strings"
	"testing"
)

func TestRebind(t *testing.T) {
	query := "SELECT id FROM purchases WHERE wallet_address = ? AND status = ?"

	sqlite := dialect{driver: DriverSQLite}
	if got := sqlite.rebind(query); got != query {
		t.Errorf("Expected sqlite query unchanged, got %q", got)
	}

	pg := dialect{driver: DriverPostgres}
	want := "SELECT id FROM purchases WHERE wallet_address = $1 AND status = $2"
	if got := pg.rebind(query); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestRebind_AllQueriesHaveNoLeftoverPlaceholders(t *testing.T) {
	pg := dialect{driver: DriverPostgres}
	for _, q := range []string{queryInsertPurchase, queryUpdateWalletTotal, queryIncrementRateCounter} {
		if strings.Contains(pg.rebind(q), "?") {
			t.Errorf("Expected no ? placeholders after rebind in %q", q)
		}
	}
}

func TestNewDialect(t *testing.T) {
	if _, err := newDialect(DriverSQLite); err != nil {
		t.Errorf("Expected sqlite3 to be supported, got %v", err)
	}
	if _, err := newDialect(DriverPostgres); err != nil {
		t.Errorf("Expected postgres to be supported, got %v", err)
	}
	if _, err := newDialect("mysql"); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}

func TestDialectTypesAndDsn(t *testing.T) {
	sqlite := dialect{driver: DriverSQLite}
	pg := dialect{driver: DriverPostgres}

	if sqlite.amountType() != "TEXT" {
		t.Errorf("Expected TEXT amounts on sqlite, got %s", sqlite.amountType())
	}
	if pg.amountType() != "NUMERIC(38,18)" {
		t.Errorf("Expected NUMERIC amounts on postgres, got %s", pg.amountType())
	}

	if dsn := sqlite.dsn("presale.db"); !strings.HasPrefix(dsn, "presale.db?") || !strings.Contains(dsn, "_txlock=immediate") {
		t.Errorf("Expected sqlite dsn with immediate txlock, got %s", dsn)
	}

	pgDsn := "postgres://presale@localhost/presale?sslmode=disable"
	if pg.dsn(pgDsn) != pgDsn {
		t.Errorf("Expected postgres dsn unchanged, got %s", pg.dsn(pgDsn))
	}
}
