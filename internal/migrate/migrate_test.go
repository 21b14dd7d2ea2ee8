package migrate

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Fatalf("close db: %v", closeErr)
		}
	})
	return db
}

func readingsColumns(t *testing.T, db *sql.DB) map[string]bool {
	t.Helper()
	rows, err := db.Query("SELECT name FROM pragma_table_info('readings')")
	if err != nil {
		t.Fatalf("table_info: %v", err)
	}
	defer rows.Close()
	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan: %v", err)
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	return cols
}

func TestRun_CreatesFullSchema(t *testing.T) {
	db := openTestDB(t)

	if err := Run(db); err != nil {
		t.Fatalf("Run: %v", err)
	}

	cols := readingsColumns(t, db)
	for _, want := range []string{
		"id", "timestamp", "device_id", "cpm", "acpm", "usv",
		"dose", "raw_data", "client_ip",
	} {
		if !cols[want] {
			t.Errorf("column %q missing after migration", want)
		}
	}
}

func TestRun_IsIdempotent(t *testing.T) {
	db := openTestDB(t)

	if err := Run(db); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := Run(db); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 2 {
		t.Errorf("applied migrations = %d, want 2", n)
	}
}

func TestRun_AppliesAdditiveColumnsToExistingTable(t *testing.T) {
	db := openTestDB(t)

	// A database from before the audit-fields migration: base table present
	// and recorded, rows already written.
	base, err := sqlFS.ReadFile("sql/0001_readings.sql")
	if err != nil {
		t.Fatalf("read base migration: %v", err)
	}
	if _, err := db.Exec(string(base)); err != nil {
		t.Fatalf("exec base schema: %v", err)
	}
	if err := ensureMigrationsTable(db); err != nil {
		t.Fatalf("ensure migrations table: %v", err)
	}
	if _, err := db.Exec(
		"INSERT INTO schema_migrations (version, name) VALUES ('0001', 'readings')",
	); err != nil {
		t.Fatalf("record base migration: %v", err)
	}
	if _, err := db.Exec(
		"INSERT INTO readings (timestamp, device_id, cpm, acpm, usv) VALUES ('2026-02-01 10:00:00', 'geiger-1', '18', '17', '0.11')",
	); err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	if err := Run(db); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Pre-existing row picks up the backward-compatible defaults.
	var dose, rawData, clientIP string
	err = db.QueryRow("SELECT dose, raw_data, client_ip FROM readings").Scan(&dose, &rawData, &clientIP)
	if err != nil {
		t.Fatalf("read legacy row: %v", err)
	}
	if dose != "0" || rawData != "{}" || clientIP != "UNKNOWN" {
		t.Errorf("legacy row defaults = (%q, %q, %q), want (\"0\", \"{}\", \"UNKNOWN\")",
			dose, rawData, clientIP)
	}
}

func TestRun_RecoversFromHalfAppliedMigration(t *testing.T) {
	db := openTestDB(t)

	if err := Run(db); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	// Simulate a crash between applying 0002 and recording it.
	if _, err := db.Exec("DELETE FROM schema_migrations WHERE version = '0002'"); err != nil {
		t.Fatalf("unrecord 0002: %v", err)
	}

	// Columns already exist; the guarded ALTERs must not fail.
	if err := Run(db); err != nil {
		t.Fatalf("re-Run after partial apply: %v", err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		in          string
		wantVersion string
		wantName    string
		wantOK      bool
	}{
		{"0001_readings.sql", "0001", "readings", true},
		{"0002_reading_audit_fields.sql", "0002", "reading_audit_fields", true},
		{"readme.md", "", "", false},
		{"01_short.sql", "", "", false},
	}
	for _, tt := range tests {
		version, name, ok := parseMigrationFilename(tt.in)
		if version != tt.wantVersion || name != tt.wantName || ok != tt.wantOK {
			t.Errorf("parseMigrationFilename(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.in, version, name, ok, tt.wantVersion, tt.wantName, tt.wantOK)
		}
	}
}
