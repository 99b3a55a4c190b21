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
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return db
}

func TestRun_AppliesAllMigrations(t *testing.T) {
	db := openTestDB(t)

	if err := Run(db); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, table := range []string{
		"weather_records",
		"weather_records_silver",
		"weather_daily_gold",
		"weather_reporting_mart",
		"weather_analytics",
		"transformation_runs",
	} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	// Columns added by the additive migration must exist on bronze.
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('weather_records') WHERE name IN ('pressure','visibility')`).Scan(&n)
	if err != nil {
		t.Fatalf("pragma_table_info: %v", err)
	}
	if n != 2 {
		t.Errorf("bronze additive columns: got %d, want 2", n)
	}
}

func TestRun_IsIdempotent(t *testing.T) {
	db := openTestDB(t)

	if err := Run(db); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	var before int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&before); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if before == 0 {
		t.Fatal("no migrations recorded")
	}

	// Second run must not re-apply anything.
	if err := Run(db); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	var after int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&after); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if after != before {
		t.Errorf("migration count changed on re-run: got %d, want %d", after, before)
	}
}

func TestApply_AtomicOnFailure(t *testing.T) {
	db := openTestDB(t)

	if err := ensureMigrationsTable(db); err != nil {
		t.Fatalf("ensure migrations table: %v", err)
	}

	// Second statement fails; the first must not survive, and the version
	// must not be recorded, so a re-run can apply the fixed migration.
	bad := migration{
		version: "9999",
		name:    "broken",
		body:    "CREATE TABLE broken_stage_one (id INTEGER);\nCREATE TABLE broken_stage_one (id INTEGER);",
	}
	if err := apply(db, bad); err == nil {
		t.Fatal("expected apply to fail")
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='broken_stage_one'`).Scan(&n); err != nil {
		t.Fatalf("sqlite_master: %v", err)
	}
	if n != 0 {
		t.Error("partial migration left its first statement applied")
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version='9999'`).Scan(&n); err != nil {
		t.Fatalf("schema_migrations: %v", err)
	}
	if n != 0 {
		t.Error("failed migration was recorded as applied")
	}
}

func TestParseMigrationFilename(t *testing.T) {
	cases := []struct {
		in          string
		wantVersion string
		wantName    string
		wantOK      bool
	}{
		{"0001_bronze.sql", "0001", "bronze", true},
		{"0003_pressure_visibility.sql", "0003", "pressure_visibility", true},
		{"readme.md", "", "", false},
		{"01_short.sql", "", "", false},
	}
	for _, tc := range cases {
		version, name, ok := parseMigrationFilename(tc.in)
		if version != tc.wantVersion || name != tc.wantName || ok != tc.wantOK {
			t.Errorf("parseMigrationFilename(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.in, version, name, ok, tc.wantVersion, tc.wantName, tc.wantOK)
		}
	}
}
