package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"slices"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "doublers.db"))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func columns(t *testing.T, db *DB, table string) []string {
	t.Helper()
	rows, err := db.QueryContext(context.Background(), "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		t.Fatalf("table_info(%s) failed: %v", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		cols = append(cols, name)
	}
	return cols
}

func TestNew_Paths(t *testing.T) {
	tests := []struct {
		name string
		rel  string
	}{
		{"Flat", "doublers.db"},
		{"Nested", filepath.Join("data", "cache", "doublers.db")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.rel)
			db, err := New(path)
			if err != nil {
				t.Fatalf("New(%s) failed: %v", tt.rel, err)
			}
			defer db.Close()

			if db.Path() != path {
				t.Errorf("Path() = %s, want %s", db.Path(), path)
			}
		})
	}
}

func TestSchema(t *testing.T) {
	db := newTestDB(t)

	want := map[string][]string{
		"candles":    {"symbol", "date", "open", "high", "low", "close", "volume", "source", "fetched_at"},
		"runs":       {"id", "started_at", "finished_at", "universe_size", "out_file", "uploaded_to", "status", "error"},
		"run_counts": {"run_id", "horizon", "scanned"},
		"picks":      {"run_id", "horizon", "rank", "symbol", "prob_est", "ret", "volatility", "avg_vol", "score", "stop_loss", "target_price", "reason"},
	}

	for table, cols := range want {
		got := columns(t, db, table)
		for _, c := range cols {
			if !slices.Contains(got, c) {
				t.Errorf("%s is missing column %s (have %v)", table, c, got)
			}
		}
	}

	version, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() failed: %v", err)
	}
	if version != 1 {
		t.Errorf("SchemaVersion() = %d, want 1", version)
	}
}

func TestPragmas_EveryConnection(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode query failed: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %s, want wal", mode)
	}

	// Hold several connections open at once so the pool cannot hand back
	// the same one.
	conns := make([]*sql.Conn, 4)
	for i := range conns {
		conn, err := db.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn() #%d failed: %v", i, err)
		}
		defer conn.Close()
		conns[i] = conn
	}

	for i, conn := range conns {
		var timeout, fk int
		if err := conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatalf("busy_timeout on conn #%d failed: %v", i, err)
		}
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("foreign_keys on conn #%d failed: %v", i, err)
		}
		if timeout != 5000 || fk != 1 {
			t.Errorf("conn #%d: busy_timeout=%d foreign_keys=%d, want 5000 and 1", i, timeout, fk)
		}
	}
}

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doublers.db")

	for i := range 2 {
		db, err := New(path)
		if err != nil {
			t.Fatalf("open #%d failed: %v", i+1, err)
		}
		if v, err := db.SchemaVersion(); err != nil || v != 1 {
			t.Errorf("open #%d: SchemaVersion() = %d, %v", i+1, v, err)
		}
		if err := db.Close(); err != nil {
			t.Fatalf("Close() failed: %v", err)
		}
	}
}

func TestVacuum(t *testing.T) {
	db := newTestDB(t)
	if err := db.Vacuum(context.Background()); err != nil {
		t.Errorf("Vacuum() failed: %v", err)
	}
}

func TestClose(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "doublers.db"))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := db.PingContext(context.Background()); err == nil {
		t.Error("Ping after Close should fail")
	}
}
