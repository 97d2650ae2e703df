package migrations

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateUp(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 2; i++ {
		if err := MigrateUp(db); err != nil {
			t.Fatalf("MigrateUp() run %d error = %v", i+1, err)
		}
	}

	for _, table := range []string{"entries", "schema_migrations"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s was not created: %v", table, err)
		}
	}
}

func TestInspect(t *testing.T) {
	db := openTestDB(t)

	st, err := Inspect(db)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if st.Current != 0 || st.Latest < 1 || st.Dirty {
		t.Errorf("Inspect() fresh = %+v", st)
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	st, err = Inspect(db)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if st.Current != st.Latest {
		t.Errorf("Inspect() migrated = %+v, want current == latest", st)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, db *sql.DB)
		wantErr error
	}{
		{
			name:    "fresh database has no schema",
			prepare: func(*testing.T, *sql.DB) {},
			wantErr: ErrNoSchema,
		},
		{
			name: "migrated database is current",
			prepare: func(t *testing.T, db *sql.DB) {
				if err := MigrateUp(db); err != nil {
					t.Fatalf("MigrateUp() error = %v", err)
				}
			},
		},
		{
			name: "newer schema is ahead",
			prepare: func(t *testing.T, db *sql.DB) {
				if err := MigrateUp(db); err != nil {
					t.Fatalf("MigrateUp() error = %v", err)
				}
				if _, err := db.Exec("UPDATE schema_migrations SET version = 99"); err != nil {
					t.Fatalf("bumping version: %v", err)
				}
			},
			wantErr: ErrAhead,
		},
		{
			name: "interrupted migration is dirty",
			prepare: func(t *testing.T, db *sql.DB) {
				if err := MigrateUp(db); err != nil {
					t.Fatalf("MigrateUp() error = %v", err)
				}
				if _, err := db.Exec("UPDATE schema_migrations SET dirty = 1"); err != nil {
					t.Fatalf("marking dirty: %v", err)
				}
			},
			wantErr: ErrDirty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTestDB(t)
			tt.prepare(t, db)

			err := Check(db)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Check() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Check() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
