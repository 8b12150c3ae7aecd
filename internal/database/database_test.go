package database

import (
	"io/fs"
	"testing"
)

func TestMigrateURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"postgres://u:p@localhost:5432/clinic?sslmode=disable", "pgx5://u:p@localhost:5432/clinic?sslmode=disable"},
		{"postgresql://localhost/clinic", "pgx5://localhost/clinic"},
		{"pgx5://localhost/clinic", "pgx5://localhost/clinic"},
	}
	for _, tt := range tests {
		if got := migrateURL(tt.in); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	ups, err := fs.Glob(migrations, "migrations/*.up.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	downs, _ := fs.Glob(migrations, "migrations/*.down.sql")
	if len(ups) == 0 || len(ups) != len(downs) {
		t.Fatalf("expected paired migrations, got %d up / %d down", len(ups), len(downs))
	}
}
