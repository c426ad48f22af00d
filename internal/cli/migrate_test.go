package cli

import (
	"context"
	"reflect"
	"testing"

	"github.com/uptrace/bun/migrate"

	"riddleme-service/internal/config"
	pgmigrations "riddleme-service/internal/infra/postgres/migrations"
)

func TestMigrationNamesFollowSourceFiles(t *testing.T) {
	got := migrationNames(pgmigrations.Migrations.Sorted())
	want := []string{"2024112201_create_game_state"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	mixed := migrate.MigrationSlice{{Name: "20240101"}, {Name: "20240102", Comment: "add_index"}}
	if got := migrationNames(mixed); !reflect.DeepEqual(got, []string{"20240101", "20240102_add_index"}) {
		t.Fatalf("unexpected names %v", got)
	}
}

func TestMigrateRequiresPostgresURL(t *testing.T) {
	if err := runMigrationsWithConfig(context.Background(), config.Config{}); err == nil {
		t.Fatalf("expected error without postgres url")
	}
}
