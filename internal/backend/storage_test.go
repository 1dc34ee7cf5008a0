package backend

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"costlaw/api/internal/config"
	"costlaw/api/internal/store"
)

func TestOpenStorageMemoryPersistsSnapshot(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{
		StorageDriver:     config.DriverMemory,
		CasesSnapshotPath: filepath.Join(t.TempDir(), "cases.json"),
	}

	st, err := OpenStorage(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenStorage() error = %v", err)
	}
	if _, ok := st.(*store.MemoryStore); !ok {
		t.Fatalf("expected a memory store, got %T", st)
	}
	if _, err := st.CreateCase(ctx, store.NewCase{Title: "Smith v Jones", Slug: "smith-v-jones", Category: "Costs"}); err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenStorage(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.GetCaseBySlug(ctx, "smith-v-jones"); err != nil {
		t.Errorf("case not restored from snapshot: %v", err)
	}
}

func TestOpenStorageSQLiteAppliesMigrations(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{
		StorageDriver: config.DriverSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "costlaw.db"),
		MigrationsDir: filepath.Join("..", "..", "db", "migrations"),
	}

	st, err := OpenStorage(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenStorage() error = %v", err)
	}
	defer st.Close()
	if _, ok := st.(*store.SQLStore); !ok {
		t.Fatalf("expected a SQL store, got %T", st)
	}
	cases, err := st.ListCases(ctx)
	if err != nil {
		t.Fatalf("ListCases() error = %v", err)
	}
	if len(cases) != 0 {
		t.Errorf("fresh database has %d cases", len(cases))
	}
}

func TestOpenStorageRejectsUnknownDriver(t *testing.T) {
	_, err := OpenStorage(context.Background(), config.Config{StorageDriver: "mongo"}, zap.NewNop())
	if err == nil {
		t.Fatal("expected an error for an unknown driver")
	}
}
