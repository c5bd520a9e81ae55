package di

import (
	"context"
	"path/filepath"
	"testing"

	"SegPull/pkg/cache"
	"SegPull/pkg/config"
	applogger "SegPull/pkg/logger"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.Cache.Backend = cache.BackendSQLite
	cfg.Cache.SQLite.Path = filepath.Join(t.TempDir(), "cache", "segpull.db")
	return cfg
}

func TestProvideCacheStoreCleanupCloses(t *testing.T) {
	store, cleanup, err := ProvideCacheStore(sqliteConfig(t), applogger.Nop())
	if err != nil {
		t.Fatalf("provide cache store: %v", err)
	}
	ctx := context.Background()
	if err := store.Put(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	cleanup()
	if err := store.Put(ctx, "k", []byte(`{"a":2}`)); err == nil {
		t.Fatal("expected put on a released store to fail")
	}
}

func TestProvideCacheStoreDisabled(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Cache.Enabled = false
	store, cleanup, err := ProvideCacheStore(cfg, applogger.Nop())
	if err != nil {
		t.Fatalf("provide cache store: %v", err)
	}
	cleanup()
	if _, ok := store.(cache.Nop); !ok {
		t.Fatalf("expected Nop store, got %T", store)
	}
}

func TestInitializeAppFailsOnBadSink(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Export.Sinks = []string{"s3"}
	app, cleanup, err := InitializeApp(cfg)
	if err == nil {
		t.Fatal("expected error for unknown sink")
	}
	if app != nil || cleanup != nil {
		t.Fatal("expected no app and no cleanup on failure")
	}
}

func TestInitializeAppCleanup(t *testing.T) {
	cfg := sqliteConfig(t)
	app, cleanup, err := InitializeApp(cfg)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if app.Client() == nil || app.Exporter() == nil {
		t.Fatal("expected wired client and exporter")
	}
	if err := app.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	cleanup()
}
