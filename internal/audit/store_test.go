package audit

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "audit.db"),
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	err := store.Record(ctx, Invocation{
		Tool:     "abra_list_firms",
		Args:     map[string]any{"search": "acme"},
		OK:       true,
		Duration: 120 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	err = store.Record(ctx, Invocation{
		Tool:   "abra_get_resource",
		OK:     false,
		Detail: "resource not found: /Demo/invoices/X",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 invocations, got %d", len(recent))
	}
	// Newest first.
	if recent[0].Tool != "abra_get_resource" || recent[0].OK {
		t.Errorf("recent[0] = %+v", recent[0])
	}
	if recent[1].Args["search"] != "acme" {
		t.Errorf("args round-trip failed: %+v", recent[1])
	}
	if recent[1].Duration != 120*time.Millisecond {
		t.Errorf("duration = %v", recent[1].Duration)
	}
}

func TestPurge(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	old := Invocation{Tool: "abra_query", OK: true, At: time.Now().Add(-48 * time.Hour)}
	if err := store.Record(ctx, old); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Record(ctx, Invocation{Tool: "abra_query", OK: true}); err != nil {
		t.Fatalf("record: %v", err)
	}

	purged, err := store.Purge(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("expected 1 remaining, got %d", len(recent))
	}
}
