package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Scarage1/API-Watch/internal/core/domain"
)

func testRecord(id string, success bool, age time.Duration) Record {
	rec := Record{
		ID:         id,
		Method:     "GET",
		URL:        "https://api.example.com/orders",
		Success:    success,
		StatusCode: 200,
		Attempts:   1,
		ElapsedMS:  42,
		SizeBytes:  128,
		CreatedAt:  time.Now().UTC().Truncate(time.Second).Add(-age),
	}
	rec.Source = SourceCLI
	if !success {
		rec.StatusCode = 503
		rec.Category = "server"
		rec.Severity = "high"
		rec.Issue = "server error (503)"
	}
	return rec
}

func openSQLite(t *testing.T) Store {
	t.Helper()
	store, err := OpenSQLite(context.Background(), Config{
		Path: filepath.Join(t.TempDir(), "history.db"),
	})
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// runStoreTests exercises the Store contract against an implementation.
func runStoreTests(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("SaveAndGet", func(t *testing.T) {
		store := open(t)

		want := testRecord("r-1", false, 0)
		if err := store.Save(ctx, want); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := store.Get(ctx, "r-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.ID != want.ID || got.Method != want.Method || got.URL != want.URL {
			t.Errorf("identity mismatch: got %+v", got)
		}
		if got.StatusCode != 503 || got.Category != "server" || got.Severity != "high" {
			t.Errorf("failure fields mismatch: got %+v", got)
		}
		if got.ElapsedMS != 42 || got.SizeBytes != 128 {
			t.Errorf("metrics fields mismatch: got %+v", got)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("expected created_at %s, got %s", want.CreatedAt, got.CreatedAt)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		store := open(t)

		_, err := store.Get(ctx, "nope")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("RecentOrderAndLimit", func(t *testing.T) {
		store := open(t)

		recs := []Record{
			testRecord("r-old", true, 3*time.Hour),
			testRecord("r-mid", false, 2*time.Hour),
			testRecord("r-new", true, time.Hour),
		}
		if err := store.SaveBatch(ctx, recs); err != nil {
			t.Fatalf("SaveBatch failed: %v", err)
		}

		got, err := store.Recent(ctx, 2, false)
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 records, got %d", len(got))
		}
		if got[0].ID != "r-new" || got[1].ID != "r-mid" {
			t.Errorf("expected newest first, got %s then %s", got[0].ID, got[1].ID)
		}
	})

	t.Run("RecentOnlyFailed", func(t *testing.T) {
		store := open(t)

		_ = store.Save(ctx, testRecord("ok-1", true, time.Hour))
		_ = store.Save(ctx, testRecord("bad-1", false, 2*time.Hour))
		_ = store.Save(ctx, testRecord("bad-2", false, 3*time.Hour))

		got, err := store.Recent(ctx, 10, true)
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 failed records, got %d", len(got))
		}
		for _, rec := range got {
			if rec.Success {
				t.Errorf("expected only failures, got %s", rec.ID)
			}
		}
	})

	t.Run("Prune", func(t *testing.T) {
		store := open(t)

		_ = store.Save(ctx, testRecord("keep", true, time.Hour))
		_ = store.Save(ctx, testRecord("drop-1", true, 48*time.Hour))
		_ = store.Save(ctx, testRecord("drop-2", false, 72*time.Hour))

		n, err := store.Prune(ctx, time.Now().Add(-24*time.Hour))
		if err != nil {
			t.Fatalf("Prune failed: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 pruned, got %d", n)
		}

		if _, err := store.Get(ctx, "keep"); err != nil {
			t.Errorf("expected keep to survive: %v", err)
		}
		if _, err := store.Get(ctx, "drop-1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected drop-1 gone, got %v", err)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		store := open(t)

		empty, err := store.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats failed: %v", err)
		}
		if empty.Total != 0 || empty.Oldest != nil {
			t.Errorf("expected empty stats, got %+v", empty)
		}

		oldest := testRecord("s-old", false, 3*time.Hour)
		newest := testRecord("s-new", true, time.Hour)
		_ = store.Save(ctx, oldest)
		_ = store.Save(ctx, newest)

		stats, err := store.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats failed: %v", err)
		}
		if stats.Total != 2 || stats.Failed != 1 {
			t.Errorf("expected total=2 failed=1, got %+v", stats)
		}
		if stats.Oldest == nil || !stats.Oldest.Equal(oldest.CreatedAt) {
			t.Errorf("expected oldest %s, got %v", oldest.CreatedAt, stats.Oldest)
		}
		if stats.Newest == nil || !stats.Newest.Equal(newest.CreatedAt) {
			t.Errorf("expected newest %s, got %v", newest.CreatedAt, stats.Newest)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, openSQLite)
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := OpenSQLite(ctx, Config{Path: path})
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	if err := store.Save(ctx, testRecord("persisted", true, 0)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenSQLite(ctx, Config{Path: path})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.Get(ctx, "persisted"); err != nil {
		t.Errorf("expected record to survive reopen: %v", err)
	}
}

func TestFromResult(t *testing.T) {
	res := domain.Result{
		ID:         "res-1",
		Method:     "POST",
		URL:        "https://api.example.com/orders",
		Success:    false,
		StatusCode: 429,
		Attempts:   4,
		Elapsed:    1500 * time.Millisecond,
		Size:       64,
		Error:      "too many requests",
		Diagnosis: &domain.Diagnosis{
			Issue:    "rate limited (429)",
			Category: domain.CategoryRateLimit,
			Severity: domain.SeverityMedium,
		},
		StartedAt: time.Now(),
	}

	rec := FromResult(res)
	if rec.ID != "res-1" || rec.Method != "POST" {
		t.Errorf("identity mismatch: %+v", rec)
	}
	if rec.ElapsedMS != 1500 {
		t.Errorf("expected 1500ms, got %d", rec.ElapsedMS)
	}
	if rec.Category != "rate_limit" || rec.Severity != "medium" || rec.Issue != "rate limited (429)" {
		t.Errorf("diagnosis mismatch: %+v", rec)
	}
	if rec.Source != SourceCLI {
		t.Errorf("expected default source cli, got %q", rec.Source)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestPrunerPruneOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Save(ctx, testRecord("fresh", true, time.Minute))
	_ = store.Save(ctx, testRecord("stale", true, 2*time.Hour))

	pruner := NewPruner(store, time.Hour)
	n, err := pruner.PruneOnce(ctx)
	if err != nil {
		t.Fatalf("PruneOnce failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned, got %d", n)
	}
	if _, err := store.Get(ctx, "fresh"); err != nil {
		t.Errorf("expected fresh to survive: %v", err)
	}
}
