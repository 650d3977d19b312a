package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/yuzuhara/fieldwise"
	"github.com/yuzuhara/fieldwise/internal/domain"
)

func TestMemoryHistoryConcurrentAppends(t *testing.T) {
	repo := NewMemoryHistory()
	ctx := context.Background()

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Append(ctx, fieldwise.HistoryEntry{
				UserID:    "u1",
				Operation: fieldwise.OperationUpdate,
				FieldID:   "fld1",
			})
			if err != nil {
				t.Errorf("append failed: %v", err)
			}
		}()
	}
	wg.Wait()

	entries, err := repo.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != n {
		t.Fatalf("expected %d entries to survive, got %d", n, len(entries))
	}

	seen := map[string]bool{}
	for i, entry := range entries {
		if seen[entry.ID] {
			t.Fatalf("duplicate entry id %q", entry.ID)
		}
		seen[entry.ID] = true
		if i > 0 && entries[i-1].Timestamp <= entry.Timestamp {
			t.Fatalf("entries must be strictly newest first, got %d then %d",
				entries[i-1].Timestamp, entry.Timestamp)
		}
	}
}

func TestMemoryHistoryIDPrefixes(t *testing.T) {
	repo := NewMemoryHistory()
	ctx := context.Background()

	update, err := repo.Append(ctx, fieldwise.HistoryEntry{UserID: "u1", Operation: fieldwise.OperationUpdate})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if !strings.HasPrefix(update.ID, "hst_") {
		t.Fatalf("expected hst_ prefix, got %q", update.ID)
	}

	rollback, err := repo.Append(ctx, fieldwise.HistoryEntry{UserID: "u1", Operation: fieldwise.OperationRollback})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if !strings.HasPrefix(rollback.ID, "rbk_") {
		t.Fatalf("expected rbk_ prefix, got %q", rollback.ID)
	}
}

func TestMemoryHistoryFindAcrossUsers(t *testing.T) {
	repo := NewMemoryHistory()
	ctx := context.Background()

	appended, err := repo.Append(ctx, fieldwise.HistoryEntry{UserID: "u2", Operation: fieldwise.OperationCreate, FieldID: "fld1"})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	found, err := repo.FindByID(ctx, appended.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found.UserID != "u2" || found.FieldID != "fld1" {
		t.Fatalf("unexpected entry: %+v", found)
	}

	if _, err := repo.FindByID(ctx, "hst_missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestMemoryHistoryUnknownUserEmpty(t *testing.T) {
	repo := NewMemoryHistory()

	entries, err := repo.List(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}
