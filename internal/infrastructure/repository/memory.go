package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pkg/errors"

	"github.com/yuzuhara/fieldwise"
	"github.com/yuzuhara/fieldwise/internal/domain"
)

// MemoryHistory is the default ledger backend: a process-local,
// mutex-guarded store keyed by user. It loses its contents on restart,
// which is acceptable for single-instance deployments and tests.
type MemoryHistory struct {
	mutex   sync.Mutex
	byUser  map[string][]fieldwise.HistoryEntry
	lastTS  int64
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{
		byUser: make(map[string][]fieldwise.HistoryEntry),
	}
}

func entryID(op fieldwise.Operation) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", errors.Wrap(err, "failed to generate history id")
	}
	if op == fieldwise.OperationRollback {
		return "rbk_" + id, nil
	}
	return "hst_" + id, nil
}

func (r *MemoryHistory) Append(ctx context.Context, entry fieldwise.HistoryEntry) (fieldwise.HistoryEntry, error) {
	id, err := entryID(entry.Operation)
	if err != nil {
		return fieldwise.HistoryEntry{}, err
	}
	entry.ID = id

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Millisecond clocks collide under concurrent appends; bump past the
	// previous stamp so the per-user order stays strict.
	ts := time.Now().UnixMilli()
	if ts <= r.lastTS {
		ts = r.lastTS + 1
	}
	r.lastTS = ts
	entry.Timestamp = ts

	r.byUser[entry.UserID] = append(r.byUser[entry.UserID], entry)

	return entry, nil
}

func (r *MemoryHistory) List(ctx context.Context, userID string) ([]fieldwise.HistoryEntry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entries := make([]fieldwise.HistoryEntry, len(r.byUser[userID]))
	copy(entries, r.byUser[userID])

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})

	return entries, nil
}

func (r *MemoryHistory) FindByID(ctx context.Context, historyID string) (fieldwise.HistoryEntry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, entries := range r.byUser {
		for _, entry := range entries {
			if entry.ID == historyID {
				return entry, nil
			}
		}
	}

	return fieldwise.HistoryEntry{}, domain.NotFoundError{Resource: "history entry"}
}
