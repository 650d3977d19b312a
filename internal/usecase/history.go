package usecase

import (
	"context"

	"github.com/yuzuhara/fieldwise"
)

// HistoryUsecase exposes the per-user operation ledger.
type HistoryUsecase struct {
	repo HistoryRepository
}

func NewHistoryUsecase(repo HistoryRepository) *HistoryUsecase {
	return &HistoryUsecase{repo: repo}
}

// Append stores a caller-submitted operation record. The id and
// timestamp are always assigned by the store, whatever the caller sent.
func (uc *HistoryUsecase) Append(ctx context.Context, entry fieldwise.HistoryEntry) (fieldwise.HistoryEntry, error) {
	entry.ID = ""
	entry.Timestamp = 0
	return uc.repo.Append(ctx, entry)
}

// List returns a user's entries, most recent first. Unknown users get an
// empty sequence, never an error.
func (uc *HistoryUsecase) List(ctx context.Context, userID string) ([]fieldwise.HistoryEntry, error) {
	return uc.repo.List(ctx, userID)
}

// Find looks an entry up by id across all users.
func (uc *HistoryUsecase) Find(ctx context.Context, historyID string) (fieldwise.HistoryEntry, error) {
	return uc.repo.FindByID(ctx, historyID)
}
