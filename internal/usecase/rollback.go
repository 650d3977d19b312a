package usecase

import (
	"context"

	"github.com/yuzuhara/fieldwise"
	"github.com/yuzuhara/fieldwise/internal/domain"
)

// rollbackEntriesRollbackable controls whether a rollback entry may
// itself be rolled back. The current behavior allows unlimited
// rollback-of-rollback chains; the rule is kept in this one place so it
// can be tightened without touching the engine.
const rollbackEntriesRollbackable = true

// RollbackUsecase reverses a previously recorded field operation: it
// applies the inverse vendor call, then appends a ROLLBACK entry to the
// ledger. The entry is appended only after the vendor call succeeded, so
// the ledger never claims a reversal that did not take effect.
type RollbackUsecase struct {
	repo    HistoryRepository
	gateway VendorGateway
}

func NewRollbackUsecase(repo HistoryRepository, gateway VendorGateway) *RollbackUsecase {
	return &RollbackUsecase{
		repo:    repo,
		gateway: gateway,
	}
}

// RollbackInput identifies the entry to reverse and the table the
// inverse vendor call targets.
type RollbackInput struct {
	Credentials VendorCredentials
	HistoryID   string
}

func (uc *RollbackUsecase) Rollback(ctx context.Context, input RollbackInput) (fieldwise.HistoryEntry, error) {
	target, err := uc.repo.FindByID(ctx, input.HistoryID)
	if err != nil {
		return fieldwise.HistoryEntry{}, err
	}

	if !target.CanRollback {
		return fieldwise.HistoryEntry{}, domain.NotRollbackableError{HistoryID: target.ID}
	}

	if err := uc.apply(ctx, input.Credentials, target); err != nil {
		return fieldwise.HistoryEntry{}, err
	}

	originalID := target.ID
	entry := fieldwise.HistoryEntry{
		UserID:            target.UserID,
		Operation:         fieldwise.OperationRollback,
		FieldID:           target.FieldID,
		FieldName:         target.FieldName,
		BeforeState:       target.AfterState,
		AfterState:        target.BeforeState,
		CanRollback:       rollbackEntriesRollbackable,
		OriginalHistoryID: &originalID,
	}

	return uc.repo.Append(ctx, entry)
}

// apply executes the inverse of the target entry vendor-side.
func (uc *RollbackUsecase) apply(ctx context.Context, creds VendorCredentials, target fieldwise.HistoryEntry) error {
	switch {
	case target.BeforeState == nil && target.AfterState != nil:
		// The entry created the field; reversing removes it.
		return uc.gateway.DeleteField(ctx, creds, target.FieldID)

	case target.BeforeState != nil && target.AfterState == nil:
		// The entry deleted the field; reversing recreates it. The
		// vendor assigns the recreated field a new id.
		_, err := uc.gateway.CreateField(ctx, creds, recordToConfig(*target.BeforeState))
		return err

	case target.BeforeState != nil && target.AfterState != nil:
		_, err := uc.gateway.UpdateField(ctx, creds, target.FieldID, recordToConfig(*target.BeforeState))
		return err

	default:
		// Nothing to re-apply.
		return nil
	}
}
