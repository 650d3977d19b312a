package usecase

import (
	"context"

	"github.com/pkg/errors"

	"github.com/yuzuhara/fieldwise"
	"github.com/yuzuhara/fieldwise/internal/domain"
)

// FieldUsecase reconciles caller-submitted field edits against the
// field's current vendor-side state, executes the write, and records the
// transition in the history ledger.
type FieldUsecase struct {
	gateway VendorGateway
	history HistoryRepository
}

func NewFieldUsecase(gateway VendorGateway, history HistoryRepository) *FieldUsecase {
	return &FieldUsecase{
		gateway: gateway,
		history: history,
	}
}

// WriteInput is a caller-facing field write request. UserID keys the
// history ledger; when empty, no history is recorded.
type WriteInput struct {
	Credentials VendorCredentials
	UserID      string
	FieldID     string
	Config      fieldwise.FieldConfig
}

// WriteResult is the outcome of a successful field write. Degraded is
// set when the read-before-write fetch failed and the write proceeded on
// caller-known state only; the caller should warn the user.
type WriteResult struct {
	Record   *fieldwise.FieldRecord  `json:"field"`
	Entry    *fieldwise.HistoryEntry `json:"historyEntry,omitempty"`
	Degraded bool                    `json:"degraded,omitempty"`
}

func (uc *FieldUsecase) List(ctx context.Context, creds VendorCredentials) ([]fieldwise.FieldRecord, error) {
	return uc.gateway.ListFields(ctx, creds)
}

func (uc *FieldUsecase) Get(ctx context.Context, creds VendorCredentials, fieldID string) (*fieldwise.FieldRecord, error) {
	return uc.gateway.GetField(ctx, creds, fieldID)
}

func (uc *FieldUsecase) Create(ctx context.Context, input WriteInput) (*WriteResult, error) {
	config := Reconcile(nil, input.Config)
	if result := fieldwise.ValidateFieldConfig(config); !result.IsValid {
		return nil, domain.ValidationError{Violations: result.Errors}
	}

	created, err := uc.gateway.CreateField(ctx, input.Credentials, config)
	if err != nil {
		return nil, err
	}

	entry, err := uc.record(ctx, fieldwise.HistoryEntry{
		UserID:      input.UserID,
		Operation:   fieldwise.OperationCreate,
		FieldID:     created.FieldID,
		FieldName:   created.FieldName,
		AfterState:  created,
		CanRollback: true,
	})
	if err != nil {
		return nil, err
	}

	return &WriteResult{Record: created, Entry: entry}, nil
}

func (uc *FieldUsecase) Update(ctx context.Context, input WriteInput) (*WriteResult, error) {
	// Fetch the field fresh so the merge never runs against stale
	// state. A failed fetch is non-fatal: the write proceeds on what
	// the caller knows, flagged as degraded.
	existing, err := uc.gateway.GetField(ctx, input.Credentials, input.FieldID)
	degraded := false
	if err != nil {
		degraded = true
		existing = nil
	}

	config := Reconcile(existing, input.Config)
	if result := fieldwise.ValidateFieldConfig(config); !result.IsValid {
		return nil, domain.ValidationError{Violations: result.Errors}
	}

	updated, err := uc.gateway.UpdateField(ctx, input.Credentials, input.FieldID, config)
	if err != nil {
		return nil, err
	}

	fieldName := updated.FieldName
	if fieldName == "" {
		fieldName = config.FieldName
	}

	entry, err := uc.record(ctx, fieldwise.HistoryEntry{
		UserID:      input.UserID,
		Operation:   fieldwise.OperationUpdate,
		FieldID:     input.FieldID,
		FieldName:   fieldName,
		BeforeState: existing,
		AfterState:  updated,
		// Without a before state there is nothing to roll back to.
		CanRollback: existing != nil,
	})
	if err != nil {
		return nil, err
	}

	return &WriteResult{Record: updated, Entry: entry, Degraded: degraded}, nil
}

func (uc *FieldUsecase) Delete(ctx context.Context, input WriteInput) (*WriteResult, error) {
	existing, err := uc.gateway.GetField(ctx, input.Credentials, input.FieldID)
	degraded := false
	if err != nil {
		degraded = true
		existing = nil
	}

	if err := uc.gateway.DeleteField(ctx, input.Credentials, input.FieldID); err != nil {
		return nil, err
	}

	fieldName := ""
	if existing != nil {
		fieldName = existing.FieldName
	}

	entry, err := uc.record(ctx, fieldwise.HistoryEntry{
		UserID:      input.UserID,
		Operation:   fieldwise.OperationDelete,
		FieldID:     input.FieldID,
		FieldName:   fieldName,
		BeforeState: existing,
		CanRollback: existing != nil,
	})
	if err != nil {
		return nil, err
	}

	return &WriteResult{Entry: entry, Degraded: degraded}, nil
}

// record appends a ledger entry for an operation that already took
// effect vendor-side. Recording is skipped when no user is attached.
func (uc *FieldUsecase) record(ctx context.Context, entry fieldwise.HistoryEntry) (*fieldwise.HistoryEntry, error) {
	if entry.UserID == "" {
		return nil, nil
	}
	stored, err := uc.history.Append(ctx, entry)
	if err != nil {
		return nil, errors.Wrap(err, "field write succeeded but history append failed")
	}
	return &stored, nil
}
