package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/yuzuhara/fieldwise"
	"github.com/yuzuhara/fieldwise/internal/domain"
)

func seededRepo(entries ...fieldwise.HistoryEntry) *mockHistoryRepo {
	repo := &mockHistoryRepo{}
	for _, entry := range entries {
		repo.Append(context.Background(), entry)
	}
	return repo
}

func TestRollbackInvertsUpdate(t *testing.T) {
	before := &fieldwise.FieldRecord{FieldID: "fld1", FieldName: "Status", Type: fieldwise.TypeSingleSelect,
		Property: &fieldwise.FieldProperty{Options: []fieldwise.FieldOption{{Name: "Open", Color: 4}}}}
	after := &fieldwise.FieldRecord{FieldID: "fld1", FieldName: "Status2", Type: fieldwise.TypeSingleSelect,
		Property: &fieldwise.FieldProperty{Options: []fieldwise.FieldOption{{Name: "Open", Color: 4}}}}

	repo := seededRepo(fieldwise.HistoryEntry{
		UserID:      "u1",
		Operation:   fieldwise.OperationUpdate,
		FieldID:     "fld1",
		FieldName:   "Status2",
		BeforeState: before,
		AfterState:  after,
		CanRollback: true,
	})
	gateway := &mockVendorGateway{}
	uc := NewRollbackUsecase(repo, gateway)

	entry, err := uc.Rollback(context.Background(), RollbackInput{Credentials: testCreds, HistoryID: "hst_1"})
	if err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	if entry.Operation != fieldwise.OperationRollback {
		t.Fatalf("expected ROLLBACK entry, got %s", entry.Operation)
	}
	if entry.BeforeState != after || entry.AfterState != before {
		t.Fatalf("expected before/after to be swapped, got %+v", entry)
	}
	if entry.OriginalHistoryID == nil || *entry.OriginalHistoryID != "hst_1" {
		t.Fatalf("expected reference to the reversed entry, got %v", entry.OriginalHistoryID)
	}
	if !entry.CanRollback {
		t.Fatalf("rollback entries stay rollback-eligible under current behavior")
	}

	if gateway.updatedID != "fld1" || gateway.updatedConfig == nil {
		t.Fatalf("expected the prior state to be re-applied vendor-side")
	}
	if gateway.updatedConfig.FieldName != "Status" {
		t.Fatalf("expected the old name in the re-applied payload, got %s", gateway.updatedConfig.FieldName)
	}

	if len(repo.entries) != 2 {
		t.Fatalf("expected the rollback to be appended, got %d entries", len(repo.entries))
	}
}

func TestRollbackOfCreateDeletesField(t *testing.T) {
	after := &fieldwise.FieldRecord{FieldID: "fld1", FieldName: "Status", Type: fieldwise.TypeText}
	repo := seededRepo(fieldwise.HistoryEntry{
		UserID:      "u1",
		Operation:   fieldwise.OperationCreate,
		FieldID:     "fld1",
		FieldName:   "Status",
		AfterState:  after,
		CanRollback: true,
	})
	gateway := &mockVendorGateway{}
	uc := NewRollbackUsecase(repo, gateway)

	entry, err := uc.Rollback(context.Background(), RollbackInput{Credentials: testCreds, HistoryID: "hst_1"})
	if err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	if gateway.deletedID != "fld1" {
		t.Fatalf("reversing a create must delete the field, got %q", gateway.deletedID)
	}
	if entry.AfterState != nil || entry.BeforeState == nil {
		t.Fatalf("expected the inverse transition, got %+v", entry)
	}
}

func TestRollbackOfDeleteRecreatesField(t *testing.T) {
	before := &fieldwise.FieldRecord{
		FieldID:   "fld1",
		FieldName: "Status",
		Type:      fieldwise.TypeSingleSelect,
		UIType:    "SingleSelect",
		Property:  &fieldwise.FieldProperty{Options: []fieldwise.FieldOption{{Name: "Open", Color: 4}}},
	}
	repo := seededRepo(fieldwise.HistoryEntry{
		UserID:      "u1",
		Operation:   fieldwise.OperationDelete,
		FieldID:     "fld1",
		FieldName:   "Status",
		BeforeState: before,
		CanRollback: true,
	})
	gateway := &mockVendorGateway{}
	uc := NewRollbackUsecase(repo, gateway)

	if _, err := uc.Rollback(context.Background(), RollbackInput{Credentials: testCreds, HistoryID: "hst_1"}); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	if gateway.createdConfig == nil {
		t.Fatalf("reversing a delete must recreate the field")
	}
	if gateway.createdConfig.FieldName != "Status" || len(gateway.createdConfig.Property.Options) != 1 {
		t.Fatalf("expected the deleted field's shape, got %+v", gateway.createdConfig)
	}
}

func TestRollbackNotFound(t *testing.T) {
	uc := NewRollbackUsecase(&mockHistoryRepo{}, &mockVendorGateway{})

	_, err := uc.Rollback(context.Background(), RollbackInput{Credentials: testCreds, HistoryID: "missing"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestRollbackRefusesIneligibleEntry(t *testing.T) {
	repo := seededRepo(fieldwise.HistoryEntry{
		UserID:      "u1",
		Operation:   fieldwise.OperationUpdate,
		FieldID:     "fld1",
		CanRollback: false,
	})
	gateway := &mockVendorGateway{}
	uc := NewRollbackUsecase(repo, gateway)

	_, err := uc.Rollback(context.Background(), RollbackInput{Credentials: testCreds, HistoryID: "hst_1"})
	if !errors.Is(err, domain.ErrNotRollbackable) {
		t.Fatalf("expected not-rollbackable, got %v", err)
	}

	if gateway.updatedConfig != nil || gateway.deletedID != "" || gateway.createdConfig != nil {
		t.Fatalf("no vendor call may happen for an ineligible entry")
	}
	if len(repo.entries) != 1 {
		t.Fatalf("nothing may be appended, got %d entries", len(repo.entries))
	}
}

func TestRollbackVendorFailureAppendsNothing(t *testing.T) {
	before := &fieldwise.FieldRecord{FieldID: "fld1", FieldName: "Status", Type: fieldwise.TypeText}
	after := &fieldwise.FieldRecord{FieldID: "fld1", FieldName: "Status2", Type: fieldwise.TypeText}
	repo := seededRepo(fieldwise.HistoryEntry{
		UserID:      "u1",
		Operation:   fieldwise.OperationUpdate,
		FieldID:     "fld1",
		BeforeState: before,
		AfterState:  after,
		CanRollback: true,
	})
	gateway := &mockVendorGateway{writeErr: domain.UpstreamError{Code: 500, Msg: "internal"}}
	uc := NewRollbackUsecase(repo, gateway)

	_, err := uc.Rollback(context.Background(), RollbackInput{Credentials: testCreds, HistoryID: "hst_1"})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("the ledger must not record a reversal that did not take effect")
	}
}

func TestHistoryScenarioCreateUpdateRollback(t *testing.T) {
	gateway := &mockVendorGateway{}
	repo := &mockHistoryRepo{}
	fields := NewFieldUsecase(gateway, repo)
	rollback := NewRollbackUsecase(repo, gateway)

	created, err := fields.Create(context.Background(), WriteInput{
		Credentials: testCreds,
		UserID:      "u1",
		Config: fieldwise.FieldConfig{
			FieldName: "Status",
			Type:      fieldwise.TypeSingleSelect,
			Property:  &fieldwise.FieldProperty{Options: []fieldwise.FieldOption{{Name: "Open", Color: 4}}},
		},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	gateway.field = created.Record
	updated, err := fields.Update(context.Background(), WriteInput{
		Credentials: testCreds,
		UserID:      "u1",
		FieldID:     created.Record.FieldID,
		Config:      fieldwise.FieldConfig{FieldName: "Status2"},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(updated.Record.Property.Options) != 1 {
		t.Fatalf("rename must carry the existing options, got %+v", updated.Record.Property)
	}

	if len(repo.entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(repo.entries))
	}

	entry, err := rollback.Rollback(context.Background(), RollbackInput{
		Credentials: testCreds,
		HistoryID:   updated.Entry.ID,
	})
	if err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	if len(repo.entries) != 3 {
		t.Fatalf("expected 3 ledger entries, got %d", len(repo.entries))
	}
	if entry.AfterState.FieldName != created.Record.FieldName {
		t.Fatalf("the rollback's after state must equal the create's after state, got %+v", entry.AfterState)
	}
}
