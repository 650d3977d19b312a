package usecase

import (
	"context"

	"github.com/yuzuhara/fieldwise"
)

// VendorCredentials identifies the table a vendor call targets and the
// bearer token authorizing it.
type VendorCredentials struct {
	Token    string
	AppToken string
	TableID  string
}

// VendorGateway encapsulates the vendor's field read/write API.
type VendorGateway interface {
	GetField(ctx context.Context, creds VendorCredentials, fieldID string) (*fieldwise.FieldRecord, error)
	ListFields(ctx context.Context, creds VendorCredentials) ([]fieldwise.FieldRecord, error)
	CreateField(ctx context.Context, creds VendorCredentials, config fieldwise.FieldConfig) (*fieldwise.FieldRecord, error)
	UpdateField(ctx context.Context, creds VendorCredentials, fieldID string, config fieldwise.FieldConfig) (*fieldwise.FieldRecord, error)
	DeleteField(ctx context.Context, creds VendorCredentials, fieldID string) error
}

// HistoryRepository defines storage for the per-user operation ledger.
// Append assigns the entry id and timestamp; concurrent appends for the
// same user must all survive. List returns entries newest first and an
// empty sequence for unknown users. FindByID returns domain.ErrNotFound
// when no entry matches.
type HistoryRepository interface {
	Append(ctx context.Context, entry fieldwise.HistoryEntry) (fieldwise.HistoryEntry, error)
	List(ctx context.Context, userID string) ([]fieldwise.HistoryEntry, error)
	FindByID(ctx context.Context, historyID string) (fieldwise.HistoryEntry, error)
}
