package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/yuzuhara/fieldwise"
	"github.com/yuzuhara/fieldwise/internal/domain"
	"github.com/yuzuhara/fieldwise/internal/infrastructure/database/models"
)

// PostgresHistory persists the ledger in postgres. Field states are
// stored as jsonb so entries survive schema drift in the vendor payload.
type PostgresHistory struct {
	db     *gorm.DB
	mutex  sync.Mutex
	lastTS int64
}

func NewPostgresHistory(db *gorm.DB) *PostgresHistory {
	return &PostgresHistory{db: db}
}

func toModel(entry fieldwise.HistoryEntry) (models.HistoryRecord, error) {
	record := models.HistoryRecord{
		ID:                entry.ID,
		UserID:            entry.UserID,
		Operation:         string(entry.Operation),
		FieldID:           entry.FieldID,
		FieldName:         entry.FieldName,
		CanRollback:       entry.CanRollback,
		Timestamp:         entry.Timestamp,
		OriginalHistoryID: entry.OriginalHistoryID,
	}

	if entry.BeforeState != nil {
		data, err := json.Marshal(entry.BeforeState)
		if err != nil {
			return models.HistoryRecord{}, errors.Wrap(err, "failed to marshal before state")
		}
		record.BeforeState = data
	}
	if entry.AfterState != nil {
		data, err := json.Marshal(entry.AfterState)
		if err != nil {
			return models.HistoryRecord{}, errors.Wrap(err, "failed to marshal after state")
		}
		record.AfterState = data
	}

	return record, nil
}

func fromModel(record models.HistoryRecord) (fieldwise.HistoryEntry, error) {
	entry := fieldwise.HistoryEntry{
		ID:                record.ID,
		UserID:            record.UserID,
		Operation:         fieldwise.Operation(record.Operation),
		FieldID:           record.FieldID,
		FieldName:         record.FieldName,
		CanRollback:       record.CanRollback,
		Timestamp:         record.Timestamp,
		OriginalHistoryID: record.OriginalHistoryID,
	}

	if len(record.BeforeState) > 0 {
		var state fieldwise.FieldRecord
		if err := json.Unmarshal(record.BeforeState, &state); err != nil {
			return fieldwise.HistoryEntry{}, errors.Wrap(err, "failed to unmarshal before state")
		}
		entry.BeforeState = &state
	}
	if len(record.AfterState) > 0 {
		var state fieldwise.FieldRecord
		if err := json.Unmarshal(record.AfterState, &state); err != nil {
			return fieldwise.HistoryEntry{}, errors.Wrap(err, "failed to unmarshal after state")
		}
		entry.AfterState = &state
	}

	return entry, nil
}

func (r *PostgresHistory) Append(ctx context.Context, entry fieldwise.HistoryEntry) (fieldwise.HistoryEntry, error) {
	id, err := entryID(entry.Operation)
	if err != nil {
		return fieldwise.HistoryEntry{}, err
	}
	entry.ID = id

	r.mutex.Lock()
	ts := time.Now().UnixMilli()
	if ts <= r.lastTS {
		ts = r.lastTS + 1
	}
	r.lastTS = ts
	r.mutex.Unlock()
	entry.Timestamp = ts

	record, err := toModel(entry)
	if err != nil {
		return fieldwise.HistoryEntry{}, err
	}

	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fieldwise.HistoryEntry{}, errors.Wrap(err, "failed to append history entry")
	}

	return entry, nil
}

func (r *PostgresHistory) List(ctx context.Context, userID string) ([]fieldwise.HistoryEntry, error) {
	var records []models.HistoryRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp desc").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list history entries")
	}

	entries := make([]fieldwise.HistoryEntry, 0, len(records))
	for _, record := range records {
		entry, err := fromModel(record)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *PostgresHistory) FindByID(ctx context.Context, historyID string) (fieldwise.HistoryEntry, error) {
	var record models.HistoryRecord
	err := r.db.WithContext(ctx).Where("id = ?", historyID).Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fieldwise.HistoryEntry{}, domain.NotFoundError{Resource: "history entry"}
		}
		return fieldwise.HistoryEntry{}, errors.Wrap(err, "failed to find history entry")
	}

	return fromModel(record)
}
