package models

import (
	"time"

	"gorm.io/datatypes"
)

type HistoryRecord struct {
	ID                string         `json:"id" gorm:"primaryKey;type:text"`
	UserID            string         `json:"userId" gorm:"type:text;index"`
	Operation         string         `json:"operation" gorm:"type:text"`
	FieldID           string         `json:"fieldId" gorm:"type:text"`
	FieldName         string         `json:"fieldName" gorm:"type:text"`
	BeforeState       datatypes.JSON `json:"beforeState" gorm:"type:jsonb"`
	AfterState        datatypes.JSON `json:"afterState" gorm:"type:jsonb"`
	CanRollback       bool           `json:"canRollback"`
	Timestamp         int64          `json:"timestamp" gorm:"index"`
	OriginalHistoryID *string        `json:"originalHistoryId" gorm:"type:text"`
	CDate             time.Time      `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
