package fieldwise

// FieldType is the vendor's integer type code for a field.
type FieldType int

const (
	TypeText         FieldType = 1
	TypeNumber       FieldType = 2
	TypeSingleSelect FieldType = 3
	TypeMultiSelect  FieldType = 4
	TypeDateTime     FieldType = 5
	TypeCheckbox     FieldType = 7
	TypeUser         FieldType = 11
	TypePhone        FieldType = 13
	TypeURL          FieldType = 15
	TypeAttachment   FieldType = 17
	TypeSingleLink   FieldType = 18
	TypeFormula      FieldType = 20
	TypeDuplexLink   FieldType = 21
	TypeLocation     FieldType = 22
	TypeAutoNumber   FieldType = 1005
)

// uiTypes maps a type code to its default presentation hint. Email and
// Barcode are ui_type variants of TypeText and are accepted as-is.
var uiTypes = map[FieldType]string{
	TypeText:         "Text",
	TypeNumber:       "Number",
	TypeSingleSelect: "SingleSelect",
	TypeMultiSelect:  "MultiSelect",
	TypeDateTime:     "DateTime",
	TypeCheckbox:     "Checkbox",
	TypeUser:         "User",
	TypePhone:        "Phone",
	TypeURL:          "Url",
	TypeAttachment:   "Attachment",
	TypeSingleLink:   "SingleLink",
	TypeFormula:      "Formula",
	TypeDuplexLink:   "DuplexLink",
	TypeLocation:     "Location",
	TypeAutoNumber:   "AutoNumber",
}

func IsKnownType(t FieldType) bool {
	_, ok := uiTypes[t]
	return ok
}

func IsSelectType(t FieldType) bool {
	return t == TypeSingleSelect || t == TypeMultiSelect
}

// UITypeFor returns the default ui_type string for a type code.
func UITypeFor(t FieldType) string {
	return uiTypes[t]
}

const (
	MinOptionColor = 0
	MaxOptionColor = 7
)

// FieldOption is one selectable choice of a single/multi-select field.
// Identity within a field's option set is the (trimmed) name; the
// vendor-assigned id is not stable across edits.
type FieldOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color int    `json:"color"`
}

// FieldRecord is the authoritative representation of a remote field.
type FieldRecord struct {
	FieldID     string         `json:"field_id"`
	FieldName   string         `json:"field_name"`
	Type        FieldType      `json:"type"`
	UIType      string         `json:"ui_type,omitempty"`
	Description string         `json:"description,omitempty"`
	IsPrimary   bool           `json:"is_primary,omitempty"`
	Property    *FieldProperty `json:"property,omitempty"`
}

// FieldConfig is a partial, caller-submitted field edit. Pointer fields
// distinguish "absent, keep the existing value" from an explicit value.
type FieldConfig struct {
	FieldName   string         `json:"field_name"`
	Type        FieldType      `json:"type,omitempty"`
	UIType      string         `json:"ui_type,omitempty"`
	Description *string        `json:"description,omitempty"`
	IsPrimary   bool           `json:"is_primary,omitempty"`
	Property    *FieldProperty `json:"property,omitempty"`
}

// Operation classifies a history entry.
type Operation string

const (
	OperationCreate   Operation = "CREATE"
	OperationUpdate   Operation = "UPDATE"
	OperationDelete   Operation = "DELETE"
	OperationRollback Operation = "ROLLBACK"
)

// HistoryEntry is one recorded field operation. Entries are immutable
// once appended to the ledger.
type HistoryEntry struct {
	ID                string       `json:"id"`
	UserID            string       `json:"userId"`
	Operation         Operation    `json:"operation"`
	FieldID           string       `json:"fieldId"`
	FieldName         string       `json:"fieldName"`
	BeforeState       *FieldRecord `json:"beforeState,omitempty"`
	AfterState        *FieldRecord `json:"afterState,omitempty"`
	CanRollback       bool         `json:"canRollback"`
	Timestamp         int64        `json:"timestamp"`
	OriginalHistoryID *string      `json:"originalHistoryId,omitempty"`
}
