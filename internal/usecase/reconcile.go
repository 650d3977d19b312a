package usecase

import (
	"strings"

	"github.com/yuzuhara/fieldwise"
)

// Reconcile merges a partial field edit with the field's existing
// authoritative state into a complete write payload. existing is nil
// when creating.
//
// Merge rules, in order: the name always comes from the incoming config;
// type, ui_type and is_primary come from the existing record when
// editing; the description falls back from incoming to existing to
// empty; the property bag starts from the existing one with incoming
// keys shallow-merged over it. For select fields an absent or empty
// incoming option list keeps the existing options — the vendor reads an
// empty option list as "delete all options", which is never what a
// rename means. A non-empty incoming list replaces the set wholesale.
func Reconcile(existing *fieldwise.FieldRecord, incoming fieldwise.FieldConfig) fieldwise.FieldConfig {
	out := fieldwise.FieldConfig{
		FieldName: strings.TrimSpace(incoming.FieldName),
	}

	if existing != nil {
		out.Type = existing.Type
		out.UIType = existing.UIType
		out.IsPrimary = existing.IsPrimary
	} else {
		out.Type = incoming.Type
		out.UIType = incoming.UIType
		if out.UIType == "" {
			out.UIType = fieldwise.UITypeFor(out.Type)
		}
		out.IsPrimary = incoming.IsPrimary
	}

	if incoming.Description != nil {
		out.Description = incoming.Description
	} else {
		desc := ""
		if existing != nil {
			desc = existing.Description
		}
		out.Description = &desc
	}

	var prop *fieldwise.FieldProperty
	if existing != nil {
		prop = existing.Property.Clone()
	}
	if incoming.Property != nil {
		if prop == nil {
			prop = &fieldwise.FieldProperty{}
		}
		for k, v := range incoming.Property.Extra {
			if prop.Extra == nil {
				prop.Extra = make(map[string]any, len(incoming.Property.Extra))
			}
			prop.Extra[k] = v
		}
		if len(incoming.Property.Options) > 0 {
			prop.Options = cloneOptions(incoming.Property.Options)
		}
	}

	if fieldwise.IsSelectType(out.Type) {
		if prop == nil {
			prop = &fieldwise.FieldProperty{}
		}
		if prop.Options == nil {
			prop.Options = []fieldwise.FieldOption{}
		}
	} else if prop != nil {
		// Options never attach to non-select fields.
		prop.Options = nil
		if len(prop.Extra) == 0 {
			prop = nil
		}
	}

	out.Property = prop
	return out
}

func cloneOptions(options []fieldwise.FieldOption) []fieldwise.FieldOption {
	out := make([]fieldwise.FieldOption, len(options))
	copy(out, options)
	return out
}

// recordToConfig turns an authoritative record into a full write
// payload, used when re-applying a prior state during rollback.
func recordToConfig(record fieldwise.FieldRecord) fieldwise.FieldConfig {
	desc := record.Description
	return fieldwise.FieldConfig{
		FieldName:   record.FieldName,
		Type:        record.Type,
		UIType:      record.UIType,
		Description: &desc,
		IsPrimary:   record.IsPrimary,
		Property:    record.Property.Clone(),
	}
}
