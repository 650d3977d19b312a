package fieldwise

import (
	"encoding/json"
)

// FieldProperty is the type-dependent configuration bag of a field. The
// only key this system interprets is "options"; every other key is kept
// verbatim in Extra so that a shallow merge never drops vendor-side
// configuration it does not understand.
type FieldProperty struct {
	Options []FieldOption
	Extra   map[string]any
}

func (p *FieldProperty) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if optRaw, ok := raw["options"]; ok {
		if err := json.Unmarshal(optRaw, &p.Options); err != nil {
			return err
		}
		delete(raw, "options")
	}

	if len(raw) > 0 {
		p.Extra = make(map[string]any, len(raw))
		for k, v := range raw {
			var value any
			if err := json.Unmarshal(v, &value); err != nil {
				return err
			}
			p.Extra[k] = value
		}
	}

	return nil
}

func (p FieldProperty) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+1)
	for k, v := range p.Extra {
		out[k] = v
	}
	if p.Options != nil {
		out["options"] = p.Options
	}
	return json.Marshal(out)
}

// IsEmpty reports whether the property carries no information at all.
func (p *FieldProperty) IsEmpty() bool {
	return p == nil || (len(p.Options) == 0 && len(p.Extra) == 0)
}

// Clone returns a deep copy. Safe on a nil receiver.
func (p *FieldProperty) Clone() *FieldProperty {
	if p == nil {
		return nil
	}
	out := &FieldProperty{}
	if p.Options != nil {
		out.Options = make([]FieldOption, len(p.Options))
		copy(out.Options, p.Options)
	}
	if p.Extra != nil {
		out.Extra = make(map[string]any, len(p.Extra))
		for k, v := range p.Extra {
			out.Extra[k] = v
		}
	}
	return out
}
