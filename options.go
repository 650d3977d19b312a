package fieldwise

import "strings"

// OptionDiff is the result of comparing two option sets by name.
type OptionDiff struct {
	Added    []FieldOption `json:"added"`
	Removed  []FieldOption `json:"removed"`
	Modified []FieldOption `json:"modified"`
}

func optionKey(o FieldOption) string {
	return strings.TrimSpace(o.Name)
}

// DiffOptions compares two option sets. Identity is the trimmed,
// case-sensitive name: additions and modifications follow newSet order,
// removals follow oldSet order. A renamed option is indistinguishable
// from a delete plus an add.
func DiffOptions(oldSet, newSet []FieldOption) OptionDiff {
	oldByName := make(map[string]FieldOption, len(oldSet))
	for _, o := range oldSet {
		oldByName[optionKey(o)] = o
	}
	newByName := make(map[string]FieldOption, len(newSet))
	for _, o := range newSet {
		newByName[optionKey(o)] = o
	}

	diff := OptionDiff{
		Added:    []FieldOption{},
		Removed:  []FieldOption{},
		Modified: []FieldOption{},
	}

	for _, o := range newSet {
		old, ok := oldByName[optionKey(o)]
		switch {
		case !ok:
			diff.Added = append(diff.Added, o)
		case old.Color != o.Color:
			diff.Modified = append(diff.Modified, o)
		}
	}

	for _, o := range oldSet {
		if _, ok := newByName[optionKey(o)]; !ok {
			diff.Removed = append(diff.Removed, o)
		}
	}

	return diff
}

// OptionsEqual reports whether two option sets carry the same names with
// the same colors. Order is not part of equality.
func OptionsEqual(a, b []FieldOption) bool {
	if len(a) != len(b) {
		return false
	}
	colors := make(map[string]int, len(a))
	for _, o := range a {
		colors[optionKey(o)] = o.Color
	}
	if len(colors) != len(b) {
		return false
	}
	for _, o := range b {
		color, ok := colors[optionKey(o)]
		if !ok || color != o.Color {
			return false
		}
	}
	return true
}
