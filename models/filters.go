package models

import "strings"

// Filters holds the optional search criteria per agreement phase:
// section ("celebration", "execution", "accountability") -> field -> value.
// Values are strings or two-element ranges, as decoded from JSON.
type Filters map[string]map[string]any

// Clone returns a copy whose section maps can be modified freely.
func (f Filters) Clone() Filters {
	if f == nil {
		return nil
	}
	out := make(Filters, len(f))
	for section, fields := range f {
		copied := make(map[string]any, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
		out[section] = copied
	}
	return out
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
