// Package filters keeps the nested search criteria a user builds in the
// filter dialog: one section per agreement phase, each holding field values.
package filters

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/GlarosConsulting/atena-client/models"
)

// Sections.
const (
	Celebration    = "celebration"
	Execution      = "execution"
	Accountability = "accountability"
)

// Kind is the shape of a field's value.
type Kind int

const (
	Text Kind = iota
	ValueRange
	DateRange
)

var schema = map[string]map[string]Kind{
	Celebration: {
		"agreementId":      Text,
		"modality":         Text,
		"processId":        Text,
		"proposalId":       Text,
		"proposalDate":     DateRange,
		"biddingDate":      DateRange,
		"homologationDate": DateRange,
		"legalFoundation":  Text,
		"value":            ValueRange,
		"description":      Text,
		"object":           Text,
	},
	Execution: {
		"executionId":  Text,
		"type":         Text,
		"date":         DateRange,
		"processId":    Text,
		"status":       Text,
		"systemStatus": Text,
		"system":       Text,
		"accepted":     Text,
	},
	Accountability: {
		"organ":            Text,
		"convenient":       Text,
		"documentNumber":   Text,
		"modality":         Text,
		"status":           Text,
		"number":           Text,
		"validity":         DateRange,
		"limitDate":        DateRange,
		"totalValue":       ValueRange,
		"transferValue":    ValueRange,
		"counterpartValue": ValueRange,
		"yieldValue":       ValueRange,
	},
}

// Fields lists the known fields of section in lexical order.
func Fields(section string) []string {
	fields := make([]string, 0, len(schema[section]))
	for f := range schema[section] {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Merge applies update on top of current and prunes the result. Each section
// of update is merged field by field into the same section of current; a
// blank value unsets the field. Neither argument is modified.
func Merge(current, update models.Filters) models.Filters {
	out := current.Clone()
	if out == nil {
		out = models.Filters{}
	}
	for section, fields := range update {
		dst, ok := out[section]
		if !ok {
			dst = make(map[string]any, len(fields))
			out[section] = dst
		}
		for field, value := range fields {
			dst[field] = value
		}
	}
	return Prune(out)
}

// Prune drops empty leaves and the sections left without fields. The result
// never shares maps with f.
func Prune(f models.Filters) models.Filters {
	out := models.Filters{}
	for section, fields := range f {
		kept := make(map[string]any, len(fields))
		for field, value := range fields {
			if v, ok := prune(value); ok {
				kept[field] = v
			}
		}
		if len(kept) > 0 {
			out[section] = kept
		}
	}
	return out
}

// prune returns v without empty descendants and whether anything is left.
// false and 0 are values, not blanks.
func prune(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case string:
		return t, strings.TrimSpace(t) != ""
	case []any:
		// Ranges keep their positions; an open end stays blank.
		anySet := false
		for _, e := range t {
			if _, ok := prune(e); ok {
				anySet = true
				break
			}
		}
		if !anySet {
			return nil, false
		}
		return append([]any(nil), t...), true
	case []string:
		items := make([]any, len(t))
		for i, s := range t {
			items[i] = s
		}
		return prune(items)
	case map[string]any:
		kept := make(map[string]any, len(t))
		for k, e := range t {
			if pv, ok := prune(e); ok {
				kept[k] = pv
			}
		}
		return kept, len(kept) > 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, false
		}
	case reflect.Slice, reflect.Map, reflect.Array:
		if rv.Len() == 0 {
			return nil, false
		}
	}
	return v, true
}

// Validate checks that every section and field of update is known and that
// range fields carry two-element arrays. Blank values are always accepted
// since they unset a field.
func Validate(update models.Filters) error {
	for section, fields := range update {
		known, ok := schema[section]
		if !ok {
			return fmt.Errorf("unknown filter section %q", section)
		}
		for field, value := range fields {
			kind, ok := known[field]
			if !ok {
				return fmt.Errorf("unknown filter %s.%s", section, field)
			}
			if _, set := prune(value); !set {
				continue
			}
			if err := checkKind(kind, value); err != nil {
				return fmt.Errorf("filter %s.%s: %w", section, field, err)
			}
		}
	}
	return nil
}

func checkKind(kind Kind, v any) error {
	switch kind {
	case Text:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("expected text, got %T", v)
		}
	case ValueRange, DateRange:
		items, ok := v.([]any)
		if !ok || len(items) != 2 {
			return fmt.Errorf("expected a [from, to] pair")
		}
		for _, e := range items {
			if e == nil {
				continue
			}
			s, ok := e.(string)
			if !ok {
				if kind == ValueRange {
					if _, num := e.(float64); num {
						continue
					}
				}
				return fmt.Errorf("unexpected range bound %T", e)
			}
			if kind == DateRange && s != "" {
				if _, err := models.ParseDate(s); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Empty reports whether f holds no criteria.
func Empty(f models.Filters) bool {
	return len(Prune(f)) == 0
}
