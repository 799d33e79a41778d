package validate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/doc-extractor/internal/schema"
)

const notFound = "Not found"

// FieldError pinpoints one offending field. Nested fields use a path like
// "items[0].price".
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"` // "missing" | "type_mismatch"
}

func (e FieldError) Error() string { return e.Field + ": " + e.Reason }

// Error aggregates every field error found in one record, so a single failed
// document reports all its problems at once.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks a candidate record against a document-type definition and
// returns the canonical form: dates as YYYY-MM-DD, decimals as fixed
// two-place strings, unknown fields dropped, list fields always present. The
// input map is never mutated, and validating an already-canonical record
// returns it unchanged.
func Validate(record map[string]any, def schema.Definition) (map[string]any, error) {
	out := make(map[string]any, len(def.Fields))
	var errs []FieldError

	for _, f := range def.Fields {
		v, ok := record[f.Name]
		if !ok || v == nil || isAbsentString(f, v) {
			if f.Required {
				errs = append(errs, FieldError{Field: f.Name, Reason: "missing"})
			} else if isListType(f.Type) {
				out[f.Name] = []any{}
			}
			continue
		}
		canon, ferrs := coerceField(f.Name, f, v)
		if len(ferrs) > 0 {
			errs = append(errs, ferrs...)
			continue
		}
		out[f.Name] = canon
	}

	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
		return nil, &Error{Fields: errs}
	}
	return out, nil
}

func isListType(t schema.FieldType) bool {
	return t == schema.TypeStringList || t == schema.TypeObjectList
}

// isAbsentString treats the extraction placeholder and blank strings as a
// missing value for scalar fields.
func isAbsentString(f schema.Field, v any) bool {
	if isListType(f.Type) {
		return false
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, notFound)
}

func coerceField(path string, f schema.Field, v any) (any, []FieldError) {
	switch f.Type {
	case schema.TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, []FieldError{{Field: path, Reason: "type_mismatch"}}
		}
		return strings.TrimSpace(s), nil

	case schema.TypeDate:
		s, ok := v.(string)
		if !ok {
			return nil, []FieldError{{Field: path, Reason: "type_mismatch"}}
		}
		canon, ok := canonicalDate(strings.TrimSpace(s))
		if !ok {
			return nil, []FieldError{{Field: path, Reason: "type_mismatch"}}
		}
		return canon, nil

	case schema.TypeDecimal:
		canon, ok := canonicalDecimal(v)
		if !ok {
			return nil, []FieldError{{Field: path, Reason: "type_mismatch"}}
		}
		return canon, nil

	case schema.TypeStringList:
		items, ok := v.([]any)
		if !ok {
			return nil, []FieldError{{Field: path, Reason: "type_mismatch"}}
		}
		out := make([]any, 0, len(items))
		var errs []FieldError
		for i, it := range items {
			s, ok := it.(string)
			if !ok {
				errs = append(errs, FieldError{Field: fmt.Sprintf("%s[%d]", path, i), Reason: "type_mismatch"})
				continue
			}
			out = append(out, strings.TrimSpace(s))
		}
		return out, errs

	case schema.TypeObjectList:
		items, ok := v.([]any)
		if !ok {
			return nil, []FieldError{{Field: path, Reason: "type_mismatch"}}
		}
		out := make([]any, 0, len(items))
		var errs []FieldError
		for i, it := range items {
			obj, ok := it.(map[string]any)
			if !ok {
				errs = append(errs, FieldError{Field: fmt.Sprintf("%s[%d]", path, i), Reason: "type_mismatch"})
				continue
			}
			canon, oerrs := coerceObject(fmt.Sprintf("%s[%d]", path, i), f.Item, obj)
			if len(oerrs) > 0 {
				errs = append(errs, oerrs...)
				continue
			}
			out = append(out, canon)
		}
		return out, errs
	}
	return nil, []FieldError{{Field: path, Reason: "type_mismatch"}}
}

func coerceObject(path string, fields []schema.Field, obj map[string]any) (map[string]any, []FieldError) {
	out := make(map[string]any, len(fields))
	var errs []FieldError
	for _, f := range fields {
		v, ok := obj[f.Name]
		sub := path + "." + f.Name
		if !ok || v == nil || isAbsentString(f, v) {
			if f.Required {
				errs = append(errs, FieldError{Field: sub, Reason: "missing"})
			}
			continue
		}
		canon, ferrs := coerceField(sub, f, v)
		if len(ferrs) > 0 {
			errs = append(errs, ferrs...)
			continue
		}
		out[f.Name] = canon
	}
	return out, errs
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
}

func canonicalDate(s string) (string, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func canonicalDecimal(v any) (string, bool) {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', 2, 64), true
	case int:
		return fmt.Sprintf("%d.00", t), true
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "", false
		}
		return strconv.FormatFloat(f, 'f', 2, 64), true
	}
	return "", false
}
