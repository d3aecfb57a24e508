// Package normalizer canonicalizes raw string-keyed records against a
// declared field schema: keys and string values are trimmed, lower-cased and
// stripped of diacritics, unknown fields are rejected and missing required
// fields reported.
package normalizer

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Error reports a malformed record. Index is the 0-based position of the
// record in the input batch.
type Error struct {
	Index  int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("record at index %d: %s", e.Index, e.Reason)
}

// Engine normalizes raw records against a required/optional field schema.
// The zero value is not usable; construct with New.
type Engine struct {
	required     map[string]struct{}
	allowed      map[string]struct{}
	allowUnknown bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithUnknownFields makes the engine keep canonicalized keys that are not
// part of the schema instead of rejecting the record.
func WithUnknownFields() Option {
	return func(e *Engine) { e.allowUnknown = true }
}

// New builds an engine. The union of required and optional is the allowed
// field set.
func New(required, optional []string, opts ...Option) *Engine {
	e := &Engine{
		required: make(map[string]struct{}, len(required)),
		allowed:  make(map[string]struct{}, len(required)+len(optional)),
	}
	for _, f := range required {
		e.required[f] = struct{}{}
		e.allowed[f] = struct{}{}
	}
	for _, f := range optional {
		e.allowed[f] = struct{}{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Normalize canonicalizes every record or fails on the first malformed one.
// Empty input yields empty output. The output preserves input order and the
// input records are never modified.
func (e *Engine) Normalize(records []map[string]any) ([]map[string]any, error) {
	normalized := make([]map[string]any, 0, len(records))
	for index, record := range records {
		if record == nil {
			return nil, &Error{Index: index, Reason: "not a record"}
		}
		out, err := e.normalizeRecord(record, index)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, out)
	}
	return normalized, nil
}

func (e *Engine) normalizeRecord(record map[string]any, index int) (map[string]any, error) {
	out := make(map[string]any, len(record))

	for key, value := range record {
		normalizedKey := NormalizeText(key)

		if _, ok := e.allowed[normalizedKey]; !ok && !e.allowUnknown {
			return nil, &Error{Index: index, Reason: fmt.Sprintf("unknown field %q", key)}
		}

		if s, ok := value.(string); ok {
			out[normalizedKey] = NormalizeText(s)
		} else {
			out[normalizedKey] = value
		}
	}

	var missing []string
	for field := range e.required {
		if _, ok := out[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &Error{
			Index:  index,
			Reason: fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")),
		}
	}

	return out, nil
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// NormalizeText trims surrounding whitespace, lower-cases, and removes
// diacritics by NFD-decomposing and dropping combining marks. "Ferretería"
// normalizes to "ferreteria".
func NormalizeText(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	stripped, _, err := transform.String(diacriticStripper, value)
	if err != nil {
		return value
	}
	return stripped
}
