package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
)

// Decode errors.
var (
	ErrMalformed      = errors.New("malformed JSON")
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// Kind is the JSON kind a schema field must hold.
type Kind string

// Field kinds.
const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBool    Kind = "boolean"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindAny     Kind = "any"
)

// Field declares one top-level member of a schema. Absent or null optional
// fields take Default when it is non-nil.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	Default  any
}

// Schema is the declared shape a decoded document must satisfy.
type Schema struct {
	Name   string
	Fields []Field
}

// DecodeError describes why a raw document could not be decoded. It wraps
// ErrMalformed or ErrSchemaMismatch.
type DecodeError struct {
	Schema   string
	Raw      string
	Field    string
	Expected Kind
	Msg      string
	kind     error
}

func (e *DecodeError) Error() string {
	if e.kind == ErrSchemaMismatch {
		if e.Field == "" {
			return fmt.Sprintf("decoding %s: %v: document must be %s", e.Schema, e.kind, e.Expected)
		}
		return fmt.Sprintf("decoding %s: %v: field %q must be %s", e.Schema, e.kind, e.Field, e.Expected)
	}
	return fmt.Sprintf("decoding %s: %v: %s", e.Schema, e.kind, e.Msg)
}

// Unwrap returns the sentinel for the failure kind.
func (e *DecodeError) Unwrap() error {
	return e.kind
}

func malformed(s Schema, raw, msg string) *DecodeError {
	return &DecodeError{Schema: s.Name, Raw: raw, Msg: msg, kind: ErrMalformed}
}

func mismatch(s Schema, raw, field string, want Kind) *DecodeError {
	return &DecodeError{Schema: s.Name, Raw: raw, Field: field, Expected: want, kind: ErrSchemaMismatch}
}

// Decode parses raw as JSON, checks it against s, fills defaults for absent
// optional fields, and unmarshals the result into T. It performs no I/O and
// returns the same result for the same input.
func Decode[T any](raw string, s Schema) (T, error) {
	var zero T

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return zero, malformed(s, raw, err.Error())
	}

	if len(s.Fields) > 0 {
		obj, ok := doc.(map[string]any)
		if !ok {
			return zero, mismatch(s, raw, "", KindObject)
		}
		if err := applySchema(s, raw, obj); err != nil {
			return zero, err
		}
		doc = obj
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return zero, malformed(s, raw, err.Error())
	}

	var out T
	if err := json.Unmarshal(normalized, &out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return zero, mismatch(s, raw, typeErr.Field, kindOfType(typeErr.Type))
		}
		return zero, malformed(s, raw, err.Error())
	}
	return out, nil
}

// ExtractAndDecode recovers a JSON document from free text and decodes it.
func ExtractAndDecode[T any](text string, s Schema) (T, error) {
	var zero T
	raw, err := ExtractJSON(text)
	if err != nil {
		return zero, fmt.Errorf("extracting %s: %w", s.Name, err)
	}
	return Decode[T](raw, s)
}

func applySchema(s Schema, raw string, obj map[string]any) error {
	for _, f := range s.Fields {
		v, ok := obj[f.Name]
		if !ok || v == nil {
			if f.Required {
				return mismatch(s, raw, f.Name, f.Kind)
			}
			if f.Default != nil {
				obj[f.Name] = f.Default
			}
			continue
		}
		if !matchesKind(v, f.Kind) {
			return mismatch(s, raw, f.Name, f.Kind)
		}
	}
	return nil
}

func matchesKind(v any, k Kind) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindNumber:
		_, ok := v.(float64)
		return ok
	case KindInteger:
		n, ok := v.(float64)
		return ok && n == math.Trunc(n)
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindArray:
		_, ok := v.([]any)
		return ok
	case KindObject:
		_, ok := v.(map[string]any)
		return ok
	default:
		return true
	}
}

func kindOfType(t reflect.Type) Kind {
	if t == nil {
		return KindAny
	}
	switch t.Kind() {
	case reflect.String:
		return KindString
	case reflect.Bool:
		return KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInteger
	case reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.Slice, reflect.Array:
		return KindArray
	case reflect.Map, reflect.Struct:
		return KindObject
	default:
		return KindAny
	}
}
