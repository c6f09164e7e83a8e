// Package schema validates tool arguments against declared JSON schemas.
//
// Only the subset of JSON Schema that tool declarations use is enforced at
// call time: required fields, primitive types of declared properties and
// defaults for absent optional properties. Undeclared fields pass through.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/brbranch/mcp-notes/internal/model"
)

// JSON Schema type names
const (
	TypeObject  = "object"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeString  = "string"
	TypeArray   = "array"
	TypeBoolean = "boolean"
	TypeNull    = "null"
)

// Check verifies that s is usable as a tool input schema.
func Check(s *jsonschema.Schema) error {
	if s == nil {
		return fmt.Errorf("input schema is required")
	}

	var err error
	if strings.ToLower(s.Type) != TypeObject {
		err = errors.Join(err, fmt.Errorf("input schema must be type object at the root, got %q", s.Type))
	}
	for _, field := range s.Required {
		if _, ok := s.Properties[field]; !ok {
			err = errors.Join(err, fmt.Errorf("required field %q is not declared in properties", field))
		}
	}
	for name, prop := range s.Properties {
		if prop == nil || len(prop.Default) == 0 {
			continue
		}
		var def any
		if jsonErr := json.Unmarshal(prop.Default, &def); jsonErr != nil {
			err = errors.Join(err, fmt.Errorf("default for %q is not valid JSON: %w", name, jsonErr))
			continue
		}
		if !matchesAny(declaredTypes(prop), def) {
			err = errors.Join(err, fmt.Errorf("default for %q does not match its declared type", name))
		}
	}
	if err != nil {
		return err
	}

	if _, resolveErr := s.Resolve(nil); resolveErr != nil {
		return fmt.Errorf("input schema is not valid: %w", resolveErr)
	}
	return nil
}

// Validate checks args against s and returns a new argument map with defaults
// applied. args is never modified.
//
// Failures are *model.CapabilityError with kind MissingField or TypeMismatch.
func Validate(s *jsonschema.Schema, args map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(args))
	maps.Copy(out, args)
	if s == nil {
		return out, nil
	}

	for _, field := range s.Required {
		if _, ok := out[field]; !ok {
			return nil, model.NewFieldError(model.KindMissingField, field, "missing required field: %s", field)
		}
	}

	for _, name := range slices.Sorted(maps.Keys(s.Properties)) {
		prop := s.Properties[name]
		if prop == nil {
			continue
		}

		value, present := out[name]
		if !present {
			if len(prop.Default) > 0 {
				var def any
				if err := json.Unmarshal(prop.Default, &def); err != nil {
					return nil, fmt.Errorf("decode default for %s: %w", name, err)
				}
				out[name] = def
			}
			continue
		}

		types := declaredTypes(prop)
		if !matchesAny(types, value) {
			return nil, model.NewFieldError(model.KindTypeMismatch, name,
				"field %s: expected %s, got %s", name, strings.Join(types, " or "), TypeOf(value))
		}
	}

	return out, nil
}

// TypeOf returns the JSON Schema type name of a decoded JSON value.
func TypeOf(v any) string {
	switch x := v.(type) {
	case nil:
		return TypeNull
	case bool:
		return TypeBoolean
	case string:
		return TypeString
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return TypeInteger
		}
		return TypeNumber
	case float32:
		return TypeOf(float64(x))
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return TypeInteger
		}
		return TypeNumber
	case map[string]any:
		return TypeObject
	case []any:
		return TypeArray
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInteger
	case reflect.Slice, reflect.Array:
		return TypeArray
	case reflect.Map, reflect.Struct:
		return TypeObject
	default:
		return "unknown"
	}
}

func declaredTypes(s *jsonschema.Schema) []string {
	if s.Type != "" {
		return []string{s.Type}
	}
	return s.Types
}

func matchesAny(types []string, v any) bool {
	if len(types) == 0 {
		return true
	}
	actual := TypeOf(v)
	for _, t := range types {
		if t == actual || (t == TypeNumber && actual == TypeInteger) {
			return true
		}
	}
	return false
}
