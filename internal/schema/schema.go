package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type Type string

const (
	String  Type = "STRING"
	Number  Type = "NUMBER"
	Integer Type = "INTEGER"
	Boolean Type = "BOOLEAN"
	Array   Type = "ARRAY"
	Object  Type = "OBJECT"
)

// Schema describes an expected response shape. It serializes directly into
// the Gemini responseSchema field and drives Validate.
type Schema struct {
	Type        Type               `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Nullable    bool               `json:"nullable,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	MinItems    *int               `json:"minItems,omitempty"`
	MaxItems    *int               `json:"maxItems,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

func Ptr[T any](v T) *T { return &v }

// ValidationError points at the first offending value.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return e.Path + ": " + e.Reason
}

// Validate checks a value decoded with json.Decoder.UseNumber.
func (s *Schema) Validate(v any) error {
	return s.validate("", v)
}

func (s *Schema) validate(path string, v any) error {
	if v == nil {
		if s.Nullable {
			return nil
		}
		return &ValidationError{Path: path, Reason: "must not be null"}
	}

	switch s.Type {
	case String:
		str, ok := v.(string)
		if !ok {
			return mismatch(path, "string", v)
		}
		if len(s.Enum) > 0 && !contains(s.Enum, str) {
			return &ValidationError{Path: path, Reason: fmt.Sprintf("value %q not in %v", str, s.Enum)}
		}
	case Number, Integer:
		num, ok := v.(json.Number)
		if !ok {
			return mismatch(path, "number", v)
		}
		f, err := num.Float64()
		if err != nil {
			return &ValidationError{Path: path, Reason: fmt.Sprintf("invalid number %q", num)}
		}
		if s.Type == Integer {
			if _, err := num.Int64(); err != nil {
				return &ValidationError{Path: path, Reason: fmt.Sprintf("expected integer, got %s", num)}
			}
		}
		if s.Minimum != nil && f < *s.Minimum {
			return &ValidationError{Path: path, Reason: fmt.Sprintf("%v is below minimum %v", f, *s.Minimum)}
		}
		if s.Maximum != nil && f > *s.Maximum {
			return &ValidationError{Path: path, Reason: fmt.Sprintf("%v is above maximum %v", f, *s.Maximum)}
		}
	case Boolean:
		if _, ok := v.(bool); !ok {
			return mismatch(path, "boolean", v)
		}
	case Array:
		items, ok := v.([]any)
		if !ok {
			return mismatch(path, "array", v)
		}
		if s.MinItems != nil && len(items) < *s.MinItems {
			return &ValidationError{Path: path, Reason: fmt.Sprintf("expected at least %d items, got %d", *s.MinItems, len(items))}
		}
		if s.MaxItems != nil && len(items) > *s.MaxItems {
			return &ValidationError{Path: path, Reason: fmt.Sprintf("expected at most %d items, got %d", *s.MaxItems, len(items))}
		}
		if s.Items != nil {
			for i, item := range items {
				if err := s.Items.validate(fmt.Sprintf("%s[%d]", path, i), item); err != nil {
					return err
				}
			}
		}
	case Object:
		obj, ok := v.(map[string]any)
		if !ok {
			return mismatch(path, "object", v)
		}
		for _, name := range s.Required {
			if _, ok := obj[name]; !ok {
				return &ValidationError{Path: join(path, name), Reason: "required field missing"}
			}
		}
		for _, name := range sortedKeys(s.Properties) {
			val, ok := obj[name]
			if !ok {
				continue
			}
			if err := s.Properties[name].validate(join(path, name), val); err != nil {
				return err
			}
		}
	default:
		return &ValidationError{Path: path, Reason: fmt.Sprintf("unsupported schema type %q", s.Type)}
	}
	return nil
}

// Decode parses a model text payload, validates it against s and unmarshals
// it into out.
func Decode(raw string, s *Schema, out any) error {
	payload := Clean(raw)
	if payload == "" {
		return &ValidationError{Reason: "empty response"}
	}

	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return &ValidationError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if err := s.Validate(generic); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return &ValidationError{Reason: fmt.Sprintf("decode: %v", err)}
	}
	return nil
}

// Clean trims whitespace and a surrounding markdown code fence.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func mismatch(path, want string, got any) error {
	return &ValidationError{Path: path, Reason: fmt.Sprintf("expected %s, got %T", want, got)}
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]*Schema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
