package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Shape is a compiled schema that validates values. A nil *Shape accepts
// any JSON-encodable value.
type Shape struct {
	root     *node
	raw      json.RawMessage
	patterns map[string]*regexp.Regexp
}

// Compile checks the builder's schema and prepares it for validation.
func Compile(b Builder) (*Shape, error) {
	raw, err := b.Build()
	if err != nil {
		return nil, err
	}
	s := &Shape{root: b.schema(), raw: raw, patterns: make(map[string]*regexp.Regexp)}
	if err := s.compile(s.root, ""); err != nil {
		return nil, err
	}
	return s, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(b Builder) *Shape {
	s, err := Compile(b)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Shape) compile(n *node, path string) error {
	s.walk(n, path, func(n *node, _ string) error {
		if n.Pattern != "" && s.patterns[n.Pattern] == nil {
			s.patterns[n.Pattern] = regexp.MustCompile(n.Pattern)
		}
		return nil
	})
	return s.walk(n, path, func(n *node, path string) error {
		if n.Default == nil {
			return nil
		}
		def, err := roundTrip(n.Default)
		if err != nil {
			return &DefinitionError{Field: path, Message: err.Error(), Err: ErrInvalidDefault}
		}
		if issues := s.check(n, path, def, nil); len(issues) > 0 {
			return &DefinitionError{Field: path, Message: issues[0].Message, Err: ErrInvalidDefault}
		}
		return nil
	})
}

// walk visits n and its descendants depth first, stopping at the first error.
func (s *Shape) walk(n *node, path string, fn func(*node, string) error) error {
	if err := fn(n, path); err != nil {
		return err
	}
	if n.Items != nil {
		if err := s.walk(n.Items, path+"[]", fn); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(n.Properties) {
		if err := s.walk(n.Properties[name], join(path, name), fn); err != nil {
			return err
		}
	}
	return nil
}

// JSON returns the JSON Schema document.
func (s *Shape) JSON() json.RawMessage {
	if s == nil {
		return json.RawMessage(`{}`)
	}
	return s.raw
}

// Type returns the top-level JSON type, or "" when any type is accepted.
func (s *Shape) Type() string {
	if s == nil {
		return ""
	}
	return s.root.Type
}

// Validate checks v against the shape and returns its normalized form:
// the JSON decoding of v (maps, slices, strings, float64, bool) with
// defaults filled in for absent object fields. v is not modified.
//
// The error, if any, is a *ValidationError listing every violation in path
// order, so validating the same value twice gives the same message.
func (s *Shape) Validate(v any) (any, error) {
	norm, err := roundTrip(v)
	if err != nil {
		return nil, &ValidationError{Issues: []Issue{{Message: err.Error()}}}
	}
	if s == nil {
		return norm, nil
	}
	var out any
	issues := s.check(s.root, "", norm, &out)
	if len(issues) > 0 {
		sort.SliceStable(issues, func(i, j int) bool {
			if issues[i].Path != issues[j].Path {
				return issues[i].Path < issues[j].Path
			}
			return issues[i].Message < issues[j].Message
		})
		return nil, &ValidationError{Issues: issues}
	}
	return out, nil
}

// check validates v against n. When out is non-nil it receives the value
// with defaults applied.
func (s *Shape) check(n *node, path string, v any, out *any) []Issue {
	if out != nil {
		*out = v
	}
	if v == nil {
		if n.Type == "" {
			return nil
		}
		return []Issue{{Path: path, Message: "must be " + article(n.Type) + ", got null"}}
	}

	var issues []Issue
	fail := func(format string, args ...any) {
		issues = append(issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	switch n.Type {
	case "string":
		str, ok := v.(string)
		if !ok {
			fail("must be a string, got %s", typeName(v))
			return issues
		}
		length := utf8.RuneCountInString(str)
		if n.MinLength != nil && length < *n.MinLength {
			fail("must be at least %d characters", *n.MinLength)
		}
		if n.MaxLength != nil && length > *n.MaxLength {
			fail("must be at most %d characters", *n.MaxLength)
		}
		if n.Pattern != "" && !s.patterns[n.Pattern].MatchString(str) {
			fail("must match pattern %s", n.Pattern)
		}

	case "integer", "number":
		f, ok := v.(float64)
		if !ok {
			fail("must be %s, got %s", article(n.Type), typeName(v))
			return issues
		}
		if n.Type == "integer" && f != math.Trunc(f) {
			fail("must be an integer, got %s", formatNumber(f))
		}
		if n.Minimum != nil && f < *n.Minimum {
			fail("must be >= %s", formatNumber(*n.Minimum))
		}
		if n.Maximum != nil && f > *n.Maximum {
			fail("must be <= %s", formatNumber(*n.Maximum))
		}
		if n.ExclusiveMinimum != nil && f <= *n.ExclusiveMinimum {
			fail("must be > %s", formatNumber(*n.ExclusiveMinimum))
		}
		if n.ExclusiveMaximum != nil && f >= *n.ExclusiveMaximum {
			fail("must be < %s", formatNumber(*n.ExclusiveMaximum))
		}

	case "boolean":
		if _, ok := v.(bool); !ok {
			fail("must be a boolean, got %s", typeName(v))
			return issues
		}

	case "array":
		items, ok := v.([]any)
		if !ok {
			fail("must be an array, got %s", typeName(v))
			return issues
		}
		if n.MinItems != nil && len(items) < *n.MinItems {
			fail("must contain at least %d items", *n.MinItems)
		}
		if n.MaxItems != nil && len(items) > *n.MaxItems {
			fail("must contain at most %d items", *n.MaxItems)
		}
		normalized := make([]any, len(items))
		seen := make(map[string]int)
		for i, item := range items {
			itemPath := path + "[" + strconv.Itoa(i) + "]"
			var itemOut any
			issues = append(issues, s.check(n.Items, itemPath, item, &itemOut)...)
			normalized[i] = itemOut
			if n.UniqueItems {
				key := canonical(item)
				if first, dup := seen[key]; dup {
					issues = append(issues, Issue{Path: itemPath, Message: fmt.Sprintf("duplicates item %d", first)})
				} else {
					seen[key] = i
				}
			}
		}
		if out != nil {
			*out = normalized
		}

	case "object":
		obj, ok := v.(map[string]any)
		if !ok {
			fail("must be an object, got %s", typeName(v))
			return issues
		}
		normalized := make(map[string]any, len(obj)+len(n.Properties))
		for _, name := range sortedKeys(obj) {
			prop, declared := n.Properties[name]
			if !declared {
				if n.AdditionalProperties != nil && !*n.AdditionalProperties {
					issues = append(issues, Issue{Path: join(path, name), Message: "is not allowed"})
					continue
				}
				normalized[name] = obj[name]
				continue
			}
			var propOut any
			issues = append(issues, s.check(prop, join(path, name), obj[name], &propOut)...)
			normalized[name] = propOut
		}
		for _, name := range sortedKeys(n.Properties) {
			if _, present := obj[name]; present {
				continue
			}
			prop := n.Properties[name]
			switch {
			case prop.Default != nil:
				def, _ := roundTrip(prop.Default)
				normalized[name] = def
			case slices.Contains(n.Required, name):
				issues = append(issues, Issue{Path: join(path, name), Message: "is required"})
			}
		}
		if out != nil {
			*out = normalized
		}
	}

	if len(n.Enum) > 0 && len(issues) == 0 {
		key := canonical(v)
		allowed := false
		for _, e := range n.Enum {
			if canonical(e) == key {
				allowed = true
				break
			}
		}
		if !allowed {
			fail("must be one of %s", enumList(n.Enum))
		}
	}
	return issues
}

// Decode validates v against the shape and decodes the normalized value
// into T.
func Decode[T any](s *Shape, v any) (T, error) {
	var zero T
	norm, err := s.Validate(v)
	if err != nil {
		return zero, err
	}
	return Convert[T](norm)
}

// Convert re-encodes v as T through JSON.
func Convert[T any](v any) (T, error) {
	var out T
	if t, ok := v.(T); ok {
		return t, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

func roundTrip(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64:
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("value is not JSON-encodable: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func canonical(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}

func enumList(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = canonical(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func article(t string) string {
	switch t {
	case "integer", "object", "array":
		return "an " + t
	default:
		return "a " + t
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
