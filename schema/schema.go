package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// Builder is implemented by every schema builder.
type Builder interface {
	// Build serializes the schema to json.RawMessage.
	// Returns an error if the schema is inconsistent.
	Build() (json.RawMessage, error)

	// MustBuild is like Build but panics on error.
	MustBuild() json.RawMessage

	// schema returns the internal representation for composition.
	schema() *node
}

// node is the internal representation of a JSON Schema.
type node struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	Default     any    `json:"default,omitempty"`

	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`

	Items       *node `json:"items,omitempty"`
	MinItems    *int  `json:"minItems,omitempty"`
	MaxItems    *int  `json:"maxItems,omitempty"`
	UniqueItems bool  `json:"uniqueItems,omitempty"`

	Properties           map[string]*node `json:"properties,omitempty"`
	Required             []string         `json:"required,omitempty"`
	AdditionalProperties *bool            `json:"additionalProperties,omitempty"`
}

// Sentinel errors for inconsistent schema definitions.
var (
	// ErrInvalidRange is returned when min exceeds max.
	ErrInvalidRange = errors.New("schema: minimum exceeds maximum")

	// ErrInvalidPattern is returned when a regex pattern is invalid.
	ErrInvalidPattern = errors.New("schema: invalid regex pattern")

	// ErrNilItems is returned when an array has no items schema.
	ErrNilItems = errors.New("schema: array requires items schema")

	// ErrInvalidDefault is returned when a default value violates its own schema.
	ErrInvalidDefault = errors.New("schema: default value does not satisfy schema")
)

// DefinitionError reports an inconsistent schema definition.
type DefinitionError struct {
	Field   string
	Message string
	Err     error
}

func (e *DefinitionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema: field %q: %s", e.Field, e.Message)
	}
	return "schema: " + e.Message
}

func (e *DefinitionError) Unwrap() error { return e.Err }

// check reports the first inconsistency in the schema tree.
func (n *node) check() error {
	switch n.Type {
	case "string":
		if n.MinLength != nil && n.MaxLength != nil && *n.MinLength > *n.MaxLength {
			return &DefinitionError{Message: "minLength exceeds maxLength", Err: ErrInvalidRange}
		}
		if n.Pattern != "" {
			if _, err := regexp.Compile(n.Pattern); err != nil {
				return &DefinitionError{
					Message: fmt.Sprintf("invalid pattern %q: %v", n.Pattern, err),
					Err:     ErrInvalidPattern,
				}
			}
		}

	case "integer", "number":
		if n.Minimum != nil && n.Maximum != nil && *n.Minimum > *n.Maximum {
			return &DefinitionError{Message: "minimum exceeds maximum", Err: ErrInvalidRange}
		}
		if n.ExclusiveMinimum != nil && n.ExclusiveMaximum != nil && *n.ExclusiveMinimum >= *n.ExclusiveMaximum {
			return &DefinitionError{Message: "exclusiveMinimum >= exclusiveMaximum", Err: ErrInvalidRange}
		}

	case "array":
		if n.Items == nil {
			return &DefinitionError{Message: "array requires items schema", Err: ErrNilItems}
		}
		if n.MinItems != nil && n.MaxItems != nil && *n.MinItems > *n.MaxItems {
			return &DefinitionError{Message: "minItems exceeds maxItems", Err: ErrInvalidRange}
		}
		if err := n.Items.check(); err != nil {
			return &DefinitionError{Message: fmt.Sprintf("invalid items schema: %v", err), Err: err}
		}

	case "object":
		for name, prop := range n.Properties {
			if err := prop.check(); err != nil {
				return &DefinitionError{Field: name, Message: err.Error(), Err: err}
			}
		}
	}
	return nil
}

// base carries the node shared by all builders and the serialization
// methods of the Builder interface.
type base struct {
	n *node
}

// Build serializes the schema to json.RawMessage.
func (b base) Build() (json.RawMessage, error) {
	if err := b.n.check(); err != nil {
		return nil, err
	}
	return json.Marshal(b.n)
}

// MustBuild is like Build but panics on error.
func (b base) MustBuild() json.RawMessage {
	data, err := b.Build()
	if err != nil {
		panic(err)
	}
	return data
}

func (b base) schema() *node { return b.n }

// RequiredField wraps a Builder to mark it as required in an object.
type RequiredField struct {
	builder Builder
}

func ptr[T any](v T) *T {
	return &v
}
