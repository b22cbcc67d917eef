package schema

import (
	"fmt"
	"slices"
)

// Object creates a new object schema builder.
func Object() *ObjectBuilder {
	return &ObjectBuilder{base{&node{
		Type:       "object",
		Properties: make(map[string]*node),
	}}}
}

// ObjectBuilder constructs object type schemas.
type ObjectBuilder struct {
	base
}

// Desc sets the description for the object itself.
func (b *ObjectBuilder) Desc(description string) *ObjectBuilder {
	b.n.Description = description
	return b
}

// Field adds a field with its schema.
// The field argument can be a Builder or a *RequiredField.
func (b *ObjectBuilder) Field(name string, field any) *ObjectBuilder {
	switch f := field.(type) {
	case *RequiredField:
		b.n.Properties[name] = f.builder.schema()
		if !slices.Contains(b.n.Required, name) {
			b.n.Required = append(b.n.Required, name)
		}
	case Builder:
		b.n.Properties[name] = f.schema()
	default:
		panic(fmt.Sprintf("schema: Field %q requires a Builder or *RequiredField, got %T", name, field))
	}
	return b
}

// Strict rejects properties that are not declared with Field.
func (b *ObjectBuilder) Strict() *ObjectBuilder {
	b.n.AdditionalProperties = ptr(false)
	return b
}

// Required marks this object as required when nested in another object.
func (b *ObjectBuilder) Required() *RequiredField {
	return &RequiredField{builder: b}
}
