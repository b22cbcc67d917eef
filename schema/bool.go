package schema

// Bool creates a new boolean schema builder.
func Bool() *BoolBuilder {
	return &BoolBuilder{base{&node{Type: "boolean"}}}
}

// BoolBuilder constructs boolean type schemas.
type BoolBuilder struct {
	base
}

// Desc sets the description.
func (b *BoolBuilder) Desc(description string) *BoolBuilder {
	b.n.Description = description
	return b
}

// Default sets the value used when the field is absent.
func (b *BoolBuilder) Default(value bool) *BoolBuilder {
	b.n.Default = value
	return b
}

// Required marks this field as required when used in an object.
func (b *BoolBuilder) Required() *RequiredField {
	return &RequiredField{builder: b}
}
