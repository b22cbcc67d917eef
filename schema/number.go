package schema

// Int creates a new integer schema builder.
func Int() *IntBuilder {
	return &IntBuilder{base{&node{Type: "integer"}}}
}

// IntBuilder constructs integer type schemas.
type IntBuilder struct {
	base
}

// Desc sets the description.
func (b *IntBuilder) Desc(description string) *IntBuilder {
	b.n.Description = description
	return b
}

// Min sets the inclusive lower bound.
func (b *IntBuilder) Min(n int) *IntBuilder {
	b.n.Minimum = ptr(float64(n))
	return b
}

// Max sets the inclusive upper bound.
func (b *IntBuilder) Max(n int) *IntBuilder {
	b.n.Maximum = ptr(float64(n))
	return b
}

// Default sets the value used when the field is absent.
func (b *IntBuilder) Default(value int) *IntBuilder {
	b.n.Default = value
	return b
}

// Required marks this field as required when used in an object.
func (b *IntBuilder) Required() *RequiredField {
	return &RequiredField{builder: b}
}

// Number creates a new number schema builder.
func Number() *NumberBuilder {
	return &NumberBuilder{base{&node{Type: "number"}}}
}

// NumberBuilder constructs floating point schemas.
type NumberBuilder struct {
	base
}

// Desc sets the description.
func (b *NumberBuilder) Desc(description string) *NumberBuilder {
	b.n.Description = description
	return b
}

// Min sets the inclusive lower bound.
func (b *NumberBuilder) Min(n float64) *NumberBuilder {
	b.n.Minimum = ptr(n)
	return b
}

// Max sets the inclusive upper bound.
func (b *NumberBuilder) Max(n float64) *NumberBuilder {
	b.n.Maximum = ptr(n)
	return b
}

// ExclusiveMin sets the exclusive lower bound.
func (b *NumberBuilder) ExclusiveMin(n float64) *NumberBuilder {
	b.n.ExclusiveMinimum = ptr(n)
	return b
}

// ExclusiveMax sets the exclusive upper bound.
func (b *NumberBuilder) ExclusiveMax(n float64) *NumberBuilder {
	b.n.ExclusiveMaximum = ptr(n)
	return b
}

// Default sets the value used when the field is absent.
func (b *NumberBuilder) Default(value float64) *NumberBuilder {
	b.n.Default = value
	return b
}

// Required marks this field as required when used in an object.
func (b *NumberBuilder) Required() *RequiredField {
	return &RequiredField{builder: b}
}
