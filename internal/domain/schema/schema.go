package schema

import "fmt"

// Capabilities are the independent capability flags of an index field.
type Capabilities struct {
	Searchable  bool
	Retrievable bool
	Filterable  bool
	Sortable    bool
	Facetable   bool
}

// Field is an immutable value object describing one index field.
type Field struct {
	name       string
	fieldType  string
	caps       Capabilities
	key        bool
	dimensions int
}

// NewField validates and creates a Field.
// Name and declared type must be non-empty.
func NewField(name, fieldType string, caps Capabilities, key bool, dimensions int) (Field, error) {
	if name == "" {
		return Field{}, fmt.Errorf("field name is required")
	}
	if fieldType == "" {
		return Field{}, fmt.Errorf("field %q type is required", name)
	}
	if dimensions < 0 {
		return Field{}, fmt.Errorf("field %q dimensions must be >= 0", name)
	}
	return Field{name: name, fieldType: fieldType, caps: caps, key: key, dimensions: dimensions}, nil
}

// ReconstructField creates a Field without validation (transport hydration).
func ReconstructField(name, fieldType string, caps Capabilities, key bool, dimensions int) Field {
	return Field{name: name, fieldType: fieldType, caps: caps, key: key, dimensions: dimensions}
}

// Name returns the field name.
func (f Field) Name() string { return f.name }

// FieldType returns the declared wire type (e.g. Edm.String, Collection(Edm.Single)).
func (f Field) FieldType() string { return f.fieldType }

// Capabilities returns the field capability flags.
func (f Field) Capabilities() Capabilities { return f.caps }

// Searchable reports whether the field participates in full-text queries.
func (f Field) Searchable() bool { return f.caps.Searchable }

// Retrievable reports whether the field is returned in results.
func (f Field) Retrievable() bool { return f.caps.Retrievable }

// Key reports whether the field is the document key.
func (f Field) Key() bool { return f.key }

// Dimensions returns the embedding dimension count, 0 for non-vector fields.
func (f Field) Dimensions() int { return f.dimensions }

// IsVector reports whether the field holds a fixed-length embedding.
func (f Field) IsVector() bool { return f.dimensions > 0 }

// Schema is the normalized field metadata of one search index.
type Schema struct {
	name   string
	fields []Field
}

// New validates and creates a Schema. Field order is preserved.
func New(name string, fields []Field) (Schema, error) {
	if name == "" {
		return Schema{}, fmt.Errorf("index name is required")
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name()] {
			return Schema{}, fmt.Errorf("duplicate field %q in index %q", f.Name(), name)
		}
		seen[f.Name()] = true
	}
	return Schema{name: name, fields: fields}, nil
}

// Name returns the index name.
func (s Schema) Name() string { return s.name }

// Fields returns the ordered field descriptors.
func (s Schema) Fields() []Field { return s.fields }

// FieldByName looks up a field descriptor by name.
func (s Schema) FieldByName(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name() == name {
			return f, true
		}
	}
	return Field{}, false
}

// SearchableFields returns the names of fields with the searchable capability,
// in schema order.
func (s Schema) SearchableFields() []string {
	var out []string
	for _, f := range s.fields {
		if f.Searchable() {
			out = append(out, f.name)
		}
	}
	return out
}

// RetrievableFields returns the names of fields returned in results, in
// schema order.
func (s Schema) RetrievableFields() []string {
	var out []string
	for _, f := range s.fields {
		if f.Retrievable() {
			out = append(out, f.name)
		}
	}
	return out
}

// HasVectorFields reports whether any field holds an embedding.
func (s Schema) HasVectorFields() bool {
	for _, f := range s.fields {
		if f.IsVector() {
			return true
		}
	}
	return false
}
