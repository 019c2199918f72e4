package schema

import "strings"

// Default patterns identifying vector fields that must not join full-text queries.
const (
	DefaultVectorNamePattern = "vector"
	DefaultVectorTypePattern = "Collection(Edm.Single)"
)

// ClassifyOptions tune vector-field detection. Empty patterns fall back to
// the defaults.
type ClassifyOptions struct {
	VectorNamePattern string
	VectorTypePattern string
}

// Classification is the set of text-searchable, non-vector field names.
// An empty set means the query must run unrestricted across all fields.
type Classification struct {
	fields []string
}

// Fields returns the classified field names in schema order.
func (c Classification) Fields() []string { return c.fields }

// Unrestricted reports whether no usable text field was found and the
// search must not constrain its field set.
func (c Classification) Unrestricted() bool { return len(c.fields) == 0 }

// Classify derives the searchable text fields of a schema: searchable
// capability set, name does not contain the vector name pattern
// (case-insensitive), declared type does not begin with the vector type
// pattern. Never fails; an empty result signals an unrestricted query.
func Classify(s Schema, opts ClassifyOptions) Classification {
	namePattern := opts.VectorNamePattern
	if namePattern == "" {
		namePattern = DefaultVectorNamePattern
	}
	typePattern := opts.VectorTypePattern
	if typePattern == "" {
		typePattern = DefaultVectorTypePattern
	}
	namePattern = strings.ToLower(namePattern)

	var fields []string
	for _, f := range s.Fields() {
		if !f.Searchable() {
			continue
		}
		if strings.Contains(strings.ToLower(f.Name()), namePattern) {
			continue
		}
		if strings.HasPrefix(f.FieldType(), typePattern) {
			continue
		}
		fields = append(fields, f.Name())
	}
	return Classification{fields: fields}
}
