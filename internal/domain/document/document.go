package document

import (
	"sort"
	"strings"
)

// Service metadata keys (@search.score etc.) are not document fields.
const metadataPrefix = "@"

// Document is one search hit's field values, keyed by field name.
// It is ephemeral: built per query response, discarded after display.
type Document struct {
	fields map[string]any
}

// FromRaw builds a Document from a raw search hit, dropping service
// metadata keys.
func FromRaw(raw map[string]any) Document {
	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		if strings.HasPrefix(k, metadataPrefix) {
			continue
		}
		fields[k] = v
	}
	return Document{fields: fields}
}

// Get looks up a field value. The zero Value is the absent sentinel.
func (d Document) Get(name string) Value {
	raw, ok := d.fields[name]
	if !ok {
		return Value{}
	}
	return Value{raw: raw, present: true}
}

// Len returns the number of fields.
func (d Document) Len() int { return len(d.fields) }

// Names returns the field names in sorted order.
func (d Document) Names() []string {
	names := make([]string, 0, len(d.fields))
	for k := range d.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Fields returns a copy of the field map for serialization.
func (d Document) Fields() map[string]any {
	out := make(map[string]any, len(d.fields))
	for k, v := range d.fields {
		out[k] = v
	}
	return out
}

// Value is the outcome of a field lookup.
type Value struct {
	raw     any
	present bool
}

// Present reports whether the field exists in the document.
func (v Value) Present() bool { return v.present }

// Raw returns the underlying value; nil when absent.
func (v Value) Raw() any { return v.raw }
