package schema

import (
	"reflect"
	"testing"
)

func textField(name string, searchable bool) Field {
	return ReconstructField(name, "Edm.String", Capabilities{
		Searchable:  searchable,
		Retrievable: true,
	}, false, 0)
}

func vectorField(name string, dims int) Field {
	return ReconstructField(name, "Collection(Edm.Single)", Capabilities{
		Searchable:  true,
		Retrievable: true,
	}, false, dims)
}

func keyField(name string) Field {
	return ReconstructField(name, "Edm.String", Capabilities{Retrievable: true}, true, 0)
}

func TestNewField_Validation(t *testing.T) {
	if _, err := NewField("", "Edm.String", Capabilities{}, false, 0); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := NewField("content", "", Capabilities{}, false, 0); err == nil {
		t.Error("expected error for empty type")
	}
	if _, err := NewField("emb", "Collection(Edm.Single)", Capabilities{}, false, -1); err == nil {
		t.Error("expected error for negative dimensions")
	}

	f, err := NewField("emb", "Collection(Edm.Single)", Capabilities{Searchable: true}, false, 1536)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.IsVector() {
		t.Error("expected vector field")
	}
	if f.Dimensions() != 1536 {
		t.Errorf("Dimensions = %d, expected 1536", f.Dimensions())
	}
}

func TestNew_DuplicateField(t *testing.T) {
	_, err := New("docs", []Field{textField("content", true), textField("content", false)})
	if err == nil {
		t.Fatal("expected error for duplicate field name")
	}
}

func TestNew_EmptyName(t *testing.T) {
	if _, err := New("", nil); err == nil {
		t.Fatal("expected error for empty index name")
	}
}

func TestSchema_DerivedSets(t *testing.T) {
	s, err := New("docs", []Field{
		keyField("id"),
		textField("title", true),
		textField("content", true),
		textField("category", false),
		vectorField("content_vector", 1536),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantSearchable := []string{"title", "content", "content_vector"}
	if got := s.SearchableFields(); !reflect.DeepEqual(got, wantSearchable) {
		t.Errorf("SearchableFields = %v, expected %v", got, wantSearchable)
	}

	wantRetrievable := []string{"id", "title", "content", "category", "content_vector"}
	if got := s.RetrievableFields(); !reflect.DeepEqual(got, wantRetrievable) {
		t.Errorf("RetrievableFields = %v, expected %v", got, wantRetrievable)
	}

	if !s.HasVectorFields() {
		t.Error("expected HasVectorFields = true")
	}
}

func TestSchema_NoVectorFields(t *testing.T) {
	s, err := New("docs", []Field{keyField("id"), textField("content", true)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.HasVectorFields() {
		t.Error("expected HasVectorFields = false")
	}
}

func TestSchema_FieldByName(t *testing.T) {
	s, err := New("docs", []Field{keyField("id"), textField("content", true)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, ok := s.FieldByName("content")
	if !ok {
		t.Fatal("expected content field to exist")
	}
	if !f.Searchable() {
		t.Error("expected content to be searchable")
	}

	if _, ok := s.FieldByName("missing"); ok {
		t.Error("expected missing field lookup to fail")
	}
}
