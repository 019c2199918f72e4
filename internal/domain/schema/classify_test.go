package schema

import (
	"reflect"
	"testing"
)

func TestClassify_ExcludesVectorFields(t *testing.T) {
	s, err := New("docs", []Field{
		keyField("id"),
		textField("content", true),
		vectorField("contentVector", 1536),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cls := Classify(s, ClassifyOptions{})
	if cls.Unrestricted() {
		t.Fatal("expected restricted classification")
	}
	if want := []string{"content"}; !reflect.DeepEqual(cls.Fields(), want) {
		t.Errorf("Fields = %v, expected %v", cls.Fields(), want)
	}
}

func TestClassify_NamePatternCaseInsensitive(t *testing.T) {
	s, err := New("docs", []Field{
		textField("content", true),
		// Searchable string field whose name marks it as a vector.
		textField("Title_VECTOR", true),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cls := Classify(s, ClassifyOptions{})
	if want := []string{"content"}; !reflect.DeepEqual(cls.Fields(), want) {
		t.Errorf("Fields = %v, expected %v", cls.Fields(), want)
	}
}

func TestClassify_TypePrefix(t *testing.T) {
	embedding := ReconstructField("embedding", "Collection(Edm.Single)", Capabilities{Searchable: true}, false, 0)
	s, err := New("docs", []Field{textField("content", true), embedding})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cls := Classify(s, ClassifyOptions{})
	if want := []string{"content"}; !reflect.DeepEqual(cls.Fields(), want) {
		t.Errorf("Fields = %v, expected %v", cls.Fields(), want)
	}
}

func TestClassify_EmptySetIsUnrestricted(t *testing.T) {
	s, err := New("docs", []Field{
		keyField("id"),
		textField("category", false),
		vectorField("vec", 768),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cls := Classify(s, ClassifyOptions{})
	if !cls.Unrestricted() {
		t.Fatalf("expected unrestricted classification, got fields %v", cls.Fields())
	}
	if len(cls.Fields()) != 0 {
		t.Errorf("expected no fields, got %v", cls.Fields())
	}
}

func TestClassify_CustomPatterns(t *testing.T) {
	s, err := New("docs", []Field{
		textField("content", true),
		textField("embedding_col", true),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cls := Classify(s, ClassifyOptions{VectorNamePattern: "embedding"})
	if want := []string{"content"}; !reflect.DeepEqual(cls.Fields(), want) {
		t.Errorf("Fields = %v, expected %v", cls.Fields(), want)
	}

	// Default pattern does not match "embedding_col".
	cls = Classify(s, ClassifyOptions{})
	if want := []string{"content", "embedding_col"}; !reflect.DeepEqual(cls.Fields(), want) {
		t.Errorf("Fields = %v, expected %v", cls.Fields(), want)
	}
}

func TestClassify_SubsetOfSearchable(t *testing.T) {
	s, err := New("docs", []Field{
		keyField("id"),
		textField("title", true),
		textField("content", true),
		textField("category", false),
		vectorField("title_vector", 1536),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	searchable := make(map[string]bool)
	for _, name := range s.SearchableFields() {
		searchable[name] = true
	}
	for _, name := range Classify(s, ClassifyOptions{}).Fields() {
		if !searchable[name] {
			t.Errorf("classified field %q is not in the schema's searchable set", name)
		}
	}
}
