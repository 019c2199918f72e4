package rag

import (
	"context"

	"github.com/dsc-chiba-u/flexrag/internal/domain/schema"
	"github.com/dsc-chiba-u/flexrag/internal/domain/search"
)

// SchemaReader fetches and normalizes index schemas.
type SchemaReader interface {
	GetSchema(ctx context.Context, index string) (schema.Schema, error)
}

// Searcher executes a full-text query. An empty fields slice means the
// query runs unrestricted across all searchable fields.
type Searcher interface {
	Search(ctx context.Context, index, query string, fields []string, top int) (search.Result, error)
}

// Generator produces an answer to a question conditioned on assembled
// source context.
type Generator interface {
	Generate(ctx context.Context, question, sources string, temperature float32, maxTokens int) (string, error)
}
