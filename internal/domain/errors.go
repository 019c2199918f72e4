package domain

import "errors"

var (
	// ErrConfiguration signals missing or invalid connection settings.
	ErrConfiguration = errors.New("configuration incomplete")
	// ErrSchemaFetch signals that an index schema could not be retrieved.
	ErrSchemaFetch = errors.New("schema fetch failed")
	// ErrIndexNotFound signals a missing search index.
	ErrIndexNotFound = errors.New("index not found")
	// ErrSearch signals a failure during query execution.
	ErrSearch = errors.New("search failed")
	// ErrGeneration signals an answer generation provider failure.
	ErrGeneration = errors.New("answer generation failed")
)
