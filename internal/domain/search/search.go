package search

import "github.com/dsc-chiba-u/flexrag/internal/domain/document"

// Result is the outcome of one full-text query: the server-reported total
// match count plus the ranked documents actually returned. The count may
// exceed the number of documents when the query was bounded by top.
type Result struct {
	count     int64
	documents []document.Document
}

// New creates a search result. Document order is engine-determined and
// preserved as given.
func New(count int64, documents []document.Document) Result {
	return Result{count: count, documents: documents}
}

// Empty is the degraded result used when query execution fails.
func Empty() Result { return Result{} }

// Count returns the server-reported total match count.
func (r Result) Count() int64 { return r.count }

// Documents returns the ranked returned documents.
func (r Result) Documents() []document.Document { return r.documents }

// IsEmpty reports whether no documents were returned.
func (r Result) IsEmpty() bool { return len(r.documents) == 0 }
