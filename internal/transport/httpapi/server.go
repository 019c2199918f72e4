// Package httpapi exposes the pipeline as a small HTTP service.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dsc-chiba-u/flexrag/internal/domain"
	"github.com/dsc-chiba-u/flexrag/internal/domain/schema"
	"github.com/dsc-chiba-u/flexrag/internal/usecase/rag"
)

// Pipeline runs one retrieval-augmented-generation invocation.
type Pipeline interface {
	Run(ctx context.Context, req rag.Request) (rag.Outcome, error)
}

// IndexReader lists indexes and fetches schemas.
type IndexReader interface {
	ListIndexes(ctx context.Context) ([]string, error)
	GetSchema(ctx context.Context, index string) (schema.Schema, error)
}

// Server handles the HTTP API.
type Server struct {
	pipeline Pipeline
	indexes  IndexReader
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(pipeline Pipeline, indexes IndexReader, logger *zap.Logger) *Server {
	return &Server{pipeline: pipeline, indexes: indexes, logger: logger}
}

// Routes builds the router: query, index listing, schema introspection,
// health, and metrics.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/indexes", s.listIndexes)
	r.Get("/indexes/{name}/schema", s.getSchema)
	r.Post("/query", s.query)
	return r
}

type queryRequest struct {
	Index      string `json:"index"`
	Query      string `json:"query"`
	Top        int    `json:"top"`
	SearchOnly bool   `json:"search_only"`
}

type queryResponse struct {
	State            string           `json:"state"`
	Count            int64            `json:"count"`
	Documents        []map[string]any `json:"documents"`
	SearchFields     []string         `json:"search_fields,omitempty"`
	Answer           string           `json:"answer,omitempty"`
	GenerationFailed bool             `json:"generation_failed,omitempty"`
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.Index == "" || req.Query == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "index and query are required")
		return
	}

	out, err := s.pipeline.Run(r.Context(), rag.Request{
		Index:      req.Index,
		Query:      req.Query,
		Top:        req.Top,
		SearchOnly: req.SearchOnly,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	docs := make([]map[string]any, 0, len(out.Result.Documents()))
	for _, d := range out.Result.Documents() {
		docs = append(docs, d.Fields())
	}
	writeJSON(w, http.StatusOK, queryResponse{
		State:            string(out.State),
		Count:            out.Result.Count(),
		Documents:        docs,
		SearchFields:     out.Classification.Fields(),
		Answer:           out.Answer,
		GenerationFailed: out.GenerationFailed,
	})
}

func (s *Server) listIndexes(w http.ResponseWriter, r *http.Request) {
	names, err := s.indexes.ListIndexes(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"indexes": names})
}

func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sch, err := s.indexes.GetSchema(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schemaToJSON(sch))
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDomainError maps domain sentinels to HTTP statuses.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrIndexNotFound):
		writeError(w, http.StatusNotFound, "index_not_found", err.Error())
	case errors.Is(err, domain.ErrSchemaFetch):
		writeError(w, http.StatusBadGateway, "schema_fetch_failed", err.Error())
	case errors.Is(err, domain.ErrConfiguration):
		writeError(w, http.StatusInternalServerError, "configuration_error", err.Error())
	default:
		s.logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

type fieldJSON struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Searchable  bool   `json:"searchable"`
	Retrievable bool   `json:"retrievable"`
	Filterable  bool   `json:"filterable"`
	Sortable    bool   `json:"sortable"`
	Facetable   bool   `json:"facetable"`
	Key         bool   `json:"key"`
	Dimensions  int    `json:"dimensions,omitempty"`
}

type schemaJSON struct {
	Name              string      `json:"name"`
	Fields            []fieldJSON `json:"fields"`
	SearchableFields  []string    `json:"searchable_fields"`
	RetrievableFields []string    `json:"retrievable_fields"`
	HasVectorFields   bool        `json:"has_vector_fields"`
}

func schemaToJSON(s schema.Schema) schemaJSON {
	fields := make([]fieldJSON, 0, len(s.Fields()))
	for _, f := range s.Fields() {
		caps := f.Capabilities()
		fields = append(fields, fieldJSON{
			Name:        f.Name(),
			Type:        f.FieldType(),
			Searchable:  caps.Searchable,
			Retrievable: caps.Retrievable,
			Filterable:  caps.Filterable,
			Sortable:    caps.Sortable,
			Facetable:   caps.Facetable,
			Key:         f.Key(),
			Dimensions:  f.Dimensions(),
		})
	}
	return schemaJSON{
		Name:              s.Name(),
		Fields:            fields,
		SearchableFields:  s.SearchableFields(),
		RetrievableFields: s.RetrievableFields(),
		HasVectorFields:   s.HasVectorFields(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}
