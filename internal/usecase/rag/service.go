package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dsc-chiba-u/flexrag/internal/domain/schema"
	"github.com/dsc-chiba-u/flexrag/internal/domain/search"
)

// State is the terminal state of a pipeline run.
type State string

// Terminal states.
const (
	// StateAnswered means documents were retrieved and generation ran
	// (possibly degraded to a fallback answer).
	StateAnswered State = "answered"
	// StateNoResults means the query matched nothing; generation was skipped.
	StateNoResults State = "no_results"
	// StateSearchOnly means the caller asked to stop after retrieval.
	StateSearchOnly State = "search_only"
)

// Pipeline tuning defaults, matching the CLI defaults.
const (
	DefaultTop              = 3
	DefaultMaxContextLength = 1000
	DefaultTemperature      = 0.7
	DefaultMaxTokens        = 500
)

// Request parameterizes one pipeline run.
type Request struct {
	Index             string
	Query             string
	Top               int
	SearchOnly        bool
	MaxContextLength  int
	Temperature       float32
	MaxTokens         int
	VectorNamePattern string
	VectorTypePattern string
}

// Outcome carries everything a caller needs to display a run: the terminal
// state, the resolved schema and classification, the raw search results,
// and (when generation ran) the assembled context and answer.
type Outcome struct {
	State            State
	Schema           schema.Schema
	Classification   schema.Classification
	Result           search.Result
	Context          string
	Answer           string
	GenerationFailed bool
}

// Service sequences the retrieval-augmented-generation pipeline:
// resolve schema, classify fields, search, assemble context, generate.
// One run is fully sequential; no state is shared across runs.
type Service struct {
	schemas   SchemaReader
	searcher  Searcher
	generator Generator
	logger    *zap.Logger
}

// New creates a pipeline service.
func New(schemas SchemaReader, searcher Searcher, generator Generator, logger *zap.Logger) *Service {
	return &Service{schemas: schemas, searcher: searcher, generator: generator, logger: logger}
}

// Run executes one pipeline invocation. Only a schema fetch failure aborts
// the run; search failures degrade to an empty result and generation
// failures degrade to a fallback answer, both logged.
func (s *Service) Run(ctx context.Context, req Request) (Outcome, error) {
	applyDefaults(&req)

	sch, err := s.schemas.GetSchema(ctx, req.Index)
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve schema: %w", err)
	}

	cls := schema.Classify(sch, schema.ClassifyOptions{
		VectorNamePattern: req.VectorNamePattern,
		VectorTypePattern: req.VectorTypePattern,
	})

	out := Outcome{Schema: sch, Classification: cls}
	out.Result = s.executeSearch(ctx, req, cls)

	if out.Result.IsEmpty() {
		out.State = StateNoResults
		return out, nil
	}
	if req.SearchOnly {
		out.State = StateSearchOnly
		return out, nil
	}

	out.Context = BuildContext(out.Result.Documents(), sch.RetrievableFields(), req.MaxContextLength)

	answer, err := s.generator.Generate(ctx, req.Query, out.Context, req.Temperature, req.MaxTokens)
	if err != nil {
		s.logger.Warn("answer generation failed, returning raw results",
			zap.String("index", req.Index), zap.Error(err))
		out.Answer = fmt.Sprintf("Answer generation failed: %v. The raw search results are shown instead.", err)
		out.GenerationFailed = true
	} else {
		out.Answer = answer
	}
	out.State = StateAnswered
	return out, nil
}

// executeSearch runs a single query attempt. Any transport or service
// error degrades to an empty result; it is logged, never propagated.
func (s *Service) executeSearch(ctx context.Context, req Request, cls schema.Classification) search.Result {
	var fields []string
	if cls.Unrestricted() {
		s.logger.Warn("no searchable text fields, querying across all fields",
			zap.String("index", req.Index))
	} else {
		fields = cls.Fields()
		s.logger.Debug("search fields classified",
			zap.String("index", req.Index), zap.Strings("fields", fields))
	}

	res, err := s.searcher.Search(ctx, req.Index, req.Query, fields, req.Top)
	if err != nil {
		s.logger.Error("search failed",
			zap.String("index", req.Index), zap.Error(err))
		return search.Empty()
	}
	return res
}

func applyDefaults(req *Request) {
	if req.Top <= 0 {
		req.Top = DefaultTop
	}
	if req.MaxContextLength == 0 {
		req.MaxContextLength = DefaultMaxContextLength
	}
	if req.Temperature == 0 {
		req.Temperature = DefaultTemperature
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}
}
