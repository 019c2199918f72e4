// Package azsearch is a thin REST client for the Azure AI Search data
// plane: index listing, schema introspection, and full-text queries.
package azsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dsc-chiba-u/flexrag/internal/domain"
	"github.com/dsc-chiba-u/flexrag/internal/domain/document"
	"github.com/dsc-chiba-u/flexrag/internal/domain/schema"
	"github.com/dsc-chiba-u/flexrag/internal/domain/search"
	"github.com/dsc-chiba-u/flexrag/internal/metrics"
)

const defaultAPIVersion = "2023-11-01"

// Credential authorizes outgoing requests (api-key or bearer token).
type Credential interface {
	Authorize(req *http.Request) error
}

// Config holds the search service connection settings.
type Config struct {
	Endpoint   string
	APIVersion string
	Credential Credential
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to one Azure AI Search service.
type Client struct {
	endpoint   string
	apiVersion string
	cred       Credential
	httpc      *http.Client
	logger     *zap.Logger
}

// NewClient creates a search service client. Requests rely on the HTTP
// client's default timeout behavior; no retries are attempted.
func NewClient(cfg *Config) *Client {
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiVersion: apiVersion,
		cred:       cfg.Credential,
		httpc:      httpc,
		logger:     logger,
	}
}

// ListIndexes returns the names of all indexes on the service.
func (c *Client) ListIndexes(ctx context.Context) ([]string, error) {
	u := fmt.Sprintf("%s/indexes?api-version=%s&$select=name", c.endpoint, c.apiVersion)

	var resp indexListDTO
	if err := c.do(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}

	names := make([]string, 0, len(resp.Value))
	for _, v := range resp.Value {
		names = append(names, v.Name)
	}
	return names, nil
}

// GetSchema fetches an index definition and normalizes it into a domain
// schema. A missing index or unreachable service yields ErrSchemaFetch;
// the 404 case additionally wraps ErrIndexNotFound.
func (c *Client) GetSchema(ctx context.Context, index string) (schema.Schema, error) {
	u := fmt.Sprintf("%s/indexes/%s?api-version=%s", c.endpoint, url.PathEscape(index), c.apiVersion)

	var dto indexDTO
	if err := c.do(ctx, http.MethodGet, u, nil, &dto); err != nil {
		metrics.SchemaFetchesTotal.WithLabelValues(index, "error").Inc()
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.status == http.StatusNotFound {
			return schema.Schema{}, fmt.Errorf("%w: index %q: %w", domain.ErrSchemaFetch, index, domain.ErrIndexNotFound)
		}
		return schema.Schema{}, fmt.Errorf("%w: index %q: %w", domain.ErrSchemaFetch, index, err)
	}

	s, err := dto.toDomain()
	if err != nil {
		metrics.SchemaFetchesTotal.WithLabelValues(index, "error").Inc()
		return schema.Schema{}, fmt.Errorf("%w: %w", domain.ErrSchemaFetch, err)
	}

	metrics.SchemaFetchesTotal.WithLabelValues(index, "success").Inc()
	return s, nil
}

// Search executes a single full-text query attempt. An empty fields slice
// omits the searchFields constraint so the service searches all searchable
// fields. The returned count is the server-reported total, independent of
// top; service metadata keys are stripped from the documents.
func (c *Client) Search(ctx context.Context, index, query string, fields []string, top int) (search.Result, error) {
	u := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", c.endpoint, url.PathEscape(index), c.apiVersion)

	body := searchRequestDTO{Search: query, Top: top, Count: true}
	if len(fields) > 0 {
		body.SearchFields = strings.Join(fields, ",")
	}

	start := time.Now()
	var resp searchResponseDTO
	err := c.do(ctx, http.MethodPost, u, body, &resp)
	duration := time.Since(start)

	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(index, "error").Inc()
		return search.Result{}, fmt.Errorf("%w: %w", domain.ErrSearch, err)
	}

	metrics.SearchRequestsTotal.WithLabelValues(index, "success").Inc()
	metrics.SearchRequestDuration.WithLabelValues(index).Observe(duration.Seconds())

	docs := make([]document.Document, 0, len(resp.Value))
	for _, raw := range resp.Value {
		docs = append(docs, document.FromRaw(raw))
	}

	c.logger.Debug("search executed",
		zap.String("index", index),
		zap.Int64("count", resp.Count),
		zap.Int("returned", len(docs)),
		zap.Duration("latency", duration),
	)
	return search.New(resp.Count, docs), nil
}

// apiError is a non-2xx service response.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("search API error %d: %s", e.status, e.body)
}

const maxErrorBody = 512

func (c *Client) do(ctx context.Context, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.cred != nil {
		if err := c.cred.Authorize(req); err != nil {
			return fmt.Errorf("authorize request: %w", err)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &apiError{status: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
