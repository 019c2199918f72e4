package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/dsc-chiba-u/flexrag/internal/domain"
	"github.com/dsc-chiba-u/flexrag/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

func newTestGenerator(srv *httptest.Server) *Generator {
	return NewGenerator(&Config{
		Endpoint:   srv.URL,
		APIKey:     "test-key",
		Deployment: "gpt-4o",
	})
}

func TestGenerate_ReturnsCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/deployments/gpt-4o/") {
			t.Errorf("path = %s, expected the deployment segment", r.URL.Path)
		}
		if got := r.URL.Query().Get("api-version"); got != defaultAPIVersion {
			t.Errorf("api-version = %s, expected %s", got, defaultAPIVersion)
		}

		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			Temperature float32 `json:"temperature"`
			MaxTokens   int     `json:"max_tokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Fatalf("got %d messages, expected 2", len(req.Messages))
		}
		if req.Messages[0].Role != "system" {
			t.Errorf("first message role = %s, expected system", req.Messages[0].Role)
		}
		if !strings.Contains(req.Messages[0].Content, "Question: what is this?") {
			t.Error("system message missing the question")
		}
		if !strings.Contains(req.Messages[0].Content, "--- Document 1 ---") {
			t.Error("system message missing the sources")
		}
		if req.Messages[1].Content != userPrompt {
			t.Errorf("user message = %q, expected %q", req.Messages[1].Content, userPrompt)
		}
		if req.Temperature != 0.7 {
			t.Errorf("temperature = %v, expected 0.7", req.Temperature)
		}
		if req.MaxTokens != 500 {
			t.Errorf("max_tokens = %d, expected 500", req.MaxTokens)
		}

		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "an answer"}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	answer, err := newTestGenerator(srv).Generate(
		context.Background(), "what is this?", "\n--- Document 1 ---\nContent: hello\n", 0.7, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "an answer" {
		t.Errorf("answer = %q, expected an answer", answer)
	}
}

func TestGenerate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limit exceeded"}}`))
	}))
	defer srv.Close()

	_, err := newTestGenerator(srv).Generate(context.Background(), "q", "sources", 0.7, 100)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrGeneration) {
		t.Errorf("error %v does not wrap ErrGeneration", err)
	}
	if !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("error %v missing the service message", err)
	}
}

func TestGenerate_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	_, err := newTestGenerator(srv).Generate(context.Background(), "q", "sources", 0.7, 100)
	if !errors.Is(err, domain.ErrGeneration) {
		t.Errorf("error %v does not wrap ErrGeneration", err)
	}
}
