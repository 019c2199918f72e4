package credential

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/dsc-chiba-u/flexrag/internal/domain"
)

type providerMock struct {
	name  string
	cred  Credential
	err   error
	calls int
}

func (p *providerMock) Name() string { return p.name }

func (p *providerMock) Resolve(context.Context) (Credential, error) {
	p.calls++
	return p.cred, p.err
}

type credMock struct{}

func (credMock) Authorize(*http.Request) error { return nil }

func TestResolve_FirstSuccessWins(t *testing.T) {
	first := &providerMock{name: "first", cred: credMock{}}
	second := &providerMock{name: "second", cred: credMock{}}

	cred, err := Resolve(context.Background(), zap.NewNop(), first, second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred == nil {
		t.Fatal("expected a credential")
	}
	if second.calls != 0 {
		t.Errorf("second provider called %d times, expected 0", second.calls)
	}
}

func TestResolve_FallsThroughOnFailure(t *testing.T) {
	first := &providerMock{name: "first", err: errors.New("no session")}
	second := &providerMock{name: "second", cred: credMock{}}

	cred, err := Resolve(context.Background(), zap.NewNop(), first, second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred == nil {
		t.Fatal("expected the second provider's credential")
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("calls = %d/%d, expected 1/1", first.calls, second.calls)
	}
}

func TestResolve_AllFail(t *testing.T) {
	first := &providerMock{name: "first", err: errors.New("no session")}
	second := &providerMock{name: "second", err: errors.New("no key")}

	_, err := Resolve(context.Background(), zap.NewNop(), first, second)
	if err == nil {
		t.Fatal("expected error when every provider fails")
	}
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("error %v does not wrap ErrConfiguration", err)
	}
}

func TestKeyProvider(t *testing.T) {
	if _, err := (KeyProvider{}).Resolve(context.Background()); err == nil {
		t.Error("expected error for an empty key")
	}

	cred, err := KeyProvider{Key: "secret"}.Resolve(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, "https://example.search.windows.net/indexes", nil)
	if err := cred.Authorize(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := req.Header.Get("api-key"); got != "secret" {
		t.Errorf("api-key header = %q, expected secret", got)
	}
}
