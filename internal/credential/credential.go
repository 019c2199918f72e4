// Package credential resolves an opaque request credential through an
// ordered list of provider strategies. It stays outside the search and
// generation logic; consumers only see the resolved Credential.
package credential

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dsc-chiba-u/flexrag/internal/domain"
)

// Credential authorizes an outgoing HTTP request.
type Credential interface {
	Authorize(req *http.Request) error
}

// Provider resolves a credential with one strategy.
type Provider interface {
	Name() string
	Resolve(ctx context.Context) (Credential, error)
}

// Resolve tries providers in order and returns the first credential that
// resolves. Provider failures are logged and the next strategy is tried.
func Resolve(ctx context.Context, logger *zap.Logger, providers ...Provider) (Credential, error) {
	for _, p := range providers {
		cred, err := p.Resolve(ctx)
		if err != nil {
			logger.Warn("credential provider failed, trying next",
				zap.String("provider", p.Name()), zap.Error(err))
			continue
		}
		logger.Info("credential resolved", zap.String("provider", p.Name()))
		return cred, nil
	}
	return nil, fmt.Errorf("%w: no credential provider succeeded", domain.ErrConfiguration)
}
