package credential

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

const (
	// probeScope is requested once at resolution time to verify that an
	// az login session actually exists before the strategy is accepted.
	probeScope = "https://management.azure.com/.default"
	// searchScope is the audience for Azure AI Search data-plane requests.
	searchScope = "https://search.azure.com/.default"
)

// CLIProvider resolves a bearer credential from the local Azure CLI login.
type CLIProvider struct{}

// Name implements Provider.
func (CLIProvider) Name() string { return "azure-cli" }

// Resolve implements Provider. The token probe fails fast when no CLI
// session is available, letting the chain fall through to the next strategy.
func (CLIProvider) Resolve(ctx context.Context) (Credential, error) {
	cred, err := azidentity.NewAzureCLICredential(nil)
	if err != nil {
		return nil, fmt.Errorf("create azure cli credential: %w", err)
	}
	if _, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{probeScope}}); err != nil {
		return nil, fmt.Errorf("azure cli token: %w", err)
	}
	return &bearerCredential{source: cred, scope: searchScope}, nil
}

// bearerCredential fetches a token per request; the identity SDK caches
// and refreshes underneath.
type bearerCredential struct {
	source azcore.TokenCredential
	scope  string
}

func (b *bearerCredential) Authorize(req *http.Request) error {
	tok, err := b.source.GetToken(req.Context(), policy.TokenRequestOptions{Scopes: []string{b.scope}})
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	return nil
}

// KeyProvider resolves an admin API key credential.
type KeyProvider struct {
	Key string
}

// Name implements Provider.
func (KeyProvider) Name() string { return "api-key" }

// Resolve implements Provider.
func (p KeyProvider) Resolve(context.Context) (Credential, error) {
	if p.Key == "" {
		return nil, errors.New("admin key is not set")
	}
	return apiKeyCredential{key: p.Key}, nil
}

type apiKeyCredential struct {
	key string
}

func (c apiKeyCredential) Authorize(req *http.Request) error {
	req.Header.Set("api-key", c.key)
	return nil
}
