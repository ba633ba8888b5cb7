// Package federation exchanges third-party OAuth authorization codes for
// verified email addresses. It makes no account or session decisions.
package federation

import (
	"context"
	"fmt"
)

// Provider is an external identity provider.
type Provider interface {
	// Name is the registry key, e.g. "spotify".
	Name() string

	// DisplayName is used in client-facing messages, e.g. "Spotify".
	DisplayName() string

	// AuthCodeURL returns the provider's consent page URL.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a provider access token.
	// A provider rejection returns "", nil. Transport failures return an
	// error wrapping common.ErrUpstream.
	Exchange(ctx context.Context, code string) (string, error)

	// FetchEmail returns the email of the account owning accessToken.
	FetchEmail(ctx context.Context, accessToken string) (string, error)
}

// Registry holds the configured providers by name.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(list ...Provider) *Registry {
	m := make(map[string]Provider, len(list))
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown identity provider: %s", name)
	}
	return p, nil
}
