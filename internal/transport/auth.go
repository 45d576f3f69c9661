package transport

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/MarkBruyneel/WorldCat/pkg/errors"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request) error
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request) error { return nil }

// BearerAuth sets a fixed bearer token. Used in tests.
type BearerAuth struct {
	Token string
}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+a.Token)
	return nil
}

// TokenAuth obtains bearer tokens from an OAuth2 token source, refreshing
// them as they expire. A failed token exchange is an authentication error,
// which is fatal for the remainder of a run.
type TokenAuth struct {
	Source   oauth2.TokenSource
	TokenURL string
}

// Apply implements the Authenticator interface for TokenAuth.
func (a *TokenAuth) Apply(req *http.Request) error {
	token, err := a.Source.Token()
	if err != nil {
		return errors.WrapAuth(a.TokenURL, err)
	}
	token.SetAuthHeader(req)
	return nil
}

// ClientCredentials builds a TokenAuth for the OAuth2 client-credentials
// grant: client id and secret exchanged at tokenURL for a scoped access
// token. The returned source caches the token and refreshes it before each
// call once expired.
func ClientCredentials(ctx context.Context, clientID, clientSecret, tokenURL string, scopes []string) *TokenAuth {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	return &TokenAuth{
		Source:   cfg.TokenSource(ctx),
		TokenURL: tokenURL,
	}
}
