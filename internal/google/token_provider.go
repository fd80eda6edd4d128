package google

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// DefaultAccount is the account name used when none is given.
const DefaultAccount = "default"

// ErrNoToken is returned when a provider holds no token for an account.
var ErrNoToken = errors.New("no Google OAuth token available")

// TokenProvider is an interface for providing OAuth tokens for Google APIs.
// This abstraction allows different token sources (request header, file, ...).
type TokenProvider interface {
	// GetTokenForAccount retrieves an OAuth token for the specified account
	GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error)

	// HasTokenForAccount checks if a token exists for the specified account
	HasTokenForAccount(account string) bool
}

// StaticTokenProvider hands out one fixed token for every account. It backs
// requests that arrive with their own bearer token.
type StaticTokenProvider struct {
	token *oauth2.Token
}

// NewStaticTokenProvider wraps token.
func NewStaticTokenProvider(token *oauth2.Token) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// GetTokenForAccount returns the wrapped token.
func (p *StaticTokenProvider) GetTokenForAccount(_ context.Context, _ string) (*oauth2.Token, error) {
	if !p.HasTokenForAccount("") {
		return nil, ErrNoToken
	}
	return p.token, nil
}

// HasTokenForAccount reports whether a non-empty token is wrapped.
func (p *StaticTokenProvider) HasTokenForAccount(_ string) bool {
	return p != nil && p.token != nil && p.token.AccessToken != ""
}

// TokenFromAccessToken builds a bearer token from a raw access token string.
func TokenFromAccessToken(accessToken string) *oauth2.Token {
	return &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
}

// ResolveToken fetches the token for account, wrapping failures with the account name.
func ResolveToken(ctx context.Context, provider TokenProvider, account string) (*oauth2.Token, error) {
	if provider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}
	if account == "" {
		account = DefaultAccount
	}
	token, err := provider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}
	return token, nil
}
