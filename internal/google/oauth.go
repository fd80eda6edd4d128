package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// installedAppRedirect is the loopback redirect used by the CLI login flow.
const installedAppRedirect = "http://127.0.0.1"

// ErrNoOAuthClient is returned when an operation needs the OAuth client
// credentials and none were configured.
var ErrNoOAuthClient = errors.New("OAuth client is not configured")

var accountNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// OAuthConfig returns the OAuth2 configuration for the calendar scopes.
// An empty redirectURL selects the loopback redirect for installed apps.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if redirectURL == "" {
		redirectURL = installedAppRedirect
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       DefaultOAuthScopes,
	}
}

// FileTokenProvider provides tokens stored as JSON files, one per account.
// When an OAuth config is attached, expired tokens are refreshed and the
// refreshed token is written back.
type FileTokenProvider struct {
	dir    string
	config *oauth2.Config
}

// NewFileTokenProvider creates a provider rooted at dir. An empty dir selects
// DefaultTokenDir. config may be nil, in which case tokens are never refreshed.
func NewFileTokenProvider(dir string, config *oauth2.Config) *FileTokenProvider {
	if dir == "" {
		dir = DefaultTokenDir()
	}
	return &FileTokenProvider{dir: dir, config: config}
}

// DefaultTokenDir is the textcal directory under the user cache dir.
func DefaultTokenDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(os.Getenv("HOME"), ".cache")
	}
	return filepath.Join(base, "textcal")
}

// GetTokenForAccount reads the token for account from disk.
func (p *FileTokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	token, err := p.load(account)
	if err != nil {
		return nil, err
	}

	if p.config == nil {
		if !token.Valid() {
			return nil, fmt.Errorf("token for account %s has expired and no OAuth client is configured to refresh it", account)
		}
		return token, nil
	}

	fresh, err := p.config.TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if fresh.AccessToken != token.AccessToken {
		if err := p.SaveToken(account, fresh); err != nil {
			return nil, err
		}
	}
	return fresh, nil
}

// HasTokenForAccount checks if a token file exists for the specified account.
func (p *FileTokenProvider) HasTokenForAccount(account string) bool {
	if validateAccountName(account) != nil {
		return false
	}
	_, err := os.Stat(p.tokenFilePath(account))
	return err == nil
}

// SaveToken writes token for account with owner-only permissions.
func (p *FileTokenProvider) SaveToken(account string, token *oauth2.Token) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	if err := os.MkdirAll(p.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(p.tokenFilePath(account), data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// AuthCodeURL returns the consent page URL for the installed-app flow.
func (p *FileTokenProvider) AuthCodeURL(state string) (string, error) {
	if p.config == nil {
		return "", ErrNoOAuthClient
	}
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// Exchange trades an authorization code for a token and stores it.
func (p *FileTokenProvider) Exchange(ctx context.Context, account, code string) (*oauth2.Token, error) {
	if p.config == nil {
		return nil, ErrNoOAuthClient
	}
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if err := p.SaveToken(account, token); err != nil {
		return nil, err
	}
	return token, nil
}

func (p *FileTokenProvider) load(account string) (*oauth2.Token, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.tokenFilePath(account))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w for account %s; run 'textcal auth login --account %s'", ErrNoToken, account, account)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token file for account %s: %w", account, err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, fmt.Errorf("%w for account %s", ErrNoToken, account)
	}
	return &token, nil
}

func (p *FileTokenProvider) tokenFilePath(account string) string {
	return filepath.Join(p.dir, "google-"+account+".token")
}

func validateAccountName(account string) error {
	if !accountNameRe.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, '-' and '_' are allowed", account)
	}
	return nil
}
