package google

import (
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// BearerToken extracts the bearer token from the Authorization header of r.
// The scheme is matched case-insensitively. It returns false when the header
// is missing, uses another scheme, or carries an empty token.
func BearerToken(r *http.Request) (*oauth2.Token, bool) {
	header := r.Header.Get("Authorization")
	scheme, value, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return nil, false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, false
	}
	return TokenFromAccessToken(value), true
}
