package auth

import (
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
)

// TokenBundle is the provider's token endpoint response. The raw payload is
// retained so the stored bundle round-trips exactly as received, including
// fields this client does not interpret.
type TokenBundle struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`

	raw []byte
}

// ParseTokenBundle decodes a token endpoint response, keeping the raw bytes.
func ParseTokenBundle(data []byte) (*TokenBundle, error) {
	var bundle TokenBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	bundle.raw = append([]byte(nil), data...)
	return &bundle, nil
}

// Raw returns the original provider payload.
func (b *TokenBundle) Raw() []byte {
	return b.raw
}

// OAuth2Token converts the bundle for use with [oauth2] token sources.
func (b *TokenBundle) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  b.AccessToken,
		TokenType:    b.TokenType,
		RefreshToken: b.RefreshToken,
	}
}
