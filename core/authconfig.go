package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// BasicAuthConfig is the decrypted credential shape for basic-auth webhooks.
type BasicAuthConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c BasicAuthConfig) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("core: basic auth username is required")
	}
	if c.Password == "" {
		return fmt.Errorf("core: basic auth password is required")
	}
	return nil
}

// OAuth2AuthConfig is the decrypted credential shape for oauth2 webhooks.
// Tokens are obtained via the client-credentials grant against TokenURL.
type OAuth2AuthConfig struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	TokenURL     string   `json:"token_url"`
	Scopes       []string `json:"scopes,omitempty"`
}

func (c OAuth2AuthConfig) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("core: oauth2 client id is required")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		return fmt.Errorf("core: oauth2 client secret is required")
	}
	if strings.TrimSpace(c.TokenURL) == "" {
		return fmt.Errorf("core: oauth2 token url is required")
	}
	return nil
}

// CacheKey identifies the token cache slot for this credential pair.
func (c OAuth2AuthConfig) CacheKey() string {
	return strings.TrimSpace(c.ClientID) + "|" + strings.TrimSpace(c.TokenURL)
}

// AuthConfigCodec translates between the typed auth config variants and the
// plaintext bytes handed to the secret provider for encryption at rest.
type AuthConfigCodec interface {
	EncodeBasic(cfg BasicAuthConfig) ([]byte, error)
	DecodeBasic(payload []byte) (BasicAuthConfig, error)
	EncodeOAuth2(cfg OAuth2AuthConfig) ([]byte, error)
	DecodeOAuth2(payload []byte) (OAuth2AuthConfig, error)
}

type JSONAuthConfigCodec struct{}

func (JSONAuthConfigCodec) EncodeBasic(cfg BasicAuthConfig) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("core: encode basic auth config: %w", err)
	}
	return encoded, nil
}

func (JSONAuthConfigCodec) DecodeBasic(payload []byte) (BasicAuthConfig, error) {
	if len(payload) == 0 {
		return BasicAuthConfig{}, fmt.Errorf("core: basic auth config payload is empty")
	}
	decoded := BasicAuthConfig{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return BasicAuthConfig{}, fmt.Errorf("core: decode basic auth config: %w", err)
	}
	if err := decoded.Validate(); err != nil {
		return BasicAuthConfig{}, err
	}
	return decoded, nil
}

func (JSONAuthConfigCodec) EncodeOAuth2(cfg OAuth2AuthConfig) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	cfg.TokenURL = strings.TrimSpace(cfg.TokenURL)
	cfg.Scopes = normalizeScopes(cfg.Scopes)
	encoded, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("core: encode oauth2 auth config: %w", err)
	}
	return encoded, nil
}

func (JSONAuthConfigCodec) DecodeOAuth2(payload []byte) (OAuth2AuthConfig, error) {
	if len(payload) == 0 {
		return OAuth2AuthConfig{}, fmt.Errorf("core: oauth2 auth config payload is empty")
	}
	decoded := OAuth2AuthConfig{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return OAuth2AuthConfig{}, fmt.Errorf("core: decode oauth2 auth config: %w", err)
	}
	if err := decoded.Validate(); err != nil {
		return OAuth2AuthConfig{}, err
	}
	decoded.Scopes = normalizeScopes(decoded.Scopes)
	return decoded, nil
}

func normalizeScopes(scopes []string) []string {
	if len(scopes) == 0 {
		return nil
	}
	out := make([]string, 0, len(scopes))
	seen := map[string]struct{}{}
	for _, scope := range scopes {
		trimmed := strings.TrimSpace(scope)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Token is a cached bearer credential for oauth2 deliveries.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

func (t Token) Expired(now time.Time, margin time.Duration) bool {
	if strings.TrimSpace(t.AccessToken) == "" {
		return true
	}
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !t.ExpiresAt.After(now.Add(margin))
}
