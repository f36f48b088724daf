package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-webhooks/core"
)

const (
	defaultTokenTTL = time.Hour
	// Tokens are refreshed once less than a minute of validity remains, so a
	// delivery never goes out with a token about to lapse mid-flight.
	defaultRenewBefore        = time.Minute
	defaultTokenFetchTimeout  = 15 * time.Second
	maxTokenResponseBodyBytes = int64(1 << 20)
)

type OAuth2Option func(*OAuth2ClientCredentialsStrategy)

func WithRenewBefore(margin time.Duration) OAuth2Option {
	return func(s *OAuth2ClientCredentialsStrategy) {
		if margin > 0 {
			s.renewBefore = margin
		}
	}
}

func WithTokenFetchTimeout(timeout time.Duration) OAuth2Option {
	return func(s *OAuth2ClientCredentialsStrategy) {
		if timeout > 0 {
			s.fetchTimeout = timeout
		}
	}
}

func WithNow(now func() time.Time) OAuth2Option {
	return func(s *OAuth2ClientCredentialsStrategy) {
		if now != nil {
			s.now = now
		}
	}
}

// OAuth2ClientCredentialsStrategy obtains bearer tokens via the
// client-credentials grant and reuses them through the injected token cache
// until they approach expiry.
type OAuth2ClientCredentialsStrategy struct {
	codec        core.AuthConfigCodec
	cache        core.TokenCache
	httpClient   *http.Client
	renewBefore  time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
}

func NewOAuth2ClientCredentialsStrategy(
	codec core.AuthConfigCodec,
	cache core.TokenCache,
	httpClient *http.Client,
	opts ...OAuth2Option,
) *OAuth2ClientCredentialsStrategy {
	if codec == nil {
		codec = core.JSONAuthConfigCodec{}
	}
	if cache == nil {
		cache = NewMemoryTokenCache()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	strategy := &OAuth2ClientCredentialsStrategy{
		codec:        codec,
		cache:        cache,
		httpClient:   httpClient,
		renewBefore:  defaultRenewBefore,
		fetchTimeout: defaultTokenFetchTimeout,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(strategy)
	}
	return strategy
}

func (*OAuth2ClientCredentialsStrategy) Type() core.AuthType { return core.AuthTypeOAuth2 }

func (s *OAuth2ClientCredentialsStrategy) Apply(ctx context.Context, req *http.Request, authConfig []byte) error {
	if s == nil {
		return fmt.Errorf("auth: oauth2 strategy is nil")
	}
	if req == nil {
		return fmt.Errorf("auth: request is required")
	}
	cfg, err := s.codec.DecodeOAuth2(authConfig)
	if err != nil {
		return err
	}

	token, err := s.resolveToken(ctx, cfg)
	if err != nil {
		return err
	}
	tokenType := strings.TrimSpace(token.TokenType)
	if tokenType == "" {
		tokenType = "Bearer"
	}
	req.Header.Set("Authorization", tokenType+" "+token.AccessToken)
	return nil
}

func (s *OAuth2ClientCredentialsStrategy) resolveToken(ctx context.Context, cfg core.OAuth2AuthConfig) (core.Token, error) {
	key := cfg.CacheKey()
	cached, ok, err := s.cache.GetToken(ctx, key)
	if err != nil {
		return core.Token{}, fmt.Errorf("auth: token cache lookup: %w", err)
	}
	if ok && !cached.Expired(s.now(), s.renewBefore) {
		return cached, nil
	}

	token, err := s.fetchToken(ctx, cfg)
	if err != nil {
		return core.Token{}, err
	}
	if err := s.cache.PutToken(ctx, key, token); err != nil {
		return core.Token{}, fmt.Errorf("auth: token cache store: %w", err)
	}
	return token, nil
}

type tokenEndpointPayload struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	ErrorCode        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (s *OAuth2ClientCredentialsStrategy) fetchToken(ctx context.Context, cfg core.OAuth2AuthConfig) (core.Token, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	values := url.Values{}
	values.Set("grant_type", "client_credentials")
	if len(cfg.Scopes) > 0 {
		values.Set("scope", strings.Join(cfg.Scopes, " "))
	}

	requestCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(
		requestCtx,
		http.MethodPost,
		cfg.TokenURL,
		strings.NewReader(values.Encode()),
	)
	if err != nil {
		return core.Token{}, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(cfg.ClientID, cfg.ClientSecret)

	response, err := s.httpClient.Do(httpReq)
	if err != nil {
		return core.Token{}, fmt.Errorf("auth: token request failed: %w", err)
	}
	defer response.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(response.Body, maxTokenResponseBodyBytes+1))
	if readErr != nil {
		return core.Token{}, fmt.Errorf("auth: read token response: %w", readErr)
	}
	if int64(len(body)) > maxTokenResponseBodyBytes {
		return core.Token{}, fmt.Errorf("auth: token response exceeds %d bytes", maxTokenResponseBodyBytes)
	}

	payload := tokenEndpointPayload{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return core.Token{}, fmt.Errorf("auth: decode token response: %w", err)
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return core.Token{}, fmt.Errorf("auth: token endpoint error (%d): %s", response.StatusCode, describeTokenError(payload))
	}
	if payload.ErrorCode != "" {
		return core.Token{}, fmt.Errorf("auth: token endpoint error: %s", describeTokenError(payload))
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return core.Token{}, fmt.Errorf("auth: token endpoint response missing access token")
	}

	ttl := defaultTokenTTL
	if payload.ExpiresIn > 0 {
		ttl = time.Duration(payload.ExpiresIn) * time.Second
	}
	return core.Token{
		AccessToken: payload.AccessToken,
		TokenType:   payload.TokenType,
		ExpiresAt:   s.now().Add(ttl),
	}, nil
}

func describeTokenError(payload tokenEndpointPayload) string {
	if strings.TrimSpace(payload.ErrorDescription) != "" {
		return strings.TrimSpace(payload.ErrorDescription)
	}
	if strings.TrimSpace(payload.ErrorCode) != "" {
		return strings.TrimSpace(payload.ErrorCode)
	}
	return "unknown error"
}

var _ Strategy = (*OAuth2ClientCredentialsStrategy)(nil)
