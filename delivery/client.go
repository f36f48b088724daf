// Package delivery implements the outbound HTTP client that posts event
// payloads to subscriber endpoints.
package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-webhooks/auth"
	"github.com/goliatone/go-webhooks/core"
)

const (
	defaultClientTimeout = 30 * time.Second
	defaultUserAgent     = "go-webhooks/1.0"
	responseDrainLimit   = int64(1 << 20)
	headerContentType    = "Content-Type"
	contentTypeJSON      = "application/json"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientOption func(*HTTPClient)

func WithHTTPDoer(client HTTPDoer) ClientOption {
	return func(c *HTTPClient) {
		if client != nil {
			c.client = client
		}
	}
}

func WithStrategies(strategies auth.StrategySet) ClientOption {
	return func(c *HTTPClient) {
		if len(strategies) > 0 {
			c.strategies = strategies
		}
	}
}

func WithUserAgent(userAgent string) ClientOption {
	return func(c *HTTPClient) {
		trimmed := strings.TrimSpace(userAgent)
		if trimmed != "" {
			c.userAgent = trimmed
		}
	}
}

func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *HTTPClient) {
		c.defaultHeaders = headers
	}
}

// WithThrottle gates delivery attempts through a per-endpoint rate limit
// policy. Throttled endpoints fail the attempt without an HTTP call, which
// lands the record back in the retry queue with the usual backoff.
func WithThrottle(policy core.RateLimitPolicy) ClientOption {
	return func(c *HTTPClient) {
		c.throttle = policy
	}
}

// HTTPClient posts JSON payloads to subscriber endpoints. Transport and
// protocol failures are reported through the Outcome; any non-2xx status is
// a failed attempt.
type HTTPClient struct {
	client         HTTPDoer
	strategies     auth.StrategySet
	defaultHeaders map[string]string
	userAgent      string
	throttle       core.RateLimitPolicy
}

func NewHTTPClient(opts ...ClientOption) *HTTPClient {
	client := &HTTPClient{
		client:     &http.Client{Timeout: defaultClientTimeout},
		strategies: auth.DefaultStrategySet(nil, nil, nil),
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(client)
	}
	return client
}

func (c *HTTPClient) Deliver(ctx context.Context, webhook core.Webhook, payload []byte) core.Outcome {
	if c == nil || c.client == nil {
		return core.Outcome{Err: fmt.Errorf("delivery: http client is not configured")}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	strategy, ok := c.strategies.For(webhook.AuthType)
	if !ok {
		return core.Outcome{Err: fmt.Errorf("delivery: unsupported auth type %q", webhook.AuthType)}
	}

	timeout := webhook.Timeout
	if timeout <= 0 {
		timeout = core.DefaultDeliveryTimeout
	}
	requestCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, strings.TrimSpace(webhook.URL), bytes.NewReader(payload))
	if err != nil {
		return core.Outcome{Err: fmt.Errorf("delivery: create request: %w", err)}
	}
	for key, value := range c.defaultHeaders {
		if strings.TrimSpace(key) == "" {
			continue
		}
		req.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	for key, value := range webhook.Headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		req.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	req.Header.Set(headerContentType, contentTypeJSON)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if err := strategy.Apply(requestCtx, req, webhook.AuthConfig); err != nil {
		return core.Outcome{Err: fmt.Errorf("delivery: apply auth: %w", err)}
	}

	throttleKey := core.RateLimitKey{WebhookID: webhook.ID, Host: req.URL.Host}
	if c.throttle != nil {
		if err := c.throttle.BeforeCall(requestCtx, throttleKey); err != nil {
			return core.Outcome{Err: fmt.Errorf("delivery: endpoint throttled: %w", err)}
		}
	}

	res, err := c.client.Do(req)
	if err != nil {
		return core.Outcome{Err: fmt.Errorf("delivery: execute request: %w", err)}
	}
	defer res.Body.Close()
	// Response bodies are irrelevant to the outcome; drain so the transport
	// can reuse the connection.
	io.Copy(io.Discard, io.LimitReader(res.Body, responseDrainLimit)) //nolint:errcheck

	if c.throttle != nil {
		// State bookkeeping must not change the attempt outcome.
		_ = c.throttle.AfterCall(requestCtx, throttleKey, core.EndpointResponseMeta{
			StatusCode: res.StatusCode,
			Headers:    flattenHeaders(res.Header),
		})
	}

	return core.Outcome{
		Success:    res.StatusCode >= http.StatusOK && res.StatusCode < http.StatusMultipleChoices,
		StatusCode: res.StatusCode,
	}
}

func flattenHeaders(header http.Header) map[string]string {
	if len(header) == 0 {
		return nil
	}
	out := make(map[string]string, len(header))
	for key := range header {
		out[key] = header.Get(key)
	}
	return out
}

var _ core.DeliveryClient = (*HTTPClient)(nil)
