package ratelimit

import (
	"testing"
	"time"

	"github.com/goliatone/go-webhooks/core"
)

func TestThrottledError_ToWebhookError(t *testing.T) {
	err := ThrottledError{
		WebhookID:  "wh_1",
		Host:       "subscriber.example.com",
		RetryAfter: 3 * time.Second,
	}

	mapped := err.ToWebhookError()
	if mapped == nil {
		t.Fatalf("expected mapped error")
	}
	if mapped.TextCode != core.WebhookErrorRateLimited {
		t.Fatalf("expected %q text code, got %q", core.WebhookErrorRateLimited, mapped.TextCode)
	}
	if mapped.Code != 429 {
		t.Fatalf("expected status code 429, got %d", mapped.Code)
	}
}
