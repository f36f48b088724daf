package core

import (
	"errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestWebhookErrorMapperClassifiesMessages(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		category goerrors.Category
		textCode string
	}{
		{"not found", ErrWebhookNotFound, goerrors.CategoryNotFound, WebhookErrorNotFound},
		{"ownership", errors.New("core: webhook is owned by another account"), goerrors.CategoryAuthz, WebhookErrorPermissionDenied},
		{"delivery", errors.New("endpoint returned status 502"), goerrors.CategoryExternal, WebhookErrorDeliveryFailed},
		{"bad input", errors.New("core: webhook url is required"), goerrors.CategoryBadInput, WebhookErrorBadInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := webhookErrorMapper(tc.err)
			if mapped == nil {
				t.Fatalf("expected mapped error")
			}
			if mapped.Category != tc.category {
				t.Fatalf("expected category %s got %s", tc.category, mapped.Category)
			}
			if mapped.TextCode != tc.textCode {
				t.Fatalf("expected text code %s got %s", tc.textCode, mapped.TextCode)
			}
		})
	}
}

func TestWebhookErrorMapperPreservesRichErrors(t *testing.T) {
	original := goerrors.New("quota exceeded", goerrors.CategoryRateLimit).WithTextCode("QUOTA")
	mapped := webhookErrorMapper(original)
	if mapped.TextCode != "QUOTA" {
		t.Fatalf("existing text code clobbered: %s", mapped.TextCode)
	}
	if mapped.Category != goerrors.CategoryRateLimit {
		t.Fatalf("existing category clobbered: %s", mapped.Category)
	}
}

func TestEnsureWebhookErrorEnvelopeFillsDefaults(t *testing.T) {
	err := goerrors.New("boom", goerrors.CategoryNotFound)
	filled := ensureWebhookErrorEnvelope(err)
	if filled.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", filled.Code)
	}
	if filled.TextCode != WebhookErrorNotFound {
		t.Fatalf("expected %s, got %s", WebhookErrorNotFound, filled.TextCode)
	}
}

func TestWebhookErrorMapperNil(t *testing.T) {
	if webhookErrorMapper(nil) != nil {
		t.Fatalf("nil error must map to nil")
	}
}
