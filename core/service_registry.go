package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// RegisterWebhook creates a subscriber configuration owned by the actor.
// Credential payloads are validated against the auth type and sealed by the
// secret provider before they touch the store.
func (s *Service) RegisterWebhook(ctx context.Context, actor Actor, input CreateWebhookInput) (Webhook, error) {
	startedAt := time.Now()
	webhook, err := s.registerWebhook(ctx, actor, input)
	s.observeOperation(ctx, startedAt, "webhook_register", err, map[string]any{
		"owner_id":   input.OwnerID,
		"webhook_id": webhook.ID,
	})
	return webhook, s.mapError(err)
}

func (s *Service) registerWebhook(ctx context.Context, actor Actor, input CreateWebhookInput) (Webhook, error) {
	if s == nil || s.webhookStore == nil {
		return Webhook{}, fmt.Errorf("core: webhook store is not configured")
	}
	ownerID := strings.TrimSpace(input.OwnerID)
	if ownerID == "" {
		ownerID = actor.ID
	}
	if !actor.CanMutate(ownerID) {
		return Webhook{}, permissionDenied("webhook", ownerID)
	}

	authType, err := ParseAuthType(string(input.AuthType))
	if err != nil {
		return Webhook{}, err
	}
	sealed, err := s.sealAuthConfig(ctx, authType, input.AuthConfig)
	if err != nil {
		return Webhook{}, err
	}

	now := s.clock()
	webhook := Webhook{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		URL:        strings.TrimSpace(input.URL),
		Events:     normalizeEvents(input.Events),
		Status:     WebhookStatusActive,
		AuthType:   authType,
		AuthConfig: sealed,
		Headers:    cloneHeaders(input.Headers),
		MaxRetries: input.MaxRetries,
		Timeout:    input.Timeout,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if webhook.MaxRetries == 0 {
		webhook.MaxRetries = DefaultMaxRetries
	}
	if webhook.Timeout == 0 {
		webhook.Timeout = DefaultDeliveryTimeout
	}
	if err := webhook.Validate(); err != nil {
		return Webhook{}, err
	}
	return s.webhookStore.Create(ctx, webhook)
}

// UpdateWebhook applies a partial update to a webhook the actor owns. Nil
// pointer fields keep their stored values.
func (s *Service) UpdateWebhook(ctx context.Context, actor Actor, id string, input UpdateWebhookInput) (Webhook, error) {
	startedAt := time.Now()
	webhook, err := s.updateWebhook(ctx, actor, id, input)
	s.observeOperation(ctx, startedAt, "webhook_update", err, map[string]any{
		"webhook_id": id,
		"owner_id":   webhook.OwnerID,
	})
	return webhook, s.mapError(err)
}

func (s *Service) updateWebhook(ctx context.Context, actor Actor, id string, input UpdateWebhookInput) (Webhook, error) {
	if s == nil || s.webhookStore == nil {
		return Webhook{}, fmt.Errorf("core: webhook store is not configured")
	}
	webhook, err := s.webhookStore.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return Webhook{}, err
	}
	if !actor.CanMutate(webhook.OwnerID) {
		return Webhook{}, permissionDenied("webhook", webhook.OwnerID)
	}

	if input.URL != nil {
		webhook.URL = strings.TrimSpace(*input.URL)
	}
	if input.Events != nil {
		webhook.Events = normalizeEvents(input.Events)
	}
	if input.Status != nil {
		status, parseErr := ParseWebhookStatus(string(*input.Status))
		if parseErr != nil {
			return Webhook{}, parseErr
		}
		webhook.Status = status
	}
	if input.Headers != nil {
		webhook.Headers = cloneHeaders(input.Headers)
	}
	if input.MaxRetries != nil {
		webhook.MaxRetries = *input.MaxRetries
	}
	if input.Timeout != nil {
		webhook.Timeout = *input.Timeout
	}
	if input.AuthType != nil {
		authType, parseErr := ParseAuthType(string(*input.AuthType))
		if parseErr != nil {
			return Webhook{}, parseErr
		}
		webhook.AuthType = authType
		webhook.AuthConfig = nil
	}
	if len(input.AuthConfig) > 0 {
		sealed, sealErr := s.sealAuthConfig(ctx, webhook.AuthType, input.AuthConfig)
		if sealErr != nil {
			return Webhook{}, sealErr
		}
		webhook.AuthConfig = sealed
	}
	if webhook.AuthType == AuthTypeNone {
		webhook.AuthConfig = nil
	}

	webhook.UpdatedAt = s.clock()
	if err := webhook.Validate(); err != nil {
		return Webhook{}, err
	}
	return s.webhookStore.Update(ctx, webhook)
}

// DeleteWebhook soft-deletes a webhook the actor owns. Delivery records keep
// their history; pending ones are abandoned on the next sweep.
func (s *Service) DeleteWebhook(ctx context.Context, actor Actor, id string) error {
	startedAt := time.Now()
	err := s.deleteWebhook(ctx, actor, id)
	s.observeOperation(ctx, startedAt, "webhook_delete", err, map[string]any{
		"webhook_id": id,
	})
	return s.mapError(err)
}

func (s *Service) deleteWebhook(ctx context.Context, actor Actor, id string) error {
	if s == nil || s.webhookStore == nil {
		return fmt.Errorf("core: webhook store is not configured")
	}
	webhook, err := s.webhookStore.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if !actor.CanMutate(webhook.OwnerID) {
		return permissionDenied("webhook", webhook.OwnerID)
	}
	return s.webhookStore.Delete(ctx, webhook.ID)
}

// GetWebhook returns a webhook visible to the actor.
func (s *Service) GetWebhook(ctx context.Context, actor Actor, id string) (Webhook, error) {
	if s == nil || s.webhookStore == nil {
		return Webhook{}, s.mapError(fmt.Errorf("core: webhook store is not configured"))
	}
	webhook, err := s.webhookStore.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return Webhook{}, s.mapError(err)
	}
	if !actor.CanMutate(webhook.OwnerID) {
		return Webhook{}, s.mapError(permissionDenied("webhook", webhook.OwnerID))
	}
	return webhook, nil
}

// ListWebhooks lists webhooks scoped to the actor. Non-admin actors only see
// their own subscriptions regardless of the filter.
func (s *Service) ListWebhooks(ctx context.Context, actor Actor, filter ListWebhooksFilter) ([]Webhook, error) {
	if s == nil || s.webhookStore == nil {
		return nil, s.mapError(fmt.Errorf("core: webhook store is not configured"))
	}
	if !actor.Admin {
		filter.OwnerID = actor.ID
	}
	webhooks, err := s.webhookStore.List(ctx, filter)
	return webhooks, s.mapError(err)
}

// ListDeliveries returns the delivery history for a webhook the actor owns.
func (s *Service) ListDeliveries(ctx context.Context, actor Actor, filter ListDeliveriesFilter) ([]DeliveryRecord, error) {
	if s == nil || s.deliveryStore == nil {
		return nil, s.mapError(fmt.Errorf("core: delivery store is not configured"))
	}
	if strings.TrimSpace(filter.WebhookID) == "" {
		return nil, s.mapError(fmt.Errorf("core: webhook id is required"))
	}
	if _, err := s.GetWebhook(ctx, actor, filter.WebhookID); err != nil {
		return nil, err
	}
	records, err := s.deliveryStore.ListByWebhook(ctx, filter)
	return records, s.mapError(err)
}

// sealAuthConfig validates the plaintext credential for the auth type and
// wraps it with the secret provider when one is configured.
func (s *Service) sealAuthConfig(ctx context.Context, authType AuthType, plaintext []byte) ([]byte, error) {
	switch authType {
	case AuthTypeNone:
		return nil, nil
	case AuthTypeBasic:
		cfg, err := s.authConfigCodec.DecodeBasic(plaintext)
		if err != nil {
			return nil, err
		}
		plaintext, err = s.authConfigCodec.EncodeBasic(cfg)
		if err != nil {
			return nil, err
		}
	case AuthTypeOAuth2:
		cfg, err := s.authConfigCodec.DecodeOAuth2(plaintext)
		if err != nil {
			return nil, err
		}
		plaintext, err = s.authConfigCodec.EncodeOAuth2(cfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAuthType, authType)
	}
	if s.secretProvider == nil {
		return plaintext, nil
	}
	return s.secretProvider.Encrypt(ctx, plaintext)
}

// openAuthConfig reverses sealAuthConfig at delivery time.
func (s *Service) openAuthConfig(ctx context.Context, sealed []byte) ([]byte, error) {
	if len(sealed) == 0 {
		return nil, nil
	}
	if s == nil || s.secretProvider == nil {
		return sealed, nil
	}
	return s.secretProvider.Decrypt(ctx, sealed)
}

func permissionDenied(resource, ownerID string) error {
	return goerrors.New(
		fmt.Sprintf("core: %s is owned by another account", resource),
		goerrors.CategoryAuthz,
	).WithTextCode(WebhookErrorPermissionDenied).
		WithMetadata(map[string]any{"owner_id": ownerID})
}

func normalizeEvents(events []EventType) []EventType {
	if len(events) == 0 {
		return nil
	}
	out := make([]EventType, 0, len(events))
	seen := map[EventType]struct{}{}
	for _, event := range events {
		normalized := EventType(strings.TrimSpace(strings.ToLower(string(event))))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func cloneHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for key, value := range headers {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		out[trimmed] = value
	}
	return out
}
