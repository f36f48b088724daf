package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Notify fans a domain event out to every active webhook the owner has
// subscribed to it. Each matching webhook gets a durable delivery record
// before any network attempt, so a crash mid fan-out leaves the sweep with
// enough state to finish the job.
//
// Lookup failures are logged and swallowed: the document pipeline must never
// fail because a subscriber could not be resolved.
func (s *Service) Notify(ctx context.Context, ownerID string, eventType EventType, payload EventPayload) error {
	startedAt := time.Now()
	err := s.notify(ctx, ownerID, eventType, payload)
	s.observeOperation(ctx, startedAt, "notify", err, map[string]any{
		"owner_id":   ownerID,
		"event_type": string(eventType),
	})
	return s.mapError(err)
}

func (s *Service) notify(ctx context.Context, ownerID string, eventType EventType, payload EventPayload) error {
	if s == nil {
		return fmt.Errorf("core: service is nil")
	}
	if strings.TrimSpace(ownerID) == "" {
		return fmt.Errorf("core: event owner id is required")
	}
	event, err := ParseEventType(string(eventType))
	if err != nil {
		return err
	}
	if payload != nil && payload.EventType() != event {
		return fmt.Errorf("core: payload type %q does not match event %q", payload.EventType(), event)
	}
	encoded, err := EncodeEventPayload(payload)
	if err != nil {
		return err
	}

	if s.webhookStore == nil || s.deliveryStore == nil {
		return fmt.Errorf("core: stores are not configured")
	}

	webhooks, err := s.webhookStore.FindActiveByEventAndOwner(ctx, event, strings.TrimSpace(ownerID))
	if err != nil {
		s.logError(ctx, "webhook resolution failed", map[string]any{
			"owner_id":   ownerID,
			"event_type": string(event),
			"error":      err.Error(),
		})
		return nil
	}

	for _, webhook := range webhooks {
		if !webhook.IsActive() || !webhook.SubscribedTo(event) {
			continue
		}
		if attemptErr := s.dispatchTo(ctx, webhook, event, encoded); attemptErr != nil {
			s.logError(ctx, "webhook dispatch failed", map[string]any{
				"owner_id":   ownerID,
				"webhook_id": webhook.ID,
				"event_type": string(event),
				"error":      attemptErr.Error(),
			})
		}
	}
	return nil
}

// dispatchTo persists a pending record and runs the first attempt. The record
// write happens first; a delivery failure after that point is the retry
// scheduler's problem, not the caller's.
func (s *Service) dispatchTo(ctx context.Context, webhook Webhook, event EventType, payload []byte) error {
	now := s.clock()
	webhookID := webhook.ID
	record := DeliveryRecord{
		ID:        uuid.NewString(),
		WebhookID: &webhookID,
		EventType: event,
		Payload:   payload,
		Status:    DeliveryStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	record, err := s.deliveryStore.Create(ctx, record)
	if err != nil {
		return fmt.Errorf("core: persist delivery record: %w", err)
	}
	_, err = s.attemptDelivery(ctx, webhook, record)
	return err
}

// attemptDelivery runs one HTTP attempt and applies the shared state
// transition. Every attempt in the system, first or retried, funnels through
// here so the retry budget and backoff math cannot drift between paths.
func (s *Service) attemptDelivery(ctx context.Context, webhook Webhook, record DeliveryRecord) (DeliveryRecord, error) {
	if s.deliveryClient == nil {
		return record, fmt.Errorf("core: delivery client is not configured")
	}

	opened, err := s.openAuthConfig(ctx, webhook.AuthConfig)
	if err != nil {
		return s.settleAttempt(ctx, webhook, record, Outcome{Err: fmt.Errorf("core: open auth config: %w", err)})
	}
	webhook.AuthConfig = opened

	outcome := s.deliveryClient.Deliver(ctx, webhook, record.Payload)
	return s.settleAttempt(ctx, webhook, record, outcome)
}

func (s *Service) settleAttempt(ctx context.Context, webhook Webhook, record DeliveryRecord, outcome Outcome) (DeliveryRecord, error) {
	now := s.clock()
	claimedAs := record.Status
	if outcome.Success {
		if err := record.MarkSuccess(now); err != nil {
			return record, err
		}
	} else {
		next := now.Add(s.retryPolicy.NextDelay(record.RetryCount + 1))
		if err := record.MarkFailure(outcome.ErrorMessage(), webhook.MaxRetries, next, now); err != nil {
			return record, err
		}
	}

	// The conditional write loses to whichever claimant settled first. A lost
	// write means the attempt was already accounted for elsewhere.
	updated, err := s.deliveryStore.Update(ctx, record, claimedAs)
	if err != nil {
		return record, fmt.Errorf("core: update delivery record: %w", err)
	}

	tags := map[string]string{
		"event_type": string(record.EventType),
		"status":     string(updated.Status),
	}
	s.recordCounter(ctx, "webhooks.delivery_attempt.total", 1, tags)
	if outcome.StatusCode > 0 {
		s.recordHistogram(ctx, "webhooks.delivery_attempt.status_code", float64(outcome.StatusCode), tags)
	}
	return updated, nil
}
