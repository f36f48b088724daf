package core

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	ErrInvalidEventType                = errors.New("core: invalid event type")
	ErrInvalidWebhookStatus            = errors.New("core: invalid webhook status")
	ErrInvalidAuthType                 = errors.New("core: invalid auth type")
	ErrInvalidDeliveryStatusTransition = errors.New("core: invalid delivery status transition")
	ErrDeliveryTerminal                = errors.New("core: delivery record is terminal")
	ErrWebhookNotFound                 = errors.New("core: webhook not found")
	ErrDeliveryNotFound                = errors.New("core: delivery record not found")
	ErrDeliveryConflict                = errors.New("core: delivery record changed concurrently")
)

type EventType string

const (
	EventDocumentProcessed EventType = "document.processed"
	EventDocumentFailed    EventType = "document.failed"
	EventBatchFinished     EventType = "batch.finished"
)

func ParseEventType(value string) (EventType, error) {
	normalized := EventType(strings.TrimSpace(strings.ToLower(value)))
	switch normalized {
	case EventDocumentProcessed, EventDocumentFailed, EventBatchFinished:
		return normalized, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEventType, value)
}

type WebhookStatus string

const (
	WebhookStatusActive   WebhookStatus = "active"
	WebhookStatusInactive WebhookStatus = "inactive"
)

func ParseWebhookStatus(value string) (WebhookStatus, error) {
	normalized := WebhookStatus(strings.TrimSpace(strings.ToLower(value)))
	switch normalized {
	case WebhookStatusActive, WebhookStatusInactive:
		return normalized, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidWebhookStatus, value)
}

type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeOAuth2 AuthType = "oauth2"
)

func ParseAuthType(value string) (AuthType, error) {
	normalized := AuthType(strings.TrimSpace(strings.ToLower(value)))
	if normalized == "" {
		return AuthTypeNone, nil
	}
	switch normalized {
	case AuthTypeNone, AuthTypeBasic, AuthTypeOAuth2:
		return normalized, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAuthType, value)
}

const (
	DefaultMaxRetries      = 3
	DefaultDeliveryTimeout = 30 * time.Second
)

// Webhook is a subscriber configuration: where to deliver, which events,
// how to authenticate, and how hard to retry. AuthConfig holds the encrypted
// credential envelope and is decrypted only at delivery time.
type Webhook struct {
	ID         string
	OwnerID    string
	URL        string
	Events     []EventType
	Status     WebhookStatus
	AuthType   AuthType
	AuthConfig []byte
	Headers    map[string]string
	MaxRetries int
	Timeout    time.Duration
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

func (w Webhook) Validate() error {
	if strings.TrimSpace(w.OwnerID) == "" {
		return fmt.Errorf("core: webhook owner id is required")
	}
	if err := validateWebhookURL(w.URL); err != nil {
		return err
	}
	if len(w.Events) == 0 {
		return fmt.Errorf("core: webhook requires at least one subscribed event")
	}
	for _, event := range w.Events {
		if _, err := ParseEventType(string(event)); err != nil {
			return err
		}
	}
	if _, err := ParseWebhookStatus(string(w.Status)); err != nil {
		return err
	}
	if _, err := ParseAuthType(string(w.AuthType)); err != nil {
		return err
	}
	if w.MaxRetries < 1 {
		return fmt.Errorf("core: webhook max retries must be >= 1")
	}
	if w.Timeout <= 0 {
		return fmt.Errorf("core: webhook timeout must be positive")
	}
	if w.AuthType != AuthTypeNone && len(w.AuthConfig) == 0 {
		return fmt.Errorf("core: webhook auth type %q requires auth config", w.AuthType)
	}
	return nil
}

// SubscribedTo reports whether the webhook subscribes to the event type.
func (w Webhook) SubscribedTo(event EventType) bool {
	for _, candidate := range w.Events {
		if candidate == event {
			return true
		}
	}
	return false
}

func (w Webhook) IsActive() bool {
	return w.Status == WebhookStatusActive && w.DeletedAt == nil
}

func validateWebhookURL(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fmt.Errorf("core: webhook url is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("core: invalid webhook url %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("core: webhook url %q must use http or https", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("core: webhook url %q requires a host", raw)
	}
	return nil
}

type DeliveryStatus string

const (
	DeliveryStatusPending      DeliveryStatus = "pending"
	DeliveryStatusRetrying     DeliveryStatus = "retrying"
	DeliveryStatusRetryPending DeliveryStatus = "retry_pending"
	DeliveryStatusSuccess      DeliveryStatus = "success"
	DeliveryStatusFailed       DeliveryStatus = "failed"
)

func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryStatusSuccess || s == DeliveryStatusFailed
}

// DeliveryRecord is the durable log entry for one notification: its payload,
// attempt count, and current position in the delivery state machine. The
// webhook reference goes nil when the webhook is deleted; the record itself
// is never deleted.
type DeliveryRecord struct {
	ID            string
	WebhookID     *string
	EventType     EventType
	Payload       []byte
	Status        DeliveryStatus
	RetryCount    int
	LastError     string
	LastAttemptAt *time.Time
	NextAttemptAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MarkSuccess moves the record to its successful terminal state.
func (r *DeliveryRecord) MarkSuccess(now time.Time) error {
	if r == nil {
		return nil
	}
	if r.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrDeliveryTerminal, r.Status)
	}
	attemptAt := now.UTC()
	r.Status = DeliveryStatusSuccess
	r.RetryCount++
	r.LastError = ""
	r.LastAttemptAt = &attemptAt
	r.NextAttemptAt = nil
	r.UpdatedAt = attemptAt
	return nil
}

// MarkFailure records a failed attempt. When the retry budget still has room
// the record re-enters retry_pending with the supplied next attempt time;
// once the budget is spent it lands on the failed terminal state.
func (r *DeliveryRecord) MarkFailure(cause string, maxRetries int, nextAttemptAt time.Time, now time.Time) error {
	if r == nil {
		return nil
	}
	if r.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrDeliveryTerminal, r.Status)
	}
	attemptAt := now.UTC()
	r.RetryCount++
	r.LastError = strings.TrimSpace(cause)
	r.LastAttemptAt = &attemptAt
	r.UpdatedAt = attemptAt
	if r.RetryCount >= maxRetries {
		r.Status = DeliveryStatusFailed
		r.NextAttemptAt = nil
		return nil
	}
	next := nextAttemptAt.UTC()
	r.Status = DeliveryStatusRetryPending
	r.NextAttemptAt = &next
	return nil
}

// MarkAbandoned terminates a record whose webhook no longer exists. No HTTP
// attempt is made, so the retry count is left untouched.
func (r *DeliveryRecord) MarkAbandoned(reason string, now time.Time) error {
	if r == nil {
		return nil
	}
	if r.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrDeliveryTerminal, r.Status)
	}
	r.Status = DeliveryStatusFailed
	r.LastError = strings.TrimSpace(reason)
	r.NextAttemptAt = nil
	r.UpdatedAt = now.UTC()
	return nil
}

// Due reports whether the record is eligible for an attempt at the given time.
func (r DeliveryRecord) Due(now time.Time) bool {
	if r.Status != DeliveryStatusPending && r.Status != DeliveryStatusRetryPending {
		return false
	}
	if r.NextAttemptAt == nil {
		return true
	}
	return !r.NextAttemptAt.After(now)
}

// Outcome is the normalized result of one HTTP delivery attempt.
type Outcome struct {
	Success    bool
	StatusCode int
	Err        error
}

func (o Outcome) ErrorMessage() string {
	if o.Err != nil {
		return strings.TrimSpace(o.Err.Error())
	}
	if !o.Success && o.StatusCode > 0 {
		return fmt.Sprintf("endpoint returned status %d", o.StatusCode)
	}
	return ""
}

// SweepStats summarizes one retry scheduler sweep.
type SweepStats struct {
	Claimed   int
	Delivered int
	Retried   int
	Failed    int
	Abandoned int
}
