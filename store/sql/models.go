package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-webhooks/core"
	"github.com/uptrace/bun"
)

type webhookRecord struct {
	bun.BaseModel `bun:"table:webhooks,alias:wh"`

	ID         string            `bun:"id,pk"`
	OwnerID    string            `bun:"owner_id,notnull"`
	URL        string            `bun:"url,notnull"`
	Events     []string          `bun:"events,type:jsonb,notnull"`
	Status     string            `bun:"status,notnull"`
	AuthType   string            `bun:"auth_type,notnull"`
	AuthConfig []byte            `bun:"auth_config"`
	Headers    map[string]string `bun:"headers,type:jsonb"`
	MaxRetries int               `bun:"max_retries,notnull"`
	TimeoutMS  int64             `bun:"timeout_ms,notnull"`
	CreatedAt  time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time         `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt  *time.Time        `bun:"deleted_at,soft_delete"`
}

func newWebhookRecord(webhook core.Webhook, now time.Time) *webhookRecord {
	record := &webhookRecord{
		ID:         strings.TrimSpace(webhook.ID),
		OwnerID:    strings.TrimSpace(webhook.OwnerID),
		URL:        strings.TrimSpace(webhook.URL),
		Events:     eventTypesToStrings(webhook.Events),
		Status:     string(webhook.Status),
		AuthType:   string(webhook.AuthType),
		AuthConfig: append([]byte(nil), webhook.AuthConfig...),
		Headers:    copyStringMap(webhook.Headers),
		MaxRetries: webhook.MaxRetries,
		TimeoutMS:  webhook.Timeout.Milliseconds(),
		CreatedAt:  webhook.CreatedAt,
		UpdatedAt:  webhook.UpdatedAt,
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = now
	}
	if webhook.DeletedAt != nil {
		deletedAt := webhook.DeletedAt.UTC()
		record.DeletedAt = &deletedAt
	}
	return record
}

func (r *webhookRecord) toDomain() core.Webhook {
	if r == nil {
		return core.Webhook{}
	}
	webhook := core.Webhook{
		ID:         r.ID,
		OwnerID:    r.OwnerID,
		URL:        r.URL,
		Events:     eventTypesFromStrings(r.Events),
		Status:     core.WebhookStatus(r.Status),
		AuthType:   core.AuthType(r.AuthType),
		AuthConfig: append([]byte(nil), r.AuthConfig...),
		Headers:    copyStringMap(r.Headers),
		MaxRetries: r.MaxRetries,
		Timeout:    time.Duration(r.TimeoutMS) * time.Millisecond,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.DeletedAt != nil {
		deletedAt := *r.DeletedAt
		webhook.DeletedAt = &deletedAt
	}
	return webhook
}

type deliveryRecord struct {
	bun.BaseModel `bun:"table:webhook_deliveries,alias:wd"`

	ID            string     `bun:"id,pk"`
	WebhookID     *string    `bun:"webhook_id"`
	EventType     string     `bun:"event_type,notnull"`
	Payload       []byte     `bun:"payload,notnull"`
	Status        string     `bun:"status,notnull"`
	RetryCount    int        `bun:"retry_count,notnull"`
	LastError     string     `bun:"last_error"`
	LastAttemptAt *time.Time `bun:"last_attempt_at,nullzero"`
	NextAttemptAt *time.Time `bun:"next_attempt_at,nullzero"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newDeliveryRecord(record core.DeliveryRecord, now time.Time) *deliveryRecord {
	row := &deliveryRecord{
		ID:            strings.TrimSpace(record.ID),
		EventType:     string(record.EventType),
		Payload:       append([]byte(nil), record.Payload...),
		Status:        string(record.Status),
		RetryCount:    record.RetryCount,
		LastError:     record.LastError,
		LastAttemptAt: copyTime(record.LastAttemptAt),
		NextAttemptAt: copyTime(record.NextAttemptAt),
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
	if record.WebhookID != nil {
		if trimmed := strings.TrimSpace(*record.WebhookID); trimmed != "" {
			row.WebhookID = &trimmed
		}
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = now
	}
	return row
}

func (r *deliveryRecord) toDomain() core.DeliveryRecord {
	if r == nil {
		return core.DeliveryRecord{}
	}
	record := core.DeliveryRecord{
		ID:            r.ID,
		EventType:     core.EventType(r.EventType),
		Payload:       append([]byte(nil), r.Payload...),
		Status:        core.DeliveryStatus(r.Status),
		RetryCount:    r.RetryCount,
		LastError:     r.LastError,
		LastAttemptAt: copyTime(r.LastAttemptAt),
		NextAttemptAt: copyTime(r.NextAttemptAt),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.WebhookID != nil {
		webhookID := *r.WebhookID
		record.WebhookID = &webhookID
	}
	return record
}

func eventTypesToStrings(events []core.EventType) []string {
	out := make([]string, 0, len(events))
	for _, event := range events {
		out = append(out, string(event))
	}
	return out
}

func eventTypesFromStrings(values []string) []core.EventType {
	out := make([]core.EventType, 0, len(values))
	for _, value := range values {
		out = append(out, core.EventType(value))
	}
	return out
}

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func copyTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
