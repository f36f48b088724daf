package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// Actor identifies who is invoking a management operation. Non-admin actors
// may only touch webhooks they own.
type Actor struct {
	ID    string
	Admin bool
}

func (a Actor) CanMutate(ownerID string) bool {
	if a.Admin {
		return true
	}
	return a.ID != "" && a.ID == ownerID
}

type CreateWebhookInput struct {
	OwnerID    string
	URL        string
	Events     []EventType
	AuthType   AuthType
	AuthConfig []byte
	Headers    map[string]string
	MaxRetries int
	Timeout    time.Duration
}

type UpdateWebhookInput struct {
	URL        *string
	Events     []EventType
	Status     *WebhookStatus
	AuthType   *AuthType
	AuthConfig []byte
	Headers    map[string]string
	MaxRetries *int
	Timeout    *time.Duration
}

type ListWebhooksFilter struct {
	OwnerID string
	Status  WebhookStatus
	Page    int
	PerPage int
}

type ListDeliveriesFilter struct {
	WebhookID string
	Status    DeliveryStatus
	Page      int
	PerPage   int
}

// WebhookStore persists subscriber configuration. Deletes are soft so that
// delivery history keeps resolving.
type WebhookStore interface {
	Create(ctx context.Context, webhook Webhook) (Webhook, error)
	Update(ctx context.Context, webhook Webhook) (Webhook, error)
	Get(ctx context.Context, id string) (Webhook, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListWebhooksFilter) ([]Webhook, error)
	FindActiveByEventAndOwner(ctx context.Context, event EventType, ownerID string) ([]Webhook, error)
}

// DeliveryStore persists delivery records. ClaimDue atomically moves due
// records to the retrying status so overlapping sweeps cannot double-attempt;
// rows stuck in retrying past the claim lease are reclaimed so a crashed
// worker cannot strand a delivery. Update only applies when the stored row
// still holds the expected status and returns ErrDeliveryConflict otherwise,
// so a racing claimant cannot silently overwrite a settled attempt.
type DeliveryStore interface {
	Create(ctx context.Context, record DeliveryRecord) (DeliveryRecord, error)
	Get(ctx context.Context, id string) (DeliveryRecord, error)
	Update(ctx context.Context, record DeliveryRecord, expected DeliveryStatus) (DeliveryRecord, error)
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]DeliveryRecord, error)
	ListByWebhook(ctx context.Context, filter ListDeliveriesFilter) ([]DeliveryRecord, error)
}

// DeliveryClient performs one outbound HTTP attempt against a subscriber
// endpoint. Transport and protocol failures are folded into the Outcome;
// the error return path is reserved for configuration faults.
type DeliveryClient interface {
	Deliver(ctx context.Context, webhook Webhook, payload []byte) Outcome
}

// RetryPolicy computes the delay before the next attempt. Implementations
// must be deterministic and non-decreasing in the attempt number.
type RetryPolicy interface {
	NextDelay(attempt int) time.Duration
}

// TokenCache stores oauth2 bearer tokens between deliveries. Injected into
// the delivery auth layer so a distributed cache can replace the in-memory
// default when the engine scales horizontally.
type TokenCache interface {
	GetToken(ctx context.Context, key string) (Token, bool, error)
	PutToken(ctx context.Context, key string, token Token) error
}

// RateLimitKey identifies the throttle bucket for one subscriber endpoint.
type RateLimitKey struct {
	WebhookID string
	Host      string
}

// EndpointResponseMeta carries the rate-limit relevant slice of a delivery
// response.
type EndpointResponseMeta struct {
	StatusCode int
	Headers    map[string]string
	RetryAfter *time.Duration
}

// RateLimitPolicy throttles outbound deliveries per subscriber endpoint.
// BeforeCall gates the attempt; AfterCall feeds the observed response back.
type RateLimitPolicy interface {
	BeforeCall(ctx context.Context, key RateLimitKey) error
	AfterCall(ctx context.Context, key RateLimitKey, res EndpointResponseMeta) error
}

type SecretProvider interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type StoreProvider interface {
	WebhookStore() WebhookStore
	DeliveryStore() DeliveryStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

// Notifier is the inbound contract consumed by the document/batch pipeline.
type Notifier interface {
	Notify(ctx context.Context, ownerID string, event EventType, payload EventPayload) error
}

// Sweeper is the trigger surface for the periodic retry scheduler.
type Sweeper interface {
	RunSweep(ctx context.Context) SweepStats
}

// JobExecutionMessage is the queue-facing shape for scheduled engine work.
type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}
