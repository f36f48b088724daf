package webhooks

import "github.com/goliatone/go-webhooks/core"

type Config = core.Config

type RetryConfig = core.RetryConfig

type SweepConfig = core.SweepConfig

type Option = core.Option

type Service = core.Service

type Actor = core.Actor
type Webhook = core.Webhook
type DeliveryRecord = core.DeliveryRecord
type SweepStats = core.SweepStats
type EventType = core.EventType
type EventPayload = core.EventPayload
type Outcome = core.Outcome
type TokenCache = core.TokenCache
type WebhookStore = core.WebhookStore
type DeliveryStore = core.DeliveryStore
type DeliveryClient = core.DeliveryClient

type CreateWebhookInput = core.CreateWebhookInput
type UpdateWebhookInput = core.UpdateWebhookInput
type ListWebhooksFilter = core.ListWebhooksFilter
type ListDeliveriesFilter = core.ListDeliveriesFilter

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorFactory      = core.WithErrorFactory
	WithErrorMapper       = core.WithErrorMapper
	WithSecretProvider    = core.WithSecretProvider
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithWebhookStore      = core.WithWebhookStore
	WithDeliveryStore     = core.WithDeliveryStore
	WithDeliveryClient    = core.WithDeliveryClient
	WithRetryPolicy       = core.WithRetryPolicy
	WithTokenCache        = core.WithTokenCache
	WithAuthConfigCodec   = core.WithAuthConfigCodec
	WithClock             = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
