package query

import (
	"context"

	"github.com/goliatone/go-webhooks/core"
)

// ReadingService is the slice of the webhook service that queries need.
// *core.Service satisfies it.
type ReadingService interface {
	GetWebhook(ctx context.Context, actor core.Actor, id string) (core.Webhook, error)
	ListWebhooks(ctx context.Context, actor core.Actor, filter core.ListWebhooksFilter) ([]core.Webhook, error)
	ListDeliveries(ctx context.Context, actor core.Actor, filter core.ListDeliveriesFilter) ([]core.DeliveryRecord, error)
}

type GetWebhookQuery struct {
	service ReadingService
}

func NewGetWebhookQuery(service ReadingService) *GetWebhookQuery {
	return &GetWebhookQuery{service: service}
}

func (q *GetWebhookQuery) Query(ctx context.Context, msg GetWebhookMessage) (core.Webhook, error) {
	if q == nil || q.service == nil {
		return core.Webhook{}, queryDependencyError("query: webhook service is required")
	}
	return q.service.GetWebhook(ctx, msg.Actor, msg.WebhookID)
}

type ListWebhooksQuery struct {
	service ReadingService
}

func NewListWebhooksQuery(service ReadingService) *ListWebhooksQuery {
	return &ListWebhooksQuery{service: service}
}

func (q *ListWebhooksQuery) Query(ctx context.Context, msg ListWebhooksMessage) ([]core.Webhook, error) {
	if q == nil || q.service == nil {
		return nil, queryDependencyError("query: webhook service is required")
	}
	return q.service.ListWebhooks(ctx, msg.Actor, msg.Filter)
}

type ListDeliveriesQuery struct {
	service ReadingService
}

func NewListDeliveriesQuery(service ReadingService) *ListDeliveriesQuery {
	return &ListDeliveriesQuery{service: service}
}

func (q *ListDeliveriesQuery) Query(ctx context.Context, msg ListDeliveriesMessage) ([]core.DeliveryRecord, error) {
	if q == nil || q.service == nil {
		return nil, queryDependencyError("query: webhook service is required")
	}
	return q.service.ListDeliveries(ctx, msg.Actor, msg.Filter)
}
