package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-webhooks/core"
)

var (
	_ gocmd.Querier[GetWebhookMessage, core.Webhook]              = (*GetWebhookQuery)(nil)
	_ gocmd.Querier[ListWebhooksMessage, []core.Webhook]          = (*ListWebhooksQuery)(nil)
	_ gocmd.Querier[ListDeliveriesMessage, []core.DeliveryRecord] = (*ListDeliveriesQuery)(nil)
)
