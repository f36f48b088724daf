// Package query exposes the read surface as go-command query messages.
package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-webhooks/core"
)

const (
	TypeGetWebhook     = "webhooks.query.webhook.get"
	TypeListWebhooks   = "webhooks.query.webhook.list"
	TypeListDeliveries = "webhooks.query.delivery.list"
)

type GetWebhookMessage struct {
	Actor     core.Actor
	WebhookID string
}

func (GetWebhookMessage) Type() string { return TypeGetWebhook }

func (m GetWebhookMessage) Validate() error {
	if strings.TrimSpace(m.WebhookID) == "" {
		return fmt.Errorf("query: webhook id is required")
	}
	return nil
}

type ListWebhooksMessage struct {
	Actor  core.Actor
	Filter core.ListWebhooksFilter
}

func (ListWebhooksMessage) Type() string { return TypeListWebhooks }

func (m ListWebhooksMessage) Validate() error {
	if strings.TrimSpace(m.Actor.ID) == "" && !m.Actor.Admin {
		return fmt.Errorf("query: actor is required")
	}
	return nil
}

type ListDeliveriesMessage struct {
	Actor  core.Actor
	Filter core.ListDeliveriesFilter
}

func (ListDeliveriesMessage) Type() string { return TypeListDeliveries }

func (m ListDeliveriesMessage) Validate() error {
	if strings.TrimSpace(m.Filter.WebhookID) == "" {
		return fmt.Errorf("query: webhook id is required")
	}
	return nil
}
