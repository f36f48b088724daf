package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-webhooks/core"
)

// MutatingService is the slice of the webhook service that commands need.
// *core.Service satisfies it.
type MutatingService interface {
	RegisterWebhook(ctx context.Context, actor core.Actor, input core.CreateWebhookInput) (core.Webhook, error)
	UpdateWebhook(ctx context.Context, actor core.Actor, id string, input core.UpdateWebhookInput) (core.Webhook, error)
	DeleteWebhook(ctx context.Context, actor core.Actor, id string) error
	Notify(ctx context.Context, ownerID string, eventType core.EventType, payload core.EventPayload) error
	RunSweep(ctx context.Context) core.SweepStats
}

type RegisterWebhookCommand struct {
	service MutatingService
}

func NewRegisterWebhookCommand(service MutatingService) *RegisterWebhookCommand {
	return &RegisterWebhookCommand{service: service}
}

func (c *RegisterWebhookCommand) Execute(ctx context.Context, msg RegisterWebhookMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: webhook service is required")
	}
	out, err := c.service.RegisterWebhook(ctx, msg.Actor, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateWebhookCommand struct {
	service MutatingService
}

func NewUpdateWebhookCommand(service MutatingService) *UpdateWebhookCommand {
	return &UpdateWebhookCommand{service: service}
}

func (c *UpdateWebhookCommand) Execute(ctx context.Context, msg UpdateWebhookMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: webhook service is required")
	}
	out, err := c.service.UpdateWebhook(ctx, msg.Actor, msg.WebhookID, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteWebhookCommand struct {
	service MutatingService
}

func NewDeleteWebhookCommand(service MutatingService) *DeleteWebhookCommand {
	return &DeleteWebhookCommand{service: service}
}

func (c *DeleteWebhookCommand) Execute(ctx context.Context, msg DeleteWebhookMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: webhook service is required")
	}
	return c.service.DeleteWebhook(ctx, msg.Actor, msg.WebhookID)
}

type NotifyCommand struct {
	service MutatingService
}

func NewNotifyCommand(service MutatingService) *NotifyCommand {
	return &NotifyCommand{service: service}
}

func (c *NotifyCommand) Execute(ctx context.Context, msg NotifyMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: notify service is required")
	}
	return c.service.Notify(ctx, msg.OwnerID, msg.EventType, msg.Payload)
}

type RunSweepCommand struct {
	service MutatingService
}

func NewRunSweepCommand(service MutatingService) *RunSweepCommand {
	return &RunSweepCommand{service: service}
}

func (c *RunSweepCommand) Execute(ctx context.Context, msg RunSweepMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: sweep service is required")
	}
	_ = msg
	storeResult(ctx, c.service.RunSweep(ctx))
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
