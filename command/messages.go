// Package command exposes the mutating surface as go-command messages so
// hosts can route webhook mutations through their dispatcher.
package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-webhooks/core"
)

const (
	TypeRegisterWebhook = "webhooks.command.webhook.register"
	TypeUpdateWebhook   = "webhooks.command.webhook.update"
	TypeDeleteWebhook   = "webhooks.command.webhook.delete"
	TypeNotify          = "webhooks.command.notify"
	TypeRunSweep        = "webhooks.command.sweep.run"
)

type RegisterWebhookMessage struct {
	Actor core.Actor
	Input core.CreateWebhookInput
}

func (RegisterWebhookMessage) Type() string { return TypeRegisterWebhook }

func (m RegisterWebhookMessage) Validate() error {
	if err := validateActor(m.Actor); err != nil {
		return err
	}
	if strings.TrimSpace(m.Input.URL) == "" {
		return fmt.Errorf("command: webhook url is required")
	}
	if len(m.Input.Events) == 0 {
		return fmt.Errorf("command: at least one event type is required")
	}
	return nil
}

type UpdateWebhookMessage struct {
	Actor     core.Actor
	WebhookID string
	Input     core.UpdateWebhookInput
}

func (UpdateWebhookMessage) Type() string { return TypeUpdateWebhook }

func (m UpdateWebhookMessage) Validate() error {
	if err := validateActor(m.Actor); err != nil {
		return err
	}
	if strings.TrimSpace(m.WebhookID) == "" {
		return fmt.Errorf("command: webhook id is required")
	}
	return nil
}

type DeleteWebhookMessage struct {
	Actor     core.Actor
	WebhookID string
}

func (DeleteWebhookMessage) Type() string { return TypeDeleteWebhook }

func (m DeleteWebhookMessage) Validate() error {
	if err := validateActor(m.Actor); err != nil {
		return err
	}
	if strings.TrimSpace(m.WebhookID) == "" {
		return fmt.Errorf("command: webhook id is required")
	}
	return nil
}

type NotifyMessage struct {
	OwnerID   string
	EventType core.EventType
	Payload   core.EventPayload
}

func (NotifyMessage) Type() string { return TypeNotify }

func (m NotifyMessage) Validate() error {
	if strings.TrimSpace(m.OwnerID) == "" {
		return fmt.Errorf("command: owner id is required")
	}
	if _, err := core.ParseEventType(string(m.EventType)); err != nil {
		return fmt.Errorf("command: %w", err)
	}
	if m.Payload == nil {
		return fmt.Errorf("command: event payload is required")
	}
	return nil
}

type RunSweepMessage struct{}

func (RunSweepMessage) Type() string { return TypeRunSweep }

func (RunSweepMessage) Validate() error { return nil }

func validateActor(actor core.Actor) error {
	if strings.TrimSpace(actor.ID) == "" && !actor.Admin {
		return fmt.Errorf("command: actor is required")
	}
	return nil
}
