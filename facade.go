package webhooks

import (
	"fmt"

	webhookcommand "github.com/goliatone/go-webhooks/command"
	webhookquery "github.com/goliatone/go-webhooks/query"
)

// CommandQueryService is the service surface the facade wraps.
// *core.Service satisfies it.
type CommandQueryService interface {
	webhookcommand.MutatingService
	webhookquery.ReadingService
}

type Commands struct {
	RegisterWebhook *webhookcommand.RegisterWebhookCommand
	UpdateWebhook   *webhookcommand.UpdateWebhookCommand
	DeleteWebhook   *webhookcommand.DeleteWebhookCommand
	Notify          *webhookcommand.NotifyCommand
	RunSweep        *webhookcommand.RunSweepCommand
}

type Queries struct {
	GetWebhook     *webhookquery.GetWebhookQuery
	ListWebhooks   *webhookquery.ListWebhooksQuery
	ListDeliveries *webhookquery.ListDeliveriesQuery
}

// Facade bundles the command and query wrappers for hosts that route
// webhook operations through a go-command dispatcher.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("webhooks: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		RegisterWebhook: webhookcommand.NewRegisterWebhookCommand(service),
		UpdateWebhook:   webhookcommand.NewUpdateWebhookCommand(service),
		DeleteWebhook:   webhookcommand.NewDeleteWebhookCommand(service),
		Notify:          webhookcommand.NewNotifyCommand(service),
		RunSweep:        webhookcommand.NewRunSweepCommand(service),
	}
	facade.queries = Queries{
		GetWebhook:     webhookquery.NewGetWebhookQuery(service),
		ListWebhooks:   webhookquery.NewListWebhooksQuery(service),
		ListDeliveries: webhookquery.NewListDeliveriesQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
