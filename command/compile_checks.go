package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[RegisterWebhookMessage] = (*RegisterWebhookCommand)(nil)
	_ gocmd.Commander[UpdateWebhookMessage]   = (*UpdateWebhookCommand)(nil)
	_ gocmd.Commander[DeleteWebhookMessage]   = (*DeleteWebhookCommand)(nil)
	_ gocmd.Commander[NotifyMessage]          = (*NotifyCommand)(nil)
	_ gocmd.Commander[RunSweepMessage]        = (*RunSweepCommand)(nil)
)
