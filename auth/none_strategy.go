package auth

import (
	"context"
	"net/http"

	"github.com/goliatone/go-webhooks/core"
)

type NoneStrategy struct{}

func (NoneStrategy) Type() core.AuthType { return core.AuthTypeNone }

func (NoneStrategy) Apply(context.Context, *http.Request, []byte) error {
	return nil
}

var _ Strategy = NoneStrategy{}
