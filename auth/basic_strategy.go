package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goliatone/go-webhooks/core"
)

type BasicStrategy struct {
	codec core.AuthConfigCodec
}

func NewBasicStrategy(codec core.AuthConfigCodec) BasicStrategy {
	if codec == nil {
		codec = core.JSONAuthConfigCodec{}
	}
	return BasicStrategy{codec: codec}
}

func (BasicStrategy) Type() core.AuthType { return core.AuthTypeBasic }

func (s BasicStrategy) Apply(_ context.Context, req *http.Request, authConfig []byte) error {
	if req == nil {
		return fmt.Errorf("auth: request is required")
	}
	cfg, err := s.codec.DecodeBasic(authConfig)
	if err != nil {
		return err
	}
	req.SetBasicAuth(cfg.Username, cfg.Password)
	return nil
}

var _ Strategy = BasicStrategy{}
