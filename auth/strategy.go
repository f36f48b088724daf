// Package auth holds the outbound authentication strategies applied to
// delivery requests. Strategies receive the decrypted auth config bytes; they
// never see the sealed envelope.
package auth

import (
	"context"
	"net/http"

	"github.com/goliatone/go-webhooks/core"
)

// Strategy decorates an outbound delivery request with credentials.
type Strategy interface {
	Type() core.AuthType
	Apply(ctx context.Context, req *http.Request, authConfig []byte) error
}

// StrategySet resolves a strategy per auth type. Missing entries mean the
// webhook's auth type is not supported by this deployment.
type StrategySet map[core.AuthType]Strategy

// DefaultStrategySet wires the three built-in strategies. The token cache is
// shared by every oauth2 webhook; pass a distributed implementation when
// running more than one delivery node.
func DefaultStrategySet(codec core.AuthConfigCodec, cache core.TokenCache, httpClient *http.Client) StrategySet {
	if codec == nil {
		codec = core.JSONAuthConfigCodec{}
	}
	if cache == nil {
		cache = NewMemoryTokenCache()
	}
	return StrategySet{
		core.AuthTypeNone:   NoneStrategy{},
		core.AuthTypeBasic:  NewBasicStrategy(codec),
		core.AuthTypeOAuth2: NewOAuth2ClientCredentialsStrategy(codec, cache, httpClient),
	}
}

func (s StrategySet) For(authType core.AuthType) (Strategy, bool) {
	if len(s) == 0 {
		return nil, false
	}
	strategy, ok := s[authType]
	return strategy, ok
}
