package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-webhooks/core"
)

// MemoryTokenCache is the single-node token cache default.
type MemoryTokenCache struct {
	mu     sync.Mutex
	tokens map[string]core.Token
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{tokens: map[string]core.Token{}}
}

func (c *MemoryTokenCache) GetToken(_ context.Context, key string) (core.Token, bool, error) {
	if c == nil {
		return core.Token{}, false, fmt.Errorf("auth: token cache is nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	token, ok := c.tokens[strings.TrimSpace(key)]
	return token, ok, nil
}

func (c *MemoryTokenCache) PutToken(_ context.Context, key string, token core.Token) error {
	if c == nil {
		return fmt.Errorf("auth: token cache is nil")
	}
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return fmt.Errorf("auth: token cache key is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[trimmed] = token
	return nil
}

var _ core.TokenCache = (*MemoryTokenCache)(nil)
