// Package cachemem caches verification verdicts in process memory.
// Only Valid verdicts are worth caching; revocation invalidates by token id
// so a cached Valid can never outlive a revoke handled by this process.
package cachemem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tarledger/internal/domain"
)

type VerdictCache struct {
	mu      sync.Mutex
	entries map[string]entry
}

type entry struct {
	verdict   domain.Verdict
	expiresAt time.Time
}

func New() *VerdictCache {
	return &VerdictCache{entries: make(map[string]entry)}
}

func Key(tokenID uint64, claimedHash string) string {
	return fmt.Sprintf("%d:%s", tokenID, claimedHash)
}

func (c *VerdictCache) Get(_ context.Context, key string) (*domain.Verdict, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	verdict := e.verdict
	return &verdict, true
}

func (c *VerdictCache) Put(_ context.Context, key string, verdict domain.Verdict, ttl time.Duration) {
	if c == nil || ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry{verdict: verdict, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// InvalidateToken drops every cached verdict for a token, whatever hash it
// was verified against.
func (c *VerdictCache) InvalidateToken(_ context.Context, tokenID uint64) {
	if c == nil {
		return
	}
	prefix := fmt.Sprintf("%d:", tokenID)
	c.mu.Lock()
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}
