// Package cache provides domain.CacheStore implementations.
package cache

import (
	"sync"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

// Memory is a bounded in-process store with FIFO eviction. It is safe for
// concurrent use. Entries never expire.
type Memory struct {
	capacity int
	mu       sync.RWMutex
	m        map[string]string
	ord      []string
}

var _ domain.CacheStore = (*Memory)(nil)

// NewMemory returns a store holding at most capacity entries; capacity <= 0
// means unbounded.
func NewMemory(capacity int) *Memory {
	return &Memory{capacity: capacity, m: make(map[string]string)}
}

// Get returns the value stored under key.
func (c *Memory) Get(_ domain.Context, key string) (string, bool, error) {
	c.mu.RLock()
	v, ok := c.m[key]
	c.mu.RUnlock()
	return v, ok, nil
}

// Set stores value under key, evicting the oldest entry when full.
func (c *Memory) Set(_ domain.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.m[key]; exists {
		c.m[key] = value
		return nil
	}
	if c.capacity > 0 && len(c.ord) >= c.capacity {
		old := c.ord[0]
		c.ord = c.ord[1:]
		delete(c.m, old)
	}
	c.m[key] = value
	c.ord = append(c.ord, key)
	return nil
}

// Len reports the number of stored entries.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
