// Package cache memoizes compiled diagrams keyed by their source text.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/causalgo/macid/internal/macid"
)

type InMemory struct {
	mu    sync.RWMutex
	max   int
	items map[string]*macid.Diagram
}

func NewInMemory(max int) *InMemory {
	return &InMemory{
		max:   max,
		items: make(map[string]*macid.Diagram, max),
	}
}

// GetOrCompute returns the diagram compiled from src, compiling at most once
// per source. Callers always receive a fresh copy: analysis imputes policies
// onto its diagram, and the cached original must stay pristine.
func (c *InMemory) GetOrCompute(src string, fn func() (*macid.Diagram, error)) (*macid.Diagram, error) {
	key := hash(src)

	c.mu.RLock()
	if v, ok := c.items[key]; ok {
		c.mu.RUnlock()
		return v.Copy(), nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.items[key]; ok {
		return v.Copy(), nil
	}

	d, err := fn()
	if err != nil {
		return nil, err
	}

	if len(c.items) < c.max {
		c.items[key] = d.Copy()
	}

	return d, nil
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
