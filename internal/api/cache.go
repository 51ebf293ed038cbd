package api

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ttlCache holds at most size values for ttl each. A zero ttl disables it.
type ttlCache[V any] struct {
	lru *expirable.LRU[string, V]
}

func newTTLCache[V any](size int, ttl time.Duration) *ttlCache[V] {
	if ttl <= 0 {
		return &ttlCache[V]{}
	}
	return &ttlCache[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

func (c *ttlCache[V]) Get(key string) (V, bool) {
	if c.lru == nil {
		var zero V
		return zero, false
	}
	return c.lru.Get(key)
}

func (c *ttlCache[V]) Set(key string, v V) {
	if c.lru == nil {
		return
	}
	c.lru.Add(key, v)
}

func (c *ttlCache[V]) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}
