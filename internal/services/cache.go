package services

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"bgaming-proxy/internal/models"
)

// MemorySessionCache is the default fast-lookup index: an in-process
// expirable LRU. Entries live for the configured TTL from their last write;
// reads do not extend it.
type MemorySessionCache struct {
	lru *expirable.LRU[string, *models.Session]
}

func NewMemorySessionCache(ttl time.Duration) *MemorySessionCache {
	// Size 0 means unbounded; eviction happens on TTL alone.
	return &MemorySessionCache{
		lru: expirable.NewLRU[string, *models.Session](0, nil, ttl),
	}
}

func (c *MemorySessionCache) Get(tokenInternal string) (*models.Session, bool) {
	session, ok := c.lru.Get(tokenInternal)
	if !ok {
		return nil, false
	}
	dup := *session
	return &dup, true
}

func (c *MemorySessionCache) Put(tokenInternal string, session *models.Session) {
	c.lru.Add(tokenInternal, session)
}

func (c *MemorySessionCache) Del(tokenInternal string) {
	c.lru.Remove(tokenInternal)
}
