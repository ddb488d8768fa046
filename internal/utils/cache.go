package utils

import (
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheItem 包装缓存数据和过期时间
type cacheItem struct {
	data      interface{}
	expiresAt time.Time
}

// Cache is a size-bounded LRU whose entries also expire after a TTL.
// It is safe for concurrent use.
type Cache struct {
	lru *lru.Cache[string, cacheItem]
	now func() time.Time
}

func NewCache(size int) (*Cache, error) {
	l, err := lru.New[string, cacheItem](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l, now: time.Now}, nil
}

// Set 设置缓存，TTL 为过期时间
func (c *Cache) Set(key string, data interface{}, ttl time.Duration) {
	c.lru.Add(key, cacheItem{data: data, expiresAt: c.now().Add(ttl)})
}

// Get returns the cached value, or false when missing or expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	val, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().After(val.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	return val.data, true
}

func (c *Cache) Delete(key string) {
	c.lru.Remove(key)
}

// DeletePrefix drops every key starting with prefix.
func (c *Cache) DeletePrefix(prefix string) {
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
}
