package docx

import (
	"crypto/sha256"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache keeps parsed templates keyed by the SHA-256 of their bytes, so
// repeated uploads of the same file are parsed once.
type Cache struct {
	lru *lru.Cache[[sha256.Size]byte, *Template]
}

// NewCache creates a cache holding up to size templates.
func NewCache(size int) (*Cache, error) {
	c, err := lru.New[[sha256.Size]byte, *Template](size)
	if err != nil {
		return nil, fmt.Errorf("creating template cache: %w", err)
	}
	return &Cache{lru: c}, nil
}

// Parse returns the cached template for data, parsing it on a miss. The
// second result reports a cache hit. Parse errors are not cached.
func (c *Cache) Parse(data []byte) (*Template, bool, error) {
	key := sha256.Sum256(data)
	if t, ok := c.lru.Get(key); ok {
		return t, true, nil
	}
	t, err := Parse(data)
	if err != nil {
		return nil, false, err
	}
	c.lru.Add(key, t)
	return t, false, nil
}

// Len returns the number of cached templates.
func (c *Cache) Len() int {
	return c.lru.Len()
}
