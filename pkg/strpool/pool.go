/*
Package strpool implements a bounded thread-safe string interning pool. The
decoder uses it to share frequently repeated names (symbols, attribute names,
factor levels) between values and between concurrent decoding operations.
*/
package strpool

import (
	lru "github.com/hashicorp/golang-lru"
)

// DefaultSize is the default number of strings kept in a pool.
const DefaultSize = 4096

// MaxStringLen is the maximum length of a string that is pooled, longer
// strings are always allocated.
const MaxStringLen = 256

// Pool is a bounded string interning pool with LRU eviction. It's safe for
// concurrent use.
type Pool struct {
	cache *lru.Cache
}

// New creates a pool holding up to size strings. Non-positive size means
// DefaultSize.
func New(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	c, _ := lru.New(size) // Never errors for positive size.
	return &Pool{cache: c}
}

// Intern returns a string equal to b, reusing a previously allocated one if
// it's in the pool. b is not retained.
func (p *Pool) Intern(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if len(b) > MaxStringLen {
		return string(b)
	}
	key := string(b)
	if s, ok := p.cache.Get(key); ok {
		poolHits.Inc()
		return s.(string)
	}
	poolMisses.Inc()
	_ = p.cache.Add(key, key)
	return key
}

// Len returns the number of strings in the pool.
func (p *Pool) Len() int {
	return p.cache.Len()
}

// Purge drops all pooled strings.
func (p *Pool) Purge() {
	p.cache.Purge()
}
