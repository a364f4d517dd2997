// Package tokencache implements the bounded, time-expiring cache of
// one-time enrollment codes minted by enrollers and redeemed by members.
package tokencache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ockam-network/direct-authenticator/identity"
	"github.com/ockam-network/direct-authenticator/wire"
)

// Capacity is the maximum number of concurrently live tokens. On overflow
// the least-recently-used entry is evicted unconditionally and silently.
const Capacity = 128

// MaxLifetime is the maximum age of a token at redemption time.
const MaxLifetime = 600 * time.Second

// Token is the cache entry minted by CreateToken and consumed by Take.
type Token struct {
	Attrs       map[string][]byte
	GeneratedBy identity.ID
	CreatedAt   time.Time
}

// Cache is a bounded LRU of OneTimeCode -> Token. Take is the only read
// operation: tokens are single-use, removed from the cache the moment they
// are looked up, regardless of whether the caller ultimately accepts or
// rejects them as expired.
type Cache struct {
	mu      sync.Mutex
	lru     *lru.Cache[wire.Code, Token]
	evicted int
}

// New returns an empty Cache bounded at Capacity entries. Overflow
// evictions are silent to callers; New wires an internal callback only to
// keep an eviction count for metrics.
func New() *Cache {
	c := &Cache{}
	l, err := lru.NewWithEvict[wire.Code, Token](Capacity, func(wire.Code, Token) {
		c.evicted++
	})
	if err != nil {
		// Only returns an error for a non-positive size, which Capacity
		// never is.
		panic(err)
	}
	c.lru = l
	return c
}

// Insert stores token under code. If the cache is already at Capacity, the
// least-recently-used entry is evicted unconditionally and silently.
func (c *Cache) Insert(code wire.Code, token Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(code, token)
}

// Take removes and returns the token stored under code, if any. A second
// call for the same code returns ok=false.
func (c *Cache) Take(code wire.Code) (Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	token, ok := c.lru.Get(code)
	if !ok {
		return Token{}, false
	}
	// Remove fires the eviction callback too; a redemption is not an
	// overflow eviction, so keep the count as it was.
	evicted := c.evicted
	c.lru.Remove(code)
	c.evicted = evicted
	return token, true
}

// Expired reports whether token, if redeemed at now, has exceeded
// MaxLifetime.
func Expired(token Token, now time.Time) bool {
	return now.Sub(token.CreatedAt) > MaxLifetime
}

// Len returns the number of currently live tokens.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Evicted returns the number of tokens dropped due to capacity overflow
// since the cache was created. Exposed for metrics only.
func (c *Cache) Evicted() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evicted
}
