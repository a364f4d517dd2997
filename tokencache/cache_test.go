package tokencache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ockam-network/direct-authenticator/identity"
	"github.com/ockam-network/direct-authenticator/wire"
)

func code(b byte) wire.Code {
	var c wire.Code
	c[0] = b
	return c
}

func TestInsertAndTake(t *testing.T) {
	c := New()
	enroller := identity.FromBytes([]byte("enroller-1"))
	tok := Token{Attrs: map[string][]byte{"role": []byte("member")}, GeneratedBy: enroller, CreatedAt: time.Now()}

	c.Insert(code(1), tok)
	got, ok := c.Take(code(1))
	require.True(t, ok)
	require.Equal(t, tok.Attrs, got.Attrs)
}

func TestTakeIsSingleUse(t *testing.T) {
	c := New()
	c.Insert(code(1), Token{CreatedAt: time.Now()})

	_, ok := c.Take(code(1))
	require.True(t, ok)

	_, ok = c.Take(code(1))
	require.False(t, ok, "a code must not be redeemable twice")
}

func TestTakeUnknownCode(t *testing.T) {
	c := New()
	_, ok := c.Take(code(99))
	require.False(t, ok)
}

func TestCapacityEvictsLeastRecentlyUsed(t *testing.T) {
	c := New()
	for i := 0; i < Capacity; i++ {
		c.Insert(code(byte(i)), Token{CreatedAt: time.Now()})
	}
	require.Equal(t, Capacity, c.Len())

	// One more insert must evict exactly one entry, keeping the cache at
	// capacity rather than growing unbounded.
	c.Insert(code(200), Token{CreatedAt: time.Now()})
	require.Equal(t, Capacity, c.Len())
	require.Equal(t, 1, c.Evicted())

	// The oldest code (0) should have been evicted first.
	_, ok := c.Take(code(0))
	require.False(t, ok)
}

func TestExpired(t *testing.T) {
	mintedAt := time.Unix(0, 0)
	tok := Token{CreatedAt: mintedAt}

	require.False(t, Expired(tok, mintedAt.Add(599*time.Second)))
	require.True(t, Expired(tok, mintedAt.Add(601*time.Second)))
}
