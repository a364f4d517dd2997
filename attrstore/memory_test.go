package attrstore

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ockam-network/direct-authenticator/identity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryPutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(discardLogger())

	id := identity.FromBytes([]byte("member-1"))
	entry := AttributesEntry{
		Attrs:     map[string][]byte{"role": []byte("member")},
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.Put(ctx, id, entry))

	got, ok, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entry.Attrs, got.Attrs)
}

func TestMemoryGetAbsent(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(discardLogger())

	_, ok, err := s.Get(ctx, identity.FromBytes([]byte("nobody")))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryLastWriterWins(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(discardLogger())
	id := identity.FromBytes([]byte("member-1"))

	require.NoError(t, s.Put(ctx, id, AttributesEntry{Attrs: map[string][]byte{"team": []byte("A")}}))
	require.NoError(t, s.Put(ctx, id, AttributesEntry{Attrs: map[string][]byte{"team": []byte("B")}}))

	got, ok, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("B"), got.Attrs["team"])
}

func TestMemoryDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(discardLogger())
	id := identity.FromBytes([]byte("member-1"))

	require.NoError(t, s.Delete(ctx, id))
	require.NoError(t, s.Put(ctx, id, AttributesEntry{}))
	require.NoError(t, s.Delete(ctx, id))
	require.NoError(t, s.Delete(ctx, id))

	_, ok, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(discardLogger())

	a := identity.FromBytes([]byte("a"))
	b := identity.FromBytes([]byte("b"))
	require.NoError(t, s.Put(ctx, a, AttributesEntry{}))
	require.NoError(t, s.Put(ctx, b, AttributesEntry{}))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 2)
}
