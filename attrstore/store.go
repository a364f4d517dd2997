// Package attrstore implements the persistent identity -> attributes
// mapping (AttributesEntry) that backs member claims prior to credential
// issuance.
package attrstore

import (
	"context"
	"time"

	"github.com/ockam-network/direct-authenticator/identity"
)

// AttributesEntry is the record stored per Identity. Attrs values are
// semantically opaque bytes; implementations must preserve exact byte
// content.
type AttributesEntry struct {
	Attrs      map[string][]byte
	CreatedAt  time.Time
	ExpiresAt  *time.Time
	AttestedBy *identity.ID
}

// Store is the persistence interface used by the authenticator. Puts and
// gets are atomic per key; no cross-key transactions are required.
// Implementations must be safe for concurrent use, since the store may be
// shared with other services (e.g. a credential-exchange worker).
type Store interface {
	// Put upserts entry under id. Writes are last-writer-wins.
	Put(ctx context.Context, id identity.ID, entry AttributesEntry) error
	// Get returns the current entry for id, or ok=false if absent.
	Get(ctx context.Context, id identity.ID) (entry AttributesEntry, ok bool, err error)
	// Delete removes the entry for id. Deleting an absent id is a no-op.
	Delete(ctx context.Context, id identity.ID) error
	// Keys lists every identity with a live entry. Used only at startup for
	// legacy migration; implementations are not required to make it cheap.
	Keys(ctx context.Context) ([]identity.ID, error)
	// Close releases any resources held by the store.
	Close() error
}
