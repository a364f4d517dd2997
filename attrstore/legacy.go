package attrstore

import (
	"context"
	"fmt"
	"time"

	"github.com/ockam-network/direct-authenticator/identity"
)

// LegacyStore is the narrow view this module needs of the identity
// subsystem's legacy attribute storage. It is an external collaborator:
// this module only reads it once, at startup, to migrate records into a
// Store, then deletes the migrated records.
type LegacyStore interface {
	// Keys lists every identity key under the legacy "member" collection.
	Keys(ctx context.Context) ([]string, error)
	// Get returns the legacy text-valued attribute map for key.
	Get(ctx context.Context, key string) (map[string]string, error)
	// Delete removes the legacy record for key.
	Delete(ctx context.Context, key string) error
}

// MigrateLegacy performs the one-shot startup migration described in
// spec §4.F: every legacy record is decoded, its text values converted to
// UTF-8 bytes, and inserted into dst with CreatedAt=now, ExpiresAt=nil,
// AttestedBy=nil, then the legacy record is deleted. A failure on any
// single key aborts the whole migration; dst may contain a partial set of
// already-migrated entries in that case, and the caller must not start the
// server against it (see AuthenticatorServer's constructor, which treats
// a MigrateLegacy error as fatal to construction).
func MigrateLegacy(ctx context.Context, dst Store, legacy LegacyStore, now time.Time) error {
	keys, err := legacy.Keys(ctx)
	if err != nil {
		return fmt.Errorf("attrstore: listing legacy keys: %w", err)
	}

	for _, key := range keys {
		textAttrs, err := legacy.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("attrstore: reading legacy record %q: %w", key, err)
		}

		id, err := identity.Parse(key)
		if err != nil {
			return fmt.Errorf("attrstore: legacy key %q is not a valid identity: %w", key, err)
		}

		attrs := make(map[string][]byte, len(textAttrs))
		for name, value := range textAttrs {
			attrs[name] = []byte(value)
		}

		entry := AttributesEntry{
			Attrs:     attrs,
			CreatedAt: now,
		}
		if err := dst.Put(ctx, id, entry); err != nil {
			return fmt.Errorf("attrstore: migrating legacy record %q: %w", key, err)
		}
		if err := legacy.Delete(ctx, key); err != nil {
			return fmt.Errorf("attrstore: deleting migrated legacy record %q: %w", key, err)
		}
	}
	return nil
}
