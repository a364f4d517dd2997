// Package identity provides the opaque, byte-comparable identifier used
// throughout the authenticator to name cryptographic principals.
package identity

import (
	"encoding/base32"
	"fmt"
	"strings"
)

// encoding is the textual form used for canonical string representation.
// Lower case only so identities are safe to embed in file paths, log lines,
// and the enroller directory's YAML document.
var encoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// ID is an opaque, byte-comparable identifier for a cryptographic principal.
// The zero value is not a valid identity.
type ID struct {
	raw string // comparable, immutable
}

// FromBytes wraps raw identity bytes produced by the identity subsystem.
func FromBytes(b []byte) ID {
	return ID{raw: string(b)}
}

// Parse decodes the canonical string form produced by String.
func Parse(s string) (ID, error) {
	b, err := encoding.DecodeString(strings.ToLower(s))
	if err != nil {
		return ID{}, fmt.Errorf("identity: invalid canonical form %q: %w", s, err)
	}
	return ID{raw: string(b)}, nil
}

// Bytes returns the raw identity bytes.
func (id ID) Bytes() []byte {
	return []byte(id.raw)
}

// String returns the canonical textual form of the identity.
func (id ID) String() string {
	return encoding.EncodeToString([]byte(id.raw))
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id.raw == ""
}

// Equal reports whether id and other name the same principal.
func (id ID) Equal(other ID) bool {
	return id.raw == other.raw
}
