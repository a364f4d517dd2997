package credential

import (
	"context"
	"crypto/ed25519"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"
)

// LocalSigner is a concrete, self-contained Signer backed by an in-process
// Ed25519 key. The real identity subsystem (out of scope per spec §1) is
// expected to hold the server's signing key itself; LocalSigner exists so
// this module's demo binary and tests can issue and verify real signed
// credentials without that external dependency.
type LocalSigner struct {
	key ed25519.PrivateKey
}

// NewLocalSigner generates a fresh Ed25519 key pair and returns a Signer
// plus the corresponding public key for verification.
func NewLocalSigner() (*LocalSigner, ed25519.PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("credential: generating signing key: %w", err)
	}
	return &LocalSigner{key: priv}, pub, nil
}

// Sign produces a compact JWS over payload using EdDSA.
func (s *LocalSigner) Sign(ctx context.Context, payload []byte) (string, error) {
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: s.key}, nil)
	if err != nil {
		return "", fmt.Errorf("credential: constructing signer: %w", err)
	}
	jws, err := signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("credential: signing payload: %w", err)
	}
	compact, err := jws.CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("credential: serializing signature: %w", err)
	}
	return compact, nil
}

// Verify checks a compact JWS produced by a LocalSigner against pub and
// returns the signed payload. Used by tests and by any verifier that wants
// to check a credential offline.
func Verify(pub ed25519.PublicKey, compact string) ([]byte, error) {
	sig, err := jose.ParseSigned(compact, []jose.SignatureAlgorithm{jose.EdDSA})
	if err != nil {
		return nil, fmt.Errorf("credential: parsing signature: %w", err)
	}
	payload, err := sig.Verify(pub)
	if err != nil {
		return nil, fmt.Errorf("credential: verifying signature: %w", err)
	}
	return payload, nil
}
