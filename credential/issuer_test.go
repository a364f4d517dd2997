package credential

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ockam-network/direct-authenticator/identity"
)

type fakeSigner struct {
	sign func(ctx context.Context, payload []byte) (string, error)
}

func (f fakeSigner) Sign(ctx context.Context, payload []byte) (string, error) {
	return f.sign(ctx, payload)
}

func TestIssueCarriesReservedAttributesAndSchema(t *testing.T) {
	var signedPayload []byte
	signer := fakeSigner{sign: func(ctx context.Context, payload []byte) (string, error) {
		signedPayload = payload
		return "opaque-signature", nil
	}}

	iss := NewIssuer([]byte("proj-1"), signer)
	subject := identity.FromBytes([]byte("member-1"))

	cred, err := iss.Issue(context.Background(), subject, map[string][]byte{"role": []byte("member")})
	require.NoError(t, err)
	require.Equal(t, ProjectMemberSchema, cred.Schema)
	require.Equal(t, []byte("proj-1"), cred.ProjectID)
	require.Equal(t, "opaque-signature", cred.Compact)
	require.True(t, subject.Equal(cred.Subject))
	require.Equal(t, []byte("member"), cred.Attrs["role"])

	var c claims
	require.NoError(t, json.Unmarshal(signedPayload, &c))
	require.Equal(t, ProjectMemberSchema, c.Schema)
	require.Equal(t, subject.String(), c.Subject)

	decodedProjectID, err := base64.StdEncoding.DecodeString(c.ProjectID)
	require.NoError(t, err)
	require.Equal(t, []byte("proj-1"), decodedProjectID)

	decodedRole, err := base64.StdEncoding.DecodeString(c.Attrs["role"])
	require.NoError(t, err)
	require.Equal(t, []byte("member"), decodedRole)
}

func TestIssuePropagatesSigningFailure(t *testing.T) {
	signer := fakeSigner{sign: func(ctx context.Context, payload []byte) (string, error) {
		return "", errors.New("signing subsystem unavailable")
	}}

	iss := NewIssuer([]byte("proj-1"), signer)
	_, err := iss.Issue(context.Background(), identity.FromBytes([]byte("member-1")), nil)
	require.Error(t, err)
}

func TestLocalSignerRoundTrip(t *testing.T) {
	signer, pub, err := NewLocalSigner()
	require.NoError(t, err)

	iss := NewIssuer([]byte("proj-1"), signer)
	subject := identity.FromBytes([]byte("member-1"))
	cred, err := iss.Issue(context.Background(), subject, map[string][]byte{"team": []byte("A")})
	require.NoError(t, err)

	payload, err := Verify(pub, cred.Compact)
	require.NoError(t, err)

	var c claims
	require.NoError(t, json.Unmarshal(payload, &c))
	require.Equal(t, subject.String(), c.Subject)
}

func TestVerifyRejectsOtherSignersKey(t *testing.T) {
	signer, _, err := NewLocalSigner()
	require.NoError(t, err)
	_, otherPub, err := NewLocalSigner()
	require.NoError(t, err)

	iss := NewIssuer([]byte("proj-1"), signer)
	cred, err := iss.Issue(context.Background(), identity.FromBytes([]byte("member-1")), nil)
	require.NoError(t, err)

	_, err = Verify(otherPub, cred.Compact)
	require.Error(t, err)
}
