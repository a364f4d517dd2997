package enroller

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ockam-network/direct-authenticator/identity"
)

func TestNewFromLiteralDocument(t *testing.T) {
	e1 := identity.FromBytes([]byte("enroller-1"))
	doc := e1.String() + ":\n  label: first enroller\n  addedAt: \"2024-01-01T00:00:00Z\"\n"

	d, err := New(doc, false)
	require.NoError(t, err)
	require.True(t, d.Contains(e1))
	require.False(t, d.Contains(identity.FromBytes([]byte("someone-else"))))
}

func TestNewFromPath(t *testing.T) {
	e1 := identity.FromBytes([]byte("enroller-1"))
	doc := e1.String() + ":\n  label: first enroller\n"

	dir := t.TempDir()
	path := filepath.Join(dir, "enrollers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	d, err := New(path, false)
	require.NoError(t, err)
	require.True(t, d.Contains(e1))
}

func TestNewFromUnreadablePath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.Error(t, err)
}

func TestReloadIfConfiguredDisabledNoOp(t *testing.T) {
	e1 := identity.FromBytes([]byte("enroller-1"))
	dir := t.TempDir()
	path := filepath.Join(dir, "enrollers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(e1.String()+":\n  label: e1\n"), 0o600))

	d, err := New(path, false)
	require.NoError(t, err)

	e2 := identity.FromBytes([]byte("enroller-2"))
	require.NoError(t, os.WriteFile(path, []byte(e2.String()+":\n  label: e2\n"), 0o600))

	require.NoError(t, d.ReloadIfConfigured())
	require.True(t, d.Contains(e1))
	require.False(t, d.Contains(e2))
}

func TestReloadIfConfiguredPicksUpChanges(t *testing.T) {
	e1 := identity.FromBytes([]byte("enroller-1"))
	dir := t.TempDir()
	path := filepath.Join(dir, "enrollers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(e1.String()+":\n  label: e1\n"), 0o600))

	d, err := New(path, true)
	require.NoError(t, err)
	require.True(t, d.Contains(e1))

	e2 := identity.FromBytes([]byte("enroller-2"))
	require.NoError(t, os.WriteFile(path, []byte(e2.String()+":\n  label: e2\n"), 0o600))

	require.NoError(t, d.ReloadIfConfigured())
	require.True(t, d.Contains(e2))
	require.False(t, d.Contains(e1))
}

func TestReloadIfConfiguredKeepsPriorMapOnFailure(t *testing.T) {
	e1 := identity.FromBytes([]byte("enroller-1"))
	dir := t.TempDir()
	path := filepath.Join(dir, "enrollers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(e1.String()+":\n  label: e1\n"), 0o600))

	d, err := New(path, true)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	err = d.ReloadIfConfigured()
	require.Error(t, err)
	require.True(t, d.Contains(e1), "prior map must be retained after a failed reload")
}

func TestReloadNoOpWithoutPath(t *testing.T) {
	e1 := identity.FromBytes([]byte("enroller-1"))
	doc := e1.String() + ":\n  label: e1\n"

	d, err := New(doc, true)
	require.NoError(t, err)
	require.NoError(t, d.ReloadIfConfigured())
	require.True(t, d.Contains(e1))
}
