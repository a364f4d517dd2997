package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ockam-network/direct-authenticator/attrstore/sql"
)

func TestStorageUnmarshalJSONMemory(t *testing.T) {
	var s Storage
	require.NoError(t, json.Unmarshal([]byte(`{"type":"memory"}`), &s))
	require.Equal(t, "memory", s.Type)
	require.IsType(t, &memoryConfig{}, s.Config)
}

func TestStorageUnmarshalJSONSQLite(t *testing.T) {
	var s Storage
	require.NoError(t, json.Unmarshal([]byte(`{"type":"sqlite3","config":{"file":"/tmp/attrs.db"}}`), &s))
	require.Equal(t, "sqlite3", s.Type)
	cfg, ok := s.Config.(*sql.Config)
	require.True(t, ok)
	require.Equal(t, "/tmp/attrs.db", cfg.File)
}

func TestStorageUnmarshalJSONUnknownType(t *testing.T) {
	var s Storage
	err := json.Unmarshal([]byte(`{"type":"redis"}`), &s)
	require.Error(t, err)
}

func TestConfigValidateRequiresProjectID(t *testing.T) {
	c := Config{Enroller: "doc", Store: Storage{Config: &memoryConfig{}}}
	err := c.Validate()
	require.Error(t, err)
}

func TestConfigValidatePasses(t *testing.T) {
	c := Config{
		ProjectID: "cHJvai0x",
		Enroller:  "doc",
		Store:     Storage{Config: &memoryConfig{}},
	}
	require.NoError(t, c.Validate())
}

func TestProjectIDBytesDecodesBase64(t *testing.T) {
	c := Config{ProjectID: "cHJvai0x"}
	b, err := c.ProjectIDBytes()
	require.NoError(t, err)
	require.Equal(t, []byte("proj-1"), b)
}
