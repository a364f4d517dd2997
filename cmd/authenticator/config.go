package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ockam-network/direct-authenticator/attrstore"
	"github.com/ockam-network/direct-authenticator/attrstore/sql"
)

// Config is the config format for the authenticator binary.
type Config struct {
	// ProjectID is stamped as the reserved project_id attribute on every
	// issued credential. Given base64-encoded in the config file since it
	// is an opaque byte string.
	ProjectID string `json:"projectId"`

	// Enroller is either a literal YAML document or a path to one; see
	// enroller.New.
	Enroller string `json:"enroller"`
	// EnrollerReload enables re-reading Enroller before each
	// enroller-gated request. Only takes effect when Enroller resolved to
	// a file path.
	EnrollerReload bool `json:"enrollerReload"`

	Store Storage `json:"store"`
	Log   Log     `json:"log"`

	// MetricsAddr, if non-empty, serves Prometheus metrics at /metrics.
	MetricsAddr string `json:"metricsAddr"`
}

// Log controls the level and encoding of the authenticator's own logging.
type Log struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// ProjectIDBytes decodes the configured ProjectID.
func (c Config) ProjectIDBytes() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(c.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("config: projectId is not valid base64: %w", err)
	}
	return b, nil
}

// Validate performs the checks cheap enough to run before opening any
// storage backend.
func (c Config) Validate() error {
	checks := []struct {
		bad    bool
		errMsg string
	}{
		{c.ProjectID == "", "no projectId specified in config file"},
		{c.Enroller == "", "no enroller source specified in config file"},
		{c.Store.Config == nil, "no store supplied in config file"},
	}
	for _, check := range checks {
		if check.bad {
			return fmt.Errorf("invalid config: %s", check.errMsg)
		}
	}
	return nil
}

// Storage selects and configures one of the AttributeStore backends.
type Storage struct {
	Type   string        `json:"type"`
	Config StorageConfig `json:"config"`
}

// StorageConfig is a configuration that can open an attrstore.Store.
type StorageConfig interface {
	Open(logger *slog.Logger) (attrstore.Store, error)
}

var (
	_ StorageConfig = (*memoryConfig)(nil)
	_ StorageConfig = (*sql.Config)(nil)
)

// memoryConfig opens an ephemeral in-memory store; useful for development
// and tests, named explicitly in the config file like any other backend.
type memoryConfig struct{}

func (memoryConfig) Open(logger *slog.Logger) (attrstore.Store, error) {
	return attrstore.NewMemory(logger), nil
}

var storeTypes = map[string]func() StorageConfig{
	"memory":  func() StorageConfig { return &memoryConfig{} },
	"sqlite3": func() StorageConfig { return &sql.Config{} },
}

// UnmarshalJSON dynamically determines the concrete StorageConfig from the
// store's "type" field, mirroring the teacher's Storage.UnmarshalJSON.
func (s *Storage) UnmarshalJSON(b []byte) error {
	var store struct {
		Type   string          `json:"type"`
		Config json.RawMessage `json:"config"`
	}
	if err := json.Unmarshal(b, &store); err != nil {
		return fmt.Errorf("config: parsing store: %w", err)
	}

	f, ok := storeTypes[store.Type]
	if !ok {
		return fmt.Errorf("config: unknown store type %q", store.Type)
	}

	storeConfig := f()
	if len(store.Config) != 0 {
		if err := json.Unmarshal(store.Config, storeConfig); err != nil {
			return fmt.Errorf("config: parsing store config: %w", err)
		}
	}
	*s = Storage{Type: store.Type, Config: storeConfig}
	return nil
}
