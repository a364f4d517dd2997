// Package enroller implements the allow-list of identities authorized to
// admit new members, with optional hot-reload from a source file.
package enroller

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ghodss/yaml"

	"github.com/ockam-network/direct-authenticator/identity"
)

// Enroller is the human-metadata descriptor for an identity authorized to
// enroll members. Its presence in a Directory is the sole authorization
// signal; the fields below are informational only.
type Enroller struct {
	Label   string    `json:"label"`
	AddedAt time.Time `json:"addedAt"`
}

// document is the on-the-wire shape of the enroller allow-list file: a
// mapping from the canonical string form of an Identity to its descriptor.
type document map[string]Enroller

// Directory is the allow-list of identities permitted to enroll others.
// Construction accepts either a literal YAML document or a filesystem path
// whose contents are that document: the input is parsed as a document
// first, and only on parse failure is it retried as a path. When Reload is
// enabled and a path was used, ReloadIfConfigured re-reads that file before
// each authorization check.
type Directory struct {
	mu      sync.RWMutex
	entries map[string]Enroller // keyed by identity.ID.String()
	path    string              // empty when constructed from a literal document
	reload  bool
}

// New parses source (a literal YAML document, or a path to one) into a
// Directory. reload controls whether ReloadIfConfigured re-reads the source
// before each authorization check; it has no effect unless source resolved
// to a file path.
func New(source string, reload bool) (*Directory, error) {
	if doc, ok := tryParseDocument(source); ok {
		return &Directory{entries: toEntries(doc), reload: reload}, nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("enroller: %q is neither a valid document nor a readable path: %w", source, err)
	}
	doc, err := parseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("enroller: parsing %s: %w", source, err)
	}
	return &Directory{entries: toEntries(doc), path: source, reload: reload}, nil
}

func tryParseDocument(source string) (document, bool) {
	doc, err := parseDocument([]byte(source))
	if err != nil {
		return nil, false
	}
	return doc, true
}

func parseDocument(data []byte) (document, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func toEntries(doc document) map[string]Enroller {
	entries := make(map[string]Enroller, len(doc))
	for idStr, e := range doc {
		entries[idStr] = e
	}
	return entries
}

// Contains reports whether id is currently in the allow-list.
func (d *Directory) Contains(id identity.ID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.entries[id.String()]
	return ok
}

// ReloadIfConfigured re-reads and re-parses the source file when Reload was
// enabled at construction and a file path (not a literal document) was
// used. On a read or parse failure the prior in-memory map is retained and
// the error is returned for the caller to surface as InternalError.
func (d *Directory) ReloadIfConfigured() error {
	if !d.reload || d.path == "" {
		return nil
	}

	data, err := os.ReadFile(d.path)
	if err != nil {
		return fmt.Errorf("enroller: reloading %s: %w", d.path, err)
	}
	doc, err := parseDocument(data)
	if err != nil {
		return fmt.Errorf("enroller: reloading %s: %w", d.path, err)
	}

	d.mu.Lock()
	d.entries = toEntries(doc)
	d.mu.Unlock()
	return nil
}
