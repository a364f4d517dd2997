// Package sql provides a durable, SQLite-backed implementation of
// attrstore.Store. Only the sqlite flavor is wired up since this module has
// no network-facing config surface of its own; the query shapes are kept
// flavor-neutral so a Postgres/MySQL backend could be added the same way
// the teacher stack swaps SQL flavors behind one interface.
package sql

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	// import the sqlite3 driver for its side effect of registering itself
	// with database/sql.
	_ "github.com/mattn/go-sqlite3"

	"github.com/ockam-network/direct-authenticator/attrstore"
	"github.com/ockam-network/direct-authenticator/identity"
)

// Config selects and opens a SQLite-backed attrstore.Store.
type Config struct {
	// File is the path to the SQLite database file. Use ":memory:" for a
	// process-local, non-persistent database (mainly for tests).
	File string `json:"file"`
}

// Open creates the schema (if needed) and returns a ready-to-use Store.
func (c *Config) Open(logger *slog.Logger) (attrstore.Store, error) {
	db, err := sql.Open("sqlite3", c.File)
	if err != nil {
		return nil, fmt.Errorf("sql: opening %s: %w", c.File, err)
	}
	// sqlite3 only tolerates a single writer; serialize all access through
	// one connection rather than fighting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sql: migrate: %w", err)
	}
	return s, nil
}

var _ attrstore.Store = (*store)(nil)

type store struct {
	db     *sql.DB
	logger *slog.Logger
}

func (s *store) migrate() error {
	_, err := s.db.Exec(`
		create table if not exists attributes (
			id          text primary key,
			attrs       text not null,
			created_at  timestamp not null,
			expires_at  timestamp,
			attested_by text
		);
	`)
	return err
}

// attrsJSON is the JSON-transport shape of AttributesEntry.Attrs: byte
// values cannot be carried safely in JSON, so they are base64-encoded at
// this boundary only (see SPEC_FULL.md §9.2).
type attrsJSON map[string]string

func encodeAttrs(attrs map[string][]byte) (string, error) {
	j := make(attrsJSON, len(attrs))
	for k, v := range attrs {
		j[k] = base64.StdEncoding.EncodeToString(v)
	}
	b, err := json.Marshal(j)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeAttrs(s string) (map[string][]byte, error) {
	var j attrsJSON
	if err := json.Unmarshal([]byte(s), &j); err != nil {
		return nil, err
	}
	attrs := make(map[string][]byte, len(j))
	for k, v := range j {
		raw, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("sql: attribute %q is not valid base64: %w", k, err)
		}
		attrs[k] = raw
	}
	return attrs, nil
}

func (s *store) Put(ctx context.Context, id identity.ID, entry attrstore.AttributesEntry) error {
	attrs, err := encodeAttrs(entry.Attrs)
	if err != nil {
		return fmt.Errorf("sql: encode attrs: %w", err)
	}

	var attestedBy sql.NullString
	if entry.AttestedBy != nil {
		attestedBy = sql.NullString{String: entry.AttestedBy.String(), Valid: true}
	}
	var expiresAt sql.NullTime
	if entry.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: entry.ExpiresAt.UTC(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		insert into attributes (id, attrs, created_at, expires_at, attested_by)
		values (?, ?, ?, ?, ?)
		on conflict(id) do update set
			attrs = excluded.attrs,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at,
			attested_by = excluded.attested_by;
	`, id.String(), attrs, entry.CreatedAt.UTC(), expiresAt, attestedBy)
	if err != nil {
		return fmt.Errorf("sql: put %s: %w", id.String(), err)
	}
	return nil
}

func (s *store) Get(ctx context.Context, id identity.ID) (attrstore.AttributesEntry, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		select attrs, created_at, expires_at, attested_by from attributes where id = ?;
	`, id.String())

	var (
		attrs      string
		createdAt  time.Time
		expiresAt  sql.NullTime
		attestedBy sql.NullString
	)
	if err := row.Scan(&attrs, &createdAt, &expiresAt, &attestedBy); err != nil {
		if err == sql.ErrNoRows {
			return attrstore.AttributesEntry{}, false, nil
		}
		return attrstore.AttributesEntry{}, false, fmt.Errorf("sql: get %s: %w", id.String(), err)
	}

	decoded, err := decodeAttrs(attrs)
	if err != nil {
		return attrstore.AttributesEntry{}, false, fmt.Errorf("sql: decode attrs for %s: %w", id.String(), err)
	}

	entry := attrstore.AttributesEntry{Attrs: decoded, CreatedAt: createdAt}
	if expiresAt.Valid {
		t := expiresAt.Time
		entry.ExpiresAt = &t
	}
	if attestedBy.Valid {
		attester, err := identity.Parse(attestedBy.String)
		if err != nil {
			return attrstore.AttributesEntry{}, false, fmt.Errorf("sql: decode attested_by for %s: %w", id.String(), err)
		}
		entry.AttestedBy = &attester
	}
	return entry, true, nil
}

func (s *store) Delete(ctx context.Context, id identity.ID) error {
	_, err := s.db.ExecContext(ctx, `delete from attributes where id = ?;`, id.String())
	if err != nil {
		return fmt.Errorf("sql: delete %s: %w", id.String(), err)
	}
	return nil
}

func (s *store) Keys(ctx context.Context) ([]identity.ID, error) {
	rows, err := s.db.QueryContext(ctx, `select id from attributes;`)
	if err != nil {
		return nil, fmt.Errorf("sql: keys: %w", err)
	}
	defer rows.Close()

	var ids []identity.ID
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("sql: keys: scan: %w", err)
		}
		id, err := identity.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("sql: keys: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *store) Close() error {
	return s.db.Close()
}
