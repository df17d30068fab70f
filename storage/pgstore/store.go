// Package pgstore implements engine.Storage against a single PostgreSQL
// table, keyed exactly as the key-value port describes: one row per
// "M<id>", "P<id>" (or "P<filter><id>"), or "F<id>" key, with a YAML-encoded
// blob column holding the records for that key.
//
// Store accepts a Querier rather than a concrete *sql.DB, so the same code
// works unmodified against *sql.DB, *sql.Tx, or *sql.Conn - permission
// checks made inside an open transaction see that transaction's
// uncommitted writes.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pthm/aegis/engine"
)

// Querier executes queries against PostgreSQL. Implemented by *sql.DB,
// *sql.Tx, and *sql.Conn.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Execer extends Querier with ExecContext, needed only for Migrate.
type Execer interface {
	Querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store implements engine.Storage by querying a Querier. It is safe to
// construct per-request; it holds no state beyond the handle and the
// context passed to New.
type Store struct {
	q   Querier
	ctx context.Context
}

// New returns a Store that issues every query against q using ctx.
// Authorize calls are synchronous and single-threaded per engine.Authorize
// invocation, so one Store is created per call rather than held across
// calls - this mirrors the teacher Checker's "lightweight, safe to create
// per-request" contract.
func New(ctx context.Context, q Querier) *Store {
	return &Store{q: q, ctx: ctx}
}

// Get implements engine.Storage.
func (s *Store) Get(key string) (string, bool, error) {
	var blob string
	err := s.q.QueryRowContext(s.ctx, `SELECT blob FROM aegis_acl WHERE key = $1`, key).Scan(&blob)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, MapError(err)
	}
	return blob, true, nil
}

// Yield is a no-op: a Store call is already inside a database round trip,
// there is no cooperative scheduler above it to hand control back to.
func (s *Store) Yield() {}

// DecodeRecords implements engine.Storage using the YAML codec in codec.go.
func (s *Store) DecodeRecords(blob string) []engine.Record {
	return decodeRecords(blob)
}

// DecodeFilter implements engine.Storage using the YAML codec in codec.go.
func (s *Store) DecodeFilter(blob string) (engine.Record, bool) {
	return decodeFilter(blob)
}

// schemaDDL creates the single table pgstore reads and writes.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS aegis_acl (
	key  text PRIMARY KEY,
	blob bytea NOT NULL
)`

// Migrate creates the aegis_acl table if it does not already exist.
func Migrate(ctx context.Context, e Execer) error {
	if _, err := e.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("pgstore: migrate: %w", err)
	}
	return nil
}
