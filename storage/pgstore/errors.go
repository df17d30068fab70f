package pgstore

import (
	"errors"
	"strings"
)

// Sentinel errors for schema setup problems, distinct from permission
// denials: an Authorize caller gets a zero mask and a nil error for a denied
// request, but
// these mean the authorization system cannot function at all.
// ErrNoACLTable is returned when the aegis_acl table doesn't exist. Run the
// schema migration before issuing any authorize call.
var ErrNoACLTable = errors.New("pgstore: aegis_acl table not found")

// IsNoACLTableErr returns true if err is or wraps ErrNoACLTable.
func IsNoACLTableErr(err error) bool {
	return errors.Is(err, ErrNoACLTable)
}

// PostgreSQL error codes used to recognize missing schema components.
const (
	pgUndefinedTable = "42P01" // undefined_table
)

// sqlState extracts a PostgreSQL error code from err, trying the
// interfaces pgx and lib/pq each expose before falling back to string
// matching against the driver-formatted message.
func sqlState(err error) string {
	type sqlStateErr interface{ SQLState() string }
	if e, ok := err.(sqlStateErr); ok {
		return e.SQLState()
	}

	type codeErr interface{ Code() string }
	if e, ok := err.(codeErr); ok {
		return e.Code()
	}

	errStr := err.Error()
	if strings.Contains(errStr, "SQLSTATE") {
		idx := strings.Index(errStr, "SQLSTATE")
		rest := errStr[idx:]
		if len(rest) >= len("SQLSTATE ")+5 {
			return rest[len("SQLSTATE ") : len("SQLSTATE ")+5]
		}
	}
	return ""
}

// MapError wraps a raw driver error in a sentinel when it recognizes the
// underlying cause, so callers can react (run migrations, surface a setup
// hint) instead of just logging an opaque SQL error. Store.Get uses it on
// its own query; doctor uses it on ad-hoc diagnostic queries against the
// same table.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if sqlState(err) == pgUndefinedTable {
		return ErrNoACLTable
	}
	return err
}
