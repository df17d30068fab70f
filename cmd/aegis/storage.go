package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/pthm/aegis/engine"
	"github.com/pthm/aegis/internal/cli"
	"github.com/pthm/aegis/storage/memstore"
	"github.com/pthm/aegis/storage/pgstore"
)

// openStorage resolves the configured backend (postgres DSN or a memstore
// fixture file) into an engine.Storage, returning a close function that
// must be called once the caller is done issuing Authorize calls.
func openStorage(ctx context.Context, dbFlag, memstoreFlag string) (engine.Storage, func(), error) {
	if path := resolveString(memstoreFlag, cfg.Storage.Memstore.FixturePath); path != "" {
		store, err := memstore.Load(path)
		if err != nil {
			return nil, nil, cli.StorageError("loading memstore fixture", err)
		}
		return store, func() {}, nil
	}

	dsn, err := resolveDSN(dbFlag)
	if err != nil {
		return nil, nil, err
	}

	driver := cfg.Storage.Database.Driver
	if driver == "" {
		driver = "pgx"
	}
	db, err := sql.Open(sqlDriverName(driver), dsn)
	if err != nil {
		return nil, nil, cli.DBConnectError("connecting to database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, cli.DBConnectError("pinging database", err)
	}

	store := pgstore.New(ctx, db)
	return store, func() { _ = db.Close() }, nil
}

// sqlDriverName maps the configured driver name to the database/sql driver
// registered for it: pgx/v5/stdlib registers itself as "pgx", lib/pq as
// "postgres". Both are imported for their registration side effect above.
func sqlDriverName(configured string) string {
	if configured == "lib/pq" || configured == "postgres" {
		return "postgres"
	}
	return "pgx"
}

// resolveDSN gets the database DSN from flag or config.
func resolveDSN(flagDSN string) (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}

	dsn, err := cfg.DSN()
	if err != nil {
		return "", cli.ConfigError("database configuration", err)
	}
	if dsn == "" {
		return "", cli.ConfigError("database URL is required (use --db, --memstore, or config)", nil)
	}
	return dsn, nil
}

// parseAccessMask parses a request mask given either as a decimal integer
// ("6") or as a run of right letters ("RU"), matching the CRUD letters the
// engine's AccessBuilder recognizes.
func parseAccessMask(s string) (engine.AccessMask, error) {
	if s == "" {
		return 0, fmt.Errorf("access mask is required")
	}

	if isAllDigits(s) {
		var n int
		if _, err := fmt.Sscanf(s, "%d", &n); err != nil || n < 0 || n > 0xFF {
			return 0, fmt.Errorf("invalid numeric access mask %q", s)
		}
		return engine.AccessMask(n), nil
	}

	var mask engine.AccessMask
	for _, r := range s {
		switch r {
		case 'C':
			mask |= engine.CanCreate
		case 'R':
			mask |= engine.CanRead
		case 'U':
			mask |= engine.CanUpdate
		case 'D':
			mask |= engine.CanDelete
		default:
			return 0, fmt.Errorf("unknown access letter %q in %q (use C, R, U, D)", r, s)
		}
	}
	return mask, nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
