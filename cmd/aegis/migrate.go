package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/aegis/internal/cli"
	"github.com/pthm/aegis/storage/pgstore"
)

var migrateDB string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the aegis_acl table",
	Long:  `Apply the pgstore schema (a single aegis_acl key/blob table) to a PostgreSQL database.`,
	Example: `  aegis migrate --db postgres://localhost/mydb`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := resolveDSN(migrateDB)
		if err != nil {
			return err
		}

		driver := cfg.Storage.Database.Driver
		if driver == "" {
			driver = "pgx"
		}
		db, err := sql.Open(sqlDriverName(driver), dsn)
		if err != nil {
			return cli.DBConnectError("connecting to database", err)
		}
		defer func() { _ = db.Close() }()

		ctx := context.Background()
		if err := pgstore.Migrate(ctx, db); err != nil {
			return cli.GeneralError("migration failed", err)
		}

		if !quiet {
			fmt.Println("aegis_acl table is present.")
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDB, "db", "", "database URL")
}
