package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/aegis/internal/cli"
	"github.com/pthm/aegis/internal/doctor"
)

var (
	doctorDB      string
	doctorVerbose bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks",
	Long:  `Run health checks against a PostgreSQL-backed aegis deployment.`,
	Example: `  aegis doctor --db postgres://localhost/mydb
  aegis doctor --db postgres://localhost/mydb --verbose`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verboseFlag := doctorVerbose || resolveBoolFromConfig()

		dsn, err := resolveDSN(doctorDB)
		if err != nil {
			return err
		}

		return runDoctor(dsn, verboseFlag)
	},
}

func init() {
	f := doctorCmd.Flags()
	f.StringVar(&doctorDB, "db", "", "database URL")
	f.BoolVar(&doctorVerbose, "verbose", false, "show detailed output")
}

func resolveBoolFromConfig() bool {
	return cfg != nil && cfg.Doctor.Verbose
}

func runDoctor(dsn string, verboseFlag bool) error {
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

	if !quiet {
		fmt.Println("aegis doctor - Health Check")
	}

	d := doctor.New(db)
	report, err := d.Run(ctx)
	if err != nil {
		return cli.GeneralError("running doctor", err)
	}

	report.Print(os.Stdout, verboseFlag)

	if report.HasErrors() {
		return cli.GeneralError("health checks failed", nil)
	}

	return nil
}
