package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/aegis/engine"
	"github.com/pthm/aegis/internal/cli"
)

var (
	checkDB       string
	checkMemstore string
	checkObject   string
	checkSubject  string
	checkAccess   string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate an authorize call",
	Long:  `Run a single authorize call against the configured storage backend and print the granted access mask.`,
	Example: `  # Check whether alice can read doc:1
  aegis check --object doc:1 --subject user:alice --access R

  # Using a memstore fixture instead of postgres
  aegis check --memstore fixtures/demo.yaml --object doc:1 --subject user:alice --access 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if checkObject == "" || checkSubject == "" {
			return cli.GeneralError("--object and --subject are required", nil)
		}

		access, err := parseAccessMask(checkAccess)
		if err != nil {
			return cli.GeneralError("parsing --access", err)
		}

		ctx := context.Background()
		storage, closeFn, err := openStorage(ctx, checkDB, checkMemstore)
		if err != nil {
			return err
		}
		defer closeFn()

		granted, err := engine.Authorize(storage, checkObject, checkSubject, access, nil)
		if err != nil {
			return cli.GeneralError("authorize failed", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "object=%s subject=%s request=%s granted=%s\n",
			checkObject, checkSubject, engine.PrettyString(access), engine.PrettyString(granted))

		if granted == 0 {
			return cli.GeneralError("access denied", nil)
		}
		return nil
	},
}

func init() {
	f := checkCmd.Flags()
	f.StringVar(&checkDB, "db", "", "database URL")
	f.StringVar(&checkMemstore, "memstore", "", "path to a memstore YAML fixture")
	f.StringVar(&checkObject, "object", "", "object id being accessed")
	f.StringVar(&checkSubject, "subject", "", "subject id requesting access")
	f.StringVar(&checkAccess, "access", "", "requested access: letters (R, CRUD, ...) or a numeric mask")
}
