package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/aegis/engine"
	"github.com/pthm/aegis/internal/cli"
)

var (
	traceDB       string
	traceMemstore string
	traceObject   string
	traceSubject  string
	traceAccess   string
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Evaluate an authorize call with full diagnostics",
	Long: `Run a single authorize call with every tracing channel enabled and print
the acl, group, and info narration alongside the granted access mask.`,
	Example: `  aegis trace --object doc:1 --subject user:alice --access R`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if traceObject == "" || traceSubject == "" {
			return cli.GeneralError("--object and --subject are required", nil)
		}

		access, err := parseAccessMask(traceAccess)
		if err != nil {
			return cli.GeneralError("parsing --access", err)
		}

		ctx := context.Background()
		storage, closeFn, err := openStorage(ctx, traceDB, traceMemstore)
		if err != nil {
			return err
		}
		defer closeFn()

		granted, tr, err := engine.TraceAuthorize(storage, traceObject, traceSubject, access)
		if err != nil {
			return cli.GeneralError("authorize failed", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "--- info ---")
		fmt.Fprint(out, tr.Info.String())
		fmt.Fprintln(out, "--- groups visited ---")
		fmt.Fprint(out, tr.Group.String())
		fmt.Fprintln(out, "--- contributing permissions ---")
		fmt.Fprint(out, tr.ACL.String())
		fmt.Fprintf(out, "--- result ---\ngranted=%s\n", engine.PrettyString(granted))

		return nil
	},
}

func init() {
	f := traceCmd.Flags()
	f.StringVar(&traceDB, "db", "", "database URL")
	f.StringVar(&traceMemstore, "memstore", "", "path to a memstore YAML fixture")
	f.StringVar(&traceObject, "object", "", "object id being accessed")
	f.StringVar(&traceSubject, "subject", "", "subject id requesting access")
	f.StringVar(&traceAccess, "access", "", "requested access: letters (R, CRUD, ...) or a numeric mask")
}
