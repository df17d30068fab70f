package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm/aegis/internal/cli"
	"github.com/pthm/aegis/internal/update"
)

var (
	// Global state set during PersistentPreRunE.
	cfg        *cli.Config
	configPath string

	// Persistent flags.
	cfgFile       string
	verbose       int
	quiet         bool
	noUpdateCheck bool

	// Update check result channel.
	updateResult chan *update.Info
)

var rootCmd = &cobra.Command{
	Use:   "aegis",
	Short: "Attribute-/group-based authorization engine",
	Long: `aegis - Attribute-/group-based authorization engine

aegis answers "given a subject, an object, and a requested access mask,
which bits of that mask are granted?" by walking subject and object
group graphs stored in a pluggable key-value backend.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" || cmd.Name() == "license" {
			return nil
		}

		if !noUpdateCheck && !isCI() {
			updateResult = make(chan *update.Info, 1)
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				info, _ := update.CheckWithCache(ctx)
				updateResult <- info
			}()
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}

		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Command group IDs.
const (
	groupCheck   = "check"
	groupStorage = "storage"
	groupUtility = "utility"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover aegis.yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase verbosity (can be repeated)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noUpdateCheck, "no-update-check", false, "disable update check")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupCheck, Title: "Authorization:"},
		&cobra.Group{ID: groupStorage, Title: "Storage:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	checkCmd.GroupID = groupCheck
	traceCmd.GroupID = groupCheck
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(traceCmd)

	migrateCmd.GroupID = groupStorage
	doctorCmd.GroupID = groupStorage
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(doctorCmd)

	configCmd.GroupID = groupUtility
	versionCmd.GroupID = groupUtility
	licenseCmd.GroupID = groupUtility
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(licenseCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.ExitWithError(err)
	}
	ShowUpdateNoticeIfAvailable()
}

func resolveString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func isCI() bool {
	return os.Getenv("CI") != ""
}

// ShowUpdateNoticeIfAvailable checks for a pending update result and prints
// a notice. Execute calls it only after a successful command; a command
// that returns an error exits through cli.ExitWithError first.
func ShowUpdateNoticeIfAvailable() {
	if updateResult == nil {
		return
	}

	select {
	case info := <-updateResult:
		if info != nil && info.UpdateAvailable {
			showUpdateNotice(info)
		}
	case <-time.After(1 * time.Second):
	}
}

func showUpdateNotice(info *update.Info) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "* A new version of aegis is available: v%s (current: %s)\n",
		info.LatestVersion, info.CurrentVersion)
	fmt.Fprintln(os.Stderr, "  go install github.com/pthm/aegis/cmd/aegis@latest")
}
