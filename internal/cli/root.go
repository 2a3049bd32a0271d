// Package cli implements the dndb command-line interface.
package cli

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dndb/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	as        string
}

var flags rootFlags

// NewRootCmd creates the top-level "dndb" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dndb",
		Short: "Persistence engine for characters, items and campaigns",
		Long:  "dndb stores character sheets, items and campaign memberships\nin SQLite or Postgres and prints every aggregate as JSON.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageErr("%v", err)
	})

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: .dndb)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory for the SQLite database")
	root.PersistentFlags().StringVar(&flags.as, "as", "", "id of the user issuing the command")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newUserCmd())
	root.AddCommand(newCharacterCmd())
	root.AddCommand(newItemCmd())
	root.AddCommand(newCampaignCmd())
	root.AddCommand(newCatalogCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	log.SetFlags(0)
	log.SetPrefix("dndb: ")

	if err := loadDotEnv(".env"); err != nil {
		log.Printf("loading .env: %v", err)
		os.Exit(exitSysError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := NewRootCmd().ExecuteContext(ctx)
	code := exitCode(err)
	if err != nil {
		log.Print(err)
	}
	stop()
	os.Exit(code)
}

// exitCode maps an error to the process exit status. Storage failures and
// errors from outside the engine are system errors; every other kind is the
// caller's fault.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var e *types.Error
	if errors.As(err, &e) && e.Kind != types.KindStorage {
		return exitUserError
	}
	if errors.Is(err, errUsage) {
		return exitUserError
	}
	return exitSysError
}
