package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dndb/internal/paths"
	"github.com/mesh-intelligence/dndb/pkg/dndb"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

func newInitCmd() *cobra.Command {
	var noSeed bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize dndb storage",
		Long:  "Create the configuration directory and config.yaml, migrate the\ndatabase and load the reference catalog.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, !noSeed)
		},
	}
	cmd.Flags().BoolVar(&noSeed, "no-seed", false, "skip loading the reference catalog")
	return cmd
}

func runInit(cmd *cobra.Command, seed bool) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	// Only a data dir given on the command line is pinned in the new file.
	if _, err := writeConfigIfMissing(configDir, types.Config{Backend: types.BackendSQLite, DataDir: flags.dataDir}); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	cfg, err := loadConfig(configDir, flags.dataDir)
	if err != nil {
		return err
	}
	store, err := dndb.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if seed {
		res, err := store.Seed(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Seeded %d properties, %d proficiencies, %d traits\n", res.Properties, res.Proficiencies, res.Traits)
	}
	fmt.Fprintf(out, "dndb initialized (%s)\n", cfg.Backend)
	return nil
}
