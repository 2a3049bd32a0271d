package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dndb/internal/paths"
	"github.com/mesh-intelligence/dndb/pkg/dndb"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

// errUsage marks command-line mistakes that never reached the engine.
var errUsage = errors.New("usage error")

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// withStore opens the configured store, runs fn and closes the store.
func withStore(cmd *cobra.Command, fn func(*dndb.Store) error) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
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
	return fn(store)
}

// subject returns the --as identity. Commands that act on behalf of a user
// call it before touching the store.
func subject() (types.Subject, error) {
	if flags.as == "" {
		return types.Subject{}, types.Unauthorized("this command needs --as <user-id>")
	}
	return types.Subject{ID: flags.as, Role: types.RoleUser}, nil
}

// addFileFlag registers --file on cmd. An empty value reads stdin.
func addFileFlag(cmd *cobra.Command, file *string) {
	cmd.Flags().StringVarP(file, "file", "f", "", "JSON body to read (default: stdin)")
}

// readBody decodes the JSON body named by file, or stdin when file is empty.
func readBody(cmd *cobra.Command, file string, v any) error {
	var r io.Reader = cmd.InOrStdin()
	if file != "" && file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return usageErr("open %s: %v", file, err)
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return usageErr("decode body: %v", err)
	}
	return nil
}

// writeJSON prints v as indented JSON.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// addPageFlags registers --page, --page-size and --search and returns the
// page they fill.
func addPageFlags(cmd *cobra.Command) *types.Page {
	p := types.DefaultPage()
	cmd.Flags().IntVar(&p.Number, "page", p.Number, "page number, starting at 1")
	cmd.Flags().IntVar(&p.Size, "page-size", p.Size, "rows per page")
	cmd.Flags().StringVar(&p.Search, "search", "", "case-insensitive name filter")
	return &p
}

// exactArgs is cobra.ExactArgs reported as a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageErr("%v", err)
		}
		return nil
	}
}
