package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dndb/pkg/dndb"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

// catalogKind binds a reference table to its list and add operations.
type catalogKind struct {
	list func(ctx context.Context, s *dndb.Store, page types.Page) (any, error)
	add  func(ctx context.Context, s *dndb.Store, cmd *cobra.Command, file string) (any, error)
}

var catalogKinds = map[string]catalogKind{
	"traits": {
		list: func(ctx context.Context, s *dndb.Store, page types.Page) (any, error) {
			return s.Catalog.Traits.List(ctx, page)
		},
		add: func(ctx context.Context, s *dndb.Store, cmd *cobra.Command, file string) (any, error) {
			var in types.Trait
			if err := readBody(cmd, file, &in); err != nil {
				return nil, err
			}
			return s.Catalog.Traits.Create(ctx, in)
		},
	},
	"proficiencies": {
		list: func(ctx context.Context, s *dndb.Store, page types.Page) (any, error) {
			return s.Catalog.Proficiencies.List(ctx, page)
		},
		add: func(ctx context.Context, s *dndb.Store, cmd *cobra.Command, file string) (any, error) {
			var in types.Proficiency
			if err := readBody(cmd, file, &in); err != nil {
				return nil, err
			}
			return s.Catalog.Proficiencies.Create(ctx, in)
		},
	},
	"properties": {
		list: func(ctx context.Context, s *dndb.Store, page types.Page) (any, error) {
			return s.Catalog.Properties.List(ctx, page)
		},
		add: func(ctx context.Context, s *dndb.Store, cmd *cobra.Command, file string) (any, error) {
			var in types.Property
			if err := readBody(cmd, file, &in); err != nil {
				return nil, err
			}
			return s.Catalog.Properties.Create(ctx, in)
		},
	},
}

const catalogKindNames = "traits|proficiencies|properties"

func lookupKind(name string) (catalogKind, error) {
	k, ok := catalogKinds[strings.ToLower(name)]
	if !ok {
		return catalogKind{}, usageErr("unknown catalog %q, want %s", name, catalogKindNames)
	}
	return k, nil
}

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse and extend the reference catalog",
	}
	cmd.AddCommand(newCatalogListCmd())
	cmd.AddCommand(newCatalogAddCmd())
	return cmd
}

func newCatalogListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "list <" + catalogKindNames + ">",
		Short:     "List reference rows",
		Args:      exactArgs(1),
		ValidArgs: []string{"traits", "proficiencies", "properties"},
	}
	page := addPageFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		kind, err := lookupKind(args[0])
		if err != nil {
			return err
		}
		return withStore(cmd, func(s *dndb.Store) error {
			res, err := kind.list(cmd.Context(), s, *page)
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		})
	}
	return cmd
}

func newCatalogAddCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:       "add <" + catalogKindNames + ">",
		Short:     "Add a reference row from a JSON body",
		Args:      exactArgs(1),
		ValidArgs: []string{"traits", "proficiencies", "properties"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := lookupKind(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(s *dndb.Store) error {
				res, err := kind.add(cmd.Context(), s, cmd, file)
				if err != nil {
					return err
				}
				return writeJSON(cmd, res)
			})
		},
	}
	addFileFlag(cmd, &file)
	return cmd
}
