package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dndb/pkg/dndb"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

func newItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage items",
	}
	cmd.AddCommand(newItemGetCmd())
	cmd.AddCommand(newItemCreateCmd())
	cmd.AddCommand(newItemUpdateCmd())
	cmd.AddCommand(newItemDeleteCmd())
	cmd.AddCommand(newItemListCmd())
	return cmd
}

func newItemGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show an item with its type details",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *dndb.Store) error {
				it, err := s.Items.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, it)
			})
		},
	}
}

func newItemCreateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an item from a JSON body",
		Long: "Create an item from a JSON body. type is one of: Weapon, Armor,\n" +
			"Adventuring Gear, Equipment Pack, Tool; details must match it.",
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			var it types.Item
			if err := readBody(cmd, file, &it); err != nil {
				return err
			}
			return withStore(cmd, func(s *dndb.Store) error {
				out, err := s.Items.Create(cmd.Context(), &it)
				if err != nil {
					return err
				}
				return writeJSON(cmd, out)
			})
		},
	}
	addFileFlag(cmd, &file)
	return cmd
}

func newItemUpdateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace an item with a JSON body",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var it types.Item
			if err := readBody(cmd, file, &it); err != nil {
				return err
			}
			if it.ID != "" && it.ID != args[0] {
				return types.Invalid("body id %s does not match %s", it.ID, args[0])
			}
			it.ID = args[0]
			return withStore(cmd, func(s *dndb.Store) error {
				out, err := s.Items.Update(cmd.Context(), &it)
				if err != nil {
					return err
				}
				return writeJSON(cmd, out)
			})
		},
	}
	addFileFlag(cmd, &file)
	return cmd
}

func newItemDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *dndb.Store) error {
				if err := s.Items.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted item %s\n", args[0])
				return nil
			})
		},
	}
}

func newItemListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items by name",
		Args:  exactArgs(0),
	}
	page := addPageFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(s *dndb.Store) error {
			res, err := s.Items.List(cmd.Context(), *page)
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		})
	}
	return cmd
}
