package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dndb/pkg/dndb"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

func newCharacterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "character",
		Aliases: []string{"char"},
		Short:   "Manage character sheets",
	}
	cmd.AddCommand(newCharacterGetCmd())
	cmd.AddCommand(newCharacterCreateCmd())
	cmd.AddCommand(newCharacterUpdateCmd())
	cmd.AddCommand(newCharacterDeleteCmd())
	cmd.AddCommand(newCharacterListCmd())
	return cmd
}

func newCharacterGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a full character sheet",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *dndb.Store) error {
				c, err := s.Characters.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, c)
			})
		},
	}
}

func newCharacterCreateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a character from a JSON sheet",
		Long:  "Create a character from a JSON sheet. When owner_id is empty the\n--as user becomes the owner.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			var c types.Character
			if err := readBody(cmd, file, &c); err != nil {
				return err
			}
			if c.OwnerID == "" {
				c.OwnerID = flags.as
			}
			return withStore(cmd, func(s *dndb.Store) error {
				out, err := s.Characters.Create(cmd.Context(), &c)
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

func newCharacterUpdateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a character sheet with a JSON body",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var c types.Character
			if err := readBody(cmd, file, &c); err != nil {
				return err
			}
			if c.ID != "" && c.ID != args[0] {
				return types.Invalid("body id %s does not match %s", c.ID, args[0])
			}
			c.ID = args[0]
			return withStore(cmd, func(s *dndb.Store) error {
				out, err := s.Characters.Update(cmd.Context(), &c)
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

func newCharacterDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a character",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *dndb.Store) error {
				if err := s.Characters.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted character %s\n", args[0])
				return nil
			})
		},
	}
}

func newCharacterListCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the characters a user owns",
		Args:  exactArgs(0),
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner id (default: --as)")
	page := addPageFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if owner == "" {
			sub, err := subject()
			if err != nil {
				return err
			}
			owner = sub.ID
		}
		return withStore(cmd, func(s *dndb.Store) error {
			res, err := s.Characters.ListByOwner(cmd.Context(), owner, *page)
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		})
	}
	return cmd
}
