package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dndb/pkg/dndb"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserGetCmd())
	cmd.AddCommand(newUserListCmd())
	cmd.AddCommand(newUserDeleteCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user from a JSON body {nickname, email, password}",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in types.NewUser
			if err := readBody(cmd, file, &in); err != nil {
				return err
			}
			return withStore(cmd, func(s *dndb.Store) error {
				u, err := s.Catalog.Users.Create(cmd.Context(), in)
				if err != nil {
					return err
				}
				return writeJSON(cmd, u)
			})
		},
	}
	addFileFlag(cmd, &file)
	return cmd
}

func newUserGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a user",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *dndb.Store) error {
				u, err := s.Catalog.Users.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, u)
			})
		},
	}
}

func newUserListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users by nickname",
		Args:  exactArgs(0),
	}
	page := addPageFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(s *dndb.Store) error {
			res, err := s.Catalog.Users.List(cmd.Context(), *page)
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		})
	}
	return cmd
}

func newUserDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user and everything they own",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *dndb.Store) error {
				if err := s.Catalog.Users.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", args[0])
				return nil
			})
		},
	}
}
