package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dndb/pkg/dndb"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

func newCampaignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Manage campaigns and memberships",
	}
	cmd.AddCommand(newCampaignCreateCmd())
	cmd.AddCommand(newCampaignGetCmd())
	cmd.AddCommand(newCampaignListCmd())
	cmd.AddCommand(newCampaignJoinCmd())
	cmd.AddCommand(newCampaignArchiveCmd())
	cmd.AddCommand(newCampaignDeleteCmd())
	return cmd
}

func newCampaignCreateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a campaign owned by --as from a JSON body",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := subject()
			if err != nil {
				return err
			}
			var in types.NewCampaign
			if err := readBody(cmd, file, &in); err != nil {
				return err
			}
			return withStore(cmd, func(s *dndb.Store) error {
				c, err := s.Campaigns.Create(cmd.Context(), sub, in)
				if err != nil {
					return err
				}
				return writeJSON(cmd, c)
			})
		},
	}
	addFileFlag(cmd, &file)
	return cmd
}

func newCampaignGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a campaign with its members",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *dndb.Store) error {
				c, err := s.Campaigns.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, c)
			})
		},
	}
}

func newCampaignListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the campaigns --as belongs to",
		Args:  exactArgs(0),
	}
	page := addPageFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		sub, err := subject()
		if err != nil {
			return err
		}
		return withStore(cmd, func(s *dndb.Store) error {
			res, err := s.Campaigns.ListForUser(cmd.Context(), sub.ID, *page)
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		})
	}
	return cmd
}

func newCampaignJoinCmd() *cobra.Command {
	var characterID, password string
	cmd := &cobra.Command{
		Use:   "join <campaign-id>",
		Short: "Join a campaign as --as, playing --character",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := subject()
			if err != nil {
				return err
			}
			req := types.JoinRequest{
				CampaignID:  args[0],
				UserID:      sub.ID,
				CharacterID: characterID,
				Password:    password,
			}
			return withStore(cmd, func(s *dndb.Store) error {
				c, err := s.Campaigns.Join(cmd.Context(), req)
				if err != nil {
					return err
				}
				return writeJSON(cmd, c)
			})
		},
	}
	cmd.Flags().StringVar(&characterID, "character", "", "id of the character to play")
	cmd.Flags().StringVar(&password, "password", "", "campaign password, if it has one")
	return cmd
}

func newCampaignArchiveCmd() *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "archive <id>",
		Short: "Close a campaign to new players",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := subject()
			if err != nil {
				return err
			}
			return withStore(cmd, func(s *dndb.Store) error {
				c, err := s.Campaigns.SetArchived(cmd.Context(), sub, args[0], !undo)
				if err != nil {
					return err
				}
				return writeJSON(cmd, c)
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "reopen an archived campaign")
	return cmd
}

func newCampaignDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a campaign owned by --as",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := subject()
			if err != nil {
				return err
			}
			return withStore(cmd, func(s *dndb.Store) error {
				if err := s.Campaigns.Delete(cmd.Context(), sub, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted campaign %s\n", args[0])
				return nil
			})
		},
	}
}
