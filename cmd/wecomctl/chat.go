package main

import (
	"fmt"
	"strings"

	"github.com/boddenberg/wecom-agent-go/internal/domain"

	"github.com/spf13/cobra"
)

func newChatCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Create, update and inspect agent-owned chats",
	}

	var name, owner, users, chatID string
	var generate bool
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a chat and print its id",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cli.connect(cmd.Context())
			if err != nil {
				return err
			}
			spec := domain.ChatSpec{
				Name:     name,
				Owner:    owner,
				UserList: splitUsers(users),
				ChatID:   chatID,
			}
			if generate && spec.ChatID == "" {
				spec.ChatID = domain.NewChatID()
			}
			id, err := client.Chat().CreateChat(cmd.Context(), spec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "chat name")
	createCmd.Flags().StringVar(&owner, "owner", "", "owner user id (random member when empty)")
	createCmd.Flags().StringVar(&users, "users", "", "member user ids, comma or | separated")
	createCmd.Flags().StringVar(&chatID, "id", "", "chat id to use instead of a platform-assigned one")
	createCmd.Flags().BoolVar(&generate, "generate-id", false, "generate a chat id locally")

	var newName, newOwner, add, del string
	updateCmd := &cobra.Command{
		Use:   "update <chatid>",
		Short: "Rename a chat, change its owner or its members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cli.connect(cmd.Context())
			if err != nil {
				return err
			}
			var update domain.ChatUpdate
			if cmd.Flags().Changed("name") {
				update.Name = &newName
			}
			if cmd.Flags().Changed("owner") {
				update.Owner = &newOwner
			}
			update.AddUserList = splitUsers(add)
			update.DelUserList = splitUsers(del)

			if err := client.Chat().ModifyChat(cmd.Context(), args[0], update); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "chat %s updated\n", args[0])
			return nil
		},
	}
	updateCmd.Flags().StringVar(&newName, "name", "", "new chat name")
	updateCmd.Flags().StringVar(&newOwner, "owner", "", "new owner user id")
	updateCmd.Flags().StringVar(&add, "add", "", "user ids to add")
	updateCmd.Flags().StringVar(&del, "remove", "", "user ids to remove")

	getCmd := &cobra.Command{
		Use:   "get <chatid>",
		Short: "Show a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cli.connect(cmd.Context())
			if err != nil {
				return err
			}
			info, err := client.Chat().GetChat(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, info)
		},
	}

	cmd.AddCommand(createCmd, updateCmd, getCmd)
	return cmd
}

// splitUsers accepts both "a,b" and "a|b".
func splitUsers(s string) []string {
	return domain.ParseRecipientList(strings.ReplaceAll(s, ",", domain.RecipientSeparator))
}
