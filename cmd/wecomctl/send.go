package main

import (
	"fmt"
	"strings"

	"github.com/boddenberg/wecom-agent-go/internal/domain"

	"github.com/spf13/cobra"
)

// sendFlags addresses a message either to recipients or to a chat.
type sendFlags struct {
	users   string
	parties string
	tags    string
	chatID  string
}

func (f *sendFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.users, "to-user", "", `user ids, "|" separated ("@all" for everyone)`)
	cmd.Flags().StringVar(&f.parties, "to-party", "", `department ids, "|" separated`)
	cmd.Flags().StringVar(&f.tags, "to-tag", "", `tag ids, "|" separated`)
	cmd.Flags().StringVar(&f.chatID, "chat", "", "send into this chat instead of to recipients")
}

func (f *sendFlags) recipients() domain.Recipients {
	return domain.Recipients{
		Users:   domain.ParseRecipientList(f.users),
		Parties: domain.ParseRecipientList(f.parties),
		Tags:    domain.ParseRecipientList(f.tags),
	}
}

func newSendCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a text, card, file or markdown message",
	}

	var text sendFlags
	textCmd := &cobra.Command{
		Use:   "text <content>",
		Short: "Send a plain text message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.send(cmd, text, domain.NewTextMessage(strings.Join(args, " ")))
		},
	}
	text.bind(textCmd)

	var card sendFlags
	var title, url, btn string
	cardCmd := &cobra.Command{
		Use:   "card <description>",
		Short: "Send a text card",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := domain.NewTextCardMessage(title, strings.Join(args, " "), url, btn)
			return cli.send(cmd, card, msg)
		},
	}
	card.bind(cardCmd)
	cardCmd.Flags().StringVar(&title, "title", "", "card title")
	cardCmd.Flags().StringVar(&url, "url", "", "link opened by the card")
	cardCmd.Flags().StringVar(&btn, "button", "", "button text (platform default when empty)")

	var file sendFlags
	var upload bool
	fileCmd := &cobra.Command{
		Use:   "file <media_id|path>",
		Short: "Send a file message by media id, or upload a local file first with --upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mediaID := args[0]
			if upload {
				client, err := cli.connect(cmd.Context())
				if err != nil {
					return err
				}
				res, err := client.UploadMedia(cmd.Context(), args[0], domain.MediaFile)
				if err != nil {
					return err
				}
				mediaID = res.MediaID
			}
			return cli.send(cmd, file, domain.NewFileMessage(mediaID))
		},
	}
	file.bind(fileCmd)
	fileCmd.Flags().BoolVar(&upload, "upload", false, "treat the argument as a local path and upload it")

	var md sendFlags
	mdCmd := &cobra.Command{
		Use:   "markdown <content>",
		Short: "Send a markdown message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.send(cmd, md, domain.NewMarkdownMessage(strings.Join(args, " ")))
		},
	}
	md.bind(mdCmd)

	cmd.AddCommand(textCmd, cardCmd, fileCmd, mdCmd)
	return cmd
}

func (cli *CLI) send(cmd *cobra.Command, f sendFlags, msg *domain.Message) error {
	ctx := cmd.Context()
	client, err := cli.connect(ctx)
	if err != nil {
		return err
	}

	if f.chatID != "" {
		if err := client.Chat().Send(ctx, f.chatID, msg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sent %s to chat %s\n", msg.MsgType, f.chatID)
		return nil
	}

	result, err := client.Send(ctx, f.recipients(), msg)
	if err != nil {
		return err
	}
	return printJSON(cmd, result)
}
