package main

import (
	"fmt"
	"strconv"

	"github.com/boddenberg/wecom-agent-go/internal/domain"
	"github.com/boddenberg/wecom-agent-go/internal/service"

	"github.com/spf13/cobra"
)

func newAppCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "app",
		Short: "Show the agent configuration and visible range",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cli.connect(cmd.Context())
			if err != nil {
				return err
			}
			info := client.Info()
			return printJSON(cmd, map[string]any{
				"agentid":         info.AgentID,
				"name":            info.Name,
				"description":     info.Description,
				"redirect_domain": info.RedirectDomain,
				"allowed_users":   info.UserIDs(),
				"allowed_parties": info.PartyIDs(),
				"allowed_tags":    info.AllowedTags,
				"closed":          info.Closed,
			})
		},
	}
}

func newUploadCommand(cli *CLI) *cobra.Command {
	var mediaType string
	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload temporary media and print its media id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mt, ok := domain.ParseMediaType(mediaType)
			if !ok {
				return &domain.ErrValidation{Field: "type", Message: "must be one of image, voice, video, file"}
			}
			client, err := cli.connect(cmd.Context())
			if err != nil {
				return err
			}
			upload, err := client.UploadMedia(cmd.Context(), args[0], mt)
			if err != nil {
				return err
			}
			return printJSON(cmd, upload)
		},
	}
	cmd.Flags().StringVar(&mediaType, "type", "file", "media type: image, voice, video or file")
	return cmd
}

func newUserCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "user <userid>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cli.connect(cmd.Context())
			if err != nil {
				return err
			}
			user, err := client.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, user)
		},
	}
}

func newDeptCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "dept [id]",
		Short: "List departments, the whole tree when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := 0
			if len(args) == 1 {
				n, err := parseID("id", args[0])
				if err != nil {
					return err
				}
				id = n
			}
			client, err := cli.connect(cmd.Context())
			if err != nil {
				return err
			}
			depts, err := client.ListDepartments(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, depts)
		},
	}
}

func newDeptUsersCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "dept-users <id>",
		Short: "List the members of a department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("id", args[0])
			if err != nil {
				return err
			}
			client, err := cli.connect(cmd.Context())
			if err != nil {
				return err
			}
			members, err := client.ListDepartmentUsers(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, members)
		},
	}
}

func newTagCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <tagid>",
		Short: "List the members of a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("tagid", args[0])
			if err != nil {
				return err
			}
			client, err := cli.connect(cmd.Context())
			if err != nil {
				return err
			}
			members, err := client.GetTagUsers(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, members)
		},
	}
}

// newTokenCommand mints a gateway bearer token; it never contacts the platform.
func newTokenCommand(cli *CLI) *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a gateway access token signed with GATEWAY_JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer := service.NewTokenIssuer(cli.cfg.JWTSecret, cli.cfg.JWTTTL)
			if issuer == nil {
				return &domain.ErrValidation{Field: "GATEWAY_JWT_SECRET", Message: "required"}
			}
			token, err := issuer.Issue(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "calling service name")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func parseID(field, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &domain.ErrValidation{Field: field, Message: "must be a non-negative integer"}
	}
	return n, nil
}
