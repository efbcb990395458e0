package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/boddenberg/wecom-agent-go/internal/config"
	"github.com/boddenberg/wecom-agent-go/internal/infra/observability"
	"github.com/boddenberg/wecom-agent-go/internal/infra/resilience"
	"github.com/boddenberg/wecom-agent-go/internal/infra/wecom"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// CLI holds the command line state shared by all subcommands.
type CLI struct {
	envFile string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
	client *wecom.Client
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	cli := &CLI{}

	rootCmd := &cobra.Command{
		Use:   "wecomctl",
		Short: "Send WeCom app messages and inspect the directory",
		Long: `wecomctl talks to the WeCom app API with the credentials in
WECOM_CORP_ID, WECOM_SECRET and WECOM_AGENT_ID (or a .env file).

Examples:
  wecomctl send text --to-user "u1|u2" "deploy finished"
  wecomctl send card --to-tag 7 --title Build --url https://ci/1 "pipeline green"
  wecomctl chat create --name incident --users u1,u2,u3
  wecomctl upload ./report.pdf`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = config.LoadDotEnv(cli.envFile)
			cli.cfg = config.Load()
			level := cli.cfg.LogLevel
			if !cli.verbose {
				level = "warn"
			}
			cli.logger = observability.NewLogger(level)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cli.client != nil {
				cli.client.Close()
			}
			if cli.logger != nil {
				_ = cli.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&cli.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVarP(&cli.verbose, "verbose", "v", false, "log at LOG_LEVEL instead of warn")

	rootCmd.AddCommand(newAppCommand(cli))
	rootCmd.AddCommand(newSendCommand(cli))
	rootCmd.AddCommand(newChatCommand(cli))
	rootCmd.AddCommand(newUploadCommand(cli))
	rootCmd.AddCommand(newUserCommand(cli))
	rootCmd.AddCommand(newDeptCommand(cli))
	rootCmd.AddCommand(newDeptUsersCommand(cli))
	rootCmd.AddCommand(newTagCommand(cli))
	rootCmd.AddCommand(newTokenCommand(cli))

	return rootCmd
}

// connect validates the credentials and builds the platform client once.
func (cli *CLI) connect(ctx context.Context) (*wecom.Client, error) {
	if cli.client != nil {
		return cli.client, nil
	}
	if err := cli.cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := wecom.New(ctx, cli.cfg.Credentials(),
		wecom.WithBaseURL(cli.cfg.BaseURL),
		wecom.WithHTTPClient(&http.Client{Timeout: cli.cfg.HTTPTimeout}),
		wecom.WithBulkhead(resilience.NewBulkhead(cli.cfg.MaxConcurrency)),
		wecom.WithLogger(cli.logger),
	)
	if err != nil {
		return nil, err
	}
	cli.client = client
	return client, nil
}

// printJSON writes v as indented JSON to the command's output.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
