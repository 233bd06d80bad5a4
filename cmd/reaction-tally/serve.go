package main

import (
	"fmt"
	"path/filepath"

	"github.com/matillion/reaction-tally/internal/archive"
	tallymcp "github.com/matillion/reaction-tally/internal/mcp"
	slackclient "github.com/matillion/reaction-tally/internal/slack"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tally as MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Token == "" {
		return fmt.Errorf("slack token is required (set SLACK_BOT_TOKEN)")
	}

	logger := initLogger(cfg.LogLevel, cfg.LogDir)
	defer logger.Sync()

	logger.Info("Creating Slack client")
	client, err := slackclient.NewClient(slackclient.Config{
		Token:             cfg.Token,
		Cookie:            cfg.Cookie,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating slack client: %w", err)
	}

	var archiver *archive.Writer
	if cfg.OutDir != "" {
		if archiver, err = archive.NewWriter(filepath.Clean(cfg.OutDir)); err != nil {
			return fmt.Errorf("creating archive directory: %w", err)
		}
	}

	tools := tallymcp.NewTools(cfg, client, client, archiver, logger)
	server := tallymcp.CreateServer(logger, tools, version)
	if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
		logger.Error("Server error", zap.Error(err))
		return err
	}
	return nil
}
