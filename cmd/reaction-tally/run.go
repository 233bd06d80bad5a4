package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matillion/reaction-tally/internal/aggregator"
	"github.com/matillion/reaction-tally/internal/archive"
	slackclient "github.com/matillion/reaction-tally/internal/slack"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runDryRun   bool
	runOutDir   string
	runTimeout  time.Duration
	runChannel  string
	runReaction string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Tally reactions and post the report",
	Long: `Run the full pipeline once: resolve users and channels, scan every
channel and thread, count reactions and post the ranked report.

With --dry-run the report is printed to stdout instead of posted.`,
	Args: cobra.NoArgs,
	RunE: runTally,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Print the report instead of posting it")
	runCmd.Flags().StringVar(&runOutDir, "out", "", "Directory to archive the report, summary and channel outcomes")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Overall run deadline (0 uses the configured timeout, if any)")
	runCmd.Flags().StringVar(&runChannel, "channel", "", "Destination channel ID")
	runCmd.Flags().StringVar(&runReaction, "reaction", "", "Emoji name to count, without colons")
	rootCmd.AddCommand(runCmd)
}

func runTally(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("dry-run") {
		cfg.DryRun = runDryRun
	}
	if flags.Changed("out") {
		cfg.OutDir = runOutDir
	}
	if flags.Changed("timeout") {
		cfg.Timeout = runTimeout
	}
	if flags.Changed("channel") {
		cfg.Channel = runChannel
	}
	if flags.Changed("reaction") {
		cfg.Reaction = runReaction
	}

	opts, err := cfg.Options()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := initLogger(cfg.LogLevel, cfg.LogDir)
	defer logger.Sync()

	client, err := slackclient.NewClient(slackclient.Config{
		Token:             cfg.Token,
		Cookie:            cfg.Cookie,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating slack client: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	logger.Info("Starting run",
		zap.String("version", version),
		zap.String("reaction", opts.Reaction),
		zap.Strings("targets", opts.TargetNames),
		zap.Bool("dry_run", opts.DryRun))

	res, err := aggregator.New(client, client, opts, logger).Run(ctx)
	if err != nil {
		return &exitError{code: ExitAborted, err: slackclient.WrapError(logger, "run", err)}
	}

	if opts.DryRun {
		fmt.Fprintln(cmd.OutOrStdout(), res.Report)
	}

	if cfg.OutDir != "" {
		w, err := archive.NewWriter(cfg.OutDir)
		if err != nil {
			logger.Error("Failed to create archive directory", zap.Error(err))
		} else if files, err := w.WriteRun(res); err != nil {
			logger.Error("Failed to archive run", zap.Error(err))
		} else {
			logger.Info("Run archived",
				zap.String("report", files.Report.Path),
				zap.String("summary", files.Summary.Path),
				zap.String("channels", files.Channels.Path))
		}
	}

	if res.PublishErr != nil {
		return &exitError{code: ExitPublishFailed, err: res.PublishErr}
	}
	return nil
}
