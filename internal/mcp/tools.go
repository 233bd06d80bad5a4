package mcp

import (
	"context"
	"fmt"

	"github.com/matillion/reaction-tally/internal/aggregator"
	"github.com/matillion/reaction-tally/internal/archive"
	"github.com/matillion/reaction-tally/internal/config"
	"github.com/matillion/reaction-tally/internal/reaction"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// RunInput overrides parts of the loaded configuration for one call.
type RunInput struct {
	Reaction string `json:"reaction,omitempty" jsonschema:"Emoji name to count, without colons (default from config)"`
	Start    string `json:"start,omitempty" jsonschema:"Window start, RFC3339 or 'YYYY-MM-DD HH:MM:SS' in the configured time zone"`
	End      string `json:"end,omitempty" jsonschema:"Window end, RFC3339 or 'YYYY-MM-DD HH:MM:SS' in the configured time zone"`
}

type RunOutput struct {
	State        string                      `json:"state"`
	Report       string                      `json:"report"`
	Total        int                         `json:"total"`
	Groups       []reaction.Group            `json:"groups"`
	Channels     []aggregator.ChannelOutcome `json:"channels"`
	PublishedTS  string                      `json:"published_ts,omitempty"`
	PublishError string                      `json:"publish_error,omitempty"`
	Files        *archive.RunFiles           `json:"files,omitempty"`
}

// Tools runs the pipeline on behalf of MCP clients.
type Tools struct {
	cfg     config.Config
	dir     aggregator.Directory
	msg     aggregator.Messaging
	archive *archive.Writer
	logger  *zap.Logger
}

// NewTools returns a ToolHandler for cfg. archiver may be nil.
func NewTools(cfg config.Config, dir aggregator.Directory, msg aggregator.Messaging, archiver *archive.Writer, logger *zap.Logger) *Tools {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tools{
		cfg:     cfg,
		dir:     dir,
		msg:     msg,
		archive: archiver,
		logger:  logger,
	}
}

func (t *Tools) Preview(ctx context.Context, req *mcp.CallToolRequest, input RunInput) (*mcp.CallToolResult, RunOutput, error) {
	return t.run(ctx, input, true)
}

func (t *Tools) Run(ctx context.Context, req *mcp.CallToolRequest, input RunInput) (*mcp.CallToolResult, RunOutput, error) {
	return t.run(ctx, input, t.cfg.DryRun)
}

func (t *Tools) run(ctx context.Context, input RunInput, dryRun bool) (*mcp.CallToolResult, RunOutput, error) {
	cfg := t.cfg
	if input.Reaction != "" {
		cfg.Reaction = input.Reaction
	}
	if input.Start != "" {
		cfg.Start = input.Start
	}
	if input.End != "" {
		cfg.End = input.End
	}
	cfg.DryRun = dryRun

	opts, err := cfg.Options()
	if err != nil {
		return nil, RunOutput{}, fmt.Errorf("invalid run options: %w", err)
	}

	res, err := aggregator.New(t.dir, t.msg, opts, t.logger).Run(ctx)
	if err != nil {
		return nil, RunOutput{State: string(aggregator.StateAborted)}, err
	}

	output := RunOutput{
		State:       string(res.State),
		Report:      res.Report,
		Groups:      res.Groups,
		Channels:    res.Channels,
		PublishedTS: res.PublishedTS,
	}
	if res.Tally != nil {
		output.Total = res.Tally.Total()
	}
	if res.PublishErr != nil {
		output.PublishError = res.PublishErr.Error()
	}

	if t.archive != nil {
		files, err := t.archive.WriteRun(res)
		if err != nil {
			t.logger.Warn("Failed to archive run", zap.Error(err))
		} else {
			output.Files = &files
		}
	}

	return nil, output, nil
}
