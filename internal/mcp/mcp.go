package mcp

import (
	"context"

	slackclient "github.com/matillion/reaction-tally/internal/slack"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// errorWrappingHandler wraps a ToolHandler to provide enhanced error messages
type errorWrappingHandler struct {
	handler ToolHandler
	logger  *zap.Logger
}

func (h *errorWrappingHandler) Preview(ctx context.Context, req *mcp.CallToolRequest, input RunInput) (*mcp.CallToolResult, RunOutput, error) {
	result, output, err := h.handler.Preview(ctx, req, input)
	return result, output, slackclient.WrapError(h.logger, "preview", err)
}

func (h *errorWrappingHandler) Run(ctx context.Context, req *mcp.CallToolRequest, input RunInput) (*mcp.CallToolResult, RunOutput, error) {
	result, output, err := h.handler.Run(ctx, req, input)
	return result, output, slackclient.WrapError(h.logger, "run", err)
}

// ToolHandler defines the interface for reaction tally tool operations
//
//go:generate go tool mockgen -source=$GOFILE -destination=mcp_mocks.go -package=mcp
type ToolHandler interface {
	Preview(ctx context.Context, req *mcp.CallToolRequest, input RunInput) (*mcp.CallToolResult, RunOutput, error)
	Run(ctx context.Context, req *mcp.CallToolRequest, input RunInput) (*mcp.CallToolResult, RunOutput, error)
}

// CreateServer creates an MCP server with the reaction tally tools registered
func CreateServer(logger *zap.Logger, handler ToolHandler, version string) *mcp.Server {
	logger.Info("Starting MCP server")
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "reaction-tally",
			Version: version,
		},
		nil,
	)

	// Wrap handler to provide enhanced error messages for auth failures
	wrappedHandler := &errorWrappingHandler{handler: handler, logger: logger}
	registerTools(server, wrappedHandler)
	logger.Info("Reaction tally server initialized, starting transport")
	return server
}

func registerTools(server *mcp.Server, handler ToolHandler) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "reaction_tally_preview",
		Description: "Count how often each target user reacted with the configured emoji across all visible channels and thread replies, grouped by affiliation. Returns the report without posting it.",
	}, handler.Preview)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reaction_tally_run",
		Description: "Run the reaction tally and post the ranked report to the configured destination channel. Returns the report, per-channel outcomes and the posted message timestamp.",
	}, handler.Run)
}
