package aggregator

import (
	"context"

	"github.com/matillion/reaction-tally/internal/reaction"
)

// Directory resolves the workspace roster and the channels to scan.
//
//go:generate go tool mockgen -source=$GOFILE -destination=aggregator_mocks.go -package=aggregator
type Directory interface {
	Whoami(ctx context.Context) (string, error)
	ListUsers(ctx context.Context) ([]reaction.User, error)
	ListChannels(ctx context.Context, types reaction.ChannelTypes) ([]reaction.Channel, error)
	ChannelName(ctx context.Context, channelID string) string
}

// Messaging reads conversations and posts the report.
type Messaging interface {
	History(ctx context.Context, channelID, cursor string, limit int) (reaction.Page, error)
	Replies(ctx context.Context, channelID, threadTS string, window reaction.Window, cursor string, limit int) (reaction.Page, error)
	Join(ctx context.Context, channelID string) error
	Post(ctx context.Context, channelID, text string) (string, error)
}
