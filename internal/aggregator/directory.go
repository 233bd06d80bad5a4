package aggregator

import (
	"context"
	"fmt"

	"github.com/matillion/reaction-tally/internal/reaction"
	"go.uber.org/zap"
)

// Roster is the per-run directory snapshot.
type Roster struct {
	BotUserID string
	Targets   *reaction.TargetUsers
	Channels  []reaction.Channel
}

// ResolveDirectory checks the credential, resolves target users and lists
// the channels to scan. Any failure here aborts the run.
func ResolveDirectory(ctx context.Context, dir Directory, names []string, types reaction.ChannelTypes, logger *zap.Logger) (*Roster, error) {
	botID, err := dir.Whoami(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth test: %w", err)
	}

	users, err := dir.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	targets := reaction.NewTargetUsers(users, names)
	if missing := targets.Missing(names); len(missing) > 0 {
		logger.Warn("Target users not found in roster", zap.Strings("names", missing))
	}

	channels, err := dir.ListChannels(ctx, types)
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}

	logger.Info("Directory resolved",
		zap.String("bot_user_id", botID),
		zap.Int("roster_size", len(users)),
		zap.Int("targets", targets.Len()),
		zap.Int("channels", len(channels)),
		zap.Stringer("channel_types", types))

	return &Roster{
		BotUserID: botID,
		Targets:   targets,
		Channels:  channels,
	}, nil
}
