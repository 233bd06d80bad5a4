package aggregator

import (
	"context"
	"fmt"

	"github.com/matillion/reaction-tally/internal/reaction"
	"go.uber.org/zap"
)

// ThreadExpander fetches the replies of thread roots inside the window.
type ThreadExpander struct {
	msg      Messaging
	window   reaction.Window
	pageSize int
	logger   *zap.Logger
}

func NewThreadExpander(msg Messaging, window reaction.Window, pageSize int, logger *zap.Logger) *ThreadExpander {
	if pageSize <= 0 {
		pageSize = DefaultRepliesPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThreadExpander{
		msg:      msg,
		window:   window,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Replies returns the countable replies of one thread: the root is dropped,
// as are subtype messages and replies outside the window.
func (e *ThreadExpander) Replies(ctx context.Context, channelID, threadTS string) ([]reaction.Message, error) {
	var replies []reaction.Message
	cursor := ""
	for {
		page, err := e.msg.Replies(ctx, channelID, threadTS, e.window, cursor, e.pageSize)
		if err != nil {
			return nil, fmt.Errorf("replies for %s: %w", threadTS, err)
		}

		// The root heads every page, not just the first.
		for _, m := range page.Messages {
			if m.Timestamp == threadTS || m.IsSubtype() || !e.window.ContainsTimestamp(m.Timestamp) {
				continue
			}
			replies = append(replies, m)
		}

		if page.NextCursor == "" {
			return replies, nil
		}
		cursor = page.NextCursor
	}
}

// Expand collects replies for every thread root in messages. A failed thread
// is logged and skipped; only cancellation of ctx is returned.
func (e *ThreadExpander) Expand(ctx context.Context, ch reaction.Channel, messages []reaction.Message) ([]reaction.Message, error) {
	var all []reaction.Message
	for _, msg := range messages {
		if !msg.IsThreadRoot() {
			continue
		}
		replies, err := e.Replies(ctx, ch.ID, msg.ThreadTimestamp)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Warn("Failed to fetch thread replies",
				zap.String("channel_id", ch.ID),
				zap.String("thread_ts", msg.ThreadTimestamp),
				zap.Error(err))
			continue
		}
		all = append(all, replies...)
	}
	return all, nil
}
