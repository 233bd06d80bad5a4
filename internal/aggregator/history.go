package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/matillion/reaction-tally/internal/reaction"
	"go.uber.org/zap"
)

const (
	DefaultHistoryPageSize = 1000
	DefaultRepliesPageSize = 100
	DefaultPageDelay       = time.Second
)

// HistoryFetcher reads the complete history of a channel page by page.
type HistoryFetcher struct {
	msg      Messaging
	pageSize int
	delay    time.Duration
	sleep    func(time.Duration)
	logger   *zap.Logger
}

func NewHistoryFetcher(msg Messaging, pageSize int, delay time.Duration, logger *zap.Logger) *HistoryFetcher {
	if pageSize <= 0 {
		pageSize = DefaultHistoryPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryFetcher{
		msg:      msg,
		pageSize: pageSize,
		delay:    delay,
		sleep:    time.Sleep,
		logger:   logger,
	}
}

// Fetch returns every message in the channel, oldest page request first. The
// pause between pages blocks and is not cut short by ctx.
func (f *HistoryFetcher) Fetch(ctx context.Context, channelID string) ([]reaction.Message, error) {
	var messages []reaction.Message
	cursor := ""
	for page := 1; ; page++ {
		resp, err := f.msg.History(ctx, channelID, cursor, f.pageSize)
		if err != nil {
			return nil, fmt.Errorf("history page %d: %w", page, err)
		}
		messages = append(messages, resp.Messages...)

		f.logger.Debug("Fetched history page",
			zap.String("channel_id", channelID),
			zap.Int("page", page),
			zap.Int("messages", len(resp.Messages)))

		if resp.NextCursor == "" {
			return messages, nil
		}
		cursor = resp.NextCursor
		f.sleep(f.delay)
	}
}
