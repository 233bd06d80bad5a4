package slack

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/matillion/reaction-tally/internal/reaction"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SlackAPI defines the Slack API methods used by the client
//
//go:generate go tool mockgen -source=$GOFILE -destination=client_mocks.go -package=slack
type SlackAPI interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	GetUsersContext(ctx context.Context, options ...slack.GetUsersOption) ([]slack.User, error)
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
	GetConversationInfoContext(ctx context.Context, input *slack.GetConversationInfoInput) (*slack.Channel, error)
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error)
	JoinConversationContext(ctx context.Context, channelID string) (*slack.Channel, string, []string, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Config holds configuration for the Slack client
type Config struct {
	Token             string // Slack API token (required)
	Cookie            string // Slack cookie for xoxc token auth (optional)
	RequestsPerMinute int    // workspace-wide request budget, 0 for unpaced
	APIURL            string // override for tests
}

const channelListPageSize = 1000

type Client struct {
	api     SlackAPI
	index   *channelIndex
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("slack token is required")
	}

	opts := []slack.Option{}

	if cfg.Cookie != "" {
		logger.Info("Using cookie authentication for Slack client")
		httpClient := &http.Client{
			Transport: newCookieTransport(cfg.Cookie, logger),
		}
		opts = append(opts, slack.OptionHTTPClient(httpClient))
	}
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}

	api := slack.New(cfg.Token, opts...)

	c := newClientWithAPI(api, logger)
	c.limiter = newLimiter(cfg.RequestsPerMinute)
	return c, nil
}

// newClientWithAPI creates a client with a given SlackAPI (for testing)
func newClientWithAPI(api SlackAPI, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		api:     api,
		index:   newIndex(),
		limiter: newLimiter(0),
		logger:  logger,
	}
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// call paces and retries one API request, then maps Slack error codes onto
// the domain errors.
func (c *Client) call(ctx context.Context, operation string, fn func() error) error {
	err := withRetry(ctx, c.logger, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return fn()
	})
	return classifyError(operation, err)
}

// Whoami returns the user id behind the token.
func (c *Client) Whoami(ctx context.Context) (string, error) {
	var resp *slack.AuthTestResponse
	err := c.call(ctx, "auth.test", func() error {
		var e error
		resp, e = c.api.AuthTestContext(ctx)
		return e
	})
	if err != nil {
		return "", err
	}
	return resp.UserID, nil
}

// ListUsers returns the full workspace roster keyed by real name.
func (c *Client) ListUsers(ctx context.Context) ([]reaction.User, error) {
	var users []slack.User
	err := c.call(ctx, "users.list", func() error {
		var e error
		users, e = c.api.GetUsersContext(ctx)
		return e
	})
	if err != nil {
		return nil, err
	}

	roster := make([]reaction.User, 0, len(users))
	for _, u := range users {
		name := u.RealName
		if name == "" {
			name = u.Profile.RealName
		}
		roster = append(roster, reaction.User{ID: u.ID, DisplayName: name})
	}
	return roster, nil
}

// ListChannels lists every conversation of the given types, following the
// cursor, and feeds the channel index.
func (c *Client) ListChannels(ctx context.Context, types reaction.ChannelTypes) ([]reaction.Channel, error) {
	params := &slack.GetConversationsParameters{
		Types: types.SlackTypes(),
		Limit: channelListPageSize,
	}

	var result []reaction.Channel
	for {
		var (
			channels []slack.Channel
			cursor   string
		)
		err := c.call(ctx, "conversations.list", func() error {
			var e error
			channels, cursor, e = c.api.GetConversationsContext(ctx, params)
			return e
		})
		if err != nil {
			return nil, err
		}

		page := make([]reaction.Channel, 0, len(channels))
		for _, ch := range channels {
			page = append(page, reaction.Channel{ID: ch.ID, Name: ch.Name})
		}
		c.index.Add(page)
		result = append(result, page...)

		if cursor == "" {
			return result, nil
		}
		params.Cursor = cursor
	}
}

// ChannelName resolves a channel id for diagnostics. It never fails; the id
// is returned when the name cannot be found.
func (c *Client) ChannelName(ctx context.Context, channelID string) string {
	if ch, ok := c.index.GetByID(channelID); ok && ch.Name != "" {
		return ch.Name
	}
	ch, err := c.getConversationInfo(ctx, channelID)
	if err != nil {
		c.logger.Debug("Channel name lookup failed", zap.String("channel_id", channelID), zap.Error(err))
		return channelID
	}
	return ch.Name
}

// getConversationInfo wraps the Slack API call and feeds the channel index.
func (c *Client) getConversationInfo(ctx context.Context, channelID string) (reaction.Channel, error) {
	var ch *slack.Channel
	err := c.call(ctx, "conversations.info", func() error {
		var e error
		ch, e = c.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
			ChannelID: channelID,
		})
		return e
	})
	if err != nil {
		return reaction.Channel{}, err
	}
	info := reaction.Channel{ID: ch.ID, Name: ch.Name}
	c.index.Add([]reaction.Channel{info})
	return info, nil
}

// History returns one page of channel history.
func (c *Client) History(ctx context.Context, channelID, cursor string, limit int) (reaction.Page, error) {
	params := &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Cursor:    cursor,
		Limit:     limit,
	}

	var history *slack.GetConversationHistoryResponse
	err := c.call(ctx, "conversations.history", func() error {
		var e error
		history, e = c.api.GetConversationHistoryContext(ctx, params)
		return e
	})
	if err != nil {
		return reaction.Page{}, err
	}

	return reaction.Page{
		Messages:   convertMessages(history.Messages),
		NextCursor: history.ResponseMetaData.NextCursor,
	}, nil
}

// Replies returns one page of a thread restricted to the window, both bounds
// included to match Window.Contains.
func (c *Client) Replies(ctx context.Context, channelID, threadTS string, window reaction.Window, cursor string, limit int) (reaction.Page, error) {
	params := &slack.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: threadTS,
		Cursor:    cursor,
		Limit:     limit,
		Oldest:    reaction.FormatTimestamp(window.Start),
		Latest:    reaction.FormatTimestamp(window.End),
		Inclusive: true,
	}

	var (
		messages   []slack.Message
		nextCursor string
	)
	err := c.call(ctx, "conversations.replies", func() error {
		var e error
		messages, _, nextCursor, e = c.api.GetConversationRepliesContext(ctx, params)
		return e
	})
	if err != nil {
		return reaction.Page{}, err
	}

	return reaction.Page{
		Messages:   convertMessages(messages),
		NextCursor: nextCursor,
	}, nil
}

// Join joins a public channel. Any refusal is reported as ErrJoinDenied.
func (c *Client) Join(ctx context.Context, channelID string) error {
	err := c.call(ctx, "conversations.join", func() error {
		_, warning, warnings, e := c.api.JoinConversationContext(ctx, channelID)
		if warning != "" || len(warnings) > 0 {
			c.logger.Debug("Join returned warnings",
				zap.String("channel_id", channelID),
				zap.String("warning", warning),
				zap.Strings("warnings", warnings))
		}
		return e
	})
	if err != nil {
		return joinError(err)
	}
	return nil
}

// Post sends text to a channel and returns the message timestamp. A
// "#name" destination is resolved through the channel index.
func (c *Client) Post(ctx context.Context, channelID, text string) (string, error) {
	if strings.HasPrefix(channelID, "#") {
		ch, ok := c.index.GetByName(channelID)
		if !ok {
			return "", fmt.Errorf("unknown channel %s", channelID)
		}
		channelID = ch.ID
	}

	var ts string
	err := c.call(ctx, "chat.postMessage", func() error {
		var e error
		_, ts, e = c.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
		return e
	})
	if err != nil {
		return "", err
	}
	return ts, nil
}

func convertMessages(msgs []slack.Message) []reaction.Message {
	out := make([]reaction.Message, 0, len(msgs))
	for _, m := range msgs {
		var reactions []reaction.Reaction
		if len(m.Reactions) > 0 {
			reactions = make([]reaction.Reaction, len(m.Reactions))
			for i, r := range m.Reactions {
				reactions[i] = reaction.Reaction{Name: r.Name, Count: r.Count}
			}
		}
		out = append(out, reaction.Message{
			Timestamp:       m.Timestamp,
			User:            m.User,
			SubType:         m.SubType,
			ThreadTimestamp: m.ThreadTimestamp,
			Reactions:       reactions,
		})
	}
	return out
}
