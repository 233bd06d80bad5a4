// Package aggregator runs the reaction tally pipeline: resolve the directory,
// scan every channel (history plus thread replies), group and publish.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matillion/reaction-tally/internal/reaction"
	"go.uber.org/zap"
)

// State is the terminal state of a run.
type State string

const (
	StateCompleted State = "completed"
	StateAborted   State = "aborted"
	StateCancelled State = "cancelled"
)

// ChannelStatus is the outcome of one channel.
type ChannelStatus string

const (
	ChannelOK        ChannelStatus = "ok"
	ChannelSkipped   ChannelStatus = "skipped"
	ChannelFailed    ChannelStatus = "failed"
	ChannelDiscarded ChannelStatus = "discarded"
)

// Options configures one run.
type Options struct {
	TargetNames       []string
	Reaction          string
	AffiliationTokens []string
	ChannelTypes      reaction.ChannelTypes
	Window            reaction.Window
	HistoryPageSize   int
	RepliesPageSize   int
	PageDelay         time.Duration
	Destination       string
	DryRun            bool
	Location          *time.Location
	Now               func() time.Time
}

// ChannelOutcome records what happened to one channel.
type ChannelOutcome struct {
	ChannelID string        `json:"channel_id"`
	Name      string        `json:"name,omitempty"`
	Status    ChannelStatus `json:"status"`
	Messages  int           `json:"messages"`
	Replies   int           `json:"replies"`
	Counted   int           `json:"counted"`
	Error     string        `json:"error,omitempty"`
}

// Result is everything a run produced.
type Result struct {
	State       State
	Roster      *Roster
	Tally       *reaction.Tally
	Groups      []reaction.Group
	Report      string
	Channels    []ChannelOutcome
	PublishedTS string
	PublishErr  error
}

// Aggregator wires the pipeline components for a run.
type Aggregator struct {
	dir    Directory
	msg    Messaging
	opts   Options
	logger *zap.Logger
	sleep  func(time.Duration)
}

func New(dir Directory, msg Messaging, opts Options, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Aggregator{
		dir:    dir,
		msg:    msg,
		opts:   opts,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// Run collects the tally and publishes the report unless DryRun is set. The
// error is non-nil only when the run aborts; publish failures are recorded on
// the result.
func (a *Aggregator) Run(ctx context.Context) (*Result, error) {
	res, err := a.Collect(ctx)
	if err != nil {
		return res, err
	}
	if a.opts.DryRun {
		a.logger.Info("Dry run, report not published")
		return res, nil
	}
	a.Publish(ctx, res)
	return res, nil
}

// Collect runs everything up to and including rendering.
func (a *Aggregator) Collect(ctx context.Context) (*Result, error) {
	roster, err := ResolveDirectory(ctx, a.dir, a.opts.TargetNames, a.opts.ChannelTypes, a.logger)
	if err != nil {
		a.logger.Error("Directory resolution failed, aborting run", zap.Error(err))
		return &Result{State: StateAborted}, err
	}

	res := &Result{
		State:  StateCompleted,
		Roster: roster,
		Tally:  reaction.NewTally(roster.Targets),
	}

	access := NewAccessManager(a.msg, a.logger)
	history := NewHistoryFetcher(a.msg, a.opts.HistoryPageSize, a.opts.PageDelay, a.logger)
	history.sleep = a.sleep
	threads := NewThreadExpander(a.msg, a.opts.Window, a.opts.RepliesPageSize, a.logger)

	for i, ch := range roster.Channels {
		if ctx.Err() != nil {
			a.logger.Warn("Run deadline reached, stopping", zap.Int("channels_remaining", len(roster.Channels)-i))
			res.State = StateCancelled
			break
		}

		partial, outcome := a.processChannel(ctx, access, history, threads, ch, roster.Targets)
		res.Channels = append(res.Channels, outcome)
		if outcome.Status == ChannelDiscarded {
			a.logger.Warn("Run deadline reached, discarding channel",
				zap.String("channel_id", ch.ID),
				zap.Int("channels_remaining", len(roster.Channels)-i-1))
			res.State = StateCancelled
			break
		}
		res.Tally.Merge(partial)
	}

	res.Groups = reaction.SortGroups(reaction.GroupTally(res.Tally, roster.Targets, a.opts.AffiliationTokens))
	res.Report = reaction.Render(res.Groups, a.opts.Now().In(a.opts.Location))

	a.logger.Info("Tally collected",
		zap.String("state", string(res.State)),
		zap.Int("channels", len(res.Channels)),
		zap.Int("total", res.Tally.Total()),
		zap.Int("groups", len(res.Groups)))

	return res, nil
}

// processChannel scans one channel. A nil tally means the channel
// contributes nothing.
func (a *Aggregator) processChannel(ctx context.Context, access *AccessManager, history *HistoryFetcher, threads *ThreadExpander, ch reaction.Channel, targets *reaction.TargetUsers) (*reaction.Tally, ChannelOutcome) {
	outcome := ChannelOutcome{ChannelID: ch.ID, Name: ch.Name}

	var messages []reaction.Message
	err := access.Do(ctx, ch, func() error {
		var e error
		messages, e = history.Fetch(ctx, ch.ID)
		return e
	})
	if err != nil {
		return nil, a.channelError(ctx, ch, outcome, err)
	}
	outcome.Messages = len(messages)

	replies, err := threads.Expand(ctx, ch, messages)
	if err != nil {
		return nil, a.channelError(ctx, ch, outcome, err)
	}
	outcome.Replies = len(replies)

	partial := reaction.Count(messages, targets, a.opts.Reaction)
	partial.Merge(reaction.Count(replies, targets, a.opts.Reaction))
	outcome.Counted = partial.Total()
	outcome.Status = ChannelOK

	a.logger.Info("Channel processed",
		zap.String("channel_id", ch.ID),
		zap.Int("messages", outcome.Messages),
		zap.Int("replies", outcome.Replies),
		zap.Int("counted", outcome.Counted))

	return partial, outcome
}

func (a *Aggregator) channelError(ctx context.Context, ch reaction.Channel, outcome ChannelOutcome, err error) ChannelOutcome {
	outcome.Error = err.Error()
	if ctx.Err() != nil {
		outcome.Status = ChannelDiscarded
		return outcome
	}

	if outcome.Name == "" {
		outcome.Name = a.dir.ChannelName(ctx, ch.ID)
	}
	if errors.Is(err, reaction.ErrJoinDenied) {
		outcome.Status = ChannelSkipped
	} else {
		outcome.Status = ChannelFailed
		a.logger.Warn("Failed to fetch channel, skipping",
			zap.String("channel_id", ch.ID),
			zap.String("channel_name", outcome.Name),
			zap.Error(err))
	}
	return outcome
}

// Publish posts the report to the destination channel. Failures are logged
// and recorded on res; the report is not retried.
func (a *Aggregator) Publish(ctx context.Context, res *Result) {
	ctx = context.WithoutCancel(ctx)
	ts, err := a.msg.Post(ctx, a.opts.Destination, res.Report)
	if err != nil {
		res.PublishErr = fmt.Errorf("posting report to %s: %w", a.opts.Destination, err)
		a.logger.Error("Failed to publish report",
			zap.String("channel_id", a.opts.Destination),
			zap.Error(err))
		return
	}
	res.PublishedTS = ts
	a.logger.Info("Report published", zap.String("channel_id", a.opts.Destination), zap.String("ts", ts))
}
