package aggregator

import (
	"context"
	"errors"
	"fmt"

	"github.com/matillion/reaction-tally/internal/reaction"
	"go.uber.org/zap"
)

// accessState tracks a channel through Denied -> Joined -> Retried.
type accessState int

const (
	accessUntried accessState = iota
	accessDenied
	accessJoined
	accessRetried
	accessRefused
)

func (s accessState) String() string {
	switch s {
	case accessDenied:
		return "denied"
	case accessJoined:
		return "joined"
	case accessRetried:
		return "retried"
	case accessRefused:
		return "refused"
	}
	return "untried"
}

// AccessManager joins channels on demand. Each channel gets at most one join
// attempt per run and the original request is retried at most once.
type AccessManager struct {
	msg    Messaging
	logger *zap.Logger
	states map[string]accessState
	joins  int
}

func NewAccessManager(msg Messaging, logger *zap.Logger) *AccessManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessManager{
		msg:    msg,
		logger: logger,
		states: make(map[string]accessState),
	}
}

// Do runs request against ch, joining and retrying once when the request
// fails because the caller is not a member.
func (m *AccessManager) Do(ctx context.Context, ch reaction.Channel, request func() error) error {
	err := request()
	if err == nil || !errors.Is(err, reaction.ErrNotInChannel) {
		return err
	}

	switch m.states[ch.ID] {
	case accessRefused:
		return fmt.Errorf("%w: %s already refused this run", reaction.ErrJoinDenied, ch.ID)
	case accessJoined, accessRetried:
		return err
	}
	m.transition(ch, accessDenied)

	m.joins++
	if joinErr := m.msg.Join(ctx, ch.ID); joinErr != nil {
		m.transition(ch, accessRefused)
		m.logger.Warn("Failed to join channel, skipping",
			zap.String("channel_id", ch.ID),
			zap.String("channel_name", ch.Name),
			zap.Error(joinErr))
		if errors.Is(joinErr, reaction.ErrJoinDenied) {
			return joinErr
		}
		return fmt.Errorf("%w: %w", reaction.ErrJoinDenied, joinErr)
	}
	m.transition(ch, accessJoined)
	m.logger.Info("Joined channel", zap.String("channel_id", ch.ID), zap.String("channel_name", ch.Name))

	err = request()
	m.transition(ch, accessRetried)
	return err
}

func (m *AccessManager) transition(ch reaction.Channel, to accessState) {
	from := m.states[ch.ID]
	m.states[ch.ID] = to
	m.logger.Debug("Channel access state changed",
		zap.String("channel_id", ch.ID),
		zap.Stringer("from", from),
		zap.Stringer("to", to))
}

// Joins returns the number of join attempts made.
func (m *AccessManager) Joins() int {
	return m.joins
}
