package slack

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matillion/reaction-tally/internal/reaction"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// authErrorCodes are Slack API error codes that indicate authentication problems
var authErrorCodes = map[string]string{
	"invalid_auth":     "Authentication token is invalid. Please refresh your SLACK_BOT_TOKEN.",
	"token_expired":    "Authentication token has expired. Please refresh your SLACK_BOT_TOKEN.",
	"token_revoked":    "Authentication token has been revoked. Please generate new credentials.",
	"account_inactive": "The Slack account is inactive or disabled.",
	"not_authed":       "No authentication token provided. Please set SLACK_BOT_TOKEN.",
}

// joinDeniedCodes are conversations.join failures that will not succeed on retry.
var joinDeniedCodes = []string{
	"method_not_supported_for_channel_type",
	"is_archived",
	"channel_not_found",
	"missing_scope",
	"restricted_action",
}

const notInChannelCode = "not_in_channel"

// AuthError represents a Slack authentication error with guidance for resolution
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("SLACK AUTHENTICATION ERROR: %s (code: %s)", e.Message, e.Code)
}

// matchAuthError checks if an error contains an auth error code.
// Returns nil if no auth error is found.
func matchAuthError(err error) *AuthError {
	if err == nil {
		return nil
	}
	for code, message := range authErrorCodes {
		if hasCode(err, code) {
			return &AuthError{Code: code, Message: message}
		}
	}
	return nil
}

// hasCode reports whether err carries the Slack error code.
func hasCode(err error, code string) bool {
	var resp slack.SlackErrorResponse
	if errors.As(err, &resp) && resp.Err == code {
		return true
	}
	return strings.Contains(err.Error(), code)
}

// classifyError wraps err with the operation name and, where the Slack code
// has a domain meaning, with the matching reaction sentinel.
func classifyError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if hasCode(err, notInChannelCode) {
		return fmt.Errorf("%s: %w: %w", operation, reaction.ErrNotInChannel, err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}

// joinError marks a failed join as denied.
func joinError(err error) error {
	for _, code := range joinDeniedCodes {
		if hasCode(err, code) {
			return fmt.Errorf("%w (%s): %w", reaction.ErrJoinDenied, code, err)
		}
	}
	return fmt.Errorf("%w: %w", reaction.ErrJoinDenied, err)
}

// WrapError checks for auth errors and returns an enhanced error with logging.
// This should be called at the API boundary (e.g., MCP layer, CLI) to provide
// clear error messages to callers.
func WrapError(logger *zap.Logger, operation string, err error) error {
	if err == nil {
		return nil
	}

	if authErr := matchAuthError(err); authErr != nil {
		logger.Error("Slack authentication failed",
			zap.String("operation", operation),
			zap.String("guidance", authErr.Message),
			zap.Error(err))
		return authErr
	}

	return fmt.Errorf("%s: %w", operation, err)
}
