package reaction

import "errors"

var (
	// ErrNotInChannel means the caller must join the channel before reading it.
	ErrNotInChannel = errors.New("not in channel")
	// ErrJoinDenied means a join attempt was refused (invite only, archived, missing scope).
	ErrJoinDenied = errors.New("join denied")
	// ErrRateLimited means the service kept rate limiting after all retries.
	ErrRateLimited = errors.New("rate limited")
)
