package domain

import "errors"

var (
	// ErrNotFound marks a lookup miss (review, approval, place).
	ErrNotFound = errors.New("not found")

	// ErrChannelUnavailable marks one upstream channel as unreachable or
	// unparseable. Non-fatal for aggregate reads unless the caller forced
	// that channel.
	ErrChannelUnavailable = errors.New("channel unavailable")

	// ErrInvalidFilter rejects a malformed query parameter.
	ErrInvalidFilter = errors.New("invalid filter")
)
