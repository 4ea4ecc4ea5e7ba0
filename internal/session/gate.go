package session

import "errors"

// Gate rejections. These are caught before any network call and surfaced
// as warnings; the operator fixes the input and retries.
var (
	ErrInvalidBadge      = errors.New("enter a valid badge number")
	ErrCooldownActive    = errors.New("please wait a moment before trying again")
	ErrNoActionAvailable = errors.New("no action available")
	ErrCodeRequired      = errors.New("verification code required")
	ErrCodeRejected      = errors.New("verification code rejected")
	ErrTaskTooShort      = errors.New("task description too short")
)
