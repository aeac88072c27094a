package chat

import "errors"

// Error codes attached to command outcomes in logs.
const (
	ErrCodeEmptyName         = "empty_name"
	ErrCodeNameTaken         = "name_taken"
	ErrCodeNotRegistered     = "not_registered"
	ErrCodeCapacityExceeded  = "capacity_exceeded"
	ErrCodeRecipientNotFound = "recipient_not_found"
	ErrCodeListFull          = "list_full"
	ErrCodeNotMuted          = "not_muted"
	ErrCodeBadArgs           = "bad_args"
	ErrCodeForbidden         = "forbidden"
	ErrCodeBadRequest        = "bad_request"
	ErrCodeUnknownCommand    = "unknown_command"
)

var (
	ErrNameTaken         = errors.New("name already in use")
	ErrNotRegistered     = errors.New("not registered")
	ErrCapacityExceeded  = errors.New("client table full")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrListFull          = errors.New("mute list full")
	ErrNotMuted          = errors.New("not muted")
)
