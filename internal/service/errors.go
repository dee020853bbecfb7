package service

import "errors"

// Service-level failure taxonomy. Handlers translate these into HTTP status
// codes or websocket acks; anything else is an internal error.
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidInput         = errors.New("invalid input")
)
