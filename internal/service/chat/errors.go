package chat

import "errors"

var (
	ErrNotMember     = errors.New("user is not a member of this family")
	ErrEmptyMessage  = errors.New("message content is empty")
	ErrMessageTooBig = errors.New("message content exceeds the limit")
)
