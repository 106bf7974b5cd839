package storage

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrPollNotFound      = errors.New("poll not found")
	ErrPollClosed        = errors.New("poll is closed")
	ErrOptionNotFound    = errors.New("option not found")
	ErrAlreadyVoted      = errors.New("user already voted")
)

// DefaultSearchLimit caps user search results when the caller passes no limit.
const DefaultSearchLimit = 20
