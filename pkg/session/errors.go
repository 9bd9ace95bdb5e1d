package session

import "errors"

// ErrTooManySessions is returned by Create when the session cap is reached.
var ErrTooManySessions = errors.New("too many sessions")
