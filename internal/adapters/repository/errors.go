package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrDuplicateSession = errors.New("session id already used")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionLocked    = errors.New("session already locked")
	ErrRatingNotFound   = errors.New("rating record not found")
)
