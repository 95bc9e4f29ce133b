package command

import "errors"

// Sentinel kinds for parse errors.
var (
	ErrUnknownDirective = errors.New("unknown directive")
	ErrMissingSessionID = errors.New("missing session id")
)
