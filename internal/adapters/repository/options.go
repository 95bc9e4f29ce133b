package repository

import "time"

type sqlConfig struct {
	busyTimeout time.Duration
}

// SQLOption applies a configuration option to the SQLStore.
type SQLOption func(*sqlConfig)

// WithBusyTimeout sets how long SQLite waits on a locked database before
// returning SQLITE_BUSY.
func WithBusyTimeout(d time.Duration) SQLOption {
	return func(c *sqlConfig) {
		if d > 0 {
			c.busyTimeout = d
		}
	}
}
