package assign

import "errors"

// ErrInsufficientPool is returned when fewer than two models are available.
var ErrInsufficientPool = errors.New("insufficient model pool")
