package queue

import "errors"

// ErrFull is returned by Push on a full queue configured with
// PolicyBlock or PolicyDiscard.
var ErrFull = errors.New("queue: ring buffer is full")
