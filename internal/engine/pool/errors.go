package pool

import "errors"

// ErrOutOfMemory is returned by Loan when every slot in the pool is
// currently loaned or in flight.
var ErrOutOfMemory = errors.New("pool: out of memory")
