package dynconfig

import "errors"

// ErrFull is returned by Claim when every row in the table is occupied.
var ErrFull = errors.New("dynconfig: table full")
