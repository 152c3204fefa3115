package lockfile

import "errors"

// ErrHeld is returned when a lock is already held, exclusively, by
// another live process.
var ErrHeld = errors.New("lockfile: already held")

// ErrNotExist is returned by TryExclusive when the target file does not
// exist at all, as distinct from existing but being held.
var ErrNotExist = errors.New("lockfile: does not exist")
