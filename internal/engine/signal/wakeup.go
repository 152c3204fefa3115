package signal

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"
)

// Wakeup is the OS signalling primitive a listener suspends on between
// mailbox drains: a Unix domain datagram socket. Every notify posts the
// event id to the listener's Mailbox (in the shared dynamic segment) and
// then fires one empty datagram at the listener's Wakeup socket, which is
// all that's needed to break it out of a blocking read. Bound one per
// listener under event/<hash>-<listener token>.signal, an elaboration of
// spec.md's single event/<hash>.signal path needed because distinct
// listeners must be wakeable independently of one another.
type Wakeup struct {
	path string
	conn *net.UnixConn
}

// Listen creates (or recreates) a datagram socket at path and binds it,
// returning the listener-side endpoint. Any stale socket file left by a
// previous process at the same path is removed first.
func Listen(path string) (*Wakeup, error) {
	os.Remove(path)
	addr := &net.UnixAddr{Name: path, Net: "unixgram"}
	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		return nil, fmt.Errorf("signal: listen %s: %w", path, err)
	}
	return &Wakeup{path: path, conn: conn}, nil
}

// Post fires a datagram at another listener's Wakeup socket, addressed by
// path. Posting to a dead or absent listener is treated as a no-op: the
// liveness monitor is responsible for reclaiming dead listener rows, not
// the notifier.
func Post(path string) error {
	conn, err := net.DialUnix("unixgram", nil, &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return nil
	}
	defer conn.Close()
	_, _ = conn.Write([]byte{1})
	return nil
}

// Wait blocks until a wakeup datagram arrives or d elapses, returning
// ok=false on timeout.
func (w *Wakeup) Wait(d time.Duration) (ok bool, err error) {
	buf := make([]byte, 1)
	if err := w.conn.SetReadDeadline(time.Now().Add(d)); err != nil {
		return false, err
	}
	_, err = w.conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// WaitContext blocks until a wakeup arrives or ctx is done, polling in
// small slices so cancellation is observed promptly without a dedicated
// OS-level cancellable wait.
func (w *Wakeup) WaitContext(ctx context.Context) (bool, error) {
	const slice = 10 * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}
		ok, err := w.Wait(slice)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
}

// Fd returns the underlying socket's file descriptor, for callers (the
// waitset) that multiplex several Wakeups with unix.Poll instead of
// blocking each one on its own goroutine.
func (w *Wakeup) Fd() (uintptr, error) {
	raw, err := w.conn.SyscallConn()
	if err != nil {
		return 0, err
	}
	var fd uintptr
	if ctrlErr := raw.Control(func(f uintptr) { fd = f }); ctrlErr != nil {
		return 0, ctrlErr
	}
	return fd, nil
}

// Close closes the socket and removes its backing file.
func (w *Wakeup) Close() error {
	err := w.conn.Close()
	os.Remove(w.path)
	return err
}

// Path returns the filesystem path backing this socket.
func (w *Wakeup) Path() string { return w.path }
