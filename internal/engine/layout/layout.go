// Package layout centralizes the filesystem paths the engine reads and
// writes under a configured root directory, one tree per isolation
// prefix (spec.md §6 "Persisted layout").
package layout

import (
	"os"
	"path/filepath"
)

// Root describes one prefix's directory tree under the configured root path.
type Root struct {
	base string
}

// DefaultRootPath is used when no explicit root path is configured.
func DefaultRootPath() string {
	if v := os.Getenv("SHMBUS_ROOT"); v != "" {
		return v
	}
	return filepath.Join(os.TempDir(), "shmbus")
}

// New returns the Root for the given root path and prefix, creating every
// subdirectory it will need.
func New(rootPath, prefix string) (Root, error) {
	base := filepath.Join(rootPath, prefix)
	for _, sub := range []string{"services", "dynamic", "data", "queue", "node", "event"} {
		if err := os.MkdirAll(filepath.Join(base, sub), 0755); err != nil {
			return Root{}, err
		}
	}
	return Root{base: base}, nil
}

func (r Root) ServiceConfig(hash string) string { return filepath.Join(r.base, "services", hash+".service") }
func (r Root) ServiceLock(hash string) string   { return filepath.Join(r.base, "services", hash+".lock") }
func (r Root) Dynamic(hash string) string       { return filepath.Join(r.base, "dynamic", hash+".data") }
func (r Root) PublisherData(publisherUUID string) string {
	return filepath.Join(r.base, "data", publisherUUID+".data")
}
func (r Root) Queue(publisherUUID, subscriberUUID string) string {
	return filepath.Join(r.base, "queue", publisherUUID+"-"+subscriberUUID+".data")
}
func (r Root) NodeLock(nodeUUID string) string { return filepath.Join(r.base, "node", nodeUUID+".lock") }

// NodeInfo returns the path of a node's small persisted metadata record
// (currently just its display name), written alongside its liveness lock
// so ListNodes can report names without any node having to stay alive.
func (r Root) NodeInfo(nodeUUID string) string { return filepath.Join(r.base, "node", nodeUUID+".info") }

// NodeDir returns the directory holding every node's lock and info file,
// for ListNodes/RemoveStaleResources to scan.
func (r Root) NodeDir() string { return filepath.Join(r.base, "node") }

// ParticipantLock returns the liveness-token lock file for any
// participant keyed by its 128-bit unique id. Ports reuse their owning
// node's liveness (a port cannot outlive its process), so in practice
// this is called with a node id.
func (r Root) ParticipantLock(token string) string { return r.NodeLock(token) }
func (r Root) EventSignal(hash string) string  { return filepath.Join(r.base, "event", hash+".signal") }

// ListenerSignal returns the per-listener wakeup socket path: the
// service's event signal family, disambiguated by listener token so each
// listener can be woken independently (see internal/engine/signal.Wakeup).
func (r Root) ListenerSignal(hash, listenerToken string) string {
	return filepath.Join(r.base, "event", hash+"-"+listenerToken+".signal")
}

// EventMailbox returns the path of a listener's mailbox segment: the
// bounded ring of pending event ids a notifier posts into (see
// internal/engine/signal.Mailbox).
func (r Root) EventMailbox(hash, listenerToken string) string {
	return filepath.Join(r.base, "event", hash+"-"+listenerToken+".mailbox")
}

// ServicesDir returns the directory holding all static config files, for
// listing/discovery.
func (r Root) ServicesDir() string { return filepath.Join(r.base, "services") }

// Base returns the prefix's root directory.
func (r Root) Base() string { return r.base }
