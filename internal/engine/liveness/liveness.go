// Package liveness implements the crash-safe cleanup monitor (spec.md
// §4.6): Scan walks a service's dynamic participant table, probes each
// row's owning node for death via lockfile.TryExclusive, and reclaims dead
// rows' resources through the Handler a port factory supplies. Scan runs
// only when called; its one caller is shmbus.RemoveStaleResources, and
// opening a service or sending a sample does not scan.
package liveness

import (
	"github.com/sirupsen/logrus"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shmbus/shmbus/internal/engine/dynconfig"
	"github.com/shmbus/shmbus/internal/engine/layout"
	"github.com/shmbus/shmbus/internal/engine/lockfile"
)

var log = logrus.WithField("component", "liveness")

var reclaimedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shmbus_liveness_reclaimed_total",
		Help: "Participant rows reclaimed by the liveness monitor, by kind.",
	},
	[]string{"kind"},
)

func init() {
	prometheus.MustRegister(reclaimedTotal)
}

// Handler performs kind-specific resource cleanup for a row the monitor
// has confirmed is dead. Implementations live alongside the port
// factories that own the pools, queues, and mailboxes a row might
// reference (spec.md §4.6 steps 2-4).
type Handler interface {
	OnDeadPublisher(row dynconfig.Row)
	OnDeadSubscriber(row dynconfig.Row)
	OnDeadNotifier(row dynconfig.Row)
	OnDeadListener(row dynconfig.Row)
	OnDeadNode(row dynconfig.Row)
}

func kindLabel(k dynconfig.Kind) string {
	switch k {
	case dynconfig.KindNode:
		return "node"
	case dynconfig.KindPublisher:
		return "publisher"
	case dynconfig.KindSubscriber:
		return "subscriber"
	case dynconfig.KindNotifier:
		return "notifier"
	case dynconfig.KindListener:
		return "listener"
	default:
		return "unknown"
	}
}

// Scan walks every claimed row in table, reclaiming any whose owning
// node's liveness lock can be acquired exclusively (meaning the node's
// process released it, almost always by dying). Reclaimed rows are
// released back to the table and reported to handler for kind-specific
// teardown (spec.md §4.6 steps 2-4). Scan does not check the table for
// emptiness: step 5 is left to the caller (see Empty), which also knows
// whether any node still references the service.
func Scan(root layout.Root, table *dynconfig.Table, handler Handler) (reclaimed int, err error) {
	for _, row := range table.Rows() {
		dead, err := isDead(root, row)
		if err != nil {
			log.WithError(err).WithField("node_id", row.NodeID.String()).Warn("liveness probe failed")
			continue
		}
		if !dead {
			continue
		}

		switch row.Kind {
		case dynconfig.KindPublisher:
			handler.OnDeadPublisher(row)
		case dynconfig.KindSubscriber:
			handler.OnDeadSubscriber(row)
		case dynconfig.KindNotifier:
			handler.OnDeadNotifier(row)
		case dynconfig.KindListener:
			handler.OnDeadListener(row)
		case dynconfig.KindNode:
			handler.OnDeadNode(row)
		}

		table.Release(row.Index)
		reclaimedTotal.WithLabelValues(kindLabel(row.Kind)).Inc()
		reclaimed++
		log.WithField("kind", kindLabel(row.Kind)).WithField("port_id", row.PortID.String()).Info("reclaimed dead participant")
	}
	return reclaimed, nil
}

// isDead probes a row's owning node's liveness lock. A node's port rows
// share its liveness: a port cannot outlive the process that created it.
func isDead(root layout.Root, row dynconfig.Row) (bool, error) {
	path := root.ParticipantLock(row.NodeID.FileToken())
	lock, err := lockfile.TryExclusive(path)
	switch err {
	case nil:
		lock.Remove()
		return true, nil
	case lockfile.ErrNotExist:
		return true, nil
	case lockfile.ErrHeld:
		return false, nil
	default:
		return false, err
	}
}

// Empty reports whether a table has no claimed rows left, the condition
// under which spec.md §4.6 step 5 deletes the service's static config
// and dynamic segment entirely.
func Empty(table *dynconfig.Table) bool {
	return len(table.Rows()) == 0
}
