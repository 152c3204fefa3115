package registry

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shmbus/shmbus/internal/engine/dynconfig"
	"github.com/shmbus/shmbus/internal/engine/layout"
	"github.com/shmbus/shmbus/internal/engine/lockfile"
	"github.com/shmbus/shmbus/internal/engine/shm"
	"github.com/shmbus/shmbus/internal/engine/wire"
)

// creationGracePeriod bounds how long an orphaned creation lock is
// tolerated before a later opener reclaims it as HangsInCreation
// (spec.md §4.1 step 5).
const creationGracePeriod = 5 * time.Second

var log = logrus.WithField("component", "registry")

// Handle is the live result of a successful create/open: the static
// config plus the mapped dynamic segment, ready for a port factory to
// build on top of.
type Handle struct {
	Root     layout.Root
	Hash     string
	Config   StaticConfig
	Segment  *shm.Segment
	Table    *dynconfig.Table
}

// Close unmaps the dynamic segment. It does not delete any files; that is
// the liveness monitor's job once the last reference is gone.
func (h *Handle) Close() error {
	if h.Segment == nil {
		return nil
	}
	return h.Segment.Close()
}

func tableCapacity(cfg StaticConfig) int {
	switch cfg.Pattern {
	case PatternPublishSubscribe:
		return int(cfg.PubSub.MaxNodes + cfg.PubSub.MaxPublishers + cfg.PubSub.MaxSubscribers)
	case PatternEvent:
		return int(cfg.Event.MaxNodes + cfg.Event.MaxNotifiers + cfg.Event.MaxListeners)
	default:
		return 0
	}
}

// Create implements spec.md §4.1's create protocol.
func Create(root layout.Root, cfg StaticConfig) (*Handle, error) {
	hash := Hash(cfg.Name, cfg.Pattern, cfg.Payload, cfg.UserHeader)
	lockPath := root.ServiceLock(hash)

	lock, err := lockfile.CreateExclusive(lockPath)
	if err != nil {
		if err == lockfile.ErrHeld {
			if reclaimed := tryReclaimStaleCreationLock(lockPath); reclaimed {
				lock, err = lockfile.CreateExclusive(lockPath)
			}
		}
		if err != nil {
			return nil, CreateErrorIsBeingCreatedByAnotherInstance
		}
	}
	defer lock.Release()

	cfgPath := root.ServiceConfig(hash)
	if _, statErr := os.Stat(cfgPath); statErr == nil {
		return nil, CreateErrorAlreadyExists
	}

	capacity := tableCapacity(cfg)
	dynPath := root.Dynamic(hash)
	segment, err := shm.Create(dynPath, dynconfig.Size(capacity))
	if err != nil {
		log.WithError(err).Warn("failed to create dynamic segment")
		return nil, CreateErrorInternalFailure
	}

	table, err := dynconfig.Create(segment, capacity)
	if err != nil {
		segment.Remove()
		return nil, CreateErrorInternalFailure
	}

	data, err := wire.Encode(string(cfg.Pattern), cfg)
	if err != nil {
		segment.Remove()
		return nil, CreateErrorInternalFailure
	}
	tmpPath := cfgPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		segment.Remove()
		return nil, CreateErrorInternalFailure
	}
	if err := os.Rename(tmpPath, cfgPath); err != nil {
		os.Remove(tmpPath)
		segment.Remove()
		return nil, CreateErrorInternalFailure
	}

	log.WithField("service", cfg.Name).WithField("hash", hash).Info("service created")
	return &Handle{Root: root, Hash: hash, Config: cfg, Segment: segment, Table: table}, nil
}

// tryReclaimStaleCreationLock checks whether a held creation lock is
// older than creationGracePeriod and, if so, removes the lock file so the
// caller's next CreateExclusive attempt can succeed. This is the
// HangsInCreation path: an orphaned lock from a process that died
// mid-create is indistinguishable from a slow legitimate creator until
// the grace period elapses.
func tryReclaimStaleCreationLock(lockPath string) bool {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) < creationGracePeriod {
		return false
	}
	probe, err := lockfile.TryExclusive(lockPath)
	if err != nil {
		return false
	}
	defer probe.Remove()
	log.WithField("lock", lockPath).Warn("reclaimed stale creation lock (HangsInCreation)")
	return true
}

// Open implements spec.md §4.1's open protocol.
func Open(root layout.Root, name string, req OpenRequirements) (*Handle, error) {
	hash := Hash(name, req.Pattern, req.Payload, req.UserHeader)
	cfgPath := root.ServiceConfig(hash)

	data, err := os.ReadFile(cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			// The hash covers pattern and types, so a service of the same
			// name created with a different pattern or types lives under
			// another hash; report that as an incompatibility.
			if services, listErr := List(root); listErr == nil {
				for _, s := range services {
					if s.Name != name {
						continue
					}
					if s.Config.Pattern != req.Pattern {
						return nil, OpenErrorIncompatibleMessagingPattern
					}
					return nil, OpenErrorIncompatibleTypes
				}
			}
			return nil, OpenErrorDoesNotExist
		}
		return nil, OpenErrorInternalFailure
	}

	var cfg StaticConfig
	if err := wire.Decode(data, string(req.Pattern), &cfg); err != nil {
		if _, ok := err.(*wire.VersionMismatchError); ok {
			return nil, OpenErrorVersionMismatch
		}
		// Kind mismatch usually means the caller asked for the wrong
		// pattern against an existing service of a different pattern.
		var anyCfg StaticConfig
		if err2 := wire.Decode(data, "", &anyCfg); err2 == nil && anyCfg.Pattern != req.Pattern {
			return nil, OpenErrorIncompatibleMessagingPattern
		}
		return nil, OpenErrorServiceInCorruptedState
	}

	if err := checkCompatibility(cfg, req); err != nil {
		return nil, err
	}

	capacity := tableCapacity(cfg)
	segment, err := shm.Open(root.Dynamic(hash), dynconfig.Size(capacity))
	if err != nil {
		return nil, OpenErrorInternalFailure
	}
	table, err := dynconfig.Open(segment, capacity)
	if err != nil {
		segment.Close()
		return nil, OpenErrorInternalFailure
	}

	if req.MaxNodes > 0 {
		used := 0
		for _, row := range table.Rows() {
			if row.Kind == dynconfig.KindNode {
				used++
			}
		}
		if uint64(used) >= cfg.effectiveMaxNodes() {
			segment.Close()
			return nil, OpenErrorExceedsMaxNumberOfNodes
		}
	}

	return &Handle{Root: root, Hash: hash, Config: cfg, Segment: segment, Table: table}, nil
}

func (cfg StaticConfig) effectiveMaxNodes() uint64 {
	switch cfg.Pattern {
	case PatternPublishSubscribe:
		return cfg.PubSub.MaxNodes
	case PatternEvent:
		return cfg.Event.MaxNodes
	default:
		return 0
	}
}

func checkCompatibility(cfg StaticConfig, req OpenRequirements) error {
	if cfg.Pattern != req.Pattern {
		return OpenErrorIncompatibleMessagingPattern
	}
	if !sameType(cfg.Payload, req.Payload) {
		return OpenErrorIncompatibleTypes
	}
	if (cfg.UserHeader == nil) != (req.UserHeader == nil) {
		return OpenErrorIncompatibleTypes
	}
	if cfg.UserHeader != nil && req.UserHeader != nil && !sameType(*cfg.UserHeader, *req.UserHeader) {
		return OpenErrorIncompatibleTypes
	}

	switch cfg.Pattern {
	case PatternPublishSubscribe:
		p := cfg.PubSub
		if req.MaxPublishers > p.MaxPublishers {
			return OpenErrorDoesNotSupportRequestedAmountOfPublishers
		}
		if req.MaxSubscribers > p.MaxSubscribers {
			return OpenErrorDoesNotSupportRequestedAmountOfSubscribers
		}
		if req.MaxNodes > p.MaxNodes {
			return OpenErrorDoesNotSupportRequestedAmountOfNodes
		}
		if req.HistorySize > p.HistorySize {
			return OpenErrorDoesNotSupportRequestedHistorySize
		}
		if req.SubscriberMaxBufferSize > p.SubscriberMaxBufferSize {
			return OpenErrorDoesNotSupportRequestedBufferSize
		}
		if req.SubscriberMaxBorrowedSamples > p.SubscriberMaxBorrowedSamples {
			return OpenErrorDoesNotSupportRequestedAmountOfBorrowedSamples
		}
		if req.EnableSafeOverflow != nil && *req.EnableSafeOverflow != p.EnableSafeOverflow {
			return OpenErrorIncompatibleOverflowBehavior
		}
	case PatternEvent:
		e := cfg.Event
		if req.MaxNotifiers > e.MaxNotifiers {
			return OpenErrorDoesNotSupportRequestedAmountOfNotifiers
		}
		if req.MaxListeners > e.MaxListeners {
			return OpenErrorDoesNotSupportRequestedAmountOfListeners
		}
		if req.MaxNodes > e.MaxNodes {
			return OpenErrorDoesNotSupportRequestedAmountOfNodes
		}
	}

	if !req.Verifier.Satisfies(cfg.Attributes) {
		return OpenErrorIncompatibleAttributes
	}
	return nil
}

func sameType(a, b TypeDetail) bool {
	return a.Name == b.Name && a.Size == b.Size && a.Alignment == b.Alignment && a.Variant == b.Variant
}

// DoesExist reports whether a service with the given identity has a
// persisted static config, without opening it.
func DoesExist(root layout.Root, name string, pattern Pattern, payload TypeDetail, userHeader *TypeDetail) bool {
	hash := Hash(name, pattern, payload, userHeader)
	_, err := os.Stat(root.ServiceConfig(hash))
	return err == nil
}

// OpenOrCreate tries Open first; on DoesNotExist it falls through to
// Create. An Open that fails with InternalFailure (for instance a static
// config file whose dynamic segment cannot be mapped) also falls through
// to Create; Create then finds the static config present and reports
// AlreadyExists, so such a service is retried until the attempt budget is
// spent and then reported as an *OpenOrCreateError. The stale static
// config is not removed here. Bounded retries absorb the race where two
// callers attempt open_or_create concurrently.
func OpenOrCreate(root layout.Root, name string, req OpenRequirements, createCfg StaticConfig) (*Handle, error) {
	const maxAttempts = 8
	var lastOpenErr, lastCreateErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		h, err := Open(root, name, req)
		if err == nil {
			return h, nil
		}
		lastOpenErr = err
		if err != OpenErrorDoesNotExist && err != OpenErrorInternalFailure {
			return nil, err
		}

		h, err = Create(root, createCfg)
		if err == nil {
			return h, nil
		}
		lastCreateErr = err
		if err == CreateErrorAlreadyExists || err == CreateErrorIsBeingCreatedByAnotherInstance {
			time.Sleep(time.Duration(attempt+1) * 2 * time.Millisecond)
			continue
		}
		return nil, err
	}
	return nil, &OpenOrCreateError{LastOpenErr: lastOpenErr, LastCreateErr: lastCreateErr}
}
