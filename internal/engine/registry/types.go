// Package registry implements the service create/open/open_or_create
// handshake (spec.md §4.1): the creation-lock protocol, static config
// persistence, compatibility checking on open, and the dynamic segment's
// node-slot bookkeeping.
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Pattern identifies the messaging pattern a service was created for.
type Pattern string

const (
	PatternPublishSubscribe Pattern = "publish_subscribe"
	PatternEvent            Pattern = "event"
)

// TypeVariant mirrors spec.md's payload-size classification.
type TypeVariant int

const (
	TypeVariantFixedSize TypeVariant = iota
	TypeVariantDynamic
)

// TypeDetail describes a payload or user-header type.
type TypeDetail struct {
	Variant   TypeVariant
	Name      string
	Size      uint64
	Alignment uint64
}

// Attribute is a single service metadata key-value pair.
type Attribute struct {
	Key   string
	Value string
}

// PubSubConfig is the publish-subscribe-specific portion of a static config.
type PubSubConfig struct {
	MaxPublishers                uint64
	MaxSubscribers                uint64
	MaxNodes                      uint64
	HistorySize                   uint64
	SubscriberMaxBufferSize       uint64
	SubscriberMaxBorrowedSamples  uint64
	EnableSafeOverflow            bool
	UnableToDeliverStrategy       string // "block" | "discard_sample"
}

// EventConfig is the event-specific portion of a static config.
type EventConfig struct {
	MaxNotifiers         uint64
	MaxListeners         uint64
	MaxNodes             uint64
	EventIdMaxValue      uint64
	Deadline             time.Duration
	NotifierCreatedEvent *uint64
	NotifierDroppedEvent *uint64
	NotifierDeadEvent    *uint64
}

// StaticConfig is the full persisted, immutable-after-creation record for
// one service.
type StaticConfig struct {
	Name               string
	Pattern            Pattern
	Payload            TypeDetail
	UserHeader         *TypeDetail
	PubSub             *PubSubConfig
	Event              *EventConfig
	Attributes         []Attribute
}

// Hash returns the content-addressed service id: a deterministic digest
// over the service name, the messaging pattern and the type descriptors,
// used as the file-name
// stem for every persisted artifact belonging to this service.
func Hash(name string, pattern Pattern, payload TypeDetail, userHeader *TypeDetail) string {
	h := sha256.New()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(pattern))
	h.Write([]byte{0})
	writeTypeDetail(h, payload)
	if userHeader != nil {
		writeTypeDetail(h, *userHeader)
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

func writeTypeDetail(h interface{ Write([]byte) (int, error) }, t TypeDetail) {
	h.Write([]byte(t.Name))
	var buf [24]byte
	putUint64(buf[0:8], t.Size)
	putUint64(buf[8:16], t.Alignment)
	putUint64(buf[16:24], uint64(t.Variant))
	h.Write(buf[:])
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// OpenRequirements is the compatibility contract an opener must be
// satisfied by, checked against the persisted StaticConfig (spec.md §4.1
// step 2).
type OpenRequirements struct {
	Pattern                      Pattern
	Payload                      TypeDetail
	UserHeader                   *TypeDetail
	MaxPublishers                uint64
	MaxSubscribers               uint64
	MaxNodes                     uint64
	HistorySize                  uint64
	SubscriberMaxBufferSize      uint64
	SubscriberMaxBorrowedSamples uint64
	EnableSafeOverflow           *bool
	MaxNotifiers                 uint64
	MaxListeners                 uint64
	EventIdMaxValue              uint64
	Verifier                     AttributeVerifier
}

// AttributeVerifier expresses the requirements an opener places on a
// service's persisted attribute set (spec.md §3 "attribute verifier").
type AttributeVerifier struct {
	RequiredKeys  []string
	RequiredPairs []Attribute
}

// Satisfies reports whether attrs (the persisted set) satisfies v.
func (v AttributeVerifier) Satisfies(attrs []Attribute) bool {
	has := func(key string) ([]string, bool) {
		var vals []string
		found := false
		for _, a := range attrs {
			if a.Key == key {
				vals = append(vals, a.Value)
				found = true
			}
		}
		return vals, found
	}
	for _, k := range v.RequiredKeys {
		if _, ok := has(k); !ok {
			return false
		}
	}
	for _, pair := range v.RequiredPairs {
		vals, ok := has(pair.Key)
		if !ok {
			return false
		}
		match := false
		for _, val := range vals {
			if val == pair.Value {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}

// ServiceDetails summarizes one discovered service for ServiceDiscovery/List.
type ServiceDetails struct {
	Name   string
	Hash   string
	Config StaticConfig
}
