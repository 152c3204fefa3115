// Package wire serializes the persisted static service config file
// (services/<hash>.service) with a small versioned header so that a
// future incompatible layout change can be detected instead of silently
// misread, matching spec.md's ServiceDetailsErrorVersionMismatch case.
package wire

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// Version is the current on-disk static-config layout version. Bump this
// whenever StaticConfig's shape changes in a way older readers cannot
// tolerate.
const Version = 1

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// envelope is the on-disk shape: a version tag followed by the caller's
// payload, kept generic so registry can reuse it for both pub-sub and
// event static configs.
type envelope struct {
	Version int             `json:"version"`
	Kind    string          `json:"kind"`
	Payload jsoniter.RawMessage `json:"payload"`
}

// Encode wraps payload in a versioned envelope and serializes it.
func Encode(kind string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal %s payload: %w", kind, err)
	}
	env := envelope{Version: Version, Kind: kind, Payload: raw}
	out, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal %s envelope: %w", kind, err)
	}
	return out, nil
}

// Decode unwraps a versioned envelope, verifying both the version and the
// expected kind tag, and unmarshals the payload into out.
func Decode(data []byte, wantKind string, out any) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("wire: unmarshal envelope: %w", err)
	}
	if env.Version != Version {
		return &VersionMismatchError{Got: env.Version, Want: Version}
	}
	if wantKind != "" && env.Kind != wantKind {
		return fmt.Errorf("wire: kind mismatch: got %q, want %q", env.Kind, wantKind)
	}
	if err := json.Unmarshal(env.Payload, out); err != nil {
		return fmt.Errorf("wire: unmarshal %s payload: %w", wantKind, err)
	}
	return nil
}

// VersionMismatchError is returned when a static config file was written
// by an incompatible layout version.
type VersionMismatchError struct {
	Got, Want int
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("wire: version mismatch: file is v%d, this build reads v%d", e.Got, e.Want)
}
