package wire

import (
	"errors"
	"testing"
)

type testPayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestEncodeDecodeRoundTrips(t *testing.T) {
	want := testPayload{Name: "my-service", Count: 3}

	data, err := Encode("pubsub", want)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var got testPayload
	if err := Decode(data, "pubsub", &got); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestDecodeRejectsKindMismatch(t *testing.T) {
	data, err := Encode("pubsub", testPayload{Name: "x"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var out testPayload
	if err := Decode(data, "event", &out); err == nil {
		t.Fatalf("expected a kind mismatch error")
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	data, err := Encode("pubsub", testPayload{Name: "x"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	// Corrupt the version field the way an incompatible future/older build would leave it.
	corrupted := []byte(`{"version":999,"kind":"pubsub","payload":{}}`)
	_ = data

	var out testPayload
	err = Decode(corrupted, "pubsub", &out)
	if err == nil {
		t.Fatalf("expected a version mismatch error")
	}
	var versionErr *VersionMismatchError
	if !errors.As(err, &versionErr) {
		t.Fatalf("expected a *VersionMismatchError, got %T: %v", err, err)
	}
	if versionErr.Got != 999 || versionErr.Want != Version {
		t.Fatalf("expected Got=999 Want=%d, got %+v", Version, versionErr)
	}
}
