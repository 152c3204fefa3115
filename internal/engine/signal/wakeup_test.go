package signal

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
	"time"
)

func TestWakeupPostWakesWaiter(t *testing.T) {
	path := filepath.Join(t.TempDir(), fmt.Sprintf("wakeup-%d-%d.sock", time.Now().UnixNano(), rand.Int()))
	w, err := Listen(path)
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer w.Close()

	done := make(chan bool, 1)
	go func() {
		ok, err := w.Wait(time.Second)
		if err != nil {
			t.Errorf("wait failed: %v", err)
		}
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	if err := Post(path); err != nil {
		t.Fatalf("post failed: %v", err)
	}

	select {
	case ok := <-done:
		if !ok {
			t.Fatalf("expected wait to report a wakeup, got timeout")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for wakeup goroutine")
	}
}

func TestWakeupWaitTimesOutWithoutPost(t *testing.T) {
	path := filepath.Join(t.TempDir(), fmt.Sprintf("wakeup-%d-%d.sock", time.Now().UnixNano(), rand.Int()))
	w, err := Listen(path)
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer w.Close()

	ok, err := w.Wait(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("wait returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected timeout, got a wakeup")
	}
}

func TestWakeupPostToAbsentListenerIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-listener.sock")
	if err := Post(path); err != nil {
		t.Fatalf("expected post to a missing socket to be a no-op, got %v", err)
	}
}

func TestWakeupFdIsPollable(t *testing.T) {
	path := filepath.Join(t.TempDir(), fmt.Sprintf("wakeup-%d-%d.sock", time.Now().UnixNano(), rand.Int()))
	w, err := Listen(path)
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer w.Close()

	fd, err := w.Fd()
	if err != nil {
		t.Fatalf("failed to get fd: %v", err)
	}
	if fd == 0 {
		t.Fatalf("expected a non-zero file descriptor")
	}
}
