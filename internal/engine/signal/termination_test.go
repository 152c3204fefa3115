package signal

import (
	"os"
	"syscall"
	"testing"
	"time"
)

func TestGlobalTerminationObservesInterrupt(t *testing.T) {
	term := GlobalTermination()

	if termination, interrupt := term.Pending(); termination || interrupt {
		t.Skip("a signal was already observed by an earlier test in this process")
	}

	if err := syscall.Kill(os.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("failed to raise SIGINT: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, interrupt := term.Pending(); interrupt {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("interrupt was not observed within the deadline")
}
