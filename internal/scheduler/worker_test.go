package scheduler

import (
	"testing"
	"time"
)

func TestImageWorkerRunningFlag(t *testing.T) {
	// Long poll interval so the loop never touches the database during the test
	w := NewImageWorker(nil, t.TempDir(), time.Hour, 1)

	if w.IsRunning() {
		t.Fatal("worker should not report running before Start")
	}

	w.Start()
	if !w.IsRunning() {
		t.Fatal("worker should report running after Start")
	}

	// Concurrent readers while Stop flips the flag
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			w.IsRunning()
		}
		close(done)
	}()

	w.Stop()
	<-done

	if w.IsRunning() {
		t.Error("worker should not report running after Stop")
	}

	// Stop is idempotent: a second call must not close the channel again
	w.Stop()
}
