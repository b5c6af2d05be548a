// Package waker defines screen-wake actions. A waker is invoked on joystick
// activity and latches into a permanent failed state once it proves useless,
// after which the monitor excludes it from broadcasts.
package waker

import (
	"sync"

	"github.com/joywake/joywake/internal/logger"
)

// maxSoftFailures is how many consecutive soft failures a waker tolerates
// before latching failed
const maxSoftFailures = 3

// Waker is a screen-wake action
type Waker interface {
	// Name returns a human-readable identifier for logging
	Name() string

	// Wake triggers the action. It must not block; completion is observed
	// asynchronously.
	Wake()

	// Failed reports whether the action has permanently failed. Once true
	// it never becomes false again.
	Failed() bool
}

// failureLatch tracks consecutive soft failures and the permanent failed
// state shared by all waker kinds
type failureLatch struct {
	mu        sync.Mutex
	softFails int
	failed    bool
}

func (l *failureLatch) Failed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failed
}

// fail latches the permanent failed state
func (l *failureLatch) fail(name, reason string) {
	l.mu.Lock()
	l.failed = true
	l.mu.Unlock()
	logger.Error("wake action disabled", "waker", name, "reason", reason)
}

// softFail records one soft failure, latching after maxSoftFailures
// consecutive ones
func (l *failureLatch) softFail(name, reason string) {
	l.mu.Lock()
	l.softFails++
	count := l.softFails
	latch := count >= maxSoftFailures
	if latch {
		l.failed = true
	}
	l.mu.Unlock()

	if latch {
		logger.Error("wake action disabled after repeated failures", "waker", name, "reason", reason, "failures", count)
		return
	}
	// A failure on early attempts is common: the target screensaver
	// daemon may simply not be running yet.
	logger.Warn("wake action failed", "waker", name, "reason", reason, "failures", count)
}

// succeed resets the consecutive soft-failure counter
func (l *failureLatch) succeed() {
	l.mu.Lock()
	l.softFails = 0
	l.mu.Unlock()
}
