// internal/handlers/timeout.go
package handlers

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TimeoutSupervisor tracks the single armed move deadline per room. Arming
// replaces any prior timer for that room; a generation counter is checked
// under the lock when a timer fires, so a stale fire after Cancel or a re-arm
// has no visible effect. At most one of {cancel, fire} ever wins the entry.
// The check covers only the supervisor's own entry: a callback that wins it
// can still race work serialized on another lock, so callers bind the
// callback to the state it was armed for and re-validate there.
type TimeoutSupervisor struct {
	mu     sync.Mutex
	gen    uint64
	timers map[uuid.UUID]*armedTimer
}

type armedTimer struct {
	gen   uint64
	timer *time.Timer
}

func NewTimeoutSupervisor() *TimeoutSupervisor {
	return &TimeoutSupervisor{
		timers: make(map[uuid.UUID]*armedTimer),
	}
}

// Arm schedules fire to run after d, cancelling any deadline already armed
// for the room.
func (ts *TimeoutSupervisor) Arm(roomID uuid.UUID, d time.Duration, fire func()) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if prior, ok := ts.timers[roomID]; ok {
		prior.timer.Stop()
	}

	ts.gen++
	gen := ts.gen
	armed := &armedTimer{gen: gen}
	armed.timer = time.AfterFunc(d, func() {
		ts.mu.Lock()
		current, ok := ts.timers[roomID]
		if !ok || current.gen != gen {
			// Cancelled or replaced between scheduling and firing.
			ts.mu.Unlock()
			return
		}
		delete(ts.timers, roomID)
		ts.mu.Unlock()
		fire()
	})
	ts.timers[roomID] = armed
}

// Cancel disarms the room's deadline if one is pending. Safe to call when
// nothing is armed, and idempotent under double cancellation.
func (ts *TimeoutSupervisor) Cancel(roomID uuid.UUID) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if armed, ok := ts.timers[roomID]; ok {
		armed.timer.Stop()
		delete(ts.timers, roomID)
	}
}

// Armed reports whether a deadline is currently pending for the room.
func (ts *TimeoutSupervisor) Armed(roomID uuid.UUID) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	_, ok := ts.timers[roomID]
	return ok
}
