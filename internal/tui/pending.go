package tui

import (
	"fmt"
	"sync"
	"time"
)

const pendingOpExpiry = 5 * time.Second

// PendingOp is a change sent to the bridge that a refresh may not reflect yet
type PendingOp struct {
	Field     string // "on", "bri"
	Target    any
	ExpiresAt time.Time
}

// PendingTracker keeps optimistic values from being overwritten by a light
// listing that was requested before the change landed.
type PendingTracker struct {
	ops map[string]*PendingOp // keyed by lightID:field
	mu  sync.Mutex
	now func() time.Time
}

// NewPendingTracker creates a new pending operations tracker
func NewPendingTracker() *PendingTracker {
	return &PendingTracker{
		ops: make(map[string]*PendingOp),
		now: time.Now,
	}
}

func pendingKey(lightID int, field string) string {
	return fmt.Sprintf("%d:%s", lightID, field)
}

// Add registers the value a field is expected to reach. A later Add for the
// same field replaces the target.
func (t *PendingTracker) Add(lightID int, field string, target any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ops[pendingKey(lightID, field)] = &PendingOp{
		Field:     field,
		Target:    target,
		ExpiresAt: t.now().Add(pendingOpExpiry),
	}
}

// Pending returns the target of an unexpired operation on the field
func (t *PendingTracker) Pending(lightID int, field string) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := pendingKey(lightID, field)
	op, exists := t.ops[key]
	if !exists {
		return nil, false
	}
	if t.now().After(op.ExpiresAt) {
		delete(t.ops, key)
		return nil, false
	}
	return op.Target, true
}

// ShouldIgnore reports whether a fetched value must give way to a pending
// one. Reaching the target clears the operation.
func (t *PendingTracker) ShouldIgnore(lightID int, field string, value any) bool {
	target, ok := t.Pending(lightID, field)
	if !ok {
		return false
	}
	if target == value {
		t.clearField(lightID, field)
		return false
	}
	return true
}

// Clear drops every pending operation on a light
func (t *PendingTracker) Clear(lightID int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prefix := fmt.Sprintf("%d:", lightID)
	for key := range t.ops {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(t.ops, key)
		}
	}
}

func (t *PendingTracker) clearField(lightID int, field string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ops, pendingKey(lightID, field))
}

// Cleanup removes expired pending operations
func (t *PendingTracker) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for key, op := range t.ops {
		if now.After(op.ExpiresAt) {
			delete(t.ops, key)
		}
	}
}

// Len returns the number of tracked operations
func (t *PendingTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ops)
}
