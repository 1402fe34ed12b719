package org

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// NewID generates a globally unique, time-sortable identifier for values
// outside the organization snapshot: event ids and the reference memory
// store's row ids. Never used for the persisted monotonic agent or
// message ids below — those must be small, dense, strictly-increasing
// integers (§4.1), which a UUID is not.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NowUnix returns the current time as Unix seconds.
func NowUnix() int64 {
	return time.Now().Unix()
}

// idCounter is a strictly monotonic, never-reused integer allocator
// (§4.1). One instance backs agent ids, a separate instance backs message
// ids; both are persisted so a restart resumes from the correct value.
type idCounter struct {
	n atomic.Int64
}

// newIDCounter creates a counter that will hand out seed+1 on its first call.
func newIDCounter(seed int64) *idCounter {
	c := &idCounter{}
	c.n.Store(seed)
	return c
}

// next allocates the next id. Must only be called while the caller holds
// the organization lock — the counter is monotonic but the persisted
// "current value" snapshot taken alongside it is not otherwise atomic
// with respect to the rest of the org state.
func (c *idCounter) next() int64 {
	return c.n.Add(1)
}

// current returns the last allocated value (0 if none yet), for persistence.
func (c *idCounter) current() int64 {
	return c.n.Load()
}
