package org

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// EventKind is the closed set of event kinds the dispatcher accepts (§4.5).
type EventKind string

const (
	EventHireStaff              EventKind = "hire_staff"
	EventFireStaff               EventKind = "fire_staff"
	EventMessageAgent            EventKind = "message_agent"
	EventRespondToMessage        EventKind = "respond_to_message"
	EventGetInbox                EventKind = "get_inbox"
	EventGetConversationHistory  EventKind = "get_conversation_history"
	EventUpdateAgentStatus       EventKind = "update_agent_status"
	EventUpdateAgentBudget       EventKind = "update_agent_budget"
	EventUpdateAgentRunningCost  EventKind = "update_agent_running_cost"
	EventBuildStatusUpdate       EventKind = "build_status_update"
	EventCalculateOperatingCost  EventKind = "calculate_operating_cost_of_agent"
	EventGetSupervisor           EventKind = "get_supervisor"
	EventSetUnitCost             EventKind = "set_unit_cost"
)

// Event is a transient, unpersisted mutation or read request (§3 Event
// record, E1–E2).
type Event struct {
	id      string
	AgentID int64
	Kind    EventKind
	Args    map[string]any

	result chan eventResult
}

type eventResult struct {
	Value any
	Err   error
}

// Dispatcher is the single consumer of queued events. Only the goroutine
// running Run ever calls Organization.handle, which is the only code
// path that mutates chart, ledger, or messageCenter state (§4.5,
// §5 shared-resource policy). Dispatcher itself holds no org state; the
// organization lock lives on Organization.
type Dispatcher struct {
	org    *Organization
	logger *slog.Logger

	bookkeeping sync.Mutex // guards queue enqueue/dequeue bookkeeping only, not org state
	queue       chan *Event
	done        chan struct{}
	closed      bool
	pending     map[string]*Event // events currently queued, for the fire-staff filter

	dispatchCount int
}

// NewDispatcher creates a dispatcher over org with the given queue depth.
func NewDispatcher(o *Organization, queueDepth int, logger *slog.Logger) *Dispatcher {
	if queueDepth <= 0 {
		queueDepth = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		org:     o,
		logger:  logger,
		queue:   make(chan *Event, queueDepth),
		done:    make(chan struct{}),
		pending: make(map[string]*Event),
	}
	o.dispatcher = d
	return d
}

// Submit enqueues an event and blocks until the dispatcher completes it
// or ctx is cancelled. Safe for concurrent use by many agent loops (O1/O2).
func (d *Dispatcher) Submit(ctx context.Context, agentID int64, kind EventKind, args map[string]any) (any, error) {
	ev := &Event{
		id:      NewID(),
		AgentID: agentID,
		Kind:    kind,
		Args:    args,
		result:  make(chan eventResult, 1),
	}

	d.bookkeeping.Lock()
	if d.closed {
		d.bookkeeping.Unlock()
		return nil, ErrQueueClosed
	}
	d.pending[ev.id] = ev
	d.bookkeeping.Unlock()

	select {
	case d.queue <- ev:
	case <-ctx.Done():
		d.bookkeeping.Lock()
		delete(d.pending, ev.id)
		d.bookkeeping.Unlock()
		return nil, ctx.Err()
	}

	select {
	case r := <-ev.result:
		return r.Value, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run is the dispatcher's main loop (§4.5), meant to run in its own
// goroutine (see Controller.Start). It returns once Stop has been called
// and the queue has been drained.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-d.done:
			d.drain()
			return
		case ev := <-d.queue:
			d.dispatchOne(ctx, ev)
		}
	}
}

// drain processes whatever is left in the queue synchronously, matching
// the shutdown sequencing in SPEC_FULL §12: terminate agents, await loop
// exit, THEN drain remaining events, THEN stop the dispatcher.
func (d *Dispatcher) drain() {
	for {
		select {
		case ev := <-d.queue:
			d.dispatchOne(context.Background(), ev)
		default:
			return
		}
	}
}

// Stop signals Run to finish draining and return. Idempotent.
func (d *Dispatcher) Stop() {
	d.bookkeeping.Lock()
	if !d.closed {
		d.closed = true
		close(d.done)
	}
	d.bookkeeping.Unlock()
}

func (d *Dispatcher) dispatchOne(ctx context.Context, ev *Event) {
	d.bookkeeping.Lock()
	delete(d.pending, ev.id)
	d.bookkeeping.Unlock()

	// Step 1 (cheap, unlocked pre-check): drop events from agents already
	// terminated (E1).
	if d.org.isTerminated(ev.AgentID) {
		ev.result <- eventResult{Value: fmt.Sprintf("agent %d is terminated", ev.AgentID), Err: ErrAgentTerminated}
		return
	}

	// Step 2-6: acquire the organization lock, dispatch, persist, release.
	d.org.mu.Lock()
	// Final re-check under the lock: "fired agents can sneak in an
	// action" between the unlocked pre-check above and acquiring the
	// lock, so recheck before committing any mutation.
	if a, ok := d.org.chart.agent(ev.AgentID); ok && a.Terminated {
		d.org.mu.Unlock()
		ev.result <- eventResult{Value: fmt.Sprintf("agent %d is terminated", ev.AgentID), Err: ErrAgentTerminated}
		return
	}

	value, err := d.org.handle(ctx, ev)

	if perr := d.org.persistLocked(); perr != nil {
		d.logger.Error("persistence failed", "err", perr, "event", ev.Kind)
		// PersistenceFailure policy (§7): log, keep in-memory state, let
		// the next mutation retry the save.
	}
	d.org.mu.Unlock()

	d.bookkeeping.Lock()
	d.dispatchCount++
	if d.dispatchCount%50 == 0 {
		d.logger.Debug("dispatcher queue depth", "depth", len(d.queue), "dispatched", d.dispatchCount)
	}
	d.bookkeeping.Unlock()

	ev.result <- eventResult{Value: value, Err: err}
}

// filterQueue removes every not-yet-dispatched event whose originator is
// agentID (§4.5 "Queue-filter operation"). Called from within
// fire_staff's handler, itself called from dispatchOne while org.mu is
// held — but filterQueue only touches queue/pending bookkeeping, guarded
// by its own mutex, so no lock ordering hazard arises.
func (d *Dispatcher) filterQueue(agentID int64) {
	d.bookkeeping.Lock()
	defer d.bookkeeping.Unlock()

	kept := make([]*Event, 0, len(d.queue))
	for {
		select {
		case ev := <-d.queue:
			if ev.AgentID == agentID {
				delete(d.pending, ev.id)
				ev.result <- eventResult{Value: fmt.Sprintf("agent %d is terminated", agentID), Err: ErrAgentTerminated}
				continue
			}
			kept = append(kept, ev)
		default:
			for _, ev := range kept {
				d.queue <- ev
			}
			return
		}
	}
}

// awaitQuiescence blocks until the dispatcher has no pending or
// in-flight work, used by Controller.Shutdown before it signals Stop.
func (d *Dispatcher) awaitQuiescence(ctx context.Context, pollEvery time.Duration) {
	if pollEvery <= 0 {
		pollEvery = 20 * time.Millisecond
	}
	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()
	for {
		d.bookkeeping.Lock()
		empty := len(d.pending) == 0 && len(d.queue) == 0
		d.bookkeeping.Unlock()
		if empty {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
