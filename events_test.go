package org

import (
	"context"
	"testing"
	"time"
)

// newTestOrg builds an in-memory organization (no WorkspaceRoot, so
// persistLocked is a no-op) with a single founder agent, wired to a
// dispatcher whose Run loop is started in the background.
func newTestOrg(t *testing.T) (*Organization, *Dispatcher) {
	t.Helper()
	o := &Organization{
		chart:      newChart(),
		ledger:     newLedger(10),
		messages:   newMessageCenter(),
		agentIDs:   newIDCounter(0),
		messageIDs: newIDCounter(0),
	}
	f := &Agent{Name: "founder", Role: "Founder"}
	f.ID = o.agentIDs.next()
	o.chart.addFounder(f)
	o.ledger.initAgent(f.ID, 1000)

	d := NewDispatcher(o, 16, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	t.Cleanup(func() {
		d.Stop()
		cancel()
	})
	return o, d
}

func TestDispatcher_Submit_RunsHandler(t *testing.T) {
	o, d := newTestOrg(t)
	founderID := o.Agents()[0].ID

	v, err := d.Submit(context.Background(), founderID, EventHireStaff, map[string]any{
		"name": "Bob", "role": "Engineer",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := v.(int64); !ok {
		t.Errorf("expected new agent id (int64), got %T %v", v, v)
	}
}

func TestDispatcher_Submit_UnknownEventKind(t *testing.T) {
	o, d := newTestOrg(t)
	founderID := o.Agents()[0].ID

	_, err := d.Submit(context.Background(), founderID, EventKind("bogus"), nil)
	if err == nil {
		t.Fatal("expected an error for an unknown event kind")
	}
}

// E1: events from an already-terminated agent are rejected rather than
// dispatched.
func TestDispatcher_Submit_RejectsTerminatedAgent(t *testing.T) {
	o, d := newTestOrg(t)
	founderID := o.Agents()[0].ID

	v, err := d.Submit(context.Background(), founderID, EventHireStaff, map[string]any{
		"name": "Bob", "role": "Engineer",
	})
	if err != nil {
		t.Fatal(err)
	}
	staffID := v.(int64)

	if _, err := d.Submit(context.Background(), staffID, EventFireStaff, map[string]any{"target": staffID}); err != nil {
		t.Fatalf("fire_staff on self should be rejected only after the agent is actually gone: %v", err)
	}

	if _, err := d.Submit(context.Background(), staffID, EventGetInbox, nil); err != ErrAgentTerminated {
		t.Errorf("expected ErrAgentTerminated, got %v", err)
	}
}

func TestDispatcher_Submit_ContextCancelBeforeEnqueue(t *testing.T) {
	_, d := newTestOrg(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Submit(ctx, 1, EventGetInbox, nil)
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDispatcher_Submit_AfterStop(t *testing.T) {
	_, d := newTestOrg(t)
	d.Stop()
	time.Sleep(10 * time.Millisecond)

	_, err := d.Submit(context.Background(), 1, EventGetInbox, nil)
	if err != ErrQueueClosed {
		t.Errorf("expected ErrQueueClosed, got %v", err)
	}
}

// §4.5 queue-filter: firing an agent drops its own not-yet-dispatched
// events from the queue rather than letting them execute afterward.
func TestDispatcher_FilterQueue_DropsPendingEventsOfFiredAgent(t *testing.T) {
	o := &Organization{
		chart:      newChart(),
		ledger:     newLedger(10),
		messages:   newMessageCenter(),
		agentIDs:   newIDCounter(0),
		messageIDs: newIDCounter(0),
	}
	f := &Agent{Name: "founder", Role: "Founder"}
	f.ID = o.agentIDs.next()
	o.chart.addFounder(f)
	o.ledger.initAgent(f.ID, 1000)

	s := &Agent{Name: "staff", Role: "Engineer"}
	s.ID = o.agentIDs.next()
	if err := o.chart.addStaff(s, f.ID); err != nil {
		t.Fatal(err)
	}
	o.ledger.initAgent(s.ID, 500)

	d := NewDispatcher(o, 16, nil)

	ev := &Event{id: NewID(), AgentID: s.ID, Kind: EventGetInbox, result: make(chan eventResult, 1)}
	d.pending[ev.id] = ev
	d.queue <- ev

	d.filterQueue(s.ID)

	select {
	case r := <-ev.result:
		if r.Err != ErrAgentTerminated {
			t.Errorf("expected ErrAgentTerminated, got %v", r.Err)
		}
	default:
		t.Fatal("expected the filtered event's result channel to be signaled")
	}

	if len(d.queue) != 0 {
		t.Errorf("expected queue emptied of the filtered event, depth=%d", len(d.queue))
	}
}
