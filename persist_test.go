package org

import (
	"testing"
)

func TestPersist_SaveAndLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	o := &Organization{
		Name:          "acme",
		Goal:          "ship the thing",
		InitialBudget: 1000,
		WorkspaceRoot: root,
		chart:         newChart(),
		ledger:        newLedger(10),
		messages:      newMessageCenter(),
		agentIDs:      newIDCounter(0),
		messageIDs:    newIDCounter(0),
	}
	f := &Agent{Name: "founder", Role: "Founder", Goals: []string{"grow"}}
	f.ID = o.agentIDs.next()
	o.chart.addFounder(f)
	o.ledger.initAgent(f.ID, 1000)

	s := &Agent{Name: "Bob", Role: "Engineer"}
	s.ID = o.agentIDs.next()
	if err := o.chart.addStaff(s, f.ID); err != nil {
		t.Fatal(err)
	}
	o.ledger.initAgent(s.ID, 500)

	o.messages.send(o.messageIDs.next(), f.ID, s.ID, "welcome", true, 100)

	o.mu.Lock()
	err := o.persistLocked()
	o.mu.Unlock()
	if err != nil {
		t.Fatalf("persist: %v", err)
	}

	loaded, err := LoadOrganization(root, "acme", 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Goal != "ship the thing" || loaded.InitialBudget != 1000 {
		t.Errorf("unexpected org fields: %+v", loaded)
	}
	if len(loaded.Agents()) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(loaded.Agents()))
	}
	sup, ok := loaded.chart.supervisorOf(s.ID)
	if !ok || sup != f.ID {
		t.Errorf("expected staff supervisor restored, got %d ok=%v", sup, ok)
	}
	if loaded.ledger.budget[s.ID] != 500 {
		t.Errorf("expected budget restored, got %d", loaded.ledger.budget[s.ID])
	}
	if _, ok := loaded.messages.get(1); !ok {
		t.Error("expected archived message restored")
	}
}

// A brand-new name with no snapshot on disk round-trips as a valid,
// agent-less organization rather than erroring.
func TestPersist_LoadOrganization_MissingSnapshotIsNotAnError(t *testing.T) {
	root := t.TempDir()
	o, err := LoadOrganization(root, "never-created", 10)
	if err != nil {
		t.Fatalf("expected no error for a missing snapshot, got %v", err)
	}
	if len(o.Agents()) != 0 {
		t.Errorf("expected zero agents, got %d", len(o.Agents()))
	}
}

func TestPersist_Disabled_WhenWorkspaceRootEmpty(t *testing.T) {
	o := &Organization{
		chart:      newChart(),
		ledger:     newLedger(10),
		messages:   newMessageCenter(),
		agentIDs:   newIDCounter(0),
		messageIDs: newIDCounter(0),
	}
	o.mu.Lock()
	err := o.persistLocked()
	o.mu.Unlock()
	if err != nil {
		t.Errorf("expected persistence to be a no-op without a workspace root, got %v", err)
	}
}

func TestPersist_TerminatedAgentConfigNotWritten(t *testing.T) {
	root := t.TempDir()
	o := &Organization{
		Name:          "acme",
		WorkspaceRoot: root,
		chart:         newChart(),
		ledger:        newLedger(10),
		messages:      newMessageCenter(),
		agentIDs:      newIDCounter(0),
		messageIDs:    newIDCounter(0),
	}
	f := &Agent{Name: "founder", Role: "Founder"}
	f.ID = o.agentIDs.next()
	o.chart.addFounder(f)
	o.ledger.initAgent(f.ID, 1000)

	s := &Agent{Name: "Bob", Role: "Engineer"}
	s.ID = o.agentIDs.next()
	o.chart.addStaff(s, f.ID)
	o.ledger.initAgent(s.ID, 500)
	o.chart.removeAgent(s.ID)

	o.mu.Lock()
	if err := o.persistLocked(); err != nil {
		t.Fatalf("persist: %v", err)
	}
	o.mu.Unlock()

	if agentConfigExists(o.agentConfigPath(s.ID, s.Name)) {
		t.Error("expected no agent.yaml written for a terminated agent")
	}
}

func agentConfigExists(path string) bool {
	var v map[string]any
	err := readYAML(path, &v)
	return err == nil && v != nil
}
