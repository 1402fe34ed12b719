package org

import (
	"strings"
	"testing"
)

func founder(id int64) *Agent { return &Agent{ID: id, Name: "f", Role: "founder"} }
func staff(id int64) *Agent   { return &Agent{ID: id, Name: "s", Role: "staff"} }

func TestChart_AddFounder(t *testing.T) {
	c := newChart()
	f := founder(1)
	c.addFounder(f)
	if !f.Founder {
		t.Error("founder flag not set")
	}
	if _, ok := c.supervisorOf(1); ok {
		t.Error("founder should have no supervisor")
	}
}

func TestChart_AddStaff(t *testing.T) {
	c := newChart()
	c.addFounder(founder(1))
	s := staff(2)
	if err := c.addStaff(s, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Founder {
		t.Error("staff should not be a founder")
	}
	sup, ok := c.supervisorOf(2)
	if !ok || sup != 1 {
		t.Errorf("expected supervisor 1, got %d ok=%v", sup, ok)
	}
	staffList := c.staffOfAgent(1)
	if len(staffList) != 1 || staffList[0] != 2 {
		t.Errorf("expected [2], got %v", staffList)
	}
}

func TestChart_AddStaff_AlreadySupervised(t *testing.T) {
	c := newChart()
	c.addFounder(founder(1))
	c.addFounder(founder(2))
	s := staff(3)
	if err := c.addStaff(s, 1); err != nil {
		t.Fatal(err)
	}
	if err := c.addStaff(s, 2); err != ErrAlreadySupervised {
		t.Errorf("expected ErrAlreadySupervised, got %v", err)
	}
}

func TestChart_AddStaff_NoSuchSupervisor(t *testing.T) {
	c := newChart()
	if err := c.addStaff(staff(2), 99); err != ErrNoSuchAgent {
		t.Errorf("expected ErrNoSuchAgent, got %v", err)
	}
}

// I4: an agent may be deleted only if it has no staff.
func TestChart_RemoveAgent_RefusesWithStaff(t *testing.T) {
	c := newChart()
	c.addFounder(founder(1))
	c.addStaff(staff(2), 1)
	if err := c.removeAgent(1); err != ErrHasStaff {
		t.Errorf("expected ErrHasStaff, got %v", err)
	}
}

func TestChart_RemoveAgent_LeafSucceeds(t *testing.T) {
	c := newChart()
	c.addFounder(founder(1))
	s := staff(2)
	c.addStaff(s, 1)
	if err := c.removeAgent(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Terminated {
		t.Error("expected agent marked terminated")
	}
	if staffList := c.staffOfAgent(1); len(staffList) != 0 {
		t.Errorf("expected supervisor's staff list emptied, got %v", staffList)
	}
	if _, ok := c.supervisorOf(2); ok {
		t.Error("expected supervisor edge removed")
	}
}

func TestChart_RemoveAgent_Idempotent(t *testing.T) {
	c := newChart()
	if err := c.removeAgent(42); err != nil {
		t.Errorf("removing a nonexistent agent should be a no-op, got %v", err)
	}
}

// I1/I3: every non-founder has exactly one supervisor, appearing in
// exactly one staff list.
func TestChart_EveryNonFounderHasExactlyOneSupervisor(t *testing.T) {
	c := newChart()
	c.addFounder(founder(1))
	c.addStaff(staff(2), 1)
	c.addStaff(staff(3), 1)
	c.addStaff(staff(4), 2)

	count := map[int64]int{}
	for sup, staffIDs := range c.staffOf {
		for _, id := range staffIDs {
			count[id]++
			if got, _ := c.supervisorOf(id); got != sup {
				t.Errorf("staff %d listed under %d but supervisorOf returns %d", id, sup, got)
			}
		}
	}
	for _, id := range []int64{2, 3, 4} {
		if count[id] != 1 {
			t.Errorf("agent %d appears in %d staff lists, want exactly 1", id, count[id])
		}
	}
}

// I2: the chart is acyclic — walking supervisors from any agent
// terminates at a founder.
func TestChart_AcyclicRootOf(t *testing.T) {
	c := newChart()
	c.addFounder(founder(1))
	c.addStaff(staff(2), 1)
	c.addStaff(staff(3), 2)

	root, cyclic := c.acyclicRootOf(3)
	if cyclic {
		t.Error("expected acyclic")
	}
	if root != 1 {
		t.Errorf("expected root 1, got %d", root)
	}
}

func TestChart_AcyclicRootOf_DetectsCycle(t *testing.T) {
	c := newChart()
	// Hand-construct a corrupt cycle: 1 -> 2 -> 1, bypassing addStaff's
	// already-supervised guard.
	c.agents[1] = &Agent{ID: 1}
	c.agents[2] = &Agent{ID: 2}
	c.supervisor[1] = 2
	c.supervisor[2] = 1

	_, cyclic := c.acyclicRootOf(1)
	if !cyclic {
		t.Error("expected cycle detected")
	}
}

func TestChart_IsSupervisor(t *testing.T) {
	c := newChart()
	c.addFounder(founder(1))
	c.addStaff(staff(2), 1)
	if !c.isSupervisor(1, 2) {
		t.Error("expected 1 to supervise 2")
	}
	if c.isSupervisor(2, 1) {
		t.Error("did not expect 2 to supervise 1")
	}
}

func TestChart_Hierarchy(t *testing.T) {
	c := newChart()
	c.addFounder(&Agent{ID: 1, Name: "Founder", Role: "CEO"})
	c.addStaff(&Agent{ID: 2, Name: "Bob", Role: "Manager"}, 1)
	c.addStaff(&Agent{ID: 3, Name: "Carol", Role: "IC"}, 2)

	out := c.hierarchy(1, 0)
	if !containsAll(out, "Founder", "Bob", "Carol") {
		t.Errorf("expected all names in hierarchy text, got: %s", out)
	}
}

func TestChart_Hierarchy_DepthLimit(t *testing.T) {
	c := newChart()
	c.addFounder(&Agent{ID: 1, Name: "Founder", Role: "CEO"})
	c.addStaff(&Agent{ID: 2, Name: "Bob", Role: "Manager"}, 1)
	c.addStaff(&Agent{ID: 3, Name: "Carol", Role: "IC"}, 2)

	out := c.hierarchy(1, 1)
	if containsAll(out, "Carol") {
		t.Errorf("expected depth-limited hierarchy to exclude Carol, got: %s", out)
	}
	if !containsAll(out, "Founder") {
		t.Errorf("expected Founder present, got: %s", out)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
