package org

import (
	"context"
	"testing"
	"time"
)

func TestLedger_InitAgent(t *testing.T) {
	l := newLedger(100)
	l.initAgent(1, 1000)
	if l.budget[1] != 1000 {
		t.Errorf("expected budget 1000, got %d", l.budget[1])
	}
	if l.runningCost[1] != 100 {
		t.Errorf("expected running cost seeded to unit cost, got %d", l.runningCost[1])
	}
	if l.status[1] != "just hired" {
		t.Errorf("expected status 'just hired', got %q", l.status[1])
	}
}

func TestLedger_DefaultUnitCost(t *testing.T) {
	l := newLedger(0)
	if l.unitCost != DefaultUnitCost {
		t.Errorf("expected DefaultUnitCost fallback, got %d", l.unitCost)
	}
}

func TestLedger_Debit(t *testing.T) {
	l := newLedger(100)
	l.initAgent(1, 1000)
	l.debit(1, 150)
	if l.budget[1] != 850 {
		t.Errorf("expected 850, got %d", l.budget[1])
	}
}

func TestLedger_Debit_CanGoNegative(t *testing.T) {
	l := newLedger(100)
	l.initAgent(1, 50)
	l.debit(1, 150)
	if l.budget[1] != -100 {
		t.Errorf("expected -100 (overdraft allowed, caller decides termination), got %d", l.budget[1])
	}
}

func TestLedger_Remove(t *testing.T) {
	l := newLedger(100)
	l.initAgent(1, 1000)
	l.remove(1)
	if _, ok := l.budget[1]; ok {
		t.Error("expected budget entry removed")
	}
	if _, ok := l.runningCost[1]; ok {
		t.Error("expected running cost entry removed")
	}
	if _, ok := l.status[1]; ok {
		t.Error("expected status entry removed")
	}
}

// B1: running_cost(a) = unit_cost + sum(running_cost(child)).
func TestLedger_RecomputeRunningCost_Leaf(t *testing.T) {
	c := newChart()
	c.addFounder(founder(1))
	l := newLedger(10)

	cost, err := l.recomputeRunningCost(context.Background(), c, 1, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cost != 10 {
		t.Errorf("expected leaf cost = unit cost (10), got %d", cost)
	}
}

func TestLedger_RecomputeRunningCost_Tree(t *testing.T) {
	c := newChart()
	c.addFounder(founder(1))
	c.addStaff(staff(2), 1)
	c.addStaff(staff(3), 1)
	c.addStaff(staff(4), 2)
	l := newLedger(10)

	// Tree: 1 -> {2 -> {4}, 3}
	// cost(4) = 10, cost(2) = 10 + 10 = 20, cost(3) = 10, cost(1) = 10 + 20 + 10 = 40
	cost, err := l.recomputeRunningCost(context.Background(), c, 1, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cost != 40 {
		t.Errorf("expected 40, got %d", cost)
	}
}

func TestLedger_RecomputeRunningCost_NoSuchAgent(t *testing.T) {
	c := newChart()
	l := newLedger(10)
	_, err := l.recomputeRunningCost(context.Background(), c, 99, time.Second)
	if err != ErrNoSuchAgent {
		t.Errorf("expected ErrNoSuchAgent, got %v", err)
	}
}

// S6: a corrupt cyclic chart must not hang the dispatcher — it is
// detected and surfaced as ErrCostTimeout rather than looping forever.
func TestLedger_RecomputeRunningCost_CyclicChartTimesOut(t *testing.T) {
	c := newChart()
	c.agents[1] = &Agent{ID: 1}
	c.agents[2] = &Agent{ID: 2}
	c.staffOf[1] = []int64{2}
	c.staffOf[2] = []int64{1}
	l := newLedger(10)

	_, err := l.recomputeRunningCost(context.Background(), c, 1, 500*time.Millisecond)
	if err != ErrCostTimeout {
		t.Errorf("expected ErrCostTimeout, got %v", err)
	}
}

func TestLedger_SetStatusAndRunningCost(t *testing.T) {
	l := newLedger(10)
	l.initAgent(1, 100)
	l.setStatus(1, "idle")
	l.setRunningCost(1, 55)
	if l.status[1] != "idle" {
		t.Errorf("expected idle, got %q", l.status[1])
	}
	if l.runningCost[1] != 55 {
		t.Errorf("expected 55, got %d", l.runningCost[1])
	}
}
