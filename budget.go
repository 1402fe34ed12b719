package org

import (
	"context"
	"time"
)

// DefaultUnitCost is the fixed per-node step cost used by running-cost
// recomputation (§3 budget ledger, B1) when the operator has not pinned
// a different value in configuration.
const DefaultUnitCost = 100

// DefaultCostTimeout bounds the recursive running-cost walk (§4.6, §8 S6).
const DefaultCostTimeout = 10 * time.Second

// ledger holds the per-agent budget, running cost, and status string
// (§3 budget ledger). Like chart, it is never locked itself — callers
// already hold the organization lock.
type ledger struct {
	budget      map[int64]int64
	runningCost map[int64]int64
	status      map[int64]string
	unitCost    int64
}

func newLedger(unitCost int64) *ledger {
	if unitCost <= 0 {
		unitCost = DefaultUnitCost
	}
	return &ledger{
		budget:      make(map[int64]int64),
		runningCost: make(map[int64]int64),
		status:      make(map[int64]string),
		unitCost:    unitCost,
	}
}

// initAgent seeds a new agent's ledger entries. Per the Open Question
// decision in DESIGN.md, hiring initializes the new agent's budget
// without deducting from the supervisor (the reference behavior named
// in §3 B3 and observed in the distilled system's add_staff).
func (l *ledger) initAgent(id int64, budget int64) {
	l.budget[id] = budget
	l.runningCost[id] = l.unitCost
	l.status[id] = "just hired"
}

func (l *ledger) remove(id int64) {
	delete(l.budget, id)
	delete(l.runningCost, id)
	delete(l.status, id)
}

func (l *ledger) debit(id int64, amount int64) {
	l.budget[id] -= amount
}

func (l *ledger) setStatus(id int64, status string) {
	l.status[id] = status
}

func (l *ledger) setRunningCost(id int64, cost int64) {
	l.runningCost[id] = cost
}

// setUnitCost replaces the organization-wide per-node step cost used by
// the next recomputeRunningCost walk. ok is false (no-op) for a
// non-positive cost, since a zero or negative unit cost would make every
// agent free to run forever.
func (l *ledger) setUnitCost(cost int64) bool {
	if cost <= 0 {
		return false
	}
	l.unitCost = cost
	return true
}

// recomputeRunningCost performs the post-order traversal of B1:
// running_cost(a) = unit_cost + Σ running_cost(child). Bounded by the
// per-call timeout (§4.6): if the walk does not finish before the
// deadline — e.g. a corrupt cyclic chart (§8 S6) — it returns
// ErrCostTimeout rather than hanging the dispatcher.
func (l *ledger) recomputeRunningCost(ctx context.Context, c *chart, id int64, timeout time.Duration) (int64, error) {
	if timeout <= 0 {
		timeout = DefaultCostTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		cost int64
		err  error
	}
	done := make(chan result, 1)
	go func() {
		cost, err := recurseCost(c, id, l.unitCost, make(map[int64]bool))
		done <- result{cost, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return 0, r.err
		}
		l.runningCost[id] = r.cost
		return r.cost, nil
	case <-ctx.Done():
		return 0, ErrCostTimeout
	}
}

// recurseCost walks the chart's staff lists from id downward. visiting
// guards against a corrupt cyclic chart turning this into an infinite
// recursion even before the timeout has a chance to fire.
func recurseCost(c *chart, id int64, unitCost int64, visiting map[int64]bool) (int64, error) {
	if visiting[id] {
		return 0, ErrCostTimeout
	}
	visiting[id] = true
	defer delete(visiting, id)

	if _, ok := c.agents[id]; !ok {
		return 0, ErrNoSuchAgent
	}
	sum := int64(0)
	for _, child := range c.staffOf[id] {
		childCost, err := recurseCost(c, child, unitCost, visiting)
		if err != nil {
			return 0, err
		}
		sum += childCost
	}
	return unitCost + sum, nil
}
