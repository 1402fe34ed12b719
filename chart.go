package org

import (
	"fmt"
	"sort"
	"strings"
)

// chart is the supervisor→staff forest (§3 org chart, I1–I4). All methods
// assume the caller already holds the organization lock — chart never
// locks itself, it is always reached through the dispatcher.
type chart struct {
	agents     map[int64]*Agent
	staffOf    map[int64][]int64 // supervisor_id -> ordered staff ids
	supervisor map[int64]int64   // staff_id -> supervisor_id (absent => founder)
}

func newChart() *chart {
	return &chart{
		agents:     make(map[int64]*Agent),
		staffOf:    make(map[int64][]int64),
		supervisor: make(map[int64]int64),
	}
}

// addFounder registers a with no supervisor.
func (c *chart) addFounder(a *Agent) {
	a.Founder = true
	c.agents[a.ID] = a
}

// addStaff appends newID to supervisorID's staff list (§4.3 add_staff).
// Rejects if newID already has a supervisor.
func (c *chart) addStaff(a *Agent, supervisorID int64) error {
	if _, exists := c.supervisor[a.ID]; exists {
		return ErrAlreadySupervised
	}
	if _, ok := c.agents[supervisorID]; !ok {
		return ErrNoSuchAgent
	}
	a.Founder = false
	c.agents[a.ID] = a
	c.supervisor[a.ID] = supervisorID
	c.staffOf[supervisorID] = append(c.staffOf[supervisorID], a.ID)
	return nil
}

// removeAgent enforces I4 and removes id from its supervisor's list,
// marking the agent terminated. Idempotent on a non-existent id.
func (c *chart) removeAgent(id int64) error {
	a, ok := c.agents[id]
	if !ok {
		return nil
	}
	if len(c.staffOf[id]) > 0 {
		return ErrHasStaff
	}
	if sup, hasSup := c.supervisor[id]; hasSup {
		staff := c.staffOf[sup]
		for i, s := range staff {
			if s == id {
				c.staffOf[sup] = append(staff[:i], staff[i+1:]...)
				break
			}
		}
		delete(c.supervisor, id)
	}
	a.Terminated = true
	delete(c.staffOf, id)
	return nil
}

func (c *chart) agent(id int64) (*Agent, bool) {
	a, ok := c.agents[id]
	return a, ok
}

func (c *chart) supervisorOf(id int64) (int64, bool) {
	sup, ok := c.supervisor[id]
	return sup, ok
}

func (c *chart) staffOfAgent(id int64) []int64 {
	staff := c.staffOf[id]
	out := make([]int64, len(staff))
	copy(out, staff)
	return out
}

// isSupervisor reports whether a is currently b's direct supervisor.
func (c *chart) isSupervisor(a, b int64) bool {
	sup, ok := c.supervisor[b]
	return ok && sup == a
}

// acyclicRootOf walks supervisors from id until a founder is reached,
// bounded by the total number of agents so a corrupt cyclic chart cannot
// hang the walk (used by invariant-checking tests for I2; cost
// computation guards against cycles with its own visiting set in
// recurseCost).
func (c *chart) acyclicRootOf(id int64) (root int64, cyclic bool) {
	seen := make(map[int64]bool, len(c.agents))
	cur := id
	for i := 0; i <= len(c.agents); i++ {
		if seen[cur] {
			return cur, true
		}
		seen[cur] = true
		sup, ok := c.supervisor[cur]
		if !ok {
			return cur, false
		}
		cur = sup
	}
	return cur, true
}

// hierarchy renders an indented org tree rooted at id, depth levels deep
// (0 = unlimited). Grounded in the original implementation's
// get_employee_hierarchy, used inside build_status_update's prompt context.
func (c *chart) hierarchy(id int64, depth int) string {
	var b strings.Builder
	c.writeHierarchy(&b, id, 0, depth)
	return b.String()
}

func (c *chart) writeHierarchy(b *strings.Builder, id int64, level, maxDepth int) {
	a, ok := c.agents[id]
	if !ok {
		return
	}
	indent := strings.Repeat("  ", level)
	fmt.Fprintf(b, "%s- %s (id=%d, role=%s)\n", indent, a.Name, a.ID, a.Role)
	if maxDepth > 0 && level+1 >= maxDepth {
		return
	}
	staff := append([]int64(nil), c.staffOf[id]...)
	sort.Slice(staff, func(i, j int) bool { return staff[i] < staff[j] })
	for _, s := range staff {
		c.writeHierarchy(b, s, level+1, maxDepth)
	}
}
