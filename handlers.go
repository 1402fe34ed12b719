package org

import (
	"context"
	"fmt"
	"time"
)

// handleHireStaff implements §4.3 add_staff as exposed through the event
// system. Args: "supervisor" (int64), "name", "role" (string),
// "goals" ([]string), "budget" (int64), "workspace_dir" (string).
func (o *Organization) handleHireStaff(ev *Event) (any, error) {
	supervisorID, ok := argInt64(ev.Args, "supervisor")
	if !ok {
		supervisorID = ev.AgentID
	}
	if _, ok := o.chart.agent(supervisorID); !ok {
		return "no such supervisor", ErrNoSuchAgent
	}

	name, _ := argString(ev.Args, "name")
	role, _ := argString(ev.Args, "role")
	budget, _ := argInt64(ev.Args, "budget")
	goals, _ := ev.Args["goals"].([]string)
	workspaceDir, _ := argString(ev.Args, "workspace_dir")

	newID := o.agentIDs.next()
	a := &Agent{
		ID:           newID,
		Name:         name,
		Role:         role,
		Goals:        goals,
		WorkspaceDir: workspaceDir,
	}
	if err := o.chart.addStaff(a, supervisorID); err != nil {
		return err.Error(), err
	}
	o.ledger.initAgent(newID, budget)
	o.recomputeAncestry(supervisorID)
	return newID, nil
}

// handleFireStaff implements §4.3 remove_agent plus the queue-filter
// operation of §4.5, in that order, while the org lock is held.
func (o *Organization) handleFireStaff(ev *Event) (any, error) {
	target, ok := argInt64(ev.Args, "target")
	if !ok {
		return "missing target", fmt.Errorf("missing target")
	}
	if _, exists := o.chart.agent(target); !exists {
		return fmt.Sprintf("agent %d does not exist", target), nil // idempotent per §4.3
	}
	sup, hadSup := o.chart.supervisorOf(target)

	if err := o.chart.removeAgent(target); err != nil {
		return err.Error(), err
	}
	o.ledger.remove(target)

	if o.dispatcher != nil {
		o.dispatcher.filterQueue(target)
	}
	if hadSup {
		o.recomputeAncestry(sup)
	}
	return fmt.Sprintf("agent %d fired", target), nil
}

// recomputeAncestry recomputes running cost from id up to the founder so
// that a hire/fire immediately reflects in every ancestor's ledger entry,
// matching B1 as an invariant that holds after any mutation, not just on
// explicit request.
func (o *Organization) recomputeAncestry(id int64) {
	cur := id
	seen := map[int64]bool{}
	for {
		if seen[cur] {
			return // corrupt cycle; leave it to the timeout-guarded explicit recompute path
		}
		seen[cur] = true
		cost, err := o.ledger.recomputeRunningCost(context.Background(), o.chart, cur, o.costTimeoutOrDefault())
		if err == nil {
			o.ledger.setRunningCost(cur, cost)
		}
		sup, ok := o.chart.supervisorOf(cur)
		if !ok {
			return
		}
		cur = sup
	}
}

func (o *Organization) costTimeoutOrDefault() time.Duration {
	if o.CostTimeout > 0 {
		return o.CostTimeout
	}
	return DefaultCostTimeout
}

// handleMessageAgent implements §4.4 send.
func (o *Organization) handleMessageAgent(ev *Event) (any, error) {
	receiver, ok := argInt64(ev.Args, "receiver")
	if !ok {
		return "missing receiver", fmt.Errorf("missing receiver")
	}
	if _, ok := o.chart.agent(receiver); !ok {
		return "no such receiver", ErrNoSuchAgent
	}
	body, _ := argString(ev.Args, "body")

	fromSupervisor := o.chart.isSupervisor(ev.AgentID, receiver)
	id := o.messageIDs.next()
	m := o.messages.send(id, ev.AgentID, receiver, body, fromSupervisor, NowUnix())
	return fmt.Sprintf("message %d sent to %d", m.ID, receiver), nil
}

// handleRespondToMessage implements §4.4 respond.
func (o *Organization) handleRespondToMessage(ev *Event) (any, error) {
	msgID, ok := argInt64(ev.Args, "message_id")
	if !ok {
		return "missing message_id", fmt.Errorf("missing message_id")
	}
	body, _ := argString(ev.Args, "body")

	orig, exists := o.messages.get(msgID)
	if !exists {
		return "message does not exist", ErrNoSuchMessage
	}
	fromSupervisor := o.chart.isSupervisor(ev.AgentID, orig.SenderID)
	newID := o.messageIDs.next()
	resp, err := o.messages.respond(newID, msgID, ev.AgentID, body, fromSupervisor, NowUnix())
	if err != nil {
		switch err {
		case ErrAlreadyResponded:
			return "you have already responded to this message", err
		case ErrNotAddressee:
			return "message does not belong to you", err
		default:
			return err.Error(), err
		}
	}
	return fmt.Sprintf("responded with message %d", resp.ID), nil
}

// handleGetInbox implements §4.4 inbox.
func (o *Organization) handleGetInbox(ev *Event) (any, error) {
	return o.messages.renderInbox(ev.AgentID), nil
}

// handleGetSupervisor resolves the caller's supervisor id, backing the
// message_supervisor command-bridge convenience alias.
func (o *Organization) handleGetSupervisor(ev *Event) (any, error) {
	sup, ok := o.chart.supervisorOf(ev.AgentID)
	if !ok {
		return "agent has no supervisor", ErrNoSuchAgent
	}
	return sup, nil
}

// handleGetConversationHistory implements §4.4 conversation.
func (o *Organization) handleGetConversationHistory(ev *Event) (any, error) {
	other, ok := argInt64(ev.Args, "other")
	if !ok {
		return "missing other", fmt.Errorf("missing other")
	}
	n := argInt(ev.Args, "n", 20)
	return o.messages.renderConversation(ev.AgentID, other, n), nil
}

// handleUpdateAgentStatus implements the status half of §4.3 ledger state.
func (o *Organization) handleUpdateAgentStatus(ev *Event) (any, error) {
	status, _ := argString(ev.Args, "status")
	o.ledger.setStatus(ev.AgentID, status)
	return "status updated", nil
}

// handleUpdateAgentBudget implements §4.3 debit / B2.
func (o *Organization) handleUpdateAgentBudget(ev *Event) (any, error) {
	amount, _ := argInt64(ev.Args, "amount")
	o.ledger.debit(ev.AgentID, amount)
	return o.ledger.budget[ev.AgentID], nil
}

// handleUpdateAgentRunningCost sets the agent's running cost directly
// (used by the loop after calculate_operating_cost_of_agent computes it).
func (o *Organization) handleUpdateAgentRunningCost(ev *Event) (any, error) {
	cost, _ := argInt64(ev.Args, "cost")
	o.ledger.setRunningCost(ev.AgentID, cost)
	return cost, nil
}

// handleSetUnitCost implements the Agent Loop's USD-derived billing mode
// (SPEC_FULL §12): an agent that just received a model reply with usage
// tokens attached feeds a freshly derived unit cost back in here, so the
// NEXT calculate_operating_cost_of_agent walk for every agent bills
// against it. A non-positive cost is rejected rather than zeroing out
// billing for the whole organization.
func (o *Organization) handleSetUnitCost(ev *Event) (any, error) {
	cost, _ := argInt64(ev.Args, "cost")
	if !o.ledger.setUnitCost(cost) {
		return o.ledger.unitCost, nil
	}
	return cost, nil
}

// handleBuildStatusUpdate renders the prompt context §4.6 feeds into
// compose(): staff hierarchy, budget, running cost, and status.
func (o *Organization) handleBuildStatusUpdate(ev *Event) (any, error) {
	a, ok := o.chart.agent(ev.AgentID)
	if !ok {
		return "unknown agent", ErrNoSuchAgent
	}
	hierarchy := o.chart.hierarchy(ev.AgentID, 0)
	budget := o.ledger.budget[ev.AgentID]
	cost := o.ledger.runningCost[ev.AgentID]
	status := o.ledger.status[ev.AgentID]

	text := fmt.Sprintf(
		"Agent %s (id=%d, role=%s)\nStatus: %s\nBudget: %d\nRunning cost: %d\nStaff:\n%s",
		a.Name, a.ID, a.Role, status, budget, cost, hierarchy,
	)
	if budget < 0 {
		text += "\nWARNING: budget is negative. You are operating at a loss.\n"
	}
	return text, nil
}

// handleCalculateOperatingCost implements §4.3 recompute_running_cost /
// §4.6's cost step, bounded by the per-call timeout (§4.6, §8 S6).
func (o *Organization) handleCalculateOperatingCost(ctx context.Context, ev *Event) (any, error) {
	cost, err := o.ledger.recomputeRunningCost(ctx, o.chart, ev.AgentID, o.costTimeoutOrDefault())
	if err != nil {
		// Timeout policy (§7): return the sentinel diagnostic value, the
		// event still completes successfully rather than failing.
		return ErrCostTimeout.Error(), nil
	}
	return cost, nil
}
