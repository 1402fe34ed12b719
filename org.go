package org

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Organization is the root aggregate: name, goal, initial budget, id
// counters, the chart, the ledger, the message center (§3 Organization
// record). It owns the single write lock every mutating handler acquires
// (§5). Organization itself never starts goroutines — that is
// Controller's job.
type Organization struct {
	mu sync.Mutex

	Name          string
	Goal          string
	InitialBudget int64
	WorkspaceRoot string
	UnitCost      int64
	CostTimeout   time.Duration

	chart         *chart
	ledger        *ledger
	messages      *messageCenter
	agentIDs      *idCounter
	messageIDs    *idCounter

	dispatcher *Dispatcher
	logger     *slog.Logger
	tracer     Tracer
}

// Agents returns a snapshot of every agent currently on the chart,
// terminated or not, for callers that need to inspect the roster (e.g.
// wiring a per-agent memory store before Start).
func (o *Organization) Agents() []*Agent {
	o.mu.Lock()
	defer o.mu.Unlock()
	agents := make([]*Agent, 0, len(o.chart.agents))
	for _, a := range o.chart.agents {
		agents = append(agents, a)
	}
	return agents
}

func (o *Organization) isTerminated(agentID int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	a, ok := o.chart.agent(agentID)
	return ok && a.Terminated
}

// handle dispatches ev to the appropriate component handler (§4.5 step
// 3). The caller must already hold o.mu.
func (o *Organization) handle(ctx context.Context, ev *Event) (any, error) {
	ctx, span := o.startSpan(ctx, string(ev.Kind), IntAttr("agent_id", int(ev.AgentID)))
	defer span.End()

	switch ev.Kind {
	case EventHireStaff:
		return o.handleHireStaff(ev)
	case EventFireStaff:
		return o.handleFireStaff(ev)
	case EventMessageAgent:
		return o.handleMessageAgent(ev)
	case EventRespondToMessage:
		return o.handleRespondToMessage(ev)
	case EventGetInbox:
		return o.handleGetInbox(ev)
	case EventGetConversationHistory:
		return o.handleGetConversationHistory(ev)
	case EventUpdateAgentStatus:
		return o.handleUpdateAgentStatus(ev)
	case EventUpdateAgentBudget:
		return o.handleUpdateAgentBudget(ev)
	case EventUpdateAgentRunningCost:
		return o.handleUpdateAgentRunningCost(ev)
	case EventBuildStatusUpdate:
		return o.handleBuildStatusUpdate(ev)
	case EventCalculateOperatingCost:
		return o.handleCalculateOperatingCost(ctx, ev)
	case EventGetSupervisor:
		return o.handleGetSupervisor(ev)
	case EventSetUnitCost:
		return o.handleSetUnitCost(ev)
	default:
		span.Error(ErrUnknownEventKind)
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventKind, ev.Kind)
	}
}

func (o *Organization) startSpan(ctx context.Context, name string, attrs ...SpanAttr) (context.Context, Span) {
	if o.tracer == nil {
		return ctx, noopSpan{}
	}
	return o.tracer.Start(ctx, name, attrs...)
}

func argInt64(args map[string]any, key string) (int64, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func argString(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func argInt(args map[string]any, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}
