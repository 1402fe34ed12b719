package org

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// JSONRepair is the external JSON repair/validator contract (§6):
// parse(reply) → structured or {}. Implementations must never panic or
// return an error for malformed input — a failed parse is signalled by
// returning the zero ParsedReply, which the loop treats as
// ModelOutputInvalid (§7): command execution is skipped for the iteration.
type JSONRepair interface {
	Parse(reply string) ParsedReply
}

// HistoryEntry is one line of an agent's full message history, appended
// after each loop iteration's outcome.
type HistoryEntry struct {
	Role    string
	Content string
}

// LoopConfig configures a single agent's cooperative loop.
type LoopConfig struct {
	Agent         *Agent
	Dispatcher    *Dispatcher
	Bridge        *CommandBridge
	Provider      Provider
	Repair        JSONRepair
	Memory        MemoryStore // optional; nil disables memory lookups
	SystemPrompt  string
	Model         string
	MaxTokens     int
	TickInterval  time.Duration // default 1s, matching the original's await asyncio.sleep(1)
	MaxLoopCount  int           // 0 = unbounded ("continuous mode" step limit, §6)
	Logger        *slog.Logger
	Tracer        Tracer

	// CostCalculator and USDPerUnit together enable the USD-derived
	// billing mode (SPEC_FULL §12): when both are set, each iteration
	// feeds the unit cost for the NEXT calculate_operating_cost_of_agent
	// walk from the model's reported Usage instead of leaving the
	// organization's fixed DefaultUnitCost in place. Nil/zero disables
	// it, matching the original's single fixed per-iteration cost.
	CostCalculator *CostCalculator
	USDPerUnit     float64
}

// Loop is one agent's independent cooperative task (§4.6).
type Loop struct {
	cfg     LoopConfig
	history []HistoryEntry
}

// NewLoop constructs a Loop from cfg, filling in defaults.
func NewLoop(cfg LoopConfig) *Loop {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Loop{cfg: cfg}
}

func (l *Loop) AgentID() int64 { return l.cfg.Agent.ID }

// Run executes the loop body of §4.6 until the agent is terminated, ctx
// is cancelled, or MaxLoopCount is reached. It never returns a non-nil
// error for ordinary operation — only ctx cancellation propagates as an
// error, matching §7's "nothing inside a running loop is fatal."
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()

	for {
		if l.cfg.Agent.Terminated {
			return nil
		}
		if l.cfg.MaxLoopCount > 0 && l.cfg.Agent.LoopCount >= l.cfg.MaxLoopCount {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err := l.iterate(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.cfg.Logger.Error("agent loop iteration error", "agent_id", l.cfg.Agent.ID, "err", err)
			// Non-fatal: the loop continues to the next tick (§7).
		}
		l.cfg.Agent.LoopCount++
	}
}

// iterate runs exactly one pass of the §4.6 pseudocode. The ordering
// guarantee (billing precedes inbox read, which precedes the prompt) is
// enforced by the straight-line sequencing below — nothing here runs
// concurrently within one iteration.
func (l *Loop) iterate(ctx context.Context) error {
	ctx, span := l.startSpan(ctx, "agent_loop.iterate")
	defer span.End()

	agentID := l.cfg.Agent.ID
	d := l.cfg.Dispatcher

	costVal, err := d.Submit(ctx, agentID, EventCalculateOperatingCost, nil)
	if err != nil {
		return fmt.Errorf("calculate_operating_cost_of_agent: %w", err)
	}
	cost, costIsNumber := costVal.(int64)
	if !costIsNumber {
		// The handler returned the timeout diagnostic string rather than
		// a number (§7 Timeout policy); bill nothing this iteration.
		cost = 0
	}

	if _, err := d.Submit(ctx, agentID, EventUpdateAgentRunningCost, map[string]any{"cost": cost}); err != nil {
		return fmt.Errorf("update_agent_running_cost: %w", err)
	}
	if _, err := d.Submit(ctx, agentID, EventUpdateAgentBudget, map[string]any{"amount": cost}); err != nil {
		return fmt.Errorf("update_agent_budget: %w", err)
	}

	inboxVal, err := d.Submit(ctx, agentID, EventGetInbox, nil)
	if err != nil {
		return fmt.Errorf("get_inbox: %w", err)
	}
	inbox, _ := inboxVal.(string)

	statusVal, err := d.Submit(ctx, agentID, EventBuildStatusUpdate, nil)
	if err != nil {
		return fmt.Errorf("build_status_update: %w", err)
	}
	statusCtx, _ := statusVal.(string)

	var recalled []string
	if l.cfg.Memory != nil {
		recalled, _ = l.cfg.Memory.GetRelevant(ctx, inbox, 5)
	}

	prompt := l.compose(statusCtx, inbox, recalled)

	resp, err := l.cfg.Provider.Chat(ctx, ChatRequest{
		Messages:  prompt,
		Model:     l.cfg.Model,
		MaxTokens: l.cfg.MaxTokens,
	})
	if err != nil {
		span.Error(err)
		l.history = append(l.history, HistoryEntry{Role: "system", Content: "model call failed: " + err.Error()})
		return nil // ToolFailure-equivalent for the model call: logged, loop continues (§7)
	}

	if l.cfg.CostCalculator != nil {
		unit := l.cfg.CostCalculator.UnitCost(l.cfg.Model, resp.Usage, l.cfg.USDPerUnit)
		if _, err := d.Submit(ctx, agentID, EventSetUnitCost, map[string]any{"cost": unit}); err != nil {
			return fmt.Errorf("set_unit_cost: %w", err)
		}
	}

	parsed := l.cfg.Repair.Parse(resp.Content)
	l.printThoughts(parsed.Thoughts)

	if _, err := d.Submit(ctx, agentID, EventUpdateAgentStatus, map[string]any{"status": parsed.Thoughts.NextStatus}); err != nil {
		return fmt.Errorf("update_agent_status: %w", err)
	}

	if parsed.IsEmpty() {
		// ModelOutputInvalid (§7): skip command execution, loop continues.
		l.history = append(l.history, HistoryEntry{Role: "assistant", Content: resp.Content})
		return nil
	}

	result := l.cfg.Bridge.Execute(ctx, agentID, parsed.Command)
	l.history = append(l.history, HistoryEntry{Role: "system", Content: result})

	if l.cfg.Memory != nil {
		_ = l.cfg.Memory.Add(ctx, fmt.Sprintf("command %s -> %s", parsed.Command.Name, result))
	}

	return nil
}

// compose assembles the prompt from the loop's static configuration and
// the dynamic context fetched this iteration, matching §4.6's
// compose(system_prompt, goals, status_ctx, inbox).
func (l *Loop) compose(statusCtx, inbox string, recalled []string) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(l.history)+4)
	msgs = append(msgs, SystemMessage(l.cfg.SystemPrompt))
	msgs = append(msgs, SystemMessage("Goals:\n- "+strings.Join(l.cfg.Agent.Goals, "\n- ")))
	msgs = append(msgs, SystemMessage(statusCtx))
	if len(recalled) > 0 {
		msgs = append(msgs, SystemMessage("Relevant memory:\n- "+strings.Join(recalled, "\n- ")))
	}
	msgs = append(msgs, UserMessage(inbox))
	for _, h := range l.history {
		msgs = append(msgs, ChatMessage{Role: h.Role, Content: h.Content})
	}
	return msgs
}

func (l *Loop) printThoughts(t Thoughts) {
	l.cfg.Logger.Info("agent thoughts", "agent_id", l.cfg.Agent.ID, "text", t.Text, "plan", t.Plan, "status", t.NextStatus)
}

func (l *Loop) startSpan(ctx context.Context, name string) (context.Context, Span) {
	if l.cfg.Tracer == nil {
		return ctx, noopSpan{}
	}
	return l.cfg.Tracer.Start(ctx, name, IntAttr("agent_id", int(l.cfg.Agent.ID)))
}
