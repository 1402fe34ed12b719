// Package org implements the Organization Runtime: a concurrent substrate
// that hosts a hierarchy of autonomous language-model agents.
//
// Agents are organized into a supervisor→staff forest (the org chart), each
// with its own budget and running cost (the budget ledger), and exchange
// addressed messages through a supervisor-priority inbox (the message
// center). Every mutation of this shared state — hiring, firing, sending a
// message, updating a budget — flows through a single-consumer event queue
// and dispatcher, which serializes writes and persists the resulting state
// to disk after every successful mutation.
//
// # Quick start
//
//	founder := &org.Agent{Name: "Elon", Role: "CEO", Goals: []string{"ship the thing"}}
//	ctrl, _ := org.CreateOrganization("./workspaces", "acme", "ship the thing", 1000, 0, founder, cfg)
//	ctrl.Start(ctx, nil)
//	defer ctrl.Shutdown(context.Background())
//
// # Core interfaces
//
// The root package depends on exactly four external contracts, each
// narrow by design:
//
//   - [Provider] — the language model client (chat(messages, model, max_tokens) → string)
//   - [JSONRepair] — the reply parser (parse(reply) → structured or empty)
//   - [Tool] / [ToolRegistry] — the command/tool catalog
//   - [MemoryStore] — per-agent long-term memory
//
// Implementations of each ship alongside the core (provider/openaicompat,
// internal/repair, tools/file, tools/shell, tools/http, store/sqlite) but no file in this
// package imports any of them — the dependency points the other way.
//
// # Components
//
// Each agent runs an independent cooperative [Loop] (see loop.go); loops
// submit [Event] values to a single-consumer [Dispatcher] (events.go) that
// serializes all mutations of the org chart (chart.go), the budget ledger
// (budget.go), and the message center (messages.go), persisting the result
// after every mutation (persist.go). The [Controller] (controller.go) owns
// the dispatcher and one goroutine per agent loop, and implements
// create/load/start/shutdown. The [CommandBridge] (commandbridge.go)
// exposes org-affecting operations to agents as tool calls and forwards
// everything else to the registered tool catalog.
package org
