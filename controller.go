package org

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// ControllerConfig configures the pieces a Controller wires together:
// the queue depth for the dispatcher, and per-agent loop defaults shared
// by every spawned Loop. Provider, Repair and Tools (wrapped in one
// CommandBridge by the controller) are supplied once and reused across
// every agent; Memory, SystemPrompt and Model vary per
// loop only through LoopOverride.
type ControllerConfig struct {
	QueueDepth   int
	Provider     Provider
	Repair       JSONRepair
	Tools        *ToolRegistry
	Tracer       Tracer
	Logger       *slog.Logger
	SystemPrompt string
	Model        string
	MaxTokens    int
	TickInterval time.Duration
	MaxLoopCount int

	// CostCalculator and USDPerUnit opt every spawned loop into the
	// USD-derived billing mode (SPEC_FULL §12); leave CostCalculator nil
	// to keep the organization's fixed unit cost.
	CostCalculator *CostCalculator
	USDPerUnit     float64
}

// LoopOverride customizes one agent's loop beyond ControllerConfig's
// shared defaults — most commonly a per-agent MemoryStore.
type LoopOverride func(*LoopConfig)

// Controller owns an Organization's full runtime lifecycle: construction
// or reload from disk, starting the dispatcher and one loop per agent,
// and a coordinated shutdown sequence (§4.7).
type Controller struct {
	org        *Organization
	dispatcher *Dispatcher
	bridge     *CommandBridge
	cfg        ControllerConfig

	handles []*AgentHandle
	group   *errgroup.Group
	groupCtx context.Context
	cancel  context.CancelFunc
}

// CreateOrganization constructs a brand-new organization with a single
// founder agent, persists it immediately, and returns a Controller ready
// for Start (§4.7 create).
func CreateOrganization(workspaceRoot, name, goal string, initialBudget, unitCost int64, founder *Agent, cfg ControllerConfig) (*Controller, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	o := &Organization{
		Name:          name,
		Goal:          goal,
		InitialBudget: initialBudget,
		WorkspaceRoot: workspaceRoot,
		chart:         newChart(),
		ledger:        newLedger(unitCost),
		messages:      newMessageCenter(),
		agentIDs:      newIDCounter(0),
		messageIDs:    newIDCounter(0),
		logger:        cfg.Logger,
		tracer:        cfg.Tracer,
	}
	founder.ID = o.agentIDs.next()
	o.chart.addFounder(founder)
	o.ledger.initAgent(founder.ID, initialBudget)

	c := newController(o, cfg)
	o.mu.Lock()
	err := o.persistLocked()
	o.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}
	return c, nil
}

// LoadController reconstructs a Controller from the organization's
// on-disk snapshot (§4.7 load). The returned organization's loops are not
// started; call Start to spawn them.
func LoadController(workspaceRoot, name string, unitCost int64, cfg ControllerConfig) (*Controller, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	o, err := LoadOrganization(workspaceRoot, name, unitCost)
	if err != nil {
		return nil, err
	}
	o.logger = cfg.Logger
	o.tracer = cfg.Tracer
	return newController(o, cfg), nil
}

func newController(o *Organization, cfg ControllerConfig) *Controller {
	d := NewDispatcher(o, cfg.QueueDepth, cfg.Logger)
	bridge := NewCommandBridge(d, cfg.Tools)
	return &Controller{org: o, dispatcher: d, bridge: bridge, cfg: cfg}
}

// Organization exposes the underlying organization for read-only
// inspection (e.g. a status command); mutation must go through events.
func (c *Controller) Organization() *Organization { return c.org }

// Start runs the dispatcher goroutine under an errgroup and spawns one
// Loop per non-terminated agent through Spawn, keeping each AgentHandle
// (§4.7 start). A loop panic is recovered by its handle and reported when
// Shutdown awaits the handle, not through the errgroup. overrides customizes
// individual agents' loops by id; agents absent from the map use
// ControllerConfig's shared defaults untouched.
func (c *Controller) Start(ctx context.Context, overrides map[int64]LoopOverride) {
	ctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)
	c.groupCtx = gctx
	c.cancel = cancel
	c.group = group

	group.Go(func() error {
		c.dispatcher.Run(gctx)
		return nil
	})

	c.org.mu.Lock()
	agents := make([]*Agent, 0, len(c.org.chart.agents))
	for _, a := range c.org.chart.agents {
		if !a.Terminated {
			agents = append(agents, a)
		}
	}
	c.org.mu.Unlock()

	for _, a := range agents {
		lc := LoopConfig{
			Agent:        a,
			Dispatcher:   c.dispatcher,
			Bridge:       c.bridge,
			Provider:     c.cfg.Provider,
			Repair:       c.cfg.Repair,
			SystemPrompt: c.cfg.SystemPrompt,
			Model:        c.cfg.Model,
			MaxTokens:    c.cfg.MaxTokens,
			TickInterval: c.cfg.TickInterval,
			MaxLoopCount: c.cfg.MaxLoopCount,
			Logger:       c.cfg.Logger,
			Tracer:       c.cfg.Tracer,

			CostCalculator: c.cfg.CostCalculator,
			USDPerUnit:     c.cfg.USDPerUnit,
		}
		if ov, ok := overrides[a.ID]; ok {
			ov(&lc)
		}
		loop := NewLoop(lc)
		h := Spawn(gctx, loop, SpawnLogger(c.cfg.Logger))
		c.handles = append(c.handles, h)
	}
}

// Shutdown implements §4.7 shutdown: mark every agent terminated, wait
// for each loop to observe it and exit, drain remaining queued events,
// then stop the dispatcher. Idempotent — calling it twice is safe, the
// second call simply observes everything already quiesced.
func (c *Controller) Shutdown(ctx context.Context) error {
	if c.dispatcher == nil {
		return nil
	}

	c.org.mu.Lock()
	for _, a := range c.org.chart.agents {
		a.Terminated = true
	}
	perr := c.org.persistLocked()
	c.org.mu.Unlock()
	if perr != nil {
		c.cfg.Logger.Error("persistence failed during shutdown", "err", perr)
	}

	for _, h := range c.handles {
		if err := h.Await(ctx); err != nil && ctx.Err() == nil {
			c.cfg.Logger.Warn("agent loop exited with error during shutdown", "agent_id", h.AgentID(), "err", err)
		}
	}

	c.dispatcher.awaitQuiescence(ctx, 20*time.Millisecond)
	c.dispatcher.Stop()

	if c.cancel != nil {
		c.cancel()
	}
	if c.group != nil {
		return c.group.Wait()
	}
	return nil
}
