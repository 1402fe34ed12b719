package org

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// LoopState represents the execution state of a spawned agent loop.
type LoopState int32

const (
	LoopPending LoopState = iota
	LoopRunning
	LoopCompleted
	LoopFailed
	LoopCancelled
)

func (s LoopState) String() string {
	switch s {
	case LoopPending:
		return "pending"
	case LoopRunning:
		return "running"
	case LoopCompleted:
		return "completed"
	case LoopFailed:
		return "failed"
	case LoopCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (s LoopState) IsTerminal() bool {
	return s == LoopCompleted || s == LoopFailed || s == LoopCancelled
}

// SpawnOption configures Spawn.
type SpawnOption func(*spawnConfig)

type spawnConfig struct {
	logger *slog.Logger
}

// SpawnLogger sets the structured logger for loop lifecycle events.
func SpawnLogger(l *slog.Logger) SpawnOption {
	return func(c *spawnConfig) { c.logger = l }
}

// AgentHandle tracks one agent's cooperative loop goroutine (§4.7
// Controller.start spawns one per agent; §4.7 shutdown waits on every
// handle before draining the queue). All methods are safe for concurrent use.
type AgentHandle struct {
	agentID int64
	state   atomic.Int32
	err     error
	done    chan struct{}
	cancel  context.CancelFunc
}

// Spawn launches an agent's Loop.Run in a background goroutine. Returns
// immediately with a handle for tracking, awaiting, and cancelling.
// Cancelling ctx (or calling Cancel) makes Loop.Run return ctx's error at
// its next tick wait or from an in-flight event submission; it does not
// set Terminated on the underlying agent.
func Spawn(ctx context.Context, l *Loop, opts ...SpawnOption) *AgentHandle {
	var cfg spawnConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	logger := cfg.logger

	ctx, cancel := context.WithCancel(ctx)
	h := &AgentHandle{
		agentID: l.AgentID(),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	h.state.Store(int32(LoopPending))

	logger.Info("agent loop spawned", "agent_id", h.agentID)

	go func() {
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				logger.Error("agent loop panic", "agent_id", h.agentID, "panic", fmt.Sprintf("%v", p))
				h.err = fmt.Errorf("agent loop panic: %v", p)
				h.state.Store(int32(LoopFailed))
				close(h.done)
			}
		}()
		h.state.Store(int32(LoopRunning))
		start := time.Now()
		err := l.Run(ctx)

		h.err = err
		switch {
		case ctx.Err() != nil:
			h.state.Store(int32(LoopCancelled))
			logger.Info("agent loop cancelled", "agent_id", h.agentID, "duration", time.Since(start))
		case err != nil:
			h.state.Store(int32(LoopFailed))
			logger.Error("agent loop failed", "agent_id", h.agentID, "error", err, "duration", time.Since(start))
		default:
			h.state.Store(int32(LoopCompleted))
			logger.Info("agent loop completed", "agent_id", h.agentID, "duration", time.Since(start))
		}
		close(h.done)
	}()

	return h
}

func (h *AgentHandle) AgentID() int64 { return h.agentID }

// State returns the current state. If terminal, State blocks briefly on
// Done() to guarantee Result() is valid once IsTerminal() is true.
func (h *AgentHandle) State() LoopState {
	s := LoopState(h.state.Load())
	if s.IsTerminal() {
		<-h.done
	}
	return s
}

// Done returns a channel closed when the loop exits in any terminal state.
func (h *AgentHandle) Done() <-chan struct{} { return h.done }

// Await blocks until the loop exits or ctx is cancelled.
func (h *AgentHandle) Await(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel requests cancellation. Non-blocking.
func (h *AgentHandle) Cancel() { h.cancel() }
