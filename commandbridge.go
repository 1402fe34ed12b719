package org

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CommandBridge converts a ToolCall extracted from a model reply into
// either a Dispatcher event (for the fixed set of org-affecting
// commands, §4.8) or a ToolRegistry execution (everything else). Its
// Execute result is the string the agent loop appends to history and
// feeds back into the next prompt.
type CommandBridge struct {
	Dispatcher *Dispatcher
	Tools      *ToolRegistry
}

// NewCommandBridge constructs a bridge over d and tools. tools may be nil
// if no external tool catalog is configured.
func NewCommandBridge(d *Dispatcher, tools *ToolRegistry) *CommandBridge {
	if tools == nil {
		tools = NewToolRegistry()
	}
	return &CommandBridge{Dispatcher: d, Tools: tools}
}

// orgCommands names the fixed command set that the bridge handles
// directly by submitting an event, rather than forwarding to the tool
// catalog (§4.8).
var orgCommands = map[string]EventKind{
	"hire_staff":               EventHireStaff,
	"fire_staff":                EventFireStaff,
	"message_agent":             EventMessageAgent,
	"message_staff":             EventMessageAgent, // convenience alias: receiver is given as staff_id; the chart relation is not checked
	"message_supervisor":        EventMessageAgent, // convenience alias: receiver is resolved to the caller's supervisor
	"respond_to_message":        EventRespondToMessage,
	"get_conversation_history":  EventGetConversationHistory,
}

// Execute runs cmd on behalf of agentID and returns the text to surface
// back to that agent.
func (b *CommandBridge) Execute(ctx context.Context, agentID int64, cmd ToolCall) string {
	if cmd.Name == "" {
		return "no command given"
	}

	if kind, ok := orgCommands[cmd.Name]; ok {
		args, err := b.translateArgs(ctx, agentID, cmd)
		if err != nil {
			return fmt.Sprintf("cannot execute %s: %v", cmd.Name, err)
		}
		result, err := b.Dispatcher.Submit(ctx, agentID, kind, args)
		if err != nil {
			return fmt.Sprintf("%s failed: %v", cmd.Name, err)
		}
		return fmt.Sprintf("%v", result)
	}

	return b.executeTool(ctx, agentID, cmd)
}

// translateArgs maps a ToolCall's string-keyed args onto the typed event
// args each handler expects. message_staff takes its receiver from the
// staff_id arg; message_supervisor resolves the caller's supervisor
// through a get_supervisor event rather than reaching into chart state
// directly (the bridge has no lock of its own and must go through events
// for anything org-shaped).
func (b *CommandBridge) translateArgs(ctx context.Context, agentID int64, cmd ToolCall) (map[string]any, error) {
	args := make(map[string]any, len(cmd.Args))

	switch cmd.Name {
	case "hire_staff":
		args["supervisor"] = agentID
		args["name"] = cmd.Args["name"]
		args["role"] = cmd.Args["role"]
		args["workspace_dir"] = cmd.Args["workspace_dir"]
		if goals := cmd.Args["goals"]; goals != "" {
			args["goals"] = splitGoals(goals)
		}
		if budget, err := strconv.ParseInt(cmd.Args["budget"], 10, 64); err == nil {
			args["budget"] = budget
		}
		return args, nil

	case "fire_staff":
		target, err := strconv.ParseInt(cmd.Args["target"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid target: %w", err)
		}
		args["target"] = target
		return args, nil

	case "message_agent":
		receiver, err := strconv.ParseInt(cmd.Args["receiver"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid receiver: %w", err)
		}
		args["receiver"] = receiver
		args["body"] = cmd.Args["body"]
		return args, nil

	case "message_staff":
		receiver, err := strconv.ParseInt(cmd.Args["staff_id"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid staff_id: %w", err)
		}
		args["receiver"] = receiver
		args["body"] = cmd.Args["body"]
		return args, nil

	case "message_supervisor":
		supervisorID, err := b.supervisorOf(ctx, agentID)
		if err != nil {
			return nil, err
		}
		args["receiver"] = supervisorID
		args["body"] = cmd.Args["body"]
		return args, nil

	case "respond_to_message":
		msgID, err := strconv.ParseInt(cmd.Args["message_id"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid message_id: %w", err)
		}
		args["message_id"] = msgID
		args["body"] = cmd.Args["body"]
		return args, nil

	case "get_conversation_history":
		other, err := strconv.ParseInt(cmd.Args["other"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid other: %w", err)
		}
		args["other"] = other
		if n, err := strconv.Atoi(cmd.Args["n"]); err == nil {
			args["n"] = n
		}
		return args, nil
	}

	return args, nil
}

// supervisorOf resolves agentID's supervisor through a dedicated event
// rather than touching chart state from outside the dispatcher goroutine.
func (b *CommandBridge) supervisorOf(ctx context.Context, agentID int64) (int64, error) {
	v, err := b.Dispatcher.Submit(ctx, agentID, EventGetSupervisor, nil)
	if err != nil {
		return 0, err
	}
	id, ok := v.(int64)
	if !ok {
		return 0, ErrNoSuchAgent
	}
	return id, nil
}

func splitGoals(raw string) []string {
	parts := strings.Split(raw, ",")
	goals := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			goals = append(goals, p)
		}
	}
	return goals
}

func (b *CommandBridge) executeTool(ctx context.Context, agentID int64, cmd ToolCall) string {
	raw, err := json.Marshal(cmd.Args)
	if err != nil {
		return fmt.Sprintf("cannot encode arguments for %s: %v", cmd.Name, err)
	}
	result, err := b.Tools.Execute(ctx, cmd.Name, raw)
	if err != nil {
		return fmt.Sprintf("%s failed: %v", cmd.Name, err)
	}
	if result.Error != "" {
		return fmt.Sprintf("%s error: %s", cmd.Name, result.Error)
	}
	return result.Content
}
