package org

import (
	"fmt"
	"sort"
	"strings"
)

// messageCenter holds every message ever sent in the organization, keyed
// by id (§3 Message, §4.4). Like chart and ledger it assumes the caller
// holds the organization lock.
type messageCenter struct {
	byID map[int64]*Message
}

func newMessageCenter() *messageCenter {
	return &messageCenter{byID: make(map[int64]*Message)}
}

// send stores a new message, capturing from_supervisor at send time (M1).
func (mc *messageCenter) send(id, senderID, receiverID int64, body string, fromSupervisor bool, ts int64) *Message {
	m := &Message{
		ID:             id,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Body:           body,
		FromSupervisor: fromSupervisor,
		Timestamp:      ts,
	}
	mc.byID[id] = m
	return m
}

// respond implements §4.4 respond: validates the original message, then
// links it atomically to a new response message the caller has already
// allocated an id for. fromSupervisor is computed by the caller (it needs
// chart.isSupervisor, which messageCenter does not have) and passed in.
func (mc *messageCenter) respond(newID, originalID, responderID int64, body string, fromSupervisor bool, ts int64) (*Message, error) {
	orig, ok := mc.byID[originalID]
	if !ok {
		return nil, ErrNoSuchMessage
	}
	if responderID != orig.ReceiverID {
		return nil, ErrNotAddressee
	}
	if orig.ResponseID != nil {
		return nil, ErrAlreadyResponded
	}

	respToID := originalID
	resp := &Message{
		ID:             newID,
		SenderID:       responderID,
		ReceiverID:     orig.SenderID,
		Body:           body,
		FromSupervisor: fromSupervisor,
		ResponseToID:   &respToID,
		Timestamp:      ts,
	}
	mc.byID[newID] = resp

	respID := newID
	orig.ResponseID = &respID
	orig.Responded = true
	return resp, nil
}

func (mc *messageCenter) get(id int64) (*Message, bool) {
	m, ok := mc.byID[id]
	return m, ok
}

// inboxMessages returns the messages considered "in the inbox" for agent,
// in the rendered order of §4.4: supervisor-originated unresponded
// messages oldest-id-first, then other unresponded messages newest-id-first.
// Messages whose ResponseID is set are never included.
func (mc *messageCenter) inboxMessages(agent int64) []*Message {
	var fromSupervisor, rest []*Message
	for _, m := range mc.byID {
		if m.ReceiverID != agent || m.ResponseID != nil {
			continue
		}
		if m.FromSupervisor {
			fromSupervisor = append(fromSupervisor, m)
		} else {
			rest = append(rest, m)
		}
	}
	sort.Slice(fromSupervisor, func(i, j int) bool { return fromSupervisor[i].ID < fromSupervisor[j].ID })
	sort.Slice(rest, func(i, j int) bool { return rest[i].ID > rest[j].ID })
	return append(fromSupervisor, rest...)
}

// inboxMessageIDs returns just the ids of inboxMessages, in the same order.
func (mc *messageCenter) inboxMessageIDs(agent int64) []int64 {
	msgs := mc.inboxMessages(agent)
	ids := make([]int64, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	return ids
}

// renderInbox formats inboxMessages as the text an agent's prompt sees.
func (mc *messageCenter) renderInbox(agent int64) string {
	msgs := mc.inboxMessages(agent)
	if len(msgs) == 0 {
		return "Your inbox is empty."
	}
	var b strings.Builder
	for _, m := range msgs {
		origin := "peer"
		if m.FromSupervisor {
			origin = "supervisor"
		}
		fmt.Fprintf(&b, "[msg %d from %d (%s)]: %s\n", m.ID, m.SenderID, origin, m.Body)
	}
	b.WriteString("Use the respond_to_message command to reply to any of the above.\n")
	return b.String()
}

// conversation returns up to n messages exchanged between a and b
// (in either direction), ordered oldest-first for display (§4.4).
func (mc *messageCenter) conversation(a, b int64, n int) []*Message {
	var matched []*Message
	for _, m := range mc.byID {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			matched = append(matched, m)
		}
	}
	// Fetch newest-first internally, as §4.4 specifies, then reverse for display.
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	if n > 0 && len(matched) > n {
		matched = matched[:n]
	}
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	return matched
}

// renderConversation formats conversation() as prompt text.
func (mc *messageCenter) renderConversation(a, b int64, n int) string {
	msgs := mc.conversation(a, b, n)
	if len(msgs) == 0 {
		return "No prior conversation."
	}
	var buf strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&buf, "[%d] %d -> %d: %s\n", m.ID, m.SenderID, m.ReceiverID, m.Body)
	}
	return buf.String()
}
