// Package ws is the websocket transport: it binds connections to the
// presence registry and turns inbound frames into calls on the delivery
// router and receipt coordinator.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"courier/server/internal/delivery"
	"courier/server/internal/event"
	"courier/server/internal/group"
	"courier/server/internal/presence"
	"courier/server/internal/profile"
	"courier/server/internal/receipt"
	"courier/server/internal/store"
)

// Hub owns connection lifecycle and inbound dispatch.
type Hub struct {
	reg      *presence.Registry
	router   *delivery.Router
	receipts *receipt.Coordinator
	store    store.MessageStore
	profiles profile.Service
	groups   group.Service
	log      *zap.SugaredLogger
}

func NewHub(reg *presence.Registry, router *delivery.Router, receipts *receipt.Coordinator,
	st store.MessageStore, profiles profile.Service, groups group.Service, log *zap.SugaredLogger) *Hub {
	return &Hub{reg: reg, router: router, receipts: receipts, store: st, profiles: profiles, groups: groups, log: log}
}

// inbound is one client frame. Payload stays raw until the type is known.
type inbound struct {
	Type    event.Type      `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type markReadPayload struct {
	Sender string `json:"sender"`
}

// HandleConn runs one connection to completion. The identity was verified by
// the auth middleware before the upgrade; the hub trusts it.
func (h *Hub) HandleConn(conn *websocket.Conn, username string) {
	client := newClient(username, conn, h)

	if superseded := h.reg.Join(username, client); superseded != nil {
		// Last join wins. The registry already stopped routing to the old
		// handle; closing its queue ends its write pump.
		if old, ok := superseded.(*Client); ok {
			old.closeSend()
		}
	}

	ctx := context.Background()
	if err := h.profiles.Ensure(ctx, username); err != nil {
		h.log.Errorw("ensure profile", "user", username, "err", err)
	}
	if err := h.profiles.Touch(ctx, username, true); err != nil {
		h.log.Errorw("touch profile", "user", username, "err", err)
	}
	h.broadcastPresence(ctx, username, true)
	h.log.Infow("client connected", "user", username, "conn", client.ID())

	go client.writePump()
	client.readPump() // blocks until the connection closes
}

// drop handles a disconnect. The handle-match inside Leave makes a stale
// disconnect for a superseded connection a no-op, so it never evicts the
// newer one or flips the user offline.
func (h *Hub) drop(c *Client) {
	if !h.reg.Leave(c.username, c.connID) {
		c.closeSend()
		return
	}
	c.closeSend()

	ctx := context.Background()
	if err := h.profiles.Touch(ctx, c.username, false); err != nil {
		h.log.Errorw("touch profile", "user", c.username, "err", err)
	}
	h.broadcastPresence(ctx, c.username, false)
	h.log.Infow("client disconnected", "user", c.username, "conn", c.connID)
}

// broadcastPresence tells everyone who shares a conversation with identity
// that they went online or offline.
func (h *Hub) broadcastPresence(ctx context.Context, identity string, online bool) {
	heads, err := h.store.ConversationHeads(ctx, identity)
	if err != nil {
		h.log.Errorw("presence fan-out", "user", identity, "err", err)
		return
	}
	interested := make(map[string]bool, len(heads))
	for _, head := range heads {
		interested[head.Counterpart] = true
	}
	if len(interested) == 0 {
		return
	}

	h.reg.Broadcast(func(id string) bool { return interested[id] },
		event.New(event.TypePresence, event.PresencePayload{
			Identity: identity,
			Online:   online,
			LastSeen: time.Now(),
		}))
}

// dispatch routes one inbound frame.
func (h *Hub) dispatch(c *Client, in inbound) {
	ctx := context.Background()

	switch in.Type {
	case event.TypeSendMessage:
		var req delivery.SendRequest
		if err := json.Unmarshal(in.Payload, &req); err != nil {
			h.sendError(c, "bad_payload", "could not parse send payload")
			return
		}
		req.Sender = c.username // never trust the frame's sender
		if _, err := h.router.Send(ctx, req); err != nil {
			h.sendError(c, sendErrorCode(err), err.Error())
		}
		// success acks arrive through the router's sender echo

	case event.TypeMarkRead:
		var p markReadPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil || p.Sender == "" {
			h.sendError(c, "bad_payload", "mark_read needs a sender")
			return
		}
		if _, err := h.receipts.MarkRead(ctx, c.username, p.Sender); err != nil {
			h.sendError(c, "store_unavailable", "could not mark messages read")
		}

	case event.TypeTypingStart, event.TypeTypingStop:
		h.relayTyping(c, in)

	default:
		h.log.Debugw("unknown frame type", "user", c.username, "type", in.Type)
	}
}

// relayTyping forwards a typing indicator to the direct counterpart or to
// the group's other live members. Typing state is transient and never
// persisted.
func (h *Hub) relayTyping(c *Client, in inbound) {
	var p event.TypingPayload
	if err := json.Unmarshal(in.Payload, &p); err != nil {
		return
	}
	p.Identity = c.username

	if p.GroupID != "" {
		members, err := h.groups.Members(context.Background(), p.GroupID)
		if err != nil {
			return
		}
		ev := event.New(in.Type, p)
		for _, m := range members {
			if m == c.username {
				continue
			}
			if target, ok := h.reg.Lookup(m); ok {
				target.Send(ev)
			}
		}
		return
	}

	if p.Counterpart == "" {
		return
	}
	if target, ok := h.reg.Lookup(p.Counterpart); ok {
		target.Send(event.New(in.Type, p))
	}
}

func (h *Hub) sendError(c *Client, code, msg string) {
	c.Send(event.New(event.TypeError, event.ErrorPayload{Code: code, Message: msg}))
}

func sendErrorCode(err error) string {
	switch {
	case errors.Is(err, delivery.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, delivery.ErrNotMember):
		return "not_a_member"
	case errors.Is(err, store.ErrUnavailable):
		return "store_unavailable"
	}
	return "send_failed"
}
