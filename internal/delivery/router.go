// Package delivery decides the initial status of every message, persists it
// and fans it out to the live connections that should see it. Pushes only
// ever follow a confirmed append: a message that failed to persist is never
// shown to anyone.
package delivery

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"courier/server/internal/event"
	"courier/server/internal/group"
	"courier/server/internal/models"
	"courier/server/internal/presence"
	"courier/server/internal/store"
)

// ErrInvalidRequest marks a malformed send rejected before touching the store.
var ErrInvalidRequest = errors.New("delivery: invalid request")

// ErrNotMember rejects a group send from a non-member.
var ErrNotMember = errors.New("delivery: sender is not a group member")

// SendRequest is one client-originated send. Exactly one of Recipient or
// GroupID must be set.
type SendRequest struct {
	Sender    string      `json:"sender"`
	Recipient string      `json:"recipient"`
	GroupID   string      `json:"groupId"`
	Body      string      `json:"body"`
	Kind      models.Kind `json:"kind"`
}

// Router routes sends: liveness lookup, status decision, append, fan-out,
// sender acknowledgment.
type Router struct {
	store  store.MessageStore
	reg    *presence.Registry
	groups group.Service
	log    *zap.SugaredLogger
}

// NewRouter wires the router to its collaborators.
func NewRouter(st store.MessageStore, reg *presence.Registry, groups group.Service, log *zap.SugaredLogger) *Router {
	return &Router{store: st, reg: reg, groups: groups, log: log}
}

// Send validates req, appends the message with its computed initial status
// and pushes it to every live recipient connection, then acknowledges the
// sender's own connection with the persisted record. The record is also
// returned so an HTTP caller gets the same acknowledgment in the response.
//
// Exactly one append happens per call. On append failure nothing is pushed
// and the error is returned, so the sender always learns the outcome.
func (r *Router) Send(ctx context.Context, req SendRequest) (models.Message, error) {
	if err := validate(&req); err != nil {
		return models.Message{}, err
	}

	if req.GroupID != "" {
		return r.sendGroup(ctx, req)
	}
	return r.sendDirect(ctx, req)
}

func (r *Router) sendDirect(ctx context.Context, req SendRequest) (models.Message, error) {
	// Liveness decides the initial status: Delivered if the recipient has a
	// live connection right now, Sent otherwise. There is no retroactive
	// replay to sockets that connect later; they catch up via history.
	target, online := r.reg.Lookup(req.Recipient)

	status := models.StatusSent
	if online {
		status = models.StatusDelivered
	}

	msg, err := r.store.Append(ctx, store.AppendRequest{
		Sender:    req.Sender,
		Recipient: req.Recipient,
		Kind:      req.Kind,
		Body:      req.Body,
		Status:    status,
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("send %s -> %s: %w", req.Sender, req.Recipient, err)
	}

	if online {
		target.Send(event.NewMessage(msg))
	}
	r.ackSender(msg)
	r.log.Debugw("message routed", "id", msg.ID, "sender", msg.Sender,
		"recipient", msg.Recipient, "status", msg.Status.String())
	return msg, nil
}

func (r *Router) sendGroup(ctx context.Context, req SendRequest) (models.Message, error) {
	members, err := r.groups.Members(ctx, req.GroupID)
	if err != nil {
		return models.Message{}, fmt.Errorf("resolve group %s: %w", req.GroupID, err)
	}

	sender := false
	liveOthers := []presence.Handle{}
	for _, m := range members {
		if m == req.Sender {
			sender = true
			continue
		}
		if h, ok := r.reg.Lookup(m); ok {
			liveOthers = append(liveOthers, h)
		}
	}
	if !sender {
		return models.Message{}, ErrNotMember
	}

	status := models.StatusSent
	if len(liveOthers) > 0 {
		status = models.StatusDelivered
	}

	gid := req.GroupID
	msg, err := r.store.Append(ctx, store.AppendRequest{
		Sender:  req.Sender,
		GroupID: &gid,
		Kind:    req.Kind,
		Body:    req.Body,
		Status:  status,
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("send %s -> group %s: %w", req.Sender, req.GroupID, err)
	}

	ev := event.NewMessage(msg)
	for _, h := range liveOthers {
		h.Send(ev)
	}
	r.ackSender(msg)
	r.log.Debugw("group message routed", "id", msg.ID, "sender", msg.Sender,
		"group", req.GroupID, "live", len(liveOthers), "status", msg.Status.String())
	return msg, nil
}

// ackSender echoes the persisted message to the sender's live connection so
// the client can reconcile its optimistic copy with the authoritative id,
// status and timestamp. An offline sender (HTTP send, socket gone) gets the
// same record in the response instead.
func (r *Router) ackSender(msg models.Message) {
	if h, ok := r.reg.Lookup(msg.Sender); ok {
		h.Send(event.Ack(msg))
	}
}

func validate(req *SendRequest) error {
	if req.Sender == "" {
		return fmt.Errorf("%w: missing sender", ErrInvalidRequest)
	}
	if req.Body == "" {
		return fmt.Errorf("%w: missing body", ErrInvalidRequest)
	}
	if req.Recipient == "" && req.GroupID == "" {
		return fmt.Errorf("%w: missing recipient", ErrInvalidRequest)
	}
	if req.Recipient != "" && req.GroupID != "" {
		return fmt.Errorf("%w: recipient and group are mutually exclusive", ErrInvalidRequest)
	}
	if req.Recipient == req.Sender {
		return fmt.Errorf("%w: cannot message yourself", ErrInvalidRequest)
	}
	if req.Kind == "" {
		req.Kind = models.KindText
	}
	if !models.ValidKind(req.Kind) {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, req.Kind)
	}
	return nil
}
