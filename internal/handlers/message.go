package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"courier/server/internal/delivery"
	"courier/server/internal/group"
	"courier/server/internal/store"
)

// MarkReadRequest marks every message from Sender to the caller as read.
type MarkReadRequest struct {
	Sender string `json:"sender"`
}

// SendMessage sends a direct or group message. The response body carries the
// persisted record with its store-assigned id, status and timestamp, the same
// acknowledgment a live sender connection receives as a push.
func (a *API) SendMessage(c *fiber.Ctx) error {
	var req delivery.SendRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Sender = username(c)

	msg, err := a.Router.Send(c.Context(), req)
	switch {
	case errors.Is(err, delivery.ErrInvalidRequest):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, delivery.ErrNotMember):
		return fail(c, fiber.StatusForbidden, "You are not a member of this group")
	case errors.Is(err, group.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Group not found")
	case errors.Is(err, store.ErrUnavailable):
		return fail(c, fiber.StatusServiceUnavailable, "Message was not sent, please retry")
	case err != nil:
		a.Log.Errorw("send message", "err", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to send message")
	}
	return created(c, msg)
}

// GetHistory returns the direct conversation with :counterpart, ascending by
// id, filtered to what the caller may still see.
func (a *API) GetHistory(c *fiber.Ctx) error {
	counterpart := c.Params("counterpart")
	if counterpart == "" {
		return fail(c, fiber.StatusBadRequest, "Counterpart is required")
	}

	msgs, err := a.Store.RangeByConversation(c.Context(), username(c), counterpart, nil)
	if err != nil {
		a.Log.Errorw("get history", "err", err)
		return fail(c, fiber.StatusServiceUnavailable, "Could not load messages")
	}
	return ok(c, msgs)
}

// GetGroupHistory returns a group's conversation. Members only.
func (a *API) GetGroupHistory(c *fiber.Ctx) error {
	groupID := c.Params("groupId")
	user := username(c)

	member, err := a.Groups.IsMember(c.Context(), groupID, user)
	if err != nil {
		a.Log.Errorw("group membership check", "err", err)
		return fail(c, fiber.StatusInternalServerError, "Could not check membership")
	}
	if !member {
		return fail(c, fiber.StatusForbidden, "You are not a member of this group")
	}

	msgs, err := a.Store.RangeByConversation(c.Context(), user, "", &groupID)
	if err != nil {
		a.Log.Errorw("get group history", "err", err)
		return fail(c, fiber.StatusServiceUnavailable, "Could not load messages")
	}
	return ok(c, msgs)
}

// GetMessage looks up one message by id. Only the two parties may see it,
// and only while it is still visible on their side.
func (a *API) GetMessage(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid message id")
	}

	msg, err := a.Store.GetByID(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Message not found")
	}
	if err != nil {
		a.Log.Errorw("get message", "err", err)
		return fail(c, fiber.StatusServiceUnavailable, "Could not load message")
	}
	if !msg.VisibleTo(username(c)) {
		return fail(c, fiber.StatusNotFound, "Message not found")
	}
	return ok(c, msg)
}

// MarkRead marks all messages from a sender to the caller as read and
// notifies the sender if they are online. Safe to repeat; a second call
// changes nothing and sends nothing.
func (a *API) MarkRead(c *fiber.Ctx) error {
	var req MarkReadRequest
	if err := c.BodyParser(&req); err != nil || req.Sender == "" {
		return fail(c, fiber.StatusBadRequest, "Sender is required")
	}

	changed, err := a.Receipts.MarkRead(c.Context(), username(c), req.Sender)
	if err != nil {
		a.Log.Errorw("mark read", "err", err)
		return fail(c, fiber.StatusServiceUnavailable, "Could not mark messages read, please retry")
	}
	return ok(c, fiber.Map{"updatedCount": changed})
}

// DeleteConversation hides the caller's side of the conversation with
// :counterpart. The counterpart's history is untouched.
func (a *API) DeleteConversation(c *fiber.Ctx) error {
	counterpart := c.Params("counterpart")
	if counterpart == "" {
		return fail(c, fiber.StatusBadRequest, "Counterpart is required")
	}

	if err := a.Store.SetVisibility(c.Context(), username(c), counterpart, false); err != nil {
		a.Log.Errorw("delete conversation", "err", err)
		return fail(c, fiber.StatusServiceUnavailable, "Could not delete conversation")
	}
	return ok(c, fiber.Map{"deleted": counterpart})
}
