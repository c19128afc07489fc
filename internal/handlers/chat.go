package handlers

import "github.com/gofiber/fiber/v2"

// GetChats returns the caller's conversation list: one row per counterpart
// or group with the last message, unread count, presence and avatar, newest
// first. Recomputed on every request from the message store.
func (a *API) GetChats(c *fiber.Ctx) error {
	chats, err := a.Projector.ListConversations(c.Context(), username(c))
	if err != nil {
		a.Log.Errorw("get chats", "err", err)
		return fail(c, fiber.StatusServiceUnavailable, "Could not load chats")
	}
	return ok(c, chats)
}
