package handlers

import (
	"github.com/gofiber/fiber/v2"

	"courier/server/internal/models"
)

// PostStoryRequest posts an ephemeral status for the caller.
type PostStoryRequest struct {
	Content string      `json:"content"`
	Kind    models.Kind `json:"kind"`
}

// PostStory publishes a story that expires after 24 hours.
func (a *API) PostStory(c *fiber.Ctx) error {
	var req PostStoryRequest
	if err := c.BodyParser(&req); err != nil || req.Content == "" {
		return fail(c, fiber.StatusBadRequest, "Content is required")
	}
	if req.Kind != "" && !models.ValidKind(req.Kind) {
		return fail(c, fiber.StatusBadRequest, "Invalid story kind")
	}

	st, err := a.Stories.Post(c.Context(), username(c), req.Content, req.Kind)
	if err != nil {
		a.Log.Errorw("post story", "err", err)
		return fail(c, fiber.StatusServiceUnavailable, "Could not post story")
	}
	return created(c, st)
}

// GetStories lists every story from the last 24 hours, newest first.
func (a *API) GetStories(c *fiber.Ctx) error {
	stories, err := a.Stories.List(c.Context())
	if err != nil {
		a.Log.Errorw("list stories", "err", err)
		return fail(c, fiber.StatusServiceUnavailable, "Could not load stories")
	}
	return ok(c, stories)
}
