// Package handlers is the HTTP surface. Handlers only parse, authorize and
// delegate; every state transition happens in the delivery, receipt, summary
// and store packages.
package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"courier/server/internal/delivery"
	"courier/server/internal/group"
	"courier/server/internal/presence"
	"courier/server/internal/profile"
	"courier/server/internal/receipt"
	"courier/server/internal/store"
	"courier/server/internal/story"
	"courier/server/internal/summary"
	"courier/server/internal/ws"
)

// API bundles the wired components for route registration.
type API struct {
	Router    *delivery.Router
	Receipts  *receipt.Coordinator
	Projector *summary.Projector
	Store     store.MessageStore
	Profiles  profile.Service
	Groups    group.Service
	Stories   *story.Service
	Hub       *ws.Hub
	Reg       *presence.Registry
	Log       *zap.SugaredLogger
}

func username(c *fiber.Ctx) string {
	u, _ := c.Locals("username").(string)
	return u
}

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": msg})
}
