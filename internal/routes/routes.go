package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"courier/server/internal/handlers"
	"courier/server/internal/middleware"
)

// SetupRoutes registers the full API surface.
func SetupRoutes(app *fiber.App, api *handlers.API) {
	v1 := app.Group("/api/v1")

	// Health check (public)
	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Courier API is running",
		})
	})

	// Session tokens (the trust boundary with the upstream auth service)
	auth := v1.Group("/auth")
	auth.Post("/token", middleware.StrictRateLimiter(), api.IssueToken)
	auth.Get("/me", middleware.AuthMiddleware, api.GetMe)

	// Messages (protected)
	messages := v1.Group("/messages", middleware.AuthMiddleware)
	messages.Get("/chats", api.GetChats)
	messages.Post("/", middleware.SendRateLimiter(), api.SendMessage)
	messages.Put("/read", api.MarkRead)
	messages.Get("/id/:id", api.GetMessage)
	messages.Get("/group/:groupId", api.GetGroupHistory)
	messages.Get("/:counterpart", api.GetHistory)
	messages.Delete("/:counterpart", api.DeleteConversation)

	// Profiles (protected)
	profiles := v1.Group("/profiles", middleware.AuthMiddleware)
	profiles.Put("/", api.UpdateProfile)
	profiles.Get("/:username", api.GetProfile)

	// Stories (protected)
	stories := v1.Group("/stories", middleware.AuthMiddleware)
	stories.Post("/", middleware.SendRateLimiter(), api.PostStory)
	stories.Get("/", api.GetStories)

	// Groups (protected)
	groups := v1.Group("/groups", middleware.AuthMiddleware)
	groups.Post("/", api.CreateGroup)
	groups.Get("/", api.GetGroups)
	groups.Get("/:groupId", api.GetGroup)
	groups.Post("/:groupId/members", api.AddGroupMembers)
	groups.Delete("/:groupId/members/:memberId", api.RemoveGroupMember)
	groups.Post("/:groupId/leave", api.LeaveGroup)

	// WebSocket (protected)
	v1.Get("/ws", middleware.AuthMiddleware, api.WebSocketUpgrade, websocket.New(api.WebSocketHandler))
	v1.Get("/ws/stats", middleware.AuthMiddleware, api.GetWebSocketStats)
}
