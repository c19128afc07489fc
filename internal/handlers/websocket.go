package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// WebSocketUpgrade gates the websocket route to real upgrade requests.
func (a *API) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fail(c, fiber.StatusUpgradeRequired, "WebSocket upgrade required")
}

// WebSocketHandler hands the upgraded connection to the hub; it blocks for
// the lifetime of the connection.
func (a *API) WebSocketHandler(c *websocket.Conn) {
	user, _ := c.Locals("username").(string)
	if user == "" {
		c.Close()
		return
	}
	a.Hub.HandleConn(c, user)
}

// GetWebSocketStats reports how many identities are connected right now.
func (a *API) GetWebSocketStats(c *fiber.Ctx) error {
	return ok(c, fiber.Map{
		"online":    a.Reg.Count(),
		"usernames": a.Reg.Snapshot(),
	})
}
