package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"courier/server/internal/utils"
)

// TokenRequest names the identity a token should be minted for.
type TokenRequest struct {
	Username string `json:"username"`
}

// IssueToken mints a session token for a username. Credential verification
// is the upstream auth collaborator's job; this endpoint is the trust
// boundary where a verified identity becomes a connection identity, and in
// a gateway deployment it sits behind that gateway.
func (a *API) IssueToken(c *fiber.Ctx) error {
	var req TokenRequest
	if err := c.BodyParser(&req); err != nil || req.Username == "" {
		return fail(c, fiber.StatusBadRequest, "Username is required")
	}

	token, err := utils.GenerateToken(req.Username)
	if err != nil {
		a.Log.Errorw("issue token", "err", err)
		return fail(c, fiber.StatusInternalServerError, "Could not issue token")
	}

	if err := a.Profiles.Ensure(c.Context(), req.Username); err != nil {
		a.Log.Errorw("ensure profile", "err", err)
		return fail(c, fiber.StatusInternalServerError, "Could not issue token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return ok(c, fiber.Map{"token": token, "username": req.Username})
}

// GetMe echoes the identity bound to the current session.
func (a *API) GetMe(c *fiber.Ctx) error {
	return ok(c, fiber.Map{"username": username(c)})
}
