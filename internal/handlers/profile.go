package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"courier/server/internal/profile"
)

// UpdateProfileRequest replaces the caller's avatar and bio.
type UpdateProfileRequest struct {
	Avatar string `json:"avatar"`
	Bio    string `json:"bio"`
}

// GetProfile returns the public profile of :username.
func (a *API) GetProfile(c *fiber.Ctx) error {
	p, err := a.Profiles.Get(c.Context(), c.Params("username"))
	if errors.Is(err, profile.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		a.Log.Errorw("get profile", "err", err)
		return fail(c, fiber.StatusInternalServerError, "Could not load profile")
	}
	// The live registry outranks the stored flag while this process serves
	// the user's connection.
	p.Online = a.Reg.Online(p.Username)
	return ok(c, p)
}

// UpdateProfile updates the caller's own avatar and bio.
func (a *API) UpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user := username(c)
	if err := a.Profiles.Ensure(c.Context(), user); err != nil {
		a.Log.Errorw("ensure profile", "err", err)
		return fail(c, fiber.StatusInternalServerError, "Could not update profile")
	}
	if err := a.Profiles.Update(c.Context(), user, req.Avatar, req.Bio); err != nil {
		a.Log.Errorw("update profile", "err", err)
		return fail(c, fiber.StatusInternalServerError, "Could not update profile")
	}
	return ok(c, fiber.Map{"username": user})
}
