package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"courier/server/internal/group"
)

// CreateGroupRequest creates a group; the caller becomes a member
// automatically.
type CreateGroupRequest struct {
	Name    string   `json:"name"`
	Icon    string   `json:"icon"`
	Members []string `json:"members"`
}

// AddMembersRequest adds usernames to an existing group.
type AddMembersRequest struct {
	Members []string `json:"members"`
}

// CreateGroup creates a new group with the caller and the listed members.
func (a *API) CreateGroup(c *fiber.Ctx) error {
	var req CreateGroupRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return fail(c, fiber.StatusBadRequest, "Group name is required")
	}

	g, err := a.Groups.Create(c.Context(), req.Name, req.Icon, username(c), req.Members)
	if err != nil {
		a.Log.Errorw("create group", "err", err)
		return fail(c, fiber.StatusInternalServerError, "Could not create group")
	}
	return created(c, g)
}

// GetGroups lists the caller's groups.
func (a *API) GetGroups(c *fiber.Ctx) error {
	groups, err := a.Groups.ListForUser(c.Context(), username(c))
	if err != nil {
		a.Log.Errorw("list groups", "err", err)
		return fail(c, fiber.StatusInternalServerError, "Could not load groups")
	}
	return ok(c, groups)
}

// GetGroup returns one group with its member list. Members only.
func (a *API) GetGroup(c *fiber.Ctx) error {
	groupID := c.Params("groupId")

	g, err := a.Groups.Get(c.Context(), groupID)
	if errors.Is(err, group.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Group not found")
	}
	if err != nil {
		a.Log.Errorw("get group", "err", err)
		return fail(c, fiber.StatusInternalServerError, "Could not load group")
	}

	caller := username(c)
	member := false
	for _, m := range g.Members {
		if m == caller {
			member = true
			break
		}
	}
	if !member {
		return fail(c, fiber.StatusForbidden, "You are not a member of this group")
	}
	return ok(c, g)
}

// AddGroupMembers adds users to a group. Members only.
func (a *API) AddGroupMembers(c *fiber.Ctx) error {
	groupID := c.Params("groupId")

	var req AddMembersRequest
	if err := c.BodyParser(&req); err != nil || len(req.Members) == 0 {
		return fail(c, fiber.StatusBadRequest, "Members are required")
	}

	member, err := a.Groups.IsMember(c.Context(), groupID, username(c))
	if err != nil {
		a.Log.Errorw("group membership check", "err", err)
		return fail(c, fiber.StatusInternalServerError, "Could not check membership")
	}
	if !member {
		return fail(c, fiber.StatusForbidden, "You are not a member of this group")
	}

	if err := a.Groups.AddMembers(c.Context(), groupID, req.Members); err != nil {
		a.Log.Errorw("add group members", "err", err)
		return fail(c, fiber.StatusInternalServerError, "Could not add members")
	}
	return ok(c, fiber.Map{"added": req.Members})
}

// LeaveGroup removes the caller from a group.
func (a *API) LeaveGroup(c *fiber.Ctx) error {
	groupID := c.Params("groupId")

	if err := a.Groups.RemoveMember(c.Context(), groupID, username(c)); err != nil {
		a.Log.Errorw("leave group", "err", err)
		return fail(c, fiber.StatusInternalServerError, "Could not leave group")
	}
	return ok(c, fiber.Map{"left": groupID})
}

// RemoveGroupMember removes :memberId from a group. Only the creator may
// remove someone else.
func (a *API) RemoveGroupMember(c *fiber.Ctx) error {
	groupID := c.Params("groupId")
	target := c.Params("memberId")
	caller := username(c)

	g, err := a.Groups.Get(c.Context(), groupID)
	if errors.Is(err, group.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Group not found")
	}
	if err != nil {
		a.Log.Errorw("get group", "err", err)
		return fail(c, fiber.StatusInternalServerError, "Could not load group")
	}
	if target != caller && g.CreatedBy != caller {
		return fail(c, fiber.StatusForbidden, "Only the group creator can remove members")
	}

	if err := a.Groups.RemoveMember(c.Context(), groupID, target); err != nil {
		a.Log.Errorw("remove group member", "err", err)
		return fail(c, fiber.StatusInternalServerError, "Could not remove member")
	}
	return ok(c, fiber.Map{"removed": target})
}
