package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/centa/return-tracker/internal/config"
	"github.com/centa/return-tracker/internal/model"
	"github.com/centa/return-tracker/internal/notifier"
	"github.com/centa/return-tracker/internal/rbac"
	"github.com/centa/return-tracker/internal/repository"
	"github.com/centa/return-tracker/internal/utils"
)

// AdminHandler serves user administration and the grant table.  Grant and
// revoke write MySQL first and then mirror the change into the live
// in-memory table, so authorization reflects admin changes immediately
// without a restart.
type AdminHandler struct {
	Cfg       config.Config
	Users     *repository.UserRepo
	Tokens    *repository.TokenRepo
	Grants    *repository.GrantRepo
	Table     *rbac.Table
	Publisher *notifier.Publisher
}

func NewAdminHandler(cfg config.Config, users *repository.UserRepo, tokens *repository.TokenRepo,
	grants *repository.GrantRepo, table *rbac.Table, pub *notifier.Publisher) *AdminHandler {
	if users == nil || tokens == nil || grants == nil || table == nil || pub == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Cfg: cfg, Users: users, Tokens: tokens, Grants: grants, Table: table, Publisher: pub}
}

// ----- DTOs -----

type inviteReq struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type grantReq struct {
	Role       string `json:"role"`
	Permission string `json:"permission"`
}

// InviteUser creates an inactive account and publishes the invitation
// event; the mail worker delivers the activation token.  The raw token is
// also returned in the response so an admin can hand it over manually when
// mail delivery is down.
// POST /v1/admin/users
func (h *AdminHandler) InviteUser(c echo.Context) error {
	var req inviteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid email required"})
	}
	role, ok := model.ParseRole(strings.ToUpper(strings.TrimSpace(req.Role)))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	rawToken, err := utils.RandomHex(32)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue invite failed"})
	}
	tokenHash := utils.HashToken(rawToken)
	expiry := time.Now().UTC().Add(time.Duration(h.Cfg.InviteTTLHours) * time.Hour)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u := &model.User{
		Email:         req.Email,
		Role:          role,
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		NotifyEnabled: true,
		InviteHash:    &tokenHash,
		InviteExpiry:  &expiry,
	}
	if err := h.Users.CreateInvited(ctx, u); err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	if err := h.Publisher.UserInvited(ctx, u.Email, u.Role, rawToken, expiry); err != nil {
		c.Logger().Warnf("invite notification for %s failed: %v", u.Email, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"user": echo.Map{
			"id":    u.ID,
			"email": u.Email,
			"role":  string(u.Role),
		},
		"invite_token":   rawToken,
		"invite_expires": expiry,
	})
}

// DeregisterUser removes an account and revokes all of its refresh tokens
// so outstanding sessions die with it.
// DELETE /v1/admin/users/:email
func (h *AdminHandler) DeregisterUser(c echo.Context) error {
	email := strings.ToLower(strings.TrimSpace(c.Param("email")))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err == repository.ErrUserNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke sessions failed"})
	}
	if err := h.Users.Delete(ctx, email); err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"deregistered": email})
}

// ListUsers returns every account with its activation state.
// GET /v1/admin/users
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	out := make([]echo.Map, 0, len(users))
	for _, u := range users {
		out = append(out, echo.Map{
			"id":             u.ID,
			"email":          u.Email,
			"role":           string(u.Role),
			"first_name":     u.FirstName,
			"last_name":      u.LastName,
			"is_active":      u.IsActive,
			"notify_enabled": u.NotifyEnabled,
			"last_login":     u.LastLogin,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// ListGrants returns the whole role to permission assignment as the live
// table sees it.
// GET /v1/admin/grants
func (h *AdminHandler) ListGrants(c echo.Context) error {
	out := echo.Map{}
	for _, role := range model.Roles() {
		perms := h.Table.PermissionsFor(role)
		names := make([]string, 0, len(perms))
		for _, p := range perms {
			names = append(names, string(p))
		}
		out[string(role)] = names
	}
	return c.JSON(http.StatusOK, echo.Map{"grants": out})
}

// Grant adds a (role, permission) pair, persisting it and updating the live
// table in one request.
// POST /v1/admin/grants
func (h *AdminHandler) Grant(c echo.Context) error {
	role, perm, msg := bindGrant(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Grants.Grant(ctx, role, perm); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "persist grant failed"})
	}
	h.Table.Grant(role, perm)
	return c.JSON(http.StatusOK, echo.Map{"role": string(role), "permission": string(perm), "granted": true})
}

// Revoke removes a (role, permission) pair from storage and the live table.
// DELETE /v1/admin/grants
func (h *AdminHandler) Revoke(c echo.Context) error {
	role, perm, msg := bindGrant(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Grants.Revoke(ctx, role, perm); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "persist revoke failed"})
	}
	h.Table.Revoke(role, perm)
	return c.JSON(http.StatusOK, echo.Map{"role": string(role), "permission": string(perm), "granted": false})
}

// bindGrant parses and validates the grant request body.  A non-empty
// message means the request was bad.
func bindGrant(c echo.Context) (model.Role, model.Permission, string) {
	var req grantReq
	if err := c.Bind(&req); err != nil {
		return "", "", "invalid body"
	}
	role, ok := model.ParseRole(strings.ToUpper(strings.TrimSpace(req.Role)))
	if !ok {
		return "", "", "invalid role"
	}
	perm, ok := model.ParsePermission(strings.ToUpper(strings.TrimSpace(req.Permission)))
	if !ok {
		return "", "", "invalid permission"
	}
	return role, perm, ""
}
