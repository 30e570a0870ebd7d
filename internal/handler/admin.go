package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/field-visit-api/internal/config"
	"github.com/iliyamo/field-visit-api/internal/middleware"
	"github.com/iliyamo/field-visit-api/internal/model"
	"github.com/iliyamo/field-visit-api/internal/notify"
	"github.com/iliyamo/field-visit-api/internal/repository"
	"github.com/iliyamo/field-visit-api/internal/utils"
)

// AdminHandler implements the one-time bootstrap and the admin-only account
// management endpoints. Every state change emits a best-effort audit
// notification; a notify failure never fails the request.
type AdminHandler struct {
	Cfg      config.Config
	Users    UserStore
	Admins   AdminStore
	Notifier notify.Notifier
	Grants   GrantInvalidator
	Log      zerolog.Logger
}

func NewAdminHandler(cfg config.Config, u UserStore, a AdminStore, n notify.Notifier, g GrantInvalidator, log zerolog.Logger) *AdminHandler {
	if g == nil {
		g = noopInvalidator{}
	}
	return &AdminHandler{Cfg: cfg, Users: u, Admins: a, Notifier: n, Grants: g, Log: log}
}

// ----- DTOs -----

type signUpReq struct {
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
	Email       string `json:"email" validate:"omitempty,email"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Password    string `json:"password" validate:"required"`
	Active      *bool  `json:"active"`
}

type newAdminReq struct {
	UserID uint64 `json:"user_id" validate:"required"`
	Status *bool  `json:"status"`
}

func (r signUpReq) toUser() model.User {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return model.User{
		PhoneNumber:    r.PhoneNumber,
		Email:          r.Email,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		HashedPassword: utils.HashPassword(r.Password),
		Active:         active,
	}
}

// InitAdmin is the one-time bootstrap: allowed only while the admin table is
// empty, it creates a user and their grant inside one transaction. The
// emptiness check is a precondition, not a constraint; losing the race means
// the second caller conflicts on the insert instead.
func (h *AdminHandler) InitAdmin(c echo.Context) error {
	var req signUpReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exists, err := h.Admins.Any(ctx)
	if err != nil {
		return err
	}
	if exists {
		return echo.NewHTTPError(http.StatusConflict, "admin already exists")
	}

	adminID, err := h.Admins.Bootstrap(ctx, req.toUser())
	if err != nil {
		return err
	}

	h.Log.Info().Uint64("admin_id", adminID).Str("phone_number", req.PhoneNumber).Msg("admin initialized")
	h.audit(fmt.Sprintf("Admin bootstrap completed\n\nadmin_id: %d\nphone_number: %s", adminID, req.PhoneNumber), h.Cfg.NewUserThreadID)
	return c.JSON(http.StatusOK, echo.Map{"message": "Admin initialized successfully", "admin_id": adminID})
}

// NewAdmin grants admin privilege to an existing user. Acting admin comes
// from the guard; a duplicate grant surfaces the storage conflict as 409.
func (h *AdminHandler) NewAdmin(c echo.Context) error {
	var req newAdminReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	status := true
	if req.Status != nil {
		status = *req.Status
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// The target user must exist; the FK would reject the insert anyway but
	// a 404 is a clearer answer than a driver error.
	if _, err := h.Users.ByID(ctx, req.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return err
	}

	adminID, err := h.Admins.Create(ctx, req.UserID, status)
	if err != nil {
		if errors.Is(err, repository.ErrAdminExists) {
			return echo.NewHTTPError(http.StatusConflict, "admin grant already exists")
		}
		return err
	}
	h.Grants.Invalidate(ctx, req.UserID)

	actor, _ := middleware.AdminFrom(c)
	h.Log.Info().Uint64("admin_id", adminID).Uint64("user_id", req.UserID).Uint64("granted_by", actor.ID).Msg("admin granted")
	h.audit(fmt.Sprintf("Admin granted\n\nadmin_id: %d\nuser_id: %d\ngranted_by admin: %d", adminID, req.UserID, actor.ID), h.Cfg.NewUserThreadID)
	return c.JSON(http.StatusOK, echo.Map{"admin_id": adminID})
}

// RemoveAdmin revokes a grant by admin id. A missing id is 404, and a second
// revoke of the same id stays 404 rather than soft-succeeding.
func (h *AdminHandler) RemoveAdmin(c echo.Context) error {
	adminID, err := strconv.ParseUint(c.Param("admin_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid admin id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Load first so the cached grant of the affected user can be dropped.
	grant, err := h.Admins.ByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Admin ID does not exist")
		}
		return err
	}
	if err := h.Admins.Delete(ctx, adminID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Admin ID does not exist")
		}
		return err
	}
	h.Grants.Invalidate(ctx, grant.UserID)

	actor, _ := middleware.AdminFrom(c)
	h.Log.Info().Uint64("admin_id", adminID).Uint64("revoked_by", actor.ID).Msg("admin removed")
	h.audit(fmt.Sprintf("Admin revoked\n\nadmin_id: %d\nrevoked_by admin: %d", adminID, actor.ID), h.Cfg.NewUserThreadID)
	return c.JSON(http.StatusOK, echo.Map{"status": "admin removed!"})
}

// CreateUser registers a new user on behalf of an admin. The password is
// digested before it reaches the store and is never logged or relayed.
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req signUpReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Users.Create(ctx, req.toUser())
	if err != nil {
		if errors.Is(err, repository.ErrPhoneExists) {
			return echo.NewHTTPError(http.StatusConflict, "this user already exists!")
		}
		return err
	}

	clientIP := c.RealIP()
	userAgent := c.Request().UserAgent()
	h.Log.Info().
		Uint64("user_id", userID).
		Str("phone_number", req.PhoneNumber).
		Str("first_name", req.FirstName).
		Str("last_name", req.LastName).
		Str("ip_address", clientIP).
		Str("user_agent", userAgent).
		Msg("user created")

	msg := fmt.Sprintf("New User Registered!\n\nuser_id: %d\nphone_number: %s\nfirst_name: %s\nlast_name: %s\nip_address: %s\nuser_agent: %s",
		userID, req.PhoneNumber, req.FirstName, req.LastName, clientIP, userAgent)
	h.audit(msg, h.Cfg.NewUserThreadID)

	return c.JSON(http.StatusOK, echo.Map{"msg": "user created", "user_id": userID})
}

// audit submits a fire-and-forget notification. The queue publisher already
// logs its own failures; nothing here can fail the request.
func (h *AdminHandler) audit(msg string, threadID int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.Notifier.Notify(ctx, msg, threadID)
	}()
}
