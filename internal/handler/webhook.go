package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/field-visit-api/internal/notify"
	"github.com/iliyamo/field-visit-api/internal/repository"
)

// WebhookHandler receives Telegram callback updates. The callback data is an
// "action:visit_id" pair attached to the buttons the bot posts alongside
// visit summaries.
type WebhookHandler struct {
	Visits   VisitStore
	Notifier notify.Notifier
	Log      zerolog.Logger
}

func NewWebhookHandler(v VisitStore, n notify.Notifier, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{Visits: v, Notifier: n, Log: log}
}

// telegramUpdate is the slice of the Bot API update object this handler
// cares about.
type telegramUpdate struct {
	CallbackQuery *struct {
		ID   string `json:"id"`
		Data string `json:"data"`
	} `json:"callback_query"`
}

// TelegramCallback handles POST /telegram_callback. Supported actions:
//
//	voice:<id>  – re-enqueue the attachment relay for a stored visit
//	delete:<id> – administrative deletion of the visit row
//
// Updates without a callback query are acknowledged and ignored so the bot
// API does not keep redelivering them.
func (h *WebhookHandler) TelegramCallback(c echo.Context) error {
	var upd telegramUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid update")
	}
	if upd.CallbackQuery == nil || upd.CallbackQuery.Data == "" {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	}

	action, visitID, err := parseCallbackData(upd.CallbackQuery.Data)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid callback data")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	switch action {
	case "voice":
		if _, err := h.Visits.ByID(ctx, visitID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "visit not found")
			}
			return err
		}
		_ = h.Notifier.NotifyVisit(ctx, visitID)
		h.Log.Info().Uint64("visit_id", visitID).Msg("webhook: voice relay requested")
	case "delete":
		if err := h.Visits.Delete(ctx, visitID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "visit not found")
			}
			return err
		}
		h.Log.Info().Uint64("visit_id", visitID).Msg("webhook: visit deleted")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown action")
	}

	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// parseCallbackData splits an "action:visit_id" pair.
func parseCallbackData(data string) (string, uint64, error) {
	action, idStr, found := strings.Cut(data, ":")
	if !found || action == "" {
		return "", 0, errors.New("malformed callback data")
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return "", 0, errors.New("malformed visit id")
	}
	return action, id, nil
}
