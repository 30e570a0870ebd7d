package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/field-visit-api/internal/notify"
	"github.com/iliyamo/field-visit-api/internal/repository"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Detail string `json:"detail"`
}

// NewHTTPErrorHandler returns the single error boundary for the API:
//   - echo.HTTPError (including the domain statuses handlers raise) passes
//     through with its code and message
//   - repository sentinels map to deterministic statuses
//   - anything else becomes a 500 carrying only an opaque error id; the full
//     cause is logged under that id and an operator alert is queued
func NewHTTPErrorHandler(log zerolog.Logger, n notify.Notifier, errThreadID int64) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, errorResponse{Detail: fmt.Sprintf("%v", he.Message)})
			return
		}

		switch {
		case errors.Is(err, repository.ErrNotFound):
			_ = c.JSON(http.StatusNotFound, errorResponse{Detail: "not found"})
			return
		case errors.Is(err, repository.ErrPhoneExists):
			_ = c.JSON(http.StatusConflict, errorResponse{Detail: "phone number already registered"})
			return
		case errors.Is(err, repository.ErrAdminExists):
			_ = c.JSON(http.StatusConflict, errorResponse{Detail: "admin grant already exists"})
			return
		}

		// Unexpected error: log the real cause under a fresh correlation id,
		// alert the operator channel, return only the id to the caller.
		errorID := uuid.New().String()
		log.Error().
			Err(err).
			Str("error_id", errorID).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("unhandled error")

		if n != nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = n.Notify(ctx, fmt.Sprintf("[ERROR] %s %s\n\nerror_id: %s\nreason: %v",
					c.Request().Method, c.Path(), errorID, err), errThreadID)
			}()
		}

		_ = c.JSON(http.StatusInternalServerError,
			errorResponse{Detail: "internal server error (id " + errorID + ")"})
	}
}
