package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/field-visit-api/internal/config"
	"github.com/iliyamo/field-visit-api/internal/metrics"
	"github.com/iliyamo/field-visit-api/internal/middleware"
	"github.com/iliyamo/field-visit-api/internal/model"
	"github.com/iliyamo/field-visit-api/internal/notify"
	"github.com/iliyamo/field-visit-api/internal/repository"
)

// allowedExtensions is the audio container allow-list for uploads. Checked
// before anything touches storage.
var allowedExtensions = map[string]bool{
	".mp3": true,
	".wav": true,
	".ogg": true,
	".m4a": true,
}

// VisitHandler implements the field-visit intake and download endpoints.
type VisitHandler struct {
	Cfg      config.Config
	Users    UserStore
	Visits   VisitStore
	Notifier notify.Notifier
	Log      zerolog.Logger
}

func NewVisitHandler(cfg config.Config, u UserStore, v VisitStore, n notify.Notifier, log zerolog.Logger) *VisitHandler {
	return &VisitHandler{Cfg: cfg, Users: u, Visits: v, Notifier: n, Log: log}
}

// Upload accepts a multipart visit report: a voice note plus place/person
// metadata. The file bytes and metadata are persisted as one row; the
// outbound summary and the attachment relay are queued after the write and
// cannot affect the HTTP result.
func (h *VisitHandler) Upload(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok || ident.UserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedExtensions[ext] {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid file format")
	}

	uniqueCode := c.FormValue("hs_unique_code")
	placeName := c.FormValue("place_name")
	personName := c.FormValue("person_name")
	if uniqueCode == "" || placeName == "" || personName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "hs_unique_code, place_name and person_name are required")
	}

	latitude, err := optFloat(c.FormValue("latitude"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "latitude must be numeric")
	}
	longitude, err := optFloat(c.FormValue("longitude"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "longitude must be numeric")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	user, err := h.Users.ByID(ctx, ident.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return err
	}
	if !user.Active {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	fileBytes, err := io.ReadAll(src)
	if err != nil {
		return err
	}

	visit := model.Visit{
		UserID:         user.ID,
		UniqueCode:     uniqueCode,
		Filename:       fileHeader.Filename,
		FileData:       fileBytes,
		ContentType:    fileHeader.Header.Get("Content-Type"),
		PlaceName:      placeName,
		PersonName:     personName,
		PersonPosition: optString(c.FormValue("person_position")),
		Latitude:       latitude,
		Longitude:      longitude,
		Address:        optString(c.FormValue("address")),
		Description:    optString(c.FormValue("description")),
	}
	stored, err := h.Visits.Create(ctx, visit)
	if err != nil {
		return err
	}
	metrics.VisitsUploadedTotal.Inc()

	h.Log.Info().
		Uint64("visit_id", stored.ID).
		Uint64("user_id", user.ID).
		Str("place_name", placeName).
		Str("filename", stored.Filename).
		Msg("visit uploaded")

	summary := fmt.Sprintf("New visit report\n\nplace: %s\nperson: %s\nreported_by: %s %s\ncode: %s\nvoice: %s/visit/voice/%d",
		placeName, personName, user.FirstName, user.LastName, uniqueCode, h.Cfg.PublicBaseURL, stored.ID)
	h.relay(summary, stored.ID)

	return c.JSON(http.StatusOK, echo.Map{
		"message":   "Visit data uploaded successfully",
		"id":        stored.ID,
		"filename":  stored.Filename,
		"timestamp": stored.VisitTimestamp,
	})
}

// Voice streams the stored voice note back with its original content type.
// The route sits on the unauthenticated allow-list; links in notifications
// must work without a session.
func (h *VisitHandler) Voice(c echo.Context) error {
	visitID, err := strconv.ParseUint(c.Param("visit_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	v, err := h.Visits.ByID(ctx, visitID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "visit not found")
		}
		return err
	}

	contentType := v.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, v.Filename))
	return c.Blob(http.StatusOK, contentType, v.FileData)
}

// relay queues the summary message and the attachment job, fire-and-forget.
func (h *VisitHandler) relay(summary string, visitID uint64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.Notifier.Notify(ctx, summary, h.Cfg.VisitThreadID)
		_ = h.Notifier.NotifyVisit(ctx, visitID)
	}()
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
