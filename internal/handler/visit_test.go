package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/field-visit-api/internal/middleware"
	"github.com/iliyamo/field-visit-api/internal/model"
)

func newVisitFixture(t *testing.T) (*VisitHandler, *fakeUserStore, *fakeVisitStore, *fakeNotifier) {
	t.Helper()
	users := newFakeUserStore()
	visits := newFakeVisitStore()
	n := &fakeNotifier{}
	h := NewVisitHandler(testConfig(), users, visits, n, testLogger())
	return h, users, visits, n
}

func multipartBody(t *testing.T, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func uploadVisit(t *testing.T, h *VisitHandler, userID uint64, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, data, map[string]string{
		"hs_unique_code": "HS-77",
		"place_name":     "Clinic 12",
		"person_name":    "Dr. Naderi",
	})
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/visit/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		middleware.WithIdentity(c, middleware.Identity{UserID: userID, FirstName: "Sara"})
	}
	if err := h.Upload(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestUploadRequiresIdentity(t *testing.T) {
	h, _, visits, _ := newVisitFixture(t)
	rec := uploadVisit(t, h, 0, "note.mp3", []byte("audio"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", rec.Code)
	}
	if visits.count() != 0 {
		t.Fatal("row persisted for unauthenticated upload")
	}
}

func TestUploadRejectsBadExtensionBeforeStorage(t *testing.T) {
	h, users, visits, _ := newVisitFixture(t)
	uid, _ := users.Create(context.Background(), model.User{PhoneNumber: "09121111111", Active: true})

	rec := uploadVisit(t, h, uid, "note.txt", []byte("not audio"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
	if visits.count() != 0 {
		t.Fatal("rejected upload reached storage")
	}
}

func TestUploadUnknownUserNotFound(t *testing.T) {
	h, _, visits, _ := newVisitFixture(t)
	rec := uploadVisit(t, h, 404, "note.mp3", []byte("audio"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", rec.Code)
	}
	if visits.count() != 0 {
		t.Fatal("row persisted for unknown user")
	}
}

// failingUserStore simulates a storage outage on every lookup.
type failingUserStore struct{ *fakeUserStore }

func (failingUserStore) ByID(context.Context, uint64) (model.User, error) {
	return model.User{}, errors.New("dial tcp 127.0.0.1:3306: connect: connection refused")
}

func TestUploadStoreFailureIsNotNotFound(t *testing.T) {
	visits := newFakeVisitStore()
	h := NewVisitHandler(testConfig(), failingUserStore{newFakeUserStore()}, visits, &fakeNotifier{}, testLogger())

	rec := uploadVisit(t, h, 1, "note.mp3", []byte("audio"))
	if rec.Code == http.StatusNotFound {
		t.Fatal("store failure was reported as a missing user")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d, want 500", rec.Code)
	}
	if visits.count() != 0 {
		t.Fatal("row persisted despite the failed user lookup")
	}
}

func TestUploadRejectsMalformedCoordinates(t *testing.T) {
	h, users, visits, _ := newVisitFixture(t)
	uid, _ := users.Create(context.Background(), model.User{PhoneNumber: "09121111115", Active: true})

	body, contentType := multipartBody(t, "note.mp3", []byte("audio"), map[string]string{
		"hs_unique_code": "HS-77",
		"place_name":     "Clinic 12",
		"person_name":    "Dr. Naderi",
		"latitude":       "north-ish",
	})
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/visit/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.WithIdentity(c, middleware.Identity{UserID: uid, FirstName: "Sara"})
	if err := h.Upload(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
	if visits.count() != 0 {
		t.Fatal("row persisted for malformed coordinates")
	}
}

func TestUploadInactiveUserNotFound(t *testing.T) {
	h, users, _, _ := newVisitFixture(t)
	uid, _ := users.Create(context.Background(), model.User{PhoneNumber: "09121111112", Active: false})
	rec := uploadVisit(t, h, uid, "note.mp3", []byte("audio"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", rec.Code)
	}
}

func TestUploadThenDownloadRoundTrip(t *testing.T) {
	h, users, _, _ := newVisitFixture(t)
	uid, _ := users.Create(context.Background(), model.User{
		PhoneNumber: "09121111113", FirstName: "Sara", LastName: "Karimi", Active: true,
	})
	audio := []byte{0x49, 0x44, 0x33, 0x04, 0x00, 0xff, 0xfb, 0x90}

	rec := uploadVisit(t, h, uid, "note.mp3", audio)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: code = %d body=%s", rec.Code, rec.Body.String())
	}

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodGet, "/visit/voice/1", nil)
	dlRec := httptest.NewRecorder()
	c := e.NewContext(req, dlRec)
	c.SetParamNames("visit_id")
	c.SetParamValues("1")
	if err := h.Voice(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if dlRec.Code != http.StatusOK {
		t.Fatalf("download: code = %d", dlRec.Code)
	}
	got, _ := io.ReadAll(dlRec.Body)
	if !bytes.Equal(got, audio) {
		t.Fatalf("downloaded bytes differ: got %v want %v", got, audio)
	}
	if cd := dlRec.Header().Get(echo.HeaderContentDisposition); cd == "" {
		t.Fatal("missing Content-Disposition header")
	}
}

func TestUploadEnqueuesSummaryAndRelay(t *testing.T) {
	h, users, _, n := newVisitFixture(t)
	uid, _ := users.Create(context.Background(), model.User{
		PhoneNumber: "09121111114", FirstName: "Sara", Active: true,
	})

	rec := uploadVisit(t, h, uid, "note.wav", []byte("wav"))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: code = %d", rec.Code)
	}

	// The relay runs on its own goroutine; poll briefly.
	deadline := time.After(2 * time.Second)
	for {
		if len(n.visits()) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("attachment relay job never enqueued")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestDownloadMissingVisitNotFound(t *testing.T) {
	h, _, _, _ := newVisitFixture(t)
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodGet, "/visit/voice/99", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("visit_id")
	c.SetParamValues("99")
	if err := h.Voice(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", rec.Code)
	}
}
