package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iliyamo/field-visit-api/internal/model"
)

func postCallback(t *testing.T, h *WebhookHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/telegram_callback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.TelegramCallback(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func newWebhookFixture(t *testing.T) (*WebhookHandler, *fakeVisitStore, *fakeNotifier) {
	t.Helper()
	visits := newFakeVisitStore()
	n := &fakeNotifier{}
	return NewWebhookHandler(visits, n, testLogger()), visits, n
}

func TestCallbackVoiceActionRelays(t *testing.T) {
	h, visits, n := newWebhookFixture(t)
	stored, _ := visits.Create(context.Background(), model.Visit{UserID: 1, Filename: "note.mp3"})

	rec := postCallback(t, h, `{"callback_query":{"id":"1","data":"voice:1"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d body=%s", rec.Code, rec.Body.String())
	}
	if got := n.visits(); len(got) != 1 || got[0] != stored.ID {
		t.Fatalf("relayed visits = %v, want [%d]", got, stored.ID)
	}
}

func TestCallbackDeleteActionRemovesRow(t *testing.T) {
	h, visits, _ := newWebhookFixture(t)
	_, _ = visits.Create(context.Background(), model.Visit{UserID: 1, Filename: "note.mp3"})

	rec := postCallback(t, h, `{"callback_query":{"id":"1","data":"delete:1"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if visits.count() != 0 {
		t.Fatal("visit row still present after delete action")
	}

	// A second delete of the same id is 404, mirroring the store contract.
	rec = postCallback(t, h, `{"callback_query":{"id":"2","data":"delete:1"}}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: code = %d, want 404", rec.Code)
	}
}

func TestCallbackMalformedDataRejected(t *testing.T) {
	h, _, _ := newWebhookFixture(t)
	for _, data := range []string{"novalue", ":5", "voice:", "voice:abc", "voice:0"} {
		rec := postCallback(t, h, `{"callback_query":{"id":"1","data":"`+data+`"}}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("data %q: code = %d, want 400", data, rec.Code)
		}
	}
}

func TestCallbackUnknownActionRejected(t *testing.T) {
	h, _, _ := newWebhookFixture(t)
	rec := postCallback(t, h, `{"callback_query":{"id":"1","data":"explode:5"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
}

func TestCallbackWithoutQueryIsAcknowledged(t *testing.T) {
	h, _, _ := newWebhookFixture(t)
	rec := postCallback(t, h, `{"message":{"text":"hello"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}
}
