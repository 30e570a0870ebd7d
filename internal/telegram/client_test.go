package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type capturedRequest struct {
	path        string
	contentType string
	body        []byte
}

func newBotServer(t *testing.T, status int) (*httptest.Server, *capturedRequest) {
	t.Helper()
	seen := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.path = r.URL.Path
		seen.contentType = r.Header.Get("Content-Type")
		seen.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func testClient(srv *httptest.Server) *Client {
	c := NewClient("123:token", 42)
	c.BaseURL = srv.URL
	return c
}

func TestSendMessagePayload(t *testing.T) {
	srv, seen := newBotServer(t, http.StatusOK)
	c := testClient(srv)

	if err := c.SendMessage(context.Background(), "visit recorded", 7); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if seen.path != "/bot123:token/sendMessage" {
		t.Fatalf("path = %q", seen.path)
	}
	var payload map[string]any
	if err := json.Unmarshal(seen.body, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["chat_id"].(float64) != 42 {
		t.Fatalf("chat_id = %v", payload["chat_id"])
	}
	if payload["text"] != "visit recorded" {
		t.Fatalf("text = %v", payload["text"])
	}
	if payload["message_thread_id"].(float64) != 7 {
		t.Fatalf("message_thread_id = %v", payload["message_thread_id"])
	}
}

func TestSendMessageOmitsZeroThread(t *testing.T) {
	srv, seen := newBotServer(t, http.StatusOK)
	c := testClient(srv)

	if err := c.SendMessage(context.Background(), "hi", 0); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	var payload map[string]any
	_ = json.Unmarshal(seen.body, &payload)
	if _, present := payload["message_thread_id"]; present {
		t.Fatal("message_thread_id sent for the main chat")
	}
}

func TestSendMessageTruncatesLongText(t *testing.T) {
	srv, seen := newBotServer(t, http.StatusOK)
	c := testClient(srv)

	long := strings.Repeat("x", maxMessageLen+500)
	if err := c.SendMessage(context.Background(), long, 0); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(seen.body, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got := len([]rune(payload["text"].(string))); got != maxMessageLen {
		t.Fatalf("sent text length = %d, want %d", got, maxMessageLen)
	}
}

func TestSendVoiceMultipart(t *testing.T) {
	srv, seen := newBotServer(t, http.StatusOK)
	c := testClient(srv)
	audio := []byte{0x4f, 0x67, 0x67, 0x53}

	if err := c.SendVoice(context.Background(), "note.ogg", audio, "Visit 9 | Clinic", 7); err != nil {
		t.Fatalf("SendVoice: %v", err)
	}
	if seen.path != "/bot123:token/sendVoice" {
		t.Fatalf("path = %q", seen.path)
	}
	if !strings.HasPrefix(seen.contentType, "multipart/form-data") {
		t.Fatalf("content type = %q", seen.contentType)
	}

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(seen.body))
	req.Header.Set("Content-Type", seen.contentType)
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}
	if got := req.FormValue("chat_id"); got != "42" {
		t.Fatalf("chat_id = %q", got)
	}
	if got := req.FormValue("message_thread_id"); got != "7" {
		t.Fatalf("message_thread_id = %q", got)
	}
	if got := req.FormValue("caption"); got != "Visit 9 | Clinic" {
		t.Fatalf("caption = %q", got)
	}
	file, header, err := req.FormFile("voice")
	if err != nil {
		t.Fatalf("voice part: %v", err)
	}
	defer file.Close()
	if header.Filename != "note.ogg" {
		t.Fatalf("filename = %q", header.Filename)
	}
	got, _ := io.ReadAll(file)
	if !bytes.Equal(got, audio) {
		t.Fatalf("voice bytes differ: %v", got)
	}
}

func TestNonSuccessStatusIsError(t *testing.T) {
	srv, _ := newBotServer(t, http.StatusBadRequest)
	c := testClient(srv)

	err := c.SendMessage(context.Background(), "hi", 0)
	if err == nil {
		t.Fatal("expected error on 400 response")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Fatalf("error = %v, want status in message", err)
	}
}
