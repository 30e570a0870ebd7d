// Package telegram is a minimal Bot API client covering the two calls the
// worker needs: sendMessage and sendVoice. The Bot API is plain HTTP, so no
// SDK is involved.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// maxMessageLen is the Bot API limit for sendMessage text.
const maxMessageLen = 4096

// Client talks to the Telegram Bot API for a single bot and chat.
type Client struct {
	Token   string
	ChatID  int64
	BaseURL string       // overridable for tests; defaults to the public API
	HTTPC   *http.Client // short fixed timeout; deliveries retry on failure
}

func NewClient(token string, chatID int64) *Client {
	return &Client{
		Token:   token,
		ChatID:  chatID,
		BaseURL: defaultBaseURL,
		HTTPC:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SendMessage posts a text message into the chat, optionally into a forum
// thread. Text beyond the API limit is truncated, not rejected.
func (c *Client) SendMessage(ctx context.Context, text string, threadID int64) error {
	payload := map[string]any{
		"chat_id": c.ChatID,
		"text":    truncate(text, maxMessageLen),
	}
	if threadID != 0 {
		payload["message_thread_id"] = threadID
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// SendVoice uploads a voice note as multipart form data with an optional
// caption, mirroring what a manual upload through the API would send.
func (c *Client) SendVoice(ctx context.Context, filename string, data []byte, caption string, threadID int64) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("chat_id", strconv.FormatInt(c.ChatID, 10)); err != nil {
		return err
	}
	if threadID != 0 {
		if err := w.WriteField("message_thread_id", strconv.FormatInt(threadID, 10)); err != nil {
			return err
		}
	}
	if caption != "" {
		if err := w.WriteField("caption", truncate(caption, 1024)); err != nil {
			return err
		}
	}
	part, err := w.CreateFormFile("voice", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("sendVoice"), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req)
}

func (c *Client) url(method string) string {
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return fmt.Sprintf("%s/bot%s/%s", base, c.Token, method)
}

func (c *Client) do(req *http.Request) error {
	httpc := c.HTTPC
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram: %s returned %d: %s", req.URL.Path, resp.StatusCode, b)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
