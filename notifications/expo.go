package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Dispatcher delivers a push notification to a device token. Implementations
// are called only when the target user has no live connection; failures are
// logged by callers and never propagated into the domain operation that
// triggered the push.
type Dispatcher interface {
	Send(ctx context.Context, token, title, body string, data map[string]interface{}) error
}

const defaultExpoURL = "https://exp.host/--/api/v2/push/send"

// ExpoDispatcher sends push notifications through Expo's push HTTP API.
type ExpoDispatcher struct {
	url    string
	client *http.Client
}

func NewExpoDispatcher() *ExpoDispatcher {
	return &ExpoDispatcher{
		url:    defaultExpoURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewExpoDispatcherWithURL is used by tests to point at a stub server.
func NewExpoDispatcherWithURL(url string) *ExpoDispatcher {
	d := NewExpoDispatcher()
	d.url = url
	return d
}

type expoMessage struct {
	To    string                 `json:"to"`
	Sound string                 `json:"sound"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// Send posts a push message to Expo. An empty token is a no-op: the user
// never registered a device.
func (d *ExpoDispatcher) Send(ctx context.Context, token, title, body string, data map[string]interface{}) error {
	if token == "" {
		return nil
	}

	payload, err := json.Marshal(expoMessage{
		To:    token,
		Sound: "default",
		Title: title,
		Body:  body,
		Data:  data,
	})
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-encoding", "gzip, deflate")
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send push notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("push provider returned status %d", resp.StatusCode)
	}
	return nil
}
