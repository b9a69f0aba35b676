package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/devbuild/doctorate-api/pkg/config"
)

// HTTPNotifier posts messages directly to the notification service. Used
// when the synchronous transport variant is configured.
type HTTPNotifier struct {
	url    string
	client *http.Client
}

// NewHTTPNotifier constructs the client from configuration.
func NewHTTPNotifier(cfg config.NotificationsConfig) *HTTPNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPNotifier{
		url:    cfg.HTTPURL,
		client: &http.Client{Timeout: timeout},
	}
}

// Send posts one message and treats any non-2xx response as a failure.
func (n *HTTPNotifier) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification service responded %d", resp.StatusCode)
	}
	return nil
}
