package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Delivery is one serialized payload bound for a URL.
type Delivery struct {
	URL   string `json:"url"`
	Event string `json:"event"`
	Body  []byte `json:"body"`
}

// Sender posts deliveries over HTTP.
type Sender struct {
	httpClient *http.Client
}

// NewSender constructs a Sender. A zero timeout defaults to ten seconds.
func NewSender(timeout time.Duration) *Sender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sender{httpClient: &http.Client{Timeout: timeout}}
}

// Send posts the body once. Any non-2xx answer is an error.
func (s *Sender) Send(ctx context.Context, d Delivery) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(d.Body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "resto-webhook/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook %s: status %d", d.Event, resp.StatusCode)
	}
	return nil
}
