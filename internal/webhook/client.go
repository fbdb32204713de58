package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a single push
const DefaultTimeout = 15 * time.Second

// Pusher delivers one record to a ledger webhook
type Pusher interface {
	Push(ctx context.Context, url string, rec Record) error
}

// Client posts records as JSON. The remote script's reply is not trusted:
// any completed round trip counts as delivered and the status is only logged.
type Client struct {
	http *http.Client
	log  *logrus.Entry
}

// NewClient creates a webhook client with the given per-request timeout
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
		log:  logrus.WithField("component", "webhook"),
	}
}

// Push sends rec to url
func (c *Client) Push(ctx context.Context, url string, rec Record) error {
	if url == "" {
		return fmt.Errorf("sync url is not configured")
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push %s record: %w", rec.Type, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	entry := c.log.WithFields(logrus.Fields{"type": rec.Type, "status": resp.StatusCode})
	if resp.StatusCode >= http.StatusBadRequest {
		entry.Warn("webhook answered with an error status")
	} else {
		entry.Debug("record pushed")
	}
	return nil
}
