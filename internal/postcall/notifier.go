package postcall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Payload is the finalization webhook body.
type Payload struct {
	LeadID           string `json:"leadId"`
	RecordingBucket  string `json:"recordingBucket"`
	RecordingKey     string `json:"recordingKey"`
	TranscriptBucket string `json:"transcriptBucket"`
	TranscriptKey    string `json:"transcriptKey"`
}

// Notifier delivers the post-call webhook. Delivery is fire-and-forget
// from the caller's perspective: a failure is returned for logging but
// is never retried.
type Notifier struct {
	url    string
	client *http.Client
}

func NewNotifier(url string, client *http.Client) *Notifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Notifier{url: url, client: client}
}

func (n *Notifier) Deliver(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	return nil
}
