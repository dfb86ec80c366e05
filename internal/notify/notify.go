// Package notify posts human-readable run summaries to a webhook. Delivery is
// best-effort: the coordinator triggers notifications as a side effect, and a
// failure here never affects the response to the caller.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// maxContentLength is the webhook's message size limit. Longer summaries are
// truncated with a marker rather than rejected.
const maxContentLength = 2000

// Webhook sends plain-text content to a single webhook URL.
// An empty URL disables notifications; all methods become no-ops.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a notifier for url. Pass "" to disable.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// NotifyAnswers posts a numbered answer summary for a completed run.
// Answers that would push the message over the size limit are elided with a
// trailing count.
func (w *Webhook) NotifyAnswers(ctx context.Context, questions, answers []string) error {
	if w.url == "" {
		return nil
	}

	content := "\nAnswers:\n"
	for i, answer := range answers {
		line := fmt.Sprintf("%d. %s\n", i+1, answer)
		// Leave headroom for the truncation marker
		if len(content)+len(line) > maxContentLength-50 {
			content += fmt.Sprintf("... and %d more answers (truncated due to length)", len(answers)-i)
			break
		}
		content += line
	}

	return w.send(ctx, content)
}

// NotifyFailure posts a failure summary.
func (w *Webhook) NotifyFailure(ctx context.Context, message string) error {
	if w.url == "" {
		return nil
	}
	return w.send(ctx, message)
}

func (w *Webhook) send(ctx context.Context, content string) error {
	if len(content) > maxContentLength {
		content = content[:maxContentLength-3] + "..."
	}

	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification webhook returned %s", resp.Status)
	}

	return nil
}
