package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"playlet/internal/config"
)

const userAgent = "Playlet/0.1.0"

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyJobStarted(ctx context.Context, source, style string) error
	NotifyJobCompleted(ctx context.Context, source string, coverage float64, drift time.Duration, degraded int) error
	NotifyJobFailed(ctx context.Context, source string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		sendCompleted: cfg.Notifications.JobCompleted,
		sendErrors:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	sendCompleted bool
	sendErrors    bool
}

func (n *ntfyService) NotifyJobStarted(ctx context.Context, source, style string) error {
	data := payload{
		title:   "Playlet - Job Started",
		message: fmt.Sprintf("Narrating %s (style: %s)", strings.TrimSpace(source), strings.TrimSpace(style)),
		tags:    []string{"playlet", "job", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, source string, coverage float64, drift time.Duration, degraded int) error {
	if !n.sendCompleted {
		return nil
	}
	message := fmt.Sprintf("Render plan ready: %s\nNarration coverage %.0f%%, timeline drift %s",
		strings.TrimSpace(source), coverage*100, drift.Round(time.Millisecond))
	if degraded > 0 {
		message = fmt.Sprintf("%s\n%d segments degraded to pass-through", message, degraded)
	}
	data := payload{
		title:    "Playlet - Job Complete",
		message:  message,
		tags:     []string{"playlet", "job", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, source string, err error) error {
	if !n.sendErrors {
		return nil
	}
	reason := "unknown"
	if err != nil {
		reason = strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    "Playlet - Job Failed",
		message:  fmt.Sprintf("Failed: %s\n%s", strings.TrimSpace(source), reason),
		tags:     []string{"playlet", "job", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Playlet - Test",
		message:  "Notification system test",
		tags:     []string{"playlet", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyJobStarted(context.Context, string, string) error { return nil }
func (noopService) NotifyJobCompleted(context.Context, string, float64, time.Duration, int) error {
	return nil
}
func (noopService) NotifyJobFailed(context.Context, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error               { return nil }
