package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hardsub/internal/config"
	"hardsub/internal/settings"
	"hardsub/internal/transcode"
)

const userAgent = "hardsub/0.1.0"

// Service defines the notification surface exposed to the runtime.
type Service interface {
	NotifyJobCompleted(ctx context.Context, result transcode.Result) error
	NotifyJobFailed(ctx context.Context, result transcode.Result) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether svc actually delivers anything.
func Enabled(svc Service) bool {
	if svc == nil {
		return false
	}
	_, noop := svc.(noopService)
	return !noop
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, result transcode.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Burned subtitles into %s", displayName(result))
	if result.Elapsed > 0 {
		fmt.Fprintf(&b, " in %s", result.Elapsed.Round(time.Second))
	}
	b.WriteString("\n")
	b.WriteString(describeSettings(result.Settings))
	data := payload{
		title:   "hardsub - Job Complete",
		message: b.String(),
		tags:    []string{"hardsub", "job", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, result transcode.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "❌ Job failed for %s (%s)", displayName(result), result.Outcome)
	if result.Err != nil {
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(result.Err.Error()))
	}
	if tail := lastLine(result.StderrTail); tail != "" {
		b.WriteString("\nffmpeg: ")
		b.WriteString(tail)
	}
	data := payload{
		title:    "hardsub - Job Failed",
		message:  b.String(),
		tags:     []string{"hardsub", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "hardsub - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"hardsub", "test"},
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

func displayName(result transcode.Result) string {
	name := strings.TrimSpace(result.VideoName)
	if name == "" {
		name = "job " + result.JobID
	}
	return name
}

func describeSettings(cfg settings.Configuration) string {
	parts := make([]string, 0, len(settings.Keys()))
	for _, key := range settings.Keys() {
		value, _ := cfg.Get(key)
		parts = append(parts, fmt.Sprintf("%s: %s", key.Label(), value))
	}
	return strings.Join(parts, ", ")
}

func lastLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, transcode.Result) error { return nil }
func (noopService) NotifyJobFailed(context.Context, transcode.Result) error    { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
