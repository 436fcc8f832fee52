package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"hlspack/internal/config"
)

const userAgent = "hlspack/1.0"

// JobOutcome describes a finished conversion.
type JobOutcome struct {
	JobID       string
	Source      string
	Destination string
	Class       string
	Renditions  int
	Bytes       int64
	Elapsed     time.Duration
	ExitCode    int
	Stage       string
	Err         error
}

// Service defines the notification surface used by the pipeline.
type Service interface {
	NotifyJobCompleted(ctx context.Context, outcome JobOutcome) error
	NotifyJobFailed(ctx context.Context, outcome JobOutcome) error
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

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		onSuccess: cfg.Notifications.OnSuccess,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	onSuccess bool
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, outcome JobOutcome) error {
	if !n.onSuccess {
		return nil
	}
	message := fmt.Sprintf("Published %s\n%s, %d renditions, %s in %s",
		strings.TrimSpace(outcome.Destination),
		outcome.Class,
		outcome.Renditions,
		humanize.Bytes(uint64(max(outcome.Bytes, 0))),
		outcome.Elapsed.Round(time.Second),
	)
	return n.send(ctx, payload{
		title:   "hlspack - Published",
		message: message,
		tags:    []string{"hlspack", "publish", "completed"},
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, outcome JobOutcome) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Conversion of %s failed", strings.TrimSpace(outcome.Source))
	if stage := strings.TrimSpace(outcome.Stage); stage != "" {
		fmt.Fprintf(&builder, " during %s", stage)
	}
	fmt.Fprintf(&builder, " (exit %d)", outcome.ExitCode)
	if outcome.Err != nil {
		builder.WriteString("\n")
		builder.WriteString(outcome.Err.Error())
	}
	return n.send(ctx, payload{
		title:    "hlspack - Failed",
		message:  builder.String(),
		tags:     []string{"hlspack", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "hlspack - Test",
		message:  "Notification system test",
		tags:     []string{"hlspack", "test"},
		priority: "low",
	})
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

func (noopService) NotifyJobCompleted(context.Context, JobOutcome) error { return nil }
func (noopService) NotifyJobFailed(context.Context, JobOutcome) error    { return nil }
func (noopService) TestNotification(context.Context) error               { return nil }
