package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"hardsub/internal/config"
	"hardsub/internal/notifications"
	"hardsub/internal/settings"
	"hardsub/internal/transcode"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

type ntfyRecorder struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   int
}

func (r *ntfyRecorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", req.Method)
		}
		body, err := io.ReadAll(req.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		r.mu.Lock()
		r.requests = append(r.requests, capturedRequest{
			title:    req.Header.Get("Title"),
			tags:     req.Header.Get("Tags"),
			priority: req.Header.Get("Priority"),
			body:     string(body),
		})
		status := r.status
		r.mu.Unlock()
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if status >= 300 {
			_, _ = io.WriteString(w, "topic quota exceeded")
		}
	}
}

func (r *ntfyRecorder) captured() []capturedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]capturedRequest(nil), r.requests...)
}

func newNtfy(t *testing.T) (*ntfyRecorder, *config.Config) {
	t.Helper()
	rec := &ntfyRecorder{}
	server := httptest.NewServer(rec.handler(t))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RequestTimeout = 5
	return rec, &cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = "  "
	svc := notifications.NewService(&cfg)
	if notifications.Enabled(svc) {
		t.Fatal("expected noop service without a topic")
	}
	if err := svc.NotifyJobFailed(context.Background(), transcode.Result{}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("expected noop test notification to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	success := transcode.Result{
		JobID:     "job-1",
		Outcome:   transcode.OutcomeSuccess,
		VideoName: "holiday.mp4",
		Settings:  settings.Defaults(),
		Elapsed:   83 * time.Second,
	}
	failure := transcode.Result{
		JobID:      "job-2",
		Outcome:    transcode.OutcomeProcess,
		VideoName:  "holiday.mp4",
		Err:        errors.New("process failed: exit status 1"),
		StderrTail: "frame=1\nUnknown encoder 'libx265'",
	}

	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "job completed",
			send:          func(s notifications.Service) error { return s.NotifyJobCompleted(context.Background(), success) },
			expectTitle:   "hardsub - Job Complete",
			expectMessage: "✅ Burned subtitles into holiday.mp4 in 1m23s\nResolution: 720p, CRF: 24, Codec: libx264, Preset: medium, Font: HelveticaRounded-Bold, Font Size: 24, Bottom Margin: 25",
			expectTags:    "hardsub,job,completed",
		},
		{
			name:           "job failed",
			send:           func(s notifications.Service) error { return s.NotifyJobFailed(context.Background(), failure) },
			expectTitle:    "hardsub - Job Failed",
			expectMessage:  "❌ Job failed for holiday.mp4 (process_failed): process failed: exit status 1\nffmpeg: Unknown encoder 'libx265'",
			expectTags:     "hardsub,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			send:           func(s notifications.Service) error { return s.TestNotification(context.Background()) },
			expectTitle:    "hardsub - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "hardsub,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, cfg := newNtfy(t)
			svc := notifications.NewService(cfg)
			if !notifications.Enabled(svc) {
				t.Fatal("expected ntfy service")
			}
			if err := tc.send(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			got := rec.captured()
			if len(got) != 1 {
				t.Fatalf("expected 1 request, got %d", len(got))
			}
			if got[0].title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got[0].title)
			}
			if got[0].body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got[0].body)
			}
			if got[0].tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got[0].tags)
			}
			if got[0].priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got[0].priority)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	rec, cfg := newNtfy(t)
	rec.status = http.StatusTooManyRequests
	svc := notifications.NewService(cfg)

	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "topic quota exceeded") {
		t.Fatalf("expected status and body in error, got %v", err)
	}
}

func TestNtfyServiceFallsBackToJobID(t *testing.T) {
	rec, cfg := newNtfy(t)
	svc := notifications.NewService(cfg)
	result := transcode.Result{JobID: "abc", Outcome: transcode.OutcomeUnexpected}
	if err := svc.NotifyJobFailed(context.Background(), result); err != nil {
		t.Fatalf("notify: %v", err)
	}
	got := rec.captured()
	if len(got) != 1 || got[0].body != "❌ Job failed for job abc (unexpected_error)" {
		t.Fatalf("unexpected payload %+v", got)
	}
}
