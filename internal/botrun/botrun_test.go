package botrun

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hardsub/internal/chat"
	"hardsub/internal/config"
	"hardsub/internal/logging"
	"hardsub/internal/transcode"
)

type nopTransport struct{}

func (nopTransport) SendMessage(context.Context, string, chat.Message) (chat.MessageRef, error) {
	return chat.MessageRef{}, nil
}
func (nopTransport) EditMessage(context.Context, chat.MessageRef, chat.Message) error { return nil }
func (nopTransport) SendDocument(context.Context, string, chat.Document) error        { return nil }
func (nopTransport) Acknowledge(context.Context, string, string) error                { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ScratchDir = filepath.Join(root, "scratch")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Paths.FontsDir = filepath.Join(root, "fonts")
	cfg.History.Path = filepath.Join(root, "history.db")
	cfg.Telegram.Token = "123:abc"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	return &cfg
}

func TestAcquireLockRejectsSecondInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hardsub.lock")
	unlock, err := acquireLock(path)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}

	if _, err := acquireLock(path); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	if err := unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	again, err := acquireLock(path)
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	_ = again()
}

func TestAssembleMinimal(t *testing.T) {
	cfg := testConfig(t)
	rt, err := Assemble(cfg, nopTransport{}, logging.NewNop())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if rt.History != nil || rt.API != nil {
		t.Fatalf("optional components should be disabled: history=%v api=%v", rt.History, rt.API)
	}
	if len(rt.observers) != 0 {
		t.Fatalf("expected no observers, got %d", len(rt.observers))
	}
	if rt.Store.Root() != cfg.Paths.ScratchDir {
		t.Fatalf("store root %q, want %q", rt.Store.Root(), cfg.Paths.ScratchDir)
	}
	if err := rt.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := rt.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestAssembleWiresOptionalComponents(t *testing.T) {
	ntfy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ntfy.Close()

	cfg := testConfig(t)
	cfg.History.Enabled = true
	cfg.Notifications.NtfyTopic = ntfy.URL
	cfg.API.Bind = "127.0.0.1:0"
	cfg.API.Token = "secret"

	rt, err := Assemble(cfg, nopTransport{}, logging.NewNop())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if rt.History == nil || rt.API == nil {
		t.Fatal("expected history and api to be wired")
	}
	if len(rt.observers) != 2 {
		t.Fatalf("expected history and notification observers, got %d", len(rt.observers))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, "http://"+rt.API.Addr()+"/api/history", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("history request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected history to be served, got %d", resp.StatusCode)
	}

	for _, obs := range rt.observers {
		obs.JobFinished(ctx, transcode.Result{JobID: "j1", SessionID: "1", Outcome: transcode.OutcomeProcess})
	}
	recs, err := rt.History.Recent(ctx, 10)
	if err != nil || len(recs) != 1 {
		t.Fatalf("expected one recorded job, got %d (%v)", len(recs), err)
	}

	if err := rt.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestAssembleRequiresTransport(t *testing.T) {
	if _, err := Assemble(testConfig(t), nil, nil); err == nil {
		t.Fatal("expected error without transport")
	}
}

func TestCheckReadinessBlocksOnFailures(t *testing.T) {
	cfg := testConfig(t)
	cfg.Preflight.MinFreeGiB = 0
	cfg.FFmpeg.FFmpegBinary = "clearly-not-present-ffmpeg"
	if err := os.MkdirAll(cfg.Paths.FontsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Paths.FontsDir, "HelveticaRounded-Bold.ttf"), []byte("font"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := checkReadiness(context.Background(), cfg, logging.NewNop(), false)
	if err == nil || !strings.Contains(err.Error(), "FFmpeg") {
		t.Fatalf("expected ffmpeg failure, got %v", err)
	}
	if err := checkReadiness(context.Background(), cfg, logging.NewNop(), true); err != nil {
		t.Fatalf("skip should ignore failures, got %v", err)
	}
}

func TestRunRequiresToken(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telegram.Token = ""
	if err := Run(context.Background(), cfg, Options{}); err == nil {
		t.Fatal("expected missing token error")
	}
}
