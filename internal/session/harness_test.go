package session_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"hardsub/internal/assets"
	"hardsub/internal/chat"
	"hardsub/internal/logging"
	"hardsub/internal/session"
	"hardsub/internal/transcode"
)

const testSession = "1001"

type record struct {
	op  string
	ref chat.MessageRef
	msg chat.Message
	doc chat.Document
	ack string
}

// fakeTransport records every outbound call.
type fakeTransport struct {
	mu      sync.Mutex
	nextID  int
	records []record
	sendErr error
}

func (f *fakeTransport) SendMessage(_ context.Context, sessionID string, msg chat.Message) (chat.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return chat.MessageRef{}, f.sendErr
	}
	f.nextID++
	ref := chat.MessageRef{SessionID: sessionID, MessageID: f.nextID}
	f.records = append(f.records, record{op: "send", ref: ref, msg: msg})
	return ref, nil
}

func (f *fakeTransport) EditMessage(_ context.Context, ref chat.MessageRef, msg chat.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.records) - 1; i >= 0; i-- {
		r := f.records[i]
		if r.ref == ref && (r.op == "send" || r.op == "edit") {
			if r.msg.Text == msg.Text {
				return chat.ErrNotModified
			}
			break
		}
	}
	f.records = append(f.records, record{op: "edit", ref: ref, msg: msg})
	return nil
}

func (f *fakeTransport) SendDocument(_ context.Context, _ string, doc chat.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record{op: "document", doc: doc})
	return nil
}

func (f *fakeTransport) Acknowledge(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record{op: "ack", ack: text})
	return nil
}

func (f *fakeTransport) snapshot() []record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]record(nil), f.records...)
}

// lastMessage returns the most recent sent or edited message.
func (f *fakeTransport) lastMessage() record {
	records := f.snapshot()
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].op == "send" || records[i].op == "edit" {
			return records[i]
		}
	}
	return record{}
}

func (f *fakeTransport) sawText(substr string) bool {
	for _, r := range f.snapshot() {
		if (r.op == "send" || r.op == "edit") && strings.Contains(r.msg.Text, substr) {
			return true
		}
	}
	return false
}

func (f *fakeTransport) acks() []string {
	var out []string
	for _, r := range f.snapshot() {
		if r.op == "ack" {
			out = append(out, r.ack)
		}
	}
	return out
}

func (f *fakeTransport) documents() []chat.Document {
	var out []chat.Document
	for _, r := range f.snapshot() {
		if r.op == "document" {
			out = append(out, r.doc)
		}
	}
	return out
}

// blockingRunner hands each spec to the test and waits for a result.
type blockingRunner struct {
	specs   chan transcode.Spec
	results chan transcode.Result
	store   *assets.Store
}

func newBlockingRunner(store *assets.Store) *blockingRunner {
	return &blockingRunner{
		specs:   make(chan transcode.Spec, 1),
		results: make(chan transcode.Result, 1),
		store:   store,
	}
}

func (r *blockingRunner) Run(ctx context.Context, spec transcode.Spec, _ transcode.Reporter) transcode.Result {
	defer r.store.Teardown(spec.Dir)
	r.specs <- spec
	select {
	case result := <-r.results:
		result.JobID = spec.JobID
		result.SessionID = spec.SessionID
		result.Settings = spec.Settings
		return result
	case <-ctx.Done():
		return transcode.Result{JobID: spec.JobID, SessionID: spec.SessionID, Outcome: transcode.OutcomeProcess, Err: ctx.Err()}
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	results []transcode.Result
}

func (o *recordingObserver) JobFinished(_ context.Context, result transcode.Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.results)
}

type harness struct {
	t         *testing.T
	manager   *session.Manager
	transport *fakeTransport
	store     *assets.Store
}

func newHarness(t *testing.T, runnerFor func(*assets.Store) session.JobRunner, opts ...session.ManagerOption) *harness {
	t.Helper()
	store := assets.NewStore(t.TempDir(), logging.NewNop())
	transport := &fakeTransport{}
	manager := session.NewManager(transport, store, runnerFor(store), logging.NewNop(), opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = manager.Close(ctx)
	})
	return &harness{t: t, manager: manager, transport: transport, store: store}
}

func (h *harness) dispatch(evt session.Event) {
	h.t.Helper()
	if err := h.manager.Dispatch(context.Background(), testSession, evt); err != nil {
		h.t.Fatalf("Dispatch(%T): %v", evt, err)
	}
}

// state returns the session snapshot after every previously dispatched event
// has been handled.
func (h *harness) state() session.Snapshot {
	h.t.Helper()
	snap, _, err := h.manager.State(context.Background(), testSession)
	if err != nil {
		h.t.Fatalf("State: %v", err)
	}
	return snap
}

func (h *harness) waitState(want session.State) session.Snapshot {
	h.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		snap := h.state()
		if snap.State == want {
			return snap
		}
		if time.Now().After(deadline) {
			h.t.Fatalf("state = %s, want %s", snap.State, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// press sends a button press against the most recent keyboard message.
func (h *harness) press(action chat.Action) {
	h.t.Helper()
	h.dispatch(session.ButtonPressed{Action: action, AckID: "ack", Message: h.transport.lastMessage().ref})
}

// collectInputs drives a fresh session up to ConfiguringOptions.
func (h *harness) collectInputs() session.Snapshot {
	h.t.Helper()
	h.dispatch(session.StartCommand{})
	h.dispatch(session.FileReceived{File: videoFile("clip.mp4")})
	h.dispatch(session.FileReceived{File: subtitleFile("clip.srt")})
	snap := h.state()
	if snap.State != session.StateConfiguringOptions {
		h.t.Fatalf("state after inputs = %s", snap.State)
	}
	return snap
}

func contentFile(kind assets.Kind, name, mime, content string) chat.File {
	return chat.File{
		Kind:     kind,
		Name:     name,
		MIME:     mime,
		Size:     int64(len(content)),
		UniqueID: "uniq",
		Open: func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func videoFile(name string) chat.File {
	return contentFile(assets.KindVideo, name, "video/mp4", "video-bytes")
}

func subtitleFile(name string) chat.File {
	return contentFile(assets.KindDocument, name, "application/x-subrip", "1\n00:00:01,000 --> 00:00:02,000\nhi\n")
}

func failingFile(kind assets.Kind, name, mime string) chat.File {
	return chat.File{
		Kind: kind,
		Name: name,
		MIME: mime,
		Open: func(context.Context) (io.ReadCloser, error) {
			return nil, errors.New("file is too big")
		},
	}
}
