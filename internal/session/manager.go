package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"hardsub/internal/assets"
	"hardsub/internal/chat"
	"hardsub/internal/logging"
)

// ErrClosed is returned by Dispatch after Close has been called.
var ErrClosed = errors.New("session manager closed")

// ErrSessionBusy is returned by Dispatch when the session's queue is full.
// The event is dropped; a dropped button press is still answered.
var ErrSessionBusy = errors.New("session busy")

// DefaultIdleTimeout is how long a session may sit without events before its
// worker retires.
const DefaultIdleTimeout = 30 * time.Minute

const (
	inboxSize = 32

	// busyAckTimeout bounds the answer to a button press that was dropped.
	busyAckTimeout = 10 * time.Second
)

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithIdleTimeout overrides DefaultIdleTimeout.
func WithIdleTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.idleTimeout = d
		}
	}
}

// WithObservers registers observers told about every finished job.
func WithObservers(observers ...JobObserver) ManagerOption {
	return func(m *Manager) {
		for _, obs := range observers {
			if obs != nil {
				m.observers = append(m.observers, obs)
			}
		}
	}
}

// WithJobIDGenerator replaces the job ID generator.
func WithJobIDGenerator(next func() string) ManagerOption {
	return func(m *Manager) {
		if next != nil {
			m.newJobID = next
		}
	}
}

// Manager routes events to per-session workers.
type Manager struct {
	transport   chat.Transport
	store       *assets.Store
	runner      JobRunner
	observers   []JobObserver
	logger      *slog.Logger
	idleTimeout time.Duration
	newJobID    func() string
	startedAt   time.Time

	// ctx scopes transport calls made by workers; jobCtx scopes running jobs.
	ctx        context.Context
	cancel     context.CancelFunc
	jobCtx     context.Context
	cancelJobs context.CancelFunc

	mu      sync.Mutex
	workers map[string]*worker
	closed  bool
	quit    chan struct{}

	workerWG sync.WaitGroup
	jobWG    sync.WaitGroup

	running       atomic.Int64
	jobsStarted   atomic.Int64
	jobsSucceeded atomic.Int64
	jobsFailed    atomic.Int64
}

// NewManager constructs a Manager. Jobs are executed by runner; session
// directories live in store.
func NewManager(transport chat.Transport, store *assets.Store, runner JobRunner, logger *slog.Logger, opts ...ManagerOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	m := &Manager{
		transport:   transport,
		store:       store,
		runner:      runner,
		logger:      logging.NewComponentLogger(logger, "session"),
		idleTimeout: DefaultIdleTimeout,
		newJobID:    uuid.NewString,
		startedAt:   time.Now(),
		ctx:         ctx,
		cancel:      cancel,
		jobCtx:      jobCtx,
		cancelJobs:  cancelJobs,
		workers:     make(map[string]*worker),
		quit:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dispatch queues evt for the session identified by sessionID, starting a
// worker if the session has none. Events for one session are handled in the
// order they were dispatched. Dispatch never waits on a busy session: when its
// queue is full the event is dropped and ErrSessionBusy returned, so one
// session cannot stall the caller's delivery to the others.
func (m *Manager) Dispatch(_ context.Context, sessionID string, evt Event) error {
	w, err := m.acquire(sessionID)
	if err != nil {
		return err
	}
	select {
	case w.inbox <- envelope{event: evt}:
		return nil
	default:
	}
	m.release(w)
	w.logger.Warn("session queue full; event dropped",
		logging.String(logging.FieldEventType, "event_dropped"),
		logging.String("event", eventName(evt)),
		logging.Int("queued", len(w.inbox)),
	)
	if press, ok := evt.(ButtonPressed); ok && press.AckID != "" {
		go m.answerDropped(press.AckID)
	}
	return ErrSessionBusy
}

// deliver queues evt, waiting for room. Only job goroutines use it: a job's
// completion must reach its session.
func (m *Manager) deliver(ctx context.Context, sessionID string, evt Event) error {
	w, err := m.acquire(sessionID)
	if err != nil {
		return err
	}
	select {
	case w.inbox <- envelope{event: evt}:
		return nil
	case <-ctx.Done():
		m.release(w)
		return ctx.Err()
	case <-m.quit:
		m.release(w)
		return ErrClosed
	}
}

// State returns a snapshot of the session. Sessions without a live worker
// report Idle with default settings and false.
func (m *Manager) State(ctx context.Context, sessionID string) (Snapshot, bool, error) {
	m.mu.Lock()
	w, ok := m.workers[sessionID]
	if ok {
		w.pending++
	}
	m.mu.Unlock()
	if !ok {
		return newSession(sessionID).snapshot(), false, nil
	}

	reply := make(chan Snapshot, 1)
	select {
	case w.inbox <- envelope{query: reply}:
	case <-ctx.Done():
		m.release(w)
		return Snapshot{}, false, ctx.Err()
	case <-m.quit:
		m.release(w)
		return Snapshot{}, false, ErrClosed
	}
	select {
	case snap := <-reply:
		return snap, true, nil
	case <-ctx.Done():
		return Snapshot{}, false, ctx.Err()
	}
}

// Stats reports current activity.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	sessions := len(m.workers)
	m.mu.Unlock()
	return Stats{
		Sessions:      sessions,
		RunningJobs:   int(m.running.Load()),
		JobsStarted:   m.jobsStarted.Load(),
		JobsSucceeded: m.jobsSucceeded.Load(),
		JobsFailed:    m.jobsFailed.Load(),
		Started:       m.startedAt,
	}
}

// Close stops accepting events, cancels running jobs and waits for them to
// finish their cleanup, then stops every worker. It returns ctx.Err() if ctx
// ends first.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	if n := m.running.Load(); n > 0 {
		m.logger.Info("stopping running jobs", logging.Int64("jobs", n))
	}
	m.cancelJobs()
	jobsDone := make(chan struct{})
	go func() {
		m.jobWG.Wait()
		close(jobsDone)
	}()
	var err error
	select {
	case <-jobsDone:
	case <-ctx.Done():
		err = ctx.Err()
	}

	close(m.quit)
	m.cancel()
	if err == nil {
		m.workerWG.Wait()
	}
	return err
}

func (m *Manager) answerDropped(ackID string) {
	ctx, cancel := context.WithTimeout(m.ctx, busyAckTimeout)
	defer cancel()
	if err := m.transport.Acknowledge(ctx, ackID, textBusy); err != nil {
		m.logger.Debug("busy acknowledgement failed", logging.Error(err))
	}
}

func eventName(evt Event) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", evt), "session.")
}

func (m *Manager) acquire(sessionID string) (*worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	w, ok := m.workers[sessionID]
	if !ok {
		w = &worker{
			manager: m,
			inbox:   make(chan envelope, inboxSize),
			session: newSession(sessionID),
		}
		w.logger = m.logger.With(logging.String(logging.FieldSessionID, sessionID))
		m.workers[sessionID] = w
		m.workerWG.Add(1)
		go w.loop()
	}
	w.pending++
	return w, nil
}

func (m *Manager) release(w *worker) {
	m.mu.Lock()
	w.pending--
	m.mu.Unlock()
}

// retire removes w from the routing table unless an event is on its way.
func (m *Manager) retire(w *worker) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w.pending > 0 {
		return false
	}
	delete(m.workers, w.session.id)
	return true
}
