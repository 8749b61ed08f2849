package session

import (
	"context"
	"time"

	"hardsub/internal/assets"
	"hardsub/internal/chat"
	"hardsub/internal/settings"
	"hardsub/internal/transcode"
)

// State is a session's position in the conversation.
type State int

const (
	StateIdle State = iota
	StateAwaitingVideo
	StateAwaitingSubtitle
	StateConfiguringOptions
	StateJobRunning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingVideo:
		return "awaiting_video"
	case StateAwaitingSubtitle:
		return "awaiting_subtitle"
	case StateConfiguringOptions:
		return "configuring_options"
	case StateJobRunning:
		return "job_running"
	default:
		return "unknown"
	}
}

// Event is an inbound occurrence addressed to one session.
type Event interface {
	isEvent()
}

// StartCommand begins a new session (/mux).
type StartCommand struct{}

// CancelCommand abandons the session (/cancel).
type CancelCommand struct{}

// HelpCommand asks for usage instructions (/start, /help).
type HelpCommand struct {
	// Name is the user's display name, used in the greeting when set.
	Name string
}

// FileReceived carries an inbound attachment.
type FileReceived struct {
	File chat.File
}

// ButtonPressed carries a parsed inline button press. Message is the message
// the keyboard was attached to; AckID answers the press.
type ButtonPressed struct {
	Action  chat.Action
	AckID   string
	Message chat.MessageRef
}

// JobFinished is queued by a job's goroutine once the job has ended and its
// outcome has been reported to the user.
type JobFinished struct {
	Result transcode.Result
}

func (StartCommand) isEvent()  {}
func (CancelCommand) isEvent() {}
func (HelpCommand) isEvent()   {}
func (FileReceived) isEvent()  {}
func (ButtonPressed) isEvent() {}
func (JobFinished) isEvent()   {}

// Snapshot is a read-only copy of a session's state.
type Snapshot struct {
	ID       string
	State    State
	Submenu  settings.Key
	Settings settings.Configuration
	Assets   assets.Set
	JobID    string
}

// Stats summarizes manager activity.
type Stats struct {
	Sessions      int
	RunningJobs   int
	JobsStarted   int64
	JobsSucceeded int64
	JobsFailed    int64
	Started       time.Time
}

// JobRunner executes one burn job to completion. *transcode.Supervisor
// satisfies it.
type JobRunner interface {
	Run(ctx context.Context, spec transcode.Spec, rep transcode.Reporter) transcode.Result
}

// JobObserver is told about every finished job after the user has been
// informed. Observers run on the job's goroutine and must not block for long.
type JobObserver interface {
	JobFinished(ctx context.Context, result transcode.Result)
}

// session is the state owned by one worker.
type session struct {
	id       string
	state    State
	submenu  settings.Key
	settings settings.Configuration
	assets   assets.Set
	jobID    string
	lastSeen time.Time
}

func newSession(id string) *session {
	return &session{id: id, state: StateIdle, settings: settings.Defaults()}
}

func (s *session) reset() {
	s.state = StateIdle
	s.submenu = ""
	s.settings = settings.Defaults()
	s.assets = assets.Set{}
	s.jobID = ""
}

func (s *session) snapshot() Snapshot {
	return Snapshot{
		ID:       s.id,
		State:    s.state,
		Submenu:  s.submenu,
		Settings: s.settings,
		Assets:   s.assets,
		JobID:    s.jobID,
	}
}
