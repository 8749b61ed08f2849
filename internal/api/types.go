package api

import (
	"time"

	"hardsub/internal/deps"
	"hardsub/internal/history"
	"hardsub/internal/session"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Status summarizes the running bot.
type Status struct {
	Running        bool               `json:"running"`
	PID            int                `json:"pid"`
	StartedAt      string             `json:"startedAt,omitempty"`
	UptimeSeconds  int64              `json:"uptimeSeconds"`
	Sessions       int                `json:"sessions"`
	RunningJobs    int                `json:"runningJobs"`
	JobsStarted    int64              `json:"jobsStarted"`
	JobsSucceeded  int64              `json:"jobsSucceeded"`
	JobsFailed     int64              `json:"jobsFailed"`
	HistoryEnabled bool               `json:"historyEnabled"`
	Dependencies   []DependencyStatus `json:"dependencies"`
}

// DependencyStatus captures availability of an external binary.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Version     string `json:"version,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// Job is one ledger entry.
type Job struct {
	JobID           string   `json:"jobId"`
	SessionID       string   `json:"sessionId"`
	VideoName       string   `json:"videoName,omitempty"`
	Outcome         string   `json:"outcome"`
	Category        string   `json:"category,omitempty"`
	ErrorMessage    string   `json:"errorMessage,omitempty"`
	Settings        Settings `json:"settings"`
	DurationSeconds float64  `json:"durationSeconds"`
	ProbeDegraded   bool     `json:"probeDegraded"`
	StartedAt       string   `json:"startedAt"`
	ElapsedMillis   int64    `json:"elapsedMs"`
}

// Settings mirrors the encoding options a job ran with.
type Settings struct {
	Resolution string `json:"resolution"`
	CRF        string `json:"crf"`
	Codec      string `json:"codec"`
	Preset     string `json:"preset"`
	FontName   string `json:"fontName"`
	FontSize   string `json:"fontSize"`
	MarginV    string `json:"marginV"`
}

// HistoryResponse wraps recent jobs, newest first.
type HistoryResponse struct {
	Jobs []Job `json:"jobs"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromStats converts manager counters into a Status payload.
func FromStats(stats session.Stats, now time.Time) Status {
	status := Status{
		Running:       true,
		Sessions:      stats.Sessions,
		RunningJobs:   stats.RunningJobs,
		JobsStarted:   stats.JobsStarted,
		JobsSucceeded: stats.JobsSucceeded,
		JobsFailed:    stats.JobsFailed,
		Dependencies:  []DependencyStatus{},
	}
	if !stats.Started.IsZero() {
		status.StartedAt = stats.Started.UTC().Format(dateTimeFormat)
		if uptime := now.Sub(stats.Started); uptime > 0 {
			status.UptimeSeconds = int64(uptime / time.Second)
		}
	}
	return status
}

// FromDependencies converts an inspected toolchain.
func FromDependencies(tc deps.Toolchain) []DependencyStatus {
	tools := tc.Tools()
	out := make([]DependencyStatus, len(tools))
	for i, tool := range tools {
		out[i] = DependencyStatus{
			Name:        tool.Name,
			Command:     tool.Command,
			Description: tool.Purpose,
			Optional:    tool.Optional,
			Available:   tool.Available,
			Version:     tool.Version,
			Detail:      tool.Problem,
		}
	}
	return out
}

// FromRecord converts a ledger record.
func FromRecord(rec history.Record) Job {
	return Job{
		JobID:        rec.JobID,
		SessionID:    rec.SessionID,
		VideoName:    rec.VideoName,
		Outcome:      rec.Outcome,
		Category:     rec.Category,
		ErrorMessage: rec.ErrorMessage,
		Settings: Settings{
			Resolution: rec.Resolution,
			CRF:        rec.CRF,
			Codec:      rec.Codec,
			Preset:     rec.Preset,
			FontName:   rec.FontName,
			FontSize:   rec.FontSize,
			MarginV:    rec.MarginV,
		},
		DurationSeconds: rec.DurationSeconds,
		ProbeDegraded:   rec.ProbeDegraded,
		StartedAt:       rec.StartedAt.UTC().Format(dateTimeFormat),
		ElapsedMillis:   rec.Elapsed.Milliseconds(),
	}
}
