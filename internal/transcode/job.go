package transcode

import (
	"path/filepath"
	"strings"
	"time"

	"hardsub/internal/settings"
	"hardsub/internal/textutil"
)

// Spec describes one burn job. Settings is a snapshot taken when the job was
// requested; later changes in the session never reach a running job.
type Spec struct {
	// JobID is generated by the supervisor when empty.
	JobID     string
	SessionID string
	Dir       string
	VideoPath string
	// VideoName is the user-facing name of the video; the base of VideoPath
	// when empty.
	VideoName    string
	SubtitlePath string
	// OutputPath defaults to output.mp4 inside Dir.
	OutputPath string
	Settings   settings.Configuration
}

// DisplayName is the video's user-facing name.
func (s Spec) DisplayName() string {
	if name := strings.TrimSpace(s.VideoName); name != "" {
		return name
	}
	return filepath.Base(s.VideoPath)
}

// Outcome classifies how a job ended.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	// OutcomePrecondition means no process was started, e.g. the font is missing.
	OutcomePrecondition
	// OutcomeProcess means ffmpeg exited unsuccessfully.
	OutcomeProcess
	// OutcomeDelivery means encoding succeeded but the output could not be delivered.
	OutcomeDelivery
	// OutcomeUnexpected covers everything else, including recovered panics.
	OutcomeUnexpected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomePrecondition:
		return "precondition_failed"
	case OutcomeProcess:
		return "process_failed"
	case OutcomeDelivery:
		return "delivery_failed"
	default:
		return "unexpected_error"
	}
}

// Result is the terminal report of a job.
type Result struct {
	JobID     string
	SessionID string
	Outcome   Outcome
	Err       error
	// FontPath is the resolved (or, on precondition failure, looked-up) font file.
	FontPath string
	// OutputPath is where ffmpeg wrote the output. The file is gone once Run
	// returns because the session directory has been torn down.
	OutputPath      string
	StderrTail      string
	DurationSeconds float64
	ProbeDegraded   bool
	Settings        settings.Configuration
	VideoName       string
	Started         time.Time
	Elapsed         time.Duration
}

// Succeeded reports whether the job encoded and delivered its output.
func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// DeliveredName is the file name a finished output is delivered under, e.g.
// "holiday.mp4" becomes "holiday.hardsub.mp4".
func DeliveredName(videoPath string) string {
	base := filepath.Base(strings.TrimSpace(videoPath))
	stem := textutil.SanitizeFileName(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" || stem == string(filepath.Separator) {
		stem = "video"
	}
	return stem + ".hardsub.mp4"
}
