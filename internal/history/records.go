package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hardsub/internal/faults"
	"hardsub/internal/transcode"
)

// timeLayout sorts lexically in chronological order (fixed width, UTC).
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Record is one finished job.
type Record struct {
	JobID           string
	SessionID       string
	VideoName       string
	Outcome         string
	Category        string
	ErrorMessage    string
	Resolution      string
	CRF             string
	Codec           string
	Preset          string
	FontName        string
	FontSize        string
	MarginV         string
	DurationSeconds float64
	ProbeDegraded   bool
	StartedAt       time.Time
	Elapsed         time.Duration
}

// Succeeded reports whether the job delivered its output.
func (r Record) Succeeded() bool {
	return r.Outcome == transcode.OutcomeSuccess.String()
}

// FromResult converts a job result into a ledger record.
func FromResult(result transcode.Result) Record {
	rec := Record{
		JobID:           result.JobID,
		SessionID:       result.SessionID,
		VideoName:       result.VideoName,
		Outcome:         result.Outcome.String(),
		Category:        faults.Category(result.Err),
		Resolution:      result.Settings.Resolution,
		CRF:             result.Settings.CRF,
		Codec:           result.Settings.Codec,
		Preset:          result.Settings.Preset,
		FontName:        result.Settings.FontName,
		FontSize:        result.Settings.FontSize,
		MarginV:         result.Settings.MarginV,
		DurationSeconds: result.DurationSeconds,
		ProbeDegraded:   result.ProbeDegraded,
		StartedAt:       result.Started,
		Elapsed:         result.Elapsed,
	}
	if result.Err != nil {
		rec.ErrorMessage = result.Err.Error()
	}
	if result.StderrTail != "" {
		rec.ErrorMessage = result.StderrTail
	}
	return rec
}

// Insert adds rec. Re-inserting a job ID replaces the earlier row.
func (s *Store) Insert(ctx context.Context, rec Record) error {
	if rec.JobID == "" {
		return fmt.Errorf("insert history: job id is empty")
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}
	_, err := s.exec(ctx, `INSERT OR REPLACE INTO jobs (
		job_id, session_id, video_name, outcome, category, error_message,
		resolution, crf, codec, preset, font_name, font_size, margin_v,
		duration_seconds, probe_degraded, started_at, elapsed_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.JobID, rec.SessionID, rec.VideoName, rec.Outcome, rec.Category, rec.ErrorMessage,
		rec.Resolution, rec.CRF, rec.Codec, rec.Preset, rec.FontName, rec.FontSize, rec.MarginV,
		rec.DurationSeconds, boolToInt(rec.ProbeDegraded), rec.StartedAt.UTC().Format(timeLayout), rec.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. A limit of zero or less
// returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT job_id, session_id, video_name, outcome, category, error_message,
		resolution, crf, codec, preset, font_name, font_size, margin_v,
		duration_seconds, probe_degraded, started_at, elapsed_ms
		FROM jobs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM jobs").Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

// Prune keeps the newest keep records and deletes the rest. It returns the
// number of deleted rows. A keep of zero or less disables pruning.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.exec(ctx, `DELETE FROM jobs WHERE id NOT IN (
		SELECT id FROM jobs ORDER BY started_at DESC, id DESC LIMIT ?
	)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return n, nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var (
		rec       Record
		degraded  int
		startedAt string
		elapsedMS int64
	)
	if err := rows.Scan(
		&rec.JobID, &rec.SessionID, &rec.VideoName, &rec.Outcome, &rec.Category, &rec.ErrorMessage,
		&rec.Resolution, &rec.CRF, &rec.Codec, &rec.Preset, &rec.FontName, &rec.FontSize, &rec.MarginV,
		&rec.DurationSeconds, &degraded, &startedAt, &elapsedMS,
	); err != nil {
		return Record{}, fmt.Errorf("scan history row: %w", err)
	}
	rec.ProbeDegraded = degraded != 0
	rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	if ts, err := time.Parse(timeLayout, startedAt); err == nil {
		rec.StartedAt = ts
	}
	return rec, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
