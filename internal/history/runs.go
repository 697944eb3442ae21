package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"captioner/internal/host"
	"captioner/internal/pipeline"
)

const runColumns = "id, state, format, sequence_name, audio_path, subtitle_path, caption_count, progress_percent, last_error, error_kind, started_at, finished_at"

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 20

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RecordRun stores a finished run. Re-recording a run replaces it.
func (s *Store) RecordRun(ctx context.Context, run pipeline.Run) error {
	if run.ID == "" {
		return errors.New("record run: missing id")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		string(run.State),
		string(run.Format),
		nullableString(run.SequenceName),
		nullableString(run.AudioPath),
		nullableString(run.SubtitlePath),
		run.CaptionCount,
		int(run.ProgressPercent),
		nullableString(run.LastError),
		nullableString(run.ErrorKind),
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]pipeline.Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []pipeline.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun fetches a run by ID. A missing run returns (nil, nil).
func (s *Store) GetRun(ctx context.Context, id string) (*pipeline.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// PruneRuns keeps the newest keep runs and deletes the rest.
func (s *Store) PruneRuns(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY started_at DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (pipeline.Run, error) {
	var (
		run          pipeline.Run
		state        string
		format       string
		sequenceName sql.NullString
		audioPath    sql.NullString
		subtitlePath sql.NullString
		progress     int
		lastError    sql.NullString
		errorKind    sql.NullString
		startedRaw   string
		finishedRaw  string
	)
	if err := scanner.Scan(
		&run.ID,
		&state,
		&format,
		&sequenceName,
		&audioPath,
		&subtitlePath,
		&run.CaptionCount,
		&progress,
		&lastError,
		&errorKind,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("scan run: %w", err)
	}
	run.State = pipeline.State(state)
	run.Format = host.Format(format)
	run.SequenceName = sequenceName.String
	run.AudioPath = audioPath.String
	run.SubtitlePath = subtitlePath.String
	run.ProgressPercent = uint8(progress)
	run.LastError = lastError.String
	run.ErrorKind = errorKind.String
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finishedRaw)
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
