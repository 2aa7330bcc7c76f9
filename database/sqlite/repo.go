// Package sqlite implements the archive history repository using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sagarc03/photozip"
	"github.com/sagarc03/photozip/database/internal"
)

// timeFormat is fixed width so text comparison orders rows by time.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeFormat, s)
}

type Repo struct {
	db        *sql.DB
	tableName string
}

func NewRepo(db *sql.DB, tables photozip.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{db: db, tableName: tables.History}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repo) Begin(ctx context.Context, rec photozip.ArchiveRecord) error {
	if rec.ID == uuid.Nil || rec.Token == "" || rec.StartedAt.IsZero() {
		return fmt.Errorf("begin: id, token and start time are required: %w", photozip.ErrInvalidInput)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, token, producer, outcome, chunks, bytes_sent, exit_code, started_at)
		VALUES (?, ?, ?, ?, 0, 0, 0, ?)`, r.tableName)

	_, err := r.db.ExecContext(ctx, query,
		rec.ID.String(), rec.Token, rec.Producer, string(photozip.OutcomeStreaming), formatTime(rec.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	return nil
}

func (r *Repo) Finish(ctx context.Context, id uuid.UUID, stats photozip.StreamStats) error {
	if !stats.Outcome.IsValid() || stats.Outcome == photozip.OutcomeStreaming {
		return fmt.Errorf("finish: outcome %q: %w", stats.Outcome, photozip.ErrInvalidInput)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s
		SET outcome = ?, chunks = ?, bytes_sent = ?, exit_code = ?, finished_at = ?
		WHERE id = ? AND outcome = ?`, r.tableName)

	result, err := r.db.ExecContext(ctx, query,
		string(stats.Outcome), stats.Chunks, stats.BytesSent, stats.ExitCode, formatTime(time.Now()),
		id.String(), string(photozip.OutcomeStreaming),
	)
	if err != nil {
		return fmt.Errorf("finish: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("finish: %w", photozip.ErrNotFound)
	}

	return nil
}

func (r *Repo) Get(ctx context.Context, id uuid.UUID) (photozip.ArchiveRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, token, producer, outcome, chunks, bytes_sent, exit_code, started_at, finished_at
		FROM %s
		WHERE id = ?`, r.tableName)

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return photozip.ArchiveRecord{}, photozip.ErrNotFound
		}
		return photozip.ArchiveRecord{}, fmt.Errorf("get: %w", err)
	}

	return rec, nil
}

func (r *Repo) List(ctx context.Context, q photozip.HistoryQuery) (photozip.HistoryResult, error) {
	if q.Limit <= 0 {
		return photozip.HistoryResult{}, fmt.Errorf("list: limit must be positive: %w", photozip.ErrInvalidInput)
	}

	cursor, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return photozip.HistoryResult{}, fmt.Errorf("list: %w: %w", photozip.ErrInvalidInput, err)
	}

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf(`
			SELECT id, token, producer, outcome, chunks, bytes_sent, exit_code, started_at, finished_at
			FROM %s
			WHERE (? = '' OR token = ?)
			ORDER BY started_at DESC, id DESC
			LIMIT ?
		`, r.tableName)
		args = []any{q.Token, q.Token, q.Limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT id, token, producer, outcome, chunks, bytes_sent, exit_code, started_at, finished_at
			FROM %s
			WHERE (? = '' OR token = ?) AND (started_at, id) < (?, ?)
			ORDER BY started_at DESC, id DESC
			LIMIT ?
		`, r.tableName)
		args = []any{q.Token, q.Token, formatTime(cursor.StartedAt), cursor.ID.String(), q.Limit + 1}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return photozip.HistoryResult{}, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]photozip.ArchiveRecord, 0, q.Limit)
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			return photozip.HistoryResult{}, fmt.Errorf("list: %w", scanErr)
		}
		items = append(items, rec)
	}

	if err := rows.Err(); err != nil {
		return photozip.HistoryResult{}, fmt.Errorf("list: rows: %w", err)
	}

	var nextCursor string
	if len(items) > q.Limit {
		// Cursor points to the last item of the current page
		lastItem := items[q.Limit-1]
		nextCursor = internal.EncodeCursor(lastItem.StartedAt, lastItem.ID)
		items = items[:q.Limit]
	}

	return photozip.HistoryResult{Items: items, NextCursor: nextCursor}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (photozip.ArchiveRecord, error) {
	var rec photozip.ArchiveRecord
	var idStr, outcome, startedAt string
	var finishedAt sql.NullString

	err := row.Scan(&idStr, &rec.Token, &rec.Producer, &outcome,
		&rec.Chunks, &rec.BytesSent, &rec.ExitCode, &startedAt, &finishedAt)
	if err != nil {
		return photozip.ArchiveRecord{}, err
	}

	rec.ID, err = uuid.Parse(idStr)
	if err != nil {
		return photozip.ArchiveRecord{}, fmt.Errorf("parse uuid: %w", err)
	}

	rec.Outcome = photozip.Outcome(outcome)

	rec.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return photozip.ArchiveRecord{}, fmt.Errorf("parse started_at: %w", err)
	}

	if finishedAt.Valid {
		t, err := parseTime(finishedAt.String)
		if err != nil {
			return photozip.ArchiveRecord{}, fmt.Errorf("parse finished_at: %w", err)
		}
		rec.FinishedAt = &t
	}

	return rec, nil
}
