// Package postgres implements the archive history repository using PostgreSQL
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/photozip"
	"github.com/sagarc03/photozip/database/internal"
)

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewRepo(pool *pgxpool.Pool, tables photozip.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: pgx.Identifier{tables.History}.Sanitize()}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) Begin(ctx context.Context, rec photozip.ArchiveRecord) error {
	if rec.ID == uuid.Nil || rec.Token == "" || rec.StartedAt.IsZero() {
		return fmt.Errorf("begin: id, token and start time are required: %w", photozip.ErrInvalidInput)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, token, producer, outcome, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tableName)

	_, err := r.pool.Exec(ctx, query, rec.ID, rec.Token, rec.Producer, string(photozip.OutcomeStreaming), rec.StartedAt)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	return nil
}

func (r *Repo) Finish(ctx context.Context, id uuid.UUID, stats photozip.StreamStats) error {
	if !stats.Outcome.IsValid() || stats.Outcome == photozip.OutcomeStreaming {
		return fmt.Errorf("finish: outcome %q: %w", stats.Outcome, photozip.ErrInvalidInput)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET outcome = $1, chunks = $2, bytes_sent = $3, exit_code = $4, finished_at = NOW()
		WHERE id = $5 AND outcome = $6
	`, r.tableName)

	result, err := r.pool.Exec(ctx, query,
		string(stats.Outcome), stats.Chunks, stats.BytesSent, stats.ExitCode,
		id, string(photozip.OutcomeStreaming),
	)
	if err != nil {
		return fmt.Errorf("finish: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("finish: %w", photozip.ErrNotFound)
	}

	return nil
}

func (r *Repo) Get(ctx context.Context, id uuid.UUID) (photozip.ArchiveRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, token, producer, outcome, chunks, bytes_sent, exit_code, started_at, finished_at
		FROM %s
		WHERE id = $1
	`, r.tableName)

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
			WHERE ($1 = '' OR token = $1)
			ORDER BY started_at DESC, id DESC
			LIMIT $2
		`, r.tableName)
		args = []any{q.Token, q.Limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT id, token, producer, outcome, chunks, bytes_sent, exit_code, started_at, finished_at
			FROM %s
			WHERE ($1 = '' OR token = $1) AND (started_at, id) < ($2, $3)
			ORDER BY started_at DESC, id DESC
			LIMIT $4
		`, r.tableName)
		args = []any{q.Token, cursor.StartedAt, cursor.ID, q.Limit + 1}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return photozip.HistoryResult{}, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	items := make([]photozip.ArchiveRecord, 0, q.Limit)
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			return photozip.HistoryResult{}, fmt.Errorf("list: scan: %w", scanErr)
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

func scanRecord(row pgx.Row) (photozip.ArchiveRecord, error) {
	var rec photozip.ArchiveRecord
	var outcome string
	var finishedAt *time.Time

	err := row.Scan(&rec.ID, &rec.Token, &rec.Producer, &outcome,
		&rec.Chunks, &rec.BytesSent, &rec.ExitCode, &rec.StartedAt, &finishedAt)
	if err != nil {
		return photozip.ArchiveRecord{}, err
	}

	rec.Outcome = photozip.Outcome(outcome)
	rec.StartedAt = rec.StartedAt.UTC()
	if finishedAt != nil {
		t := finishedAt.UTC()
		rec.FinishedAt = &t
	}

	return rec, nil
}
