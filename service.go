package photozip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DirectoryStore resolves archive tokens to photo directories.
type DirectoryStore interface {
	// Resolve returns the absolute path of the directory named by token.
	//
	// Returns:
	//   - string: Absolute directory path, suitable for a Producer
	//   - error: ErrNotFound if the directory doesn't exist, or other storage errors
	Resolve(ctx context.Context, token string) (string, error)
}

// ServiceConfig holds configuration options for ArchiveService.
type ServiceConfig struct {
	// Producer names the producer implementation in history records.
	Producer ProducerKind
	Stream   StreamConfig
	// History is optional; nil disables archive history.
	History HistoryRepo
	// HistoryTimeout bounds history writes (default: 5s).
	HistoryTimeout time.Duration
}

// ArchiveService serves photo directories as streamed zip archives.
type ArchiveService struct {
	store          DirectoryStore
	producer       Producer
	kind           ProducerKind
	streamer       *Streamer
	history        HistoryRepo
	historyTimeout time.Duration
}

// Archive is an opened archive stream: the directory exists and its
// producer is running. It must be passed to Stream exactly once.
type Archive struct {
	ID        uuid.UUID
	Token     string
	Dir       string
	StartedAt time.Time

	proc Process
}

// Filename returns the proposed download filename.
func (a *Archive) Filename() string {
	return ArchiveFilename(a.Token)
}

func NewArchiveService(store DirectoryStore, producer Producer, cfg ServiceConfig) (*ArchiveService, error) {
	if store == nil {
		return nil, errors.New("new archive service: directory store is required")
	}
	if producer == nil {
		return nil, errors.New("new archive service: producer is required")
	}
	if !cfg.Producer.IsValid() {
		return nil, fmt.Errorf("new archive service: invalid producer: %s", cfg.Producer)
	}

	historyTimeout := cfg.HistoryTimeout
	if historyTimeout <= 0 {
		historyTimeout = 5 * time.Second
	}

	return &ArchiveService{
		store:          store,
		producer:       producer,
		kind:           cfg.Producer,
		streamer:       NewStreamer(cfg.Stream),
		history:        cfg.History,
		historyTimeout: historyTimeout,
	}, nil
}

// Open checks that the directory named by token exists and launches its
// producer. Nothing is started when an error is returned.
//
// Error types returned:
//   - ErrInvalidInput: token is not a single directory name
//   - ErrNotFound (as *NotFoundError): directory does not exist
//   - Wrapped producer errors: launch failed
func (s *ArchiveService) Open(ctx context.Context, token string) (*Archive, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	if !IsValidToken(token) {
		return nil, fmt.Errorf("open %q: %w", token, ErrInvalidInput)
	}

	dir, err := s.store.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{Token: token}
		}
		return nil, fmt.Errorf("open %q: %w", token, err)
	}

	proc, err := s.producer.Start(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("open %q: start producer: %w", token, err)
	}

	archive := &Archive{
		ID:        uuid.New(),
		Token:     token,
		Dir:       dir,
		StartedAt: time.Now().UTC(),
		proc:      proc,
	}

	slog.Info("archive producer started", "archive_id", archive.ID, "token", token, "pid", proc.ID())

	if s.history != nil {
		hctx, cancel := s.historyContext(ctx)
		defer cancel()

		rec := ArchiveRecord{
			ID:        archive.ID,
			Token:     token,
			Producer:  string(s.kind),
			Outcome:   OutcomeStreaming,
			StartedAt: archive.StartedAt,
		}
		if err := s.history.Begin(hctx, rec); err != nil {
			slog.Warn("failed to record archive start", "archive_id", archive.ID, "err", err)
		}
	}

	return archive, nil
}

// Stream forwards the archive to sink. See Streamer.Stream for the
// cancellation contract. The outcome is recorded in the history when enabled.
func (s *ArchiveService) Stream(ctx context.Context, archive *Archive, sink ChunkWriter) (StreamStats, error) {
	stats, err := s.streamer.Stream(ctx, archive.proc, sink)

	slog.Info("archive stream finished",
		"archive_id", archive.ID,
		"token", archive.Token,
		"outcome", stats.Outcome,
		"chunks", stats.Chunks,
		"bytes", stats.BytesSent,
		"duration", time.Since(archive.StartedAt),
	)

	if s.history != nil {
		hctx, cancel := s.historyContext(ctx)
		defer cancel()

		if finishErr := s.history.Finish(hctx, archive.ID, stats); finishErr != nil {
			slog.Warn("failed to record archive outcome", "archive_id", archive.ID, "err", finishErr)
		}
	}

	return stats, err
}

// History lists recorded archive streams newest first.
// It returns ErrHistoryDisabled when no HistoryRepo is configured.
func (s *ArchiveService) History(ctx context.Context, q HistoryQuery) (HistoryResult, error) {
	if s.history == nil {
		return HistoryResult{}, fmt.Errorf("history: %w", ErrHistoryDisabled)
	}

	if q.Token != "" && !IsValidToken(q.Token) {
		return HistoryResult{}, fmt.Errorf("history: token %q: %w", q.Token, ErrInvalidInput)
	}

	if q.Limit <= 0 {
		q.Limit = 100
	}

	result, err := s.history.List(ctx, q)
	if err != nil {
		return HistoryResult{}, fmt.Errorf("history: %w", err)
	}

	return result, nil
}

// historyContext detaches history writes from request cancellation so a
// cancelled stream is still recorded.
func (s *ArchiveService) historyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.historyTimeout)
}
