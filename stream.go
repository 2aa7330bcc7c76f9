package photozip

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

const (
	// DefaultMaxChunkSize bounds a chunk when the archive has no newline for a while.
	DefaultMaxChunkSize = 64 * 1024

	defaultReapTimeout = 5 * time.Second
)

// ChunkReader splits a producer's output into line-delimited chunks.
// A chunk ends after '\n' or when maxChunkSize bytes are buffered, whichever
// comes first, so binary data without newlines never grows the buffer.
type ChunkReader struct {
	r *bufio.Reader
}

// NewChunkReader creates a ChunkReader. A non-positive maxChunkSize selects
// DefaultMaxChunkSize.
func NewChunkReader(r io.Reader, maxChunkSize int) *ChunkReader {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	return &ChunkReader{r: bufio.NewReaderSize(r, maxChunkSize)}
}

// ReadChunk returns the next chunk. The slice is only valid until the next
// call. At end of stream it returns an empty chunk and io.EOF.
func (c *ChunkReader) ReadChunk() ([]byte, error) {
	chunk, err := c.r.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		return chunk, nil
	}
	return chunk, err
}

// ChunkWriter is the sink chunks are forwarded to, typically an HTTP
// response whose headers were already sent.
type ChunkWriter interface {
	WriteChunk(chunk []byte) error
}

// StreamConfig holds the pacing and buffering options of a Streamer.
type StreamConfig struct {
	// Delay is waited before every chunk read. Zero disables pacing.
	Delay time.Duration
	// MaxChunkSize bounds a single chunk (default: DefaultMaxChunkSize).
	MaxChunkSize int
	// ReapTimeout bounds the wait for the producer to exit after its output
	// ended (default: 5s). The producer is terminated when it expires.
	ReapTimeout time.Duration
}

// Streamer forwards a producer's output to a ChunkWriter.
// It holds no per-stream state and is safe for concurrent use.
type Streamer struct {
	delay        time.Duration
	maxChunkSize int
	reapTimeout  time.Duration
}

func NewStreamer(cfg StreamConfig) *Streamer {
	reapTimeout := cfg.ReapTimeout
	if reapTimeout <= 0 {
		reapTimeout = defaultReapTimeout
	}
	maxChunkSize := cfg.MaxChunkSize
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	return &Streamer{
		delay:        max(cfg.Delay, 0),
		maxChunkSize: maxChunkSize,
		reapTimeout:  reapTimeout,
	}
}

// Stream copies chunks from proc to sink until the producer's output ends or
// ctx is done.
//
// Cancellation of ctx is observed while pacing, while blocked on a read and
// before every write. It terminates the producer without waiting for it and
// Stream returns ctx.Err(). The producer is also terminated when the sink
// fails. After a natural end of stream the producer is reaped and its exit
// code reported in StreamStats; a non-zero exit marks the outcome failed.
func (s *Streamer) Stream(ctx context.Context, proc Process, sink ChunkWriter) (StreamStats, error) {
	log := slog.With("pid", proc.ID())
	stats := StreamStats{Outcome: OutcomeStreaming}

	// Terminating the producer closes its stdout, unblocking a pending read.
	stop := context.AfterFunc(ctx, func() {
		log.Info("stream cancelled, terminating producer", "cause", context.Cause(ctx))
		terminate(log, proc)
	})

	err := s.pump(ctx, log, proc, sink, &stats)
	stop()

	if err == nil && ctx.Err() == nil {
		stats.ExitCode = s.reap(log, proc)
		stats.Outcome = OutcomeCompleted
		if stats.ExitCode != 0 {
			stats.Outcome = OutcomeFailed
		}
		return stats, nil
	}

	terminate(log, proc)
	go func() {
		if waitErr := proc.Wait(); waitErr != nil {
			log.Debug("producer exited after termination", "err", waitErr)
		}
	}()

	stats.ExitCode = -1
	if ctxErr := ctx.Err(); ctxErr != nil {
		stats.Outcome = OutcomeCancelled
		return stats, ctxErr
	}

	stats.Outcome = OutcomeFailed
	return stats, err
}

func (s *Streamer) pump(ctx context.Context, log *slog.Logger, proc Process, sink ChunkWriter, stats *StreamStats) error {
	reader := NewChunkReader(proc.Stdout(), s.maxChunkSize)

	for {
		if s.delay > 0 {
			if err := sleepContext(ctx, s.delay); err != nil {
				return err
			}
		}

		chunk, readErr := reader.ReadChunk()
		if len(chunk) > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := sink.WriteChunk(chunk); err != nil {
				return fmt.Errorf("write chunk: %w", err)
			}
			stats.Chunks++
			stats.BytesSent += int64(len(chunk))
			log.Debug("sent archive chunk", "bytes", len(chunk), "chunks", stats.Chunks)
		}

		if readErr != nil {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !errors.Is(readErr, io.EOF) {
				log.Warn("producer output ended with error", "err", readErr)
			}
			return nil
		}
	}
}

func (s *Streamer) reap(log *slog.Logger, proc Process) int {
	done := make(chan error, 1)
	go func() {
		done <- proc.Wait()
	}()

	timer := time.NewTimer(s.reapTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		code := ExitCode(err)
		if code != 0 {
			log.Warn("producer exited with error", "exit_code", code, "stderr", string(proc.Stderr()))
		} else {
			log.Debug("producer exited")
		}
		return code
	case <-timer.C:
		log.Warn("producer still running after end of output", "timeout", s.reapTimeout)
		terminate(log, proc)
		return -1
	}
}

func terminate(log *slog.Logger, proc Process) {
	if err := proc.Terminate(); err != nil {
		log.Warn("failed to terminate producer", "err", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
