package producer

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sagarc03/photozip"
	"github.com/sagarc03/photozip/filesystem"
)

// Source lists and opens the files of a photo directory.
// *filesystem.Store implements it.
type Source interface {
	Walk(ctx context.Context, dir string) ([]filesystem.Entry, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Exit codes reported by native processes, mirroring the shell convention
// used for OS processes.
const (
	nativeExitFailed     = 1
	nativeExitTerminated = 143
)

// NativeProducer writes junk-paths zip archives in-process.
//
// Files sharing a base name are not an error: the first in walk order is
// archived and the rest are reported on stderr. The zip tool refuses such a
// directory with "cannot repeat names in zip file".
type NativeProducer struct {
	source Source
}

func NewNativeProducer(source Source) *NativeProducer {
	return &NativeProducer{source: source}
}

// Start begins writing the archive of dir to the returned process's stdout.
// The directory is walked by the producer goroutine, so Start never blocks
// on the filesystem.
func (p *NativeProducer) Start(ctx context.Context, dir string) (photozip.Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The archive outlives Start; it stops on Terminate, not on ctx.
	runCtx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()

	proc := &nativeProcess{
		id:     "native-" + uuid.NewString()[:8],
		pr:     pr,
		pw:     pw,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go proc.run(runCtx, p.source, dir)

	return proc, nil
}

type nativeProcess struct {
	id     string
	pr     *io.PipeReader
	pw     *io.PipeWriter
	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.Mutex
	stderr     bytes.Buffer
	err        error
	terminated bool
	termOnce   sync.Once
}

func (p *nativeProcess) run(ctx context.Context, source Source, dir string) {
	defer close(p.done)
	defer func() { _ = p.pw.Close() }()

	if err := p.writeArchive(ctx, source, dir); err != nil {
		p.mu.Lock()
		p.err = err
		fmt.Fprintf(&p.stderr, "zip error: %v\n", err)
		p.mu.Unlock()
	}
}

func (p *nativeProcess) writeArchive(ctx context.Context, source Source, dir string) error {
	entries, err := source.Walk(ctx, dir)
	if err != nil {
		return fmt.Errorf("walk %s: %w", dir, err)
	}

	zw := zip.NewWriter(p.pw)
	seen := make(map[string]bool, len(entries))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Junk paths: only the base name is stored, first occurrence wins.
		if seen[entry.Name] {
			p.warnf("zip warning: skipping duplicate name %s (%s)", entry.Name, entry.Path)
			continue
		}
		seen[entry.Name] = true

		if err := addEntry(ctx, zw, source, entry); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}

	return nil
}

func addEntry(ctx context.Context, zw *zip.Writer, source Source, entry filesystem.Entry) error {
	header := &zip.FileHeader{
		Name:     entry.Name,
		Method:   compressionMethod(entry.ContentType),
		Modified: entry.ModTime,
	}
	header.SetMode(entry.Mode)

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("add %s: %w", entry.Path, err)
	}

	f, err := source.Open(ctx, entry.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", entry.Path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copy %s: %w", entry.Path, err)
	}

	return nil
}

// compressionMethod stores already-compressed media as is.
func compressionMethod(contentType string) uint16 {
	switch {
	case strings.HasPrefix(contentType, "image/") && contentType != "image/bmp" && contentType != "image/svg+xml",
		strings.HasPrefix(contentType, "video/"),
		contentType == "application/zip":
		return zip.Store
	default:
		return zip.Deflate
	}
}

func (p *nativeProcess) warnf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(&p.stderr, format+"\n", args...)
}

func (p *nativeProcess) ID() string {
	return p.id
}

func (p *nativeProcess) Stdout() io.Reader {
	return p.pr
}

func (p *nativeProcess) Stderr() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return bytes.Clone(p.stderr.Bytes())
}

func (p *nativeProcess) Terminate() error {
	p.termOnce.Do(func() {
		p.mu.Lock()
		p.terminated = true
		p.mu.Unlock()

		p.cancel()
		// Readers see EOF, the pending write fails and the goroutine exits.
		_ = p.pw.Close()
	})
	return nil
}

func (p *nativeProcess) Wait() error {
	<-p.done
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.terminated:
		return &exitError{code: nativeExitTerminated, err: errTerminated}
	case p.err != nil:
		return &exitError{code: nativeExitFailed, err: p.err}
	default:
		return nil
	}
}

var errTerminated = errors.New("terminated")

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d: %v", e.code, e.err)
}

func (e *exitError) Unwrap() error {
	return e.err
}

func (e *exitError) ExitCode() int {
	return e.code
}
