// Package testutils provides fake archive producers for tests.
package testutils

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sagarc03/photozip"
)

// ExitError is returned by FakeProcess.Wait for a non-zero exit.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) ExitCode() int {
	return e.Code
}

// TerminatedExitCode is the exit code reported after Terminate (128+SIGTERM).
const TerminatedExitCode = 143

// FakeProducer emits a fixed chunk sequence for every Start call.
type FakeProducer struct {
	// Chunks are written to stdout in order.
	Chunks [][]byte
	// Gap is slept before every chunk.
	Gap time.Duration
	// Hold keeps stdout open after the last chunk until Terminate.
	Hold bool
	// ExitCode is reported by Wait after a natural end.
	ExitCode int
	// Stderr is returned by Process.Stderr.
	Stderr []byte
	// StartErr makes Start fail.
	StartErr error

	mu        sync.Mutex
	processes []*FakeProcess
	nextID    atomic.Int64
}

func (p *FakeProducer) Start(ctx context.Context, dir string) (photozip.Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.StartErr != nil {
		return nil, p.StartErr
	}

	pr, pw := io.Pipe()
	proc := &FakeProcess{
		Dir:          dir,
		id:           strconv.FormatInt(p.nextID.Add(1), 10),
		pr:           pr,
		pw:           pw,
		done:         make(chan struct{}),
		terminatedCh: make(chan struct{}),
		exitCode:     p.ExitCode,
		stderr:       p.Stderr,
	}

	p.mu.Lock()
	p.processes = append(p.processes, proc)
	p.mu.Unlock()

	go proc.run(p.Chunks, p.Gap, p.Hold)

	return proc, nil
}

// Started returns how many processes were launched.
func (p *FakeProducer) Started() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.processes)
}

// Processes returns every launched process in start order.
func (p *FakeProducer) Processes() []*FakeProcess {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*FakeProcess(nil), p.processes...)
}

// FakeProcess is the Process handed out by FakeProducer.
type FakeProcess struct {
	Dir string

	id           string
	pr           *io.PipeReader
	pw           *io.PipeWriter
	done         chan struct{}
	terminatedCh chan struct{}
	once         sync.Once
	terminated   atomic.Bool
	waited       atomic.Bool
	exitCode     int
	stderr       []byte
}

func (p *FakeProcess) run(chunks [][]byte, gap time.Duration, hold bool) {
	defer close(p.done)
	defer func() { _ = p.pw.Close() }()

	for _, chunk := range chunks {
		if gap > 0 {
			select {
			case <-p.terminatedCh:
				return
			case <-time.After(gap):
			}
		}
		if _, err := p.pw.Write(chunk); err != nil {
			return
		}
	}

	if hold {
		<-p.terminatedCh
	}
}

func (p *FakeProcess) ID() string { return p.id }

func (p *FakeProcess) Stdout() io.Reader { return p.pr }

func (p *FakeProcess) Stderr() []byte { return p.stderr }

func (p *FakeProcess) Terminate() error {
	p.once.Do(func() {
		p.terminated.Store(true)
		close(p.terminatedCh)
		_ = p.pw.Close()
	})
	return nil
}

func (p *FakeProcess) Wait() error {
	<-p.done
	p.waited.Store(true)

	if p.terminated.Load() {
		return &ExitError{Code: TerminatedExitCode}
	}
	if p.exitCode != 0 {
		return &ExitError{Code: p.exitCode}
	}
	return nil
}

// Terminated reports whether Terminate was called.
func (p *FakeProcess) Terminated() bool { return p.terminated.Load() }

// TerminatedCh is closed by the first Terminate call.
func (p *FakeProcess) TerminatedCh() <-chan struct{} { return p.terminatedCh }

// Waited reports whether Wait has returned.
func (p *FakeProcess) Waited() bool { return p.waited.Load() }

// Lines builds n newline-terminated chunks of the form "chunk-<i>\n".
func Lines(n int) [][]byte {
	chunks := make([][]byte, n)
	for i := range chunks {
		chunks[i] = []byte(fmt.Sprintf("chunk-%d\n", i))
	}
	return chunks
}
