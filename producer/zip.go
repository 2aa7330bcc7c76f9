package producer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/sagarc03/photozip"
)

// DefaultZipBinary is looked up in PATH when no binary is configured.
const DefaultZipBinary = "zip"

// stderrLimit caps the diagnostics kept per process.
const stderrLimit = 8 * 1024

// killGrace is how long a terminated process may take to exit before it is
// killed.
const killGrace = 5 * time.Second

// ZipProducer launches the external zip tool.
type ZipProducer struct {
	binary string
}

// NewZipProducer creates a ZipProducer. An empty binary selects DefaultZipBinary.
func NewZipProducer(binary string) *ZipProducer {
	if binary == "" {
		binary = DefaultZipBinary
	}
	return &ZipProducer{binary: binary}
}

// Binary returns the executable the producer runs.
func (p *ZipProducer) Binary() string {
	return p.binary
}

// LookPath reports whether the zip binary can be executed.
func (p *ZipProducer) LookPath() error {
	if _, err := exec.LookPath(p.binary); err != nil {
		return fmt.Errorf("zip producer: %w", err)
	}
	return nil
}

// Start runs "zip -jr - dir": junk directory names, recurse into
// directories, write the archive to stdout.
func (p *ZipProducer) Start(ctx context.Context, dir string) (photozip.Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Not bound to ctx: termination is requested explicitly by the streamer
	// and a finished stream lets zip exit on its own.
	cmd := exec.Command(p.binary, "-jr", "-", dir) //nolint:gosec // G204: dir is resolved inside the photos root

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("zip producer: stdout pipe: %w", err)
	}

	stderr := &limitedBuffer{limit: stderrLimit}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("zip producer: start %s: %w", p.binary, err)
	}

	return &osProcess{
		cmd:       cmd,
		stdout:    stdout,
		stderr:    stderr,
		killGrace: killGrace,
		exited:    make(chan struct{}),
	}, nil
}

type osProcess struct {
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	stderr    *limitedBuffer
	killGrace time.Duration

	termOnce sync.Once
	termErr  error

	waitOnce sync.Once
	waitErr  error
	exited   chan struct{}
}

func (p *osProcess) ID() string {
	return strconv.Itoa(p.cmd.Process.Pid)
}

func (p *osProcess) Stdout() io.Reader {
	return p.stdout
}

func (p *osProcess) Stderr() []byte {
	return p.stderr.Bytes()
}

// Terminate signals the process and closes the read end of its stdout. zip
// handles SIGTERM by writing to stdout, so with a full pipe and no reader it
// would never exit; the closed pipe fails that write instead. A process
// still running after killGrace is killed.
func (p *osProcess) Terminate() error {
	p.termOnce.Do(func() {
		err := p.cmd.Process.Signal(terminateSignal)
		if err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.termErr = fmt.Errorf("terminate pid %d: %w", p.cmd.Process.Pid, err)
		}

		_ = p.stdout.Close()

		time.AfterFunc(p.killGrace, func() {
			select {
			case <-p.exited:
			default:
				_ = p.cmd.Process.Kill()
			}
		})
	})
	return p.termErr
}

// Wait is safe to call more than once and from several goroutines.
func (p *osProcess) Wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
		close(p.exited)
	})
	<-p.exited
	return p.waitErr
}

// limitedBuffer keeps the first limit bytes written and drops the rest, so
// a chatty producer can never block on a full stderr pipe.
type limitedBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if room := b.limit - b.buf.Len(); room > 0 {
		b.buf.Write(p[:min(room, len(p))])
	}
	return len(p), nil
}

func (b *limitedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}
