package photozip

import (
	"context"
	"errors"
	"io"
)

// Producer launches archive processes for photo directories.
//
// Implementations must not wait for the process to exit in Start. The
// returned Process streams the archive on Stdout as it is produced.
type Producer interface {
	// Start launches a producer for the directory at dir.
	//
	// Parameters:
	//   - ctx: Context checked before launch; it does not bound the process lifetime
	//   - dir: Absolute path of an existing directory
	//
	// Returns:
	//   - Process: Handle owned by the caller until Wait returns
	//   - error: Launch failure (e.g. archiver executable missing)
	Start(ctx context.Context, dir string) (Process, error)
}

// Process is a running archive producer owned by a single request.
type Process interface {
	// ID identifies the process in logs (the PID for OS processes).
	ID() string

	// Stdout is the archive byte stream. It reports io.EOF once the
	// producer has finished or has been terminated.
	Stdout() io.Reader

	// Stderr returns the diagnostics captured so far. The streaming loop
	// never inspects it; it is only logged after the process exits.
	Stderr() []byte

	// Terminate requests termination and returns without waiting for the
	// process to exit. Calling it more than once is safe.
	Terminate() error

	// Wait blocks until the process has exited and releases its resources.
	// A non-zero exit is reported as an error implementing ExitCode() int.
	Wait() error
}

// ExitCode extracts the exit status from an error returned by Process.Wait.
// It returns 0 for nil and -1 when the error carries no exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}

	return -1
}
