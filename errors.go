package photozip

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError reports a photo directory that does not exist under the
// photos root. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Token string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Directory %s does not exists or has been moved.", e.Token)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ErrHistoryDisabled is returned by history operations when no history
// backend is configured.
var ErrHistoryDisabled = errors.New("history disabled")
