package photozip

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Outcome is the final state of one archive stream.
type Outcome string

const (
	OutcomeStreaming Outcome = "streaming"
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeStreaming, OutcomeCompleted, OutcomeCancelled, OutcomeFailed:
		return true
	default:
		return false
	}
}

// ArchiveRecord is one row of the archive history.
type ArchiveRecord struct {
	ID         uuid.UUID  `json:"id" yaml:"id"`
	Token      string     `json:"token" yaml:"token"`
	Producer   string     `json:"producer" yaml:"producer"`
	Outcome    Outcome    `json:"outcome" yaml:"outcome"`
	Chunks     int64      `json:"chunks" yaml:"chunks"`
	BytesSent  int64      `json:"bytes_sent" yaml:"bytes_sent"`
	ExitCode   int        `json:"exit_code" yaml:"exit_code"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// StreamStats summarises what the streaming loop forwarded to the client.
type StreamStats struct {
	Chunks    int64
	BytesSent int64
	ExitCode  int
	Outcome   Outcome
}

type HistoryQuery struct {
	Token  string
	Limit  int
	Cursor string
}

type HistoryResult struct {
	Items      []ArchiveRecord `json:"items" yaml:"items"`
	NextCursor string          `json:"next_cursor,omitempty" yaml:"next_cursor,omitempty"`
}

type ProducerKind string

const (
	ProducerZip    ProducerKind = "zip"
	ProducerNative ProducerKind = "native"
)

func (k ProducerKind) IsValid() bool {
	switch k {
	case ProducerZip, ProducerNative:
		return true
	default:
		return false
	}
}

func ParseProducerKind(s string) (ProducerKind, error) {
	kind := ProducerKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid producer: %s (valid producers: zip, native)", s)
	}
	return kind, nil
}

// Tables holds configurable table names for the archive history.
// This allows several deployments to share one database.
type Tables struct {
	History string `mapstructure:"history"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.History == "" {
		return errors.New("validate tables: history table name cannot be empty")
	}

	if !IsValidTableName(t.History) {
		return fmt.Errorf("validate tables: invalid history table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.History)
	}

	return nil
}
