package clientcli

import (
	"time"

	"github.com/google/uuid"
)

// DownloadOptions configures an archive download.
type DownloadOptions struct {
	Token     string
	LocalPath string // empty = <token>.zip, "-" = stdout
}

// DownloadResult represents the result of downloading an archive.
type DownloadResult struct {
	Token       string `json:"token" yaml:"token"`
	LocalPath   string `json:"local_path" yaml:"local_path"`
	Filename    string `json:"filename" yaml:"filename"`
	ContentType string `json:"content_type" yaml:"content_type"`
	Size        int64  `json:"size_bytes" yaml:"size_bytes"`
}

// HistoryOptions configures a history query.
type HistoryOptions struct {
	Token  string
	Limit  int
	Cursor string
	All    bool // auto-paginate through all results
}

// HistoryResult contains paginated archive history.
type HistoryResult struct {
	Items      []ArchiveInfo `json:"items" yaml:"items"`
	NextCursor string        `json:"next_cursor,omitempty" yaml:"next_cursor,omitempty"`
}

// ArchiveInfo represents one archive stream recorded by the server.
type ArchiveInfo struct {
	ID         uuid.UUID  `json:"id" yaml:"id"`
	Token      string     `json:"token" yaml:"token"`
	Producer   string     `json:"producer" yaml:"producer"`
	Outcome    string     `json:"outcome" yaml:"outcome"`
	Chunks     int64      `json:"chunks" yaml:"chunks"`
	BytesSent  int64      `json:"bytes_sent" yaml:"bytes_sent"`
	ExitCode   int        `json:"exit_code" yaml:"exit_code"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// Duration returns how long the stream ran, or zero while it is still streaming.
func (a *ArchiveInfo) Duration() time.Duration {
	if a.FinishedAt == nil {
		return 0
	}
	return a.FinishedAt.Sub(a.StartedAt)
}

// TotalBytes sums the bytes sent by all items.
func (r *HistoryResult) TotalBytes() int64 {
	var total int64
	for i := range r.Items {
		total += r.Items[i].BytesSent
	}
	return total
}

// serverError mirrors the JSON error body of the history endpoint.
type serverError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
