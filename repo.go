package photozip

import (
	"context"

	"github.com/google/uuid"
)

// HistoryRepo records every archive stream served.
// Implementations must handle concurrent access safely.
//
// All methods accept a context for cancellation and timeout control.
type HistoryRepo interface {
	// Begin inserts a record in the streaming state.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - rec: Record with ID, Token, Producer and StartedAt set
	//
	// Returns:
	//   - error: Any database error
	Begin(ctx context.Context, rec ArchiveRecord) error

	// Finish stores the final statistics and outcome of a stream.
	//
	// Returns:
	//   - error: ErrNotFound if no streaming record has that id, or other database errors
	Finish(ctx context.Context, id uuid.UUID, stats StreamStats) error

	// Get retrieves a single record.
	//
	// Returns:
	//   - error: ErrNotFound if id doesn't exist, or other database errors
	Get(ctx context.Context, id uuid.UUID) (ArchiveRecord, error)

	// List returns records newest first. An empty Token lists every token.
	// NextCursor is empty on the last page.
	List(ctx context.Context, q HistoryQuery) (HistoryResult, error)
}
