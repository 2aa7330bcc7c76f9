// Package internal holds helpers shared by the history backends.
package internal

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cursor is the position of the last record of a history page.
type Cursor struct {
	StartedAt time.Time
	ID        uuid.UUID
}

// IsZero reports whether the cursor points at the first page.
func (c Cursor) IsZero() bool {
	return c.StartedAt.IsZero() && c.ID == uuid.Nil
}

// EncodeCursor encodes cursor data to a base64 string for pagination.
func EncodeCursor(startedAt time.Time, id uuid.UUID) string {
	data := startedAt.UTC().Format(time.RFC3339Nano) + "|" + id.String()
	return base64.URLEncoding.EncodeToString([]byte(data))
}

// DecodeCursor decodes a pagination cursor string back to cursor data.
func DecodeCursor(cursor string) (Cursor, error) {
	if cursor == "" {
		return Cursor{}, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid encoding: %w", err)
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return Cursor{}, errors.New("decode cursor: invalid format")
	}

	if parts[1] == "" {
		return Cursor{}, errors.New("decode cursor: empty id")
	}

	startedAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid timestamp: %w", err)
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid id: %w", err)
	}

	return Cursor{StartedAt: startedAt, ID: id}, nil
}
