package internal_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/photozip/database/internal"
)

func TestEncodeCursor_DecodeCursor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		startedAt time.Time
	}{
		{
			name:      "whole seconds",
			startedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:      "nanosecond precision",
			startedAt: time.Date(2024, 12, 31, 23, 59, 59, 999999999, time.UTC),
		},
		{
			name:      "non utc zone",
			startedAt: time.Date(2024, 6, 20, 14, 45, 30, 123456789, time.FixedZone("CEST", 2*60*60)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id := uuid.New()
			encoded := internal.EncodeCursor(tt.startedAt, id)
			assert.NotEmpty(t, encoded, "encoded cursor should not be empty")

			decoded, err := internal.DecodeCursor(encoded)
			require.NoError(t, err)

			assert.True(t, tt.startedAt.Equal(decoded.StartedAt),
				"startedAt mismatch: expected %v, got %v", tt.startedAt, decoded.StartedAt)
			assert.Equal(t, id, decoded.ID)
			assert.False(t, decoded.IsZero())
		})
	}
}

func TestDecodeCursor_EmptyString(t *testing.T) {
	t.Parallel()

	cursor, err := internal.DecodeCursor("")
	require.NoError(t, err)

	assert.True(t, cursor.IsZero(), "empty cursor should point at the first page")
}

func TestDecodeCursor_InvalidBase64(t *testing.T) {
	t.Parallel()

	for _, cursor := range []string{"not-valid-base64!!!", "aGVsbG8==="} {
		_, err := internal.DecodeCursor(cursor)
		assert.ErrorContains(t, err, "invalid encoding")
	}
}

func TestDecodeCursor_InvalidFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		rawData     string
		errContains string
	}{
		{
			name:        "missing pipe separator",
			rawData:     "2024-01-15T10:30:00Z",
			errContains: "invalid format",
		},
		{
			name:        "empty id after pipe",
			rawData:     "2024-01-15T10:30:00Z|",
			errContains: "empty id",
		},
		{
			name:        "invalid timestamp format",
			rawData:     "not-a-timestamp|" + uuid.NewString(),
			errContains: "invalid timestamp",
		},
		{
			name:        "invalid id",
			rawData:     "2024-01-15T10:30:00Z|not-a-uuid",
			errContains: "invalid id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			encoded := base64.URLEncoding.EncodeToString([]byte(tt.rawData))

			_, err := internal.DecodeCursor(encoded)
			assert.ErrorContains(t, err, tt.errContains)
		})
	}
}
