package photozip_test

import (
	"mime"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/photozip"
)

func TestIsValidToken(t *testing.T) {
	invalidUTF8 := string([]byte{'a', 0xff, 'b'})

	tt := []struct {
		Name  string
		Token string
		Want  bool
	}{
		{Name: "empty token", Token: "", Want: false},
		{Name: "single dot", Token: ".", Want: false},
		{Name: "double dot", Token: "..", Want: false},

		{Name: "traversal with slash", Token: "../etc", Want: false},
		{Name: "nested path", Token: "a/b", Want: false},
		{Name: "leading slash", Token: "/abc", Want: false},
		{Name: "backslash", Token: `a\b`, Want: false},

		{Name: "contains space", Token: "some dir", Want: false},
		{Name: "contains tab", Token: "some\tdir", Want: false},
		{Name: "contains NUL", Token: "some\x00dir", Want: false},
		{Name: "contains DEL", Token: "some\x7fdir", Want: false},
		{Name: "invalid utf8", Token: invalidUTF8, Want: false},

		{Name: "hex hash", Token: "7d5e2a9b31c4", Want: true},
		{Name: "dashes and underscores", Token: "summer_2024-trip", Want: true},
		{Name: "dots inside", Token: "v1..2", Want: true},
		{Name: "hidden directory", Token: ".thumbs", Want: true},
		{Name: "unicode", Token: "фото", Want: true},
	}

	if utf8.ValidString(invalidUTF8) {
		t.Fatalf("test setup error: invalidUTF8 is unexpectedly valid")
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Want, photozip.IsValidToken(tc.Token), "token %q", tc.Token)
		})
	}
}

func TestContentDisposition(t *testing.T) {
	assert.Equal(t, "abc123.zip", photozip.ArchiveFilename("abc123"))
	assert.Equal(t, `attachment; filename="abc123.zip"`, photozip.ContentDisposition("abc123"))

	t.Run("double quote is escaped", func(t *testing.T) {
		value := photozip.ContentDisposition(`a"b`)
		assert.Equal(t, `attachment; filename="a\"b.zip"`, value)

		disposition, params, err := mime.ParseMediaType(value)
		require.NoError(t, err)
		assert.Equal(t, "attachment", disposition)
		assert.Equal(t, `a"b.zip`, params["filename"])
	})
}

func TestNotFoundError(t *testing.T) {
	err := error(&photozip.NotFoundError{Token: "abc123"})

	assert.ErrorIs(t, err, photozip.ErrNotFound)
	assert.NotErrorIs(t, err, photozip.ErrInvalidInput)
	assert.Equal(t, "Directory abc123 does not exists or has been moved.", err.Error())
}
