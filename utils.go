package photozip

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsValidToken validates that an archive token names a single directory
// directly under the photos root. It checks that the token:
//   - is not empty, "." or ".."
//   - does not contain a path separator (/ or \)
//   - is valid UTF-8
//   - does not contain null bytes, control characters (< 0x20), DEL (0x7f), or whitespace
//
// Returns true if the token is valid, false otherwise.
func IsValidToken(token string) bool {
	if token == "" || token == "." || token == ".." {
		return false
	}

	if strings.ContainsAny(token, `/\`) {
		return false
	}

	if !utf8.ValidString(token) {
		return false
	}

	for _, r := range token {
		if r == 0 || r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}

// ArchiveFilename returns the download filename proposed for a token.
func ArchiveFilename(token string) string {
	return token + ".zip"
}

// ContentDisposition returns the Content-Disposition header value for a token.
// The filename is always sent as a quoted-string; tokens never contain a
// backslash, so only double quotes need escaping.
func ContentDisposition(token string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, strings.ReplaceAll(ArchiveFilename(token), `"`, `\"`))
}
