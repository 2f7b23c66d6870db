package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// Limits enforced by the validators.
const (
	MaxBoardIDLength = 128
	MaxTitleLength   = 200
)

// boardIDRegex matches UUIDs, slugs and numeric ids.
var boardIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateBoardID checks that id is usable as a file name and a database
// key: non-empty, at most MaxBoardIDLength bytes, starting with a letter or
// digit, made of letters, digits, '.', '_' and '-', and free of "..".
func ValidateBoardID(id string) error {
	switch {
	case id == "":
		return New(ErrCodeInvalidInput, "board id cannot be empty")
	case len(id) > MaxBoardIDLength:
		return New(ErrCodeInvalidInput, "board id too long (max %d characters)", MaxBoardIDLength)
	case strings.Contains(id, ".."):
		return New(ErrCodeInvalidInput, "board id cannot contain %q", "..")
	case !boardIDRegex.MatchString(id):
		return New(ErrCodeInvalidInput, "invalid board id: %q", id)
	}
	return nil
}

// ValidateTitle checks a board title. Empty titles are allowed.
func ValidateTitle(title string) error {
	if len(title) > MaxTitleLength {
		return New(ErrCodeInvalidInput, "title too long (max %d characters)", MaxTitleLength)
	}
	if strings.ContainsFunc(title, unicode.IsControl) {
		return New(ErrCodeInvalidInput, "title contains control characters")
	}
	return nil
}

// ValidateURL checks that rawURL uses one of schemes, e.g. "redis" and
// "rediss" for a Redis store.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use one of the schemes %s", strings.Join(schemes, ", "))
}
