package validation

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// ErrAPIKeyEmpty is returned when the key is empty or whitespace-only after trim.
var ErrAPIKeyEmpty = errors.New("API key is required")

// ErrAPIKeyFormat is returned when the key is not in DataPoint's UUID form.
var ErrAPIKeyFormat = errors.New("API key must look like xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx")

// ErrLocationIDInvalid is returned when a site id is not a positive integer.
var ErrLocationIDInvalid = errors.New("location id must be a positive whole number")

// ErrQueryTooLong is returned when a search query exceeds the maximum length.
var ErrQueryTooLong = errors.New("search text too long")

// ErrQueryInvalidChars is returned when a search query contains disallowed characters.
var ErrQueryInvalidChars = errors.New("search text contains invalid characters")

// MaxQueryLen bounds search text in runes.
const MaxQueryLen = 64

// ValidateAPIKey trims the input and checks it has the hyphenated UUID form
// DataPoint issues. It does not contact the provider.
func ValidateAPIKey(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrAPIKeyEmpty
	}
	// uuid.Parse also accepts urn: and braced forms; DataPoint keys are plain 36 chars.
	if len(s) != 36 {
		return "", ErrAPIKeyFormat
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", ErrAPIKeyFormat
	}
	return s, nil
}

// ParseLocationID parses a DataPoint site id typed by the user.
func ParseLocationID(input string) (int, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, ErrLocationIDInvalid
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, ErrLocationIDInvalid
		}
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, ErrLocationIDInvalid
	}
	return id, nil
}

// IsLocationID reports whether input reads as a site id rather than search text.
func IsLocationID(input string) bool {
	_, err := ParseLocationID(input)
	return err == nil
}

// ValidateSearchQuery trims the input, enforces MaxQueryLen (in runes), and
// restricts to characters found in site names: letters (Unicode), digits,
// space and the punctuation ,-'.&(). An empty query is valid and matches all.
func ValidateSearchQuery(input string) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) > MaxQueryLen {
		return "", ErrQueryTooLong
	}
	for _, c := range r {
		if !isAllowedQueryRune(c) {
			return "", ErrQueryInvalidChars
		}
	}
	return s, nil
}

func isAllowedQueryRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '\'', '.', '&', '(', ')':
		return true
	}
	return false
}
