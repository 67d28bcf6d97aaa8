package normalization

import (
	"strings"
)

func ParseInputString(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// TrimInputString keeps case, only trims surrounding whitespace. Used for
// card content and free-form answers where casing matters.
func TrimInputString(input string) string {
	return strings.TrimSpace(input)
}
