package service

import (
	"strings"
	"unicode/utf8"
)

// sanitizeText drops invalid UTF-8 bytes so provider payloads round-trip through the store
// unchanged instead of picking up replacement characters.
func sanitizeText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}
