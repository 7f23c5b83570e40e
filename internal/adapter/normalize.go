package adapter

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// cleanText collapses runs of whitespace and applies Unicode NFC so the
// same headline renders identically whichever feed it came from.
func cleanText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}
