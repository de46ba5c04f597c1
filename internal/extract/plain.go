package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain decodes content as UTF-8 verbatim.
// Invalid sequences are replaced with U+FFFD rather than rejected.
func extractPlain(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "\uFFFD"), nil
	}
	return string(content), nil
}
