package manager

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// decodeOutput decodes runner output as UTF-8, replacing invalid sequences
// with U+FFFD.
func decodeOutput(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return string(out)
}

// cleanOutput turns raw runner stdout into the generated continuation: decode,
// normalize CRLF to LF, then drop the first occurrence of the echoed prompt.
// The prompt must already be normalized.
func cleanOutput(stdout []byte, prompt string) string {
	s := normalizeNewlines(decodeOutput(stdout))
	if prompt == "" {
		return s
	}
	return strings.Replace(s, prompt, "", 1)
}
