package protocol

import (
	"errors"
	"strings"
)

// Quote wraps a free-text argument value for the wire. Embedded quotes and
// backslashes are escaped; newline and carriage return are frame delimiters
// and are stripped outright.
func Quote(value string) string {
	var b strings.Builder
	b.Grow(len(value) + 2)
	b.WriteByte('"')
	for _, r := range value {
		switch r {
		case '\n', '\r':
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Unquote reverses Quote. Stripped newlines are not recoverable; escaping is
// one-way for those characters.
func Unquote(value string) (string, error) {
	if len(value) < 2 || value[0] != '"' || value[len(value)-1] != '"' {
		return "", errors.New("value is not quoted")
	}
	inner := value[1 : len(value)-1]

	var b strings.Builder
	b.Grow(len(inner))
	escaped := false
	for _, r := range inner {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '"':
			return "", errors.New("unescaped quote inside value")
		default:
			b.WriteRune(r)
		}
	}
	if escaped {
		return "", errors.New("dangling escape at end of value")
	}
	return b.String(), nil
}
