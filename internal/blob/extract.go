package blob

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// callbackMarker precedes every embedded data literal.
	callbackMarker = "AF_initDataCallback("

	// detectionAnchor identifies the callback carrying text detection results.
	detectionAnchor = "DetectedObject"
)

// ErrBlobNotFound is returned when no callback literal carries detection data.
var ErrBlobNotFound = errors.New("detection blob not found")

// Extract locates the text detection literal in a results page and decodes it.
func Extract(payload string) (any, error) {
	candidates := Candidates(payload)
	for _, c := range candidates {
		if strings.Contains(c, detectionAnchor) {
			return ParseLiteral(c)
		}
	}
	return nil, fmt.Errorf("%w: %d callbacks, none mention %s",
		ErrBlobNotFound, len(candidates), detectionAnchor)
}

// Candidates returns the brace-delimited argument of every callback invocation
// in payload, in document order. Invocations whose argument does not start
// with "{" or never closes are skipped.
func Candidates(payload string) []string {
	var out []string
	rest := 0
	for {
		idx := strings.Index(payload[rest:], callbackMarker)
		if idx < 0 {
			return out
		}
		start := skipWhitespace(payload, rest+idx+len(callbackMarker))
		rest = start
		if start >= len(payload) || payload[start] != '{' {
			continue
		}
		end := matchBrace(payload, start)
		if end < 0 {
			continue
		}
		out = append(out, payload[start:end+1])
		rest = end + 1
	}
}

// matchBrace returns the index of the "}" closing the "{" at open, or -1.
// Braces inside quoted strings do not count.
func matchBrace(s string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func skipWhitespace(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return i
		}
	}
	return i
}
