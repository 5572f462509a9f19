package cookies

import "strings"

// SplitSetCookie splits a combined Set-Cookie header value into the individual
// cookie directives it was folded from.
//
// A comma is treated as a separator only when the token after it (leading
// whitespace skipped) reaches "=" before any ";" or ",". Otherwise the comma
// belongs to the current directive, as in an Expires date. Pieces are trimmed
// and empty pieces are dropped, so an empty input yields an empty slice.
func SplitSetCookie(combined string) []string {
	var pieces []string
	n := len(combined)
	start, pos := 0, 0

	for pos < n {
		if combined[pos] != ',' {
			pos++
			continue
		}

		comma := pos
		pos = skipSpace(combined, pos+1)
		next := pos
		for pos < n && !isCookieSpecial(combined[pos]) {
			pos++
		}

		if pos < n && combined[pos] == '=' {
			pieces = appendPiece(pieces, combined[start:comma])
			start = next
			pos = next
			continue
		}
		pos = comma + 1
	}

	return appendPiece(pieces, combined[start:])
}

func appendPiece(pieces []string, piece string) []string {
	if piece = strings.TrimSpace(piece); piece != "" {
		pieces = append(pieces, piece)
	}
	return pieces
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && isSpace(s[pos]) {
		pos++
	}
	return pos
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isCookieSpecial(c byte) bool {
	return c == '=' || c == ';' || c == ','
}
