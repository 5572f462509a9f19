package cookies

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
)

// ErrMalformedCookie is returned when a directive has no name/value segment.
var ErrMalformedCookie = errors.New("malformed cookie")

// Cookie is one cookie as received in a Set-Cookie directive.
//
// Expires is kept as the literal date string from the directive; the Jar
// parses it when deciding whether the cookie is still live. An empty Expires
// means the cookie never expires.
type Cookie struct {
	Name        string            `json:"name"`
	Value       string            `json:"value"`
	Expires     string            `json:"expires,omitempty"`
	MaxAge      *int              `json:"maxAge,omitempty"`
	Secure      bool              `json:"secure,omitempty"`
	HTTPOnly    bool              `json:"httpOnly,omitempty"`
	SameSite    string            `json:"sameSite,omitempty"`
	Partitioned bool              `json:"partitioned,omitempty"`
	Attrs       map[string]string `json:"attrs,omitempty"`
}

// Parse parses a single Set-Cookie directive.
//
// Only the first "=" of the leading segment separates the name from the value,
// so values may contain "=". Values are percent-decoded; a value that fails to
// decode is kept verbatim. Attribute names are matched case-insensitively and
// unknown attributes are stored in Attrs under their lowercase name.
func Parse(directive string) (Cookie, error) {
	var parts []string
	for _, part := range strings.Split(directive, ";") {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return Cookie{}, fmt.Errorf("%w: empty directive", ErrMalformedCookie)
	}

	name, value := splitNameValue(parts[0])
	if decoded, err := url.PathUnescape(value); err != nil {
		log.Printf("cookies: keeping raw value for %q: %v", name, err)
	} else {
		value = decoded
	}

	c := Cookie{Name: name, Value: value}
	for _, part := range parts[1:] {
		key, val, _ := strings.Cut(part, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)

		switch key {
		case "expires":
			c.Expires = val
		case "max-age":
			n, err := strconv.Atoi(val)
			if err != nil {
				log.Printf("cookies: ignoring max-age %q on %q: %v", val, name, err)
				continue
			}
			c.MaxAge = &n
		case "secure":
			c.Secure = true
		case "httponly":
			c.HTTPOnly = true
		case "samesite":
			c.SameSite = val
		case "partitioned":
			c.Partitioned = true
		default:
			if c.Attrs == nil {
				c.Attrs = make(map[string]string)
			}
			c.Attrs[key] = val
		}
	}

	return c, nil
}

// ParseAll parses every directive, stopping at the first malformed one.
func ParseAll(directives []string) ([]Cookie, error) {
	parsed := make([]Cookie, 0, len(directives))
	for _, d := range directives {
		c, err := Parse(d)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, c)
	}
	return parsed, nil
}

// splitNameValue splits at the first "=". A segment without "=" is all value.
func splitNameValue(segment string) (string, string) {
	name, value, ok := strings.Cut(segment, "=")
	if !ok {
		return "", strings.TrimSpace(segment)
	}
	return strings.TrimSpace(name), strings.TrimSpace(value)
}
