package cookies

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// expiresLayouts are the date formats accepted in Expires attributes. The first
// is the dash-separated form the Lens frontend sends.
var expiresLayouts = []string{
	"Mon, 02-Jan-2006 15:04:05 MST",
	http.TimeFormat,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
}

// Jar holds the live cookies of one session, at most one per name.
//
// Cookies are rendered in the order their names were first seen; replacing a
// cookie keeps its position.
type Jar struct {
	mu      sync.Mutex
	cookies map[string]Cookie
	order   []string
	now     func() time.Time
}

// NewJar creates an empty jar that uses the wall clock for expiry.
func NewJar() *Jar {
	return &Jar{
		cookies: make(map[string]Cookie),
		now:     time.Now,
	}
}

// Absorb parses a combined Set-Cookie header value and stores every cookie in
// it, replacing cookies with the same name. Nothing is stored if any directive
// is malformed.
func (j *Jar) Absorb(combined string) error {
	parsed, err := ParseAll(SplitSetCookie(combined))
	if err != nil {
		return err
	}
	j.put(parsed)
	return nil
}

// AbsorbHeader stores the cookies from every Set-Cookie line of a response
// header. Each line may itself be a folded, comma-joined value.
func (j *Jar) AbsorbHeader(h http.Header) error {
	var directives []string
	for _, line := range h.Values("Set-Cookie") {
		directives = append(directives, SplitSetCookie(line)...)
	}
	parsed, err := ParseAll(directives)
	if err != nil {
		return err
	}
	j.put(parsed)
	return nil
}

// Seed loads cookies from a request-style "name=value; name2=value2" string.
// Seeded cookies never expire.
func (j *Jar) Seed(header string) {
	var seeded []Cookie
	for _, pair := range strings.Split(header, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		seeded = append(seeded, Cookie{Name: strings.TrimSpace(name), Value: value})
	}
	j.put(seeded)
}

// Restore loads a snapshot previously produced by Snapshot. Snapshots carry no
// order, so restored cookies are added in name order.
func (j *Jar) Restore(snapshot map[string]Cookie) {
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	restored := make([]Cookie, 0, len(snapshot))
	for _, name := range names {
		c := snapshot[name]
		if c.Name == "" {
			c.Name = name
		}
		restored = append(restored, c)
	}
	j.put(restored)
}

// Header evicts expired cookies and renders the rest as a Cookie request
// header value. It returns "" when the jar holds no live cookies.
func (j *Jar) Header() string {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.evictLocked()
	if len(j.order) == 0 {
		return ""
	}

	pairs := make([]string, 0, len(j.order))
	for _, name := range j.order {
		c := j.cookies[name]
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; ")
}

// Snapshot returns a copy of the jar contents keyed by cookie name. Expired
// cookies are not evicted by Snapshot.
func (j *Jar) Snapshot() map[string]Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make(map[string]Cookie, len(j.cookies))
	for name, c := range j.cookies {
		out[name] = c
	}
	return out
}

// Len reports how many cookies the jar holds, expired or not.
func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.cookies)
}

func (j *Jar) put(batch []Cookie) {
	if len(batch) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, c := range batch {
		if _, ok := j.cookies[c.Name]; !ok {
			j.order = append(j.order, c.Name)
		}
		j.cookies[c.Name] = c
	}
}

func (j *Jar) evictLocked() {
	now := j.now()
	kept := j.order[:0]
	for _, name := range j.order {
		if expiry, ok := parseExpires(j.cookies[name].Expires); ok && expiry.Before(now) {
			delete(j.cookies, name)
			continue
		}
		kept = append(kept, name)
	}
	j.order = kept
}

// parseExpires reports the expiry time of an Expires literal. ok is false for
// empty or unparseable values, which callers treat as "never expires".
func parseExpires(literal string) (time.Time, bool) {
	literal = strings.TrimSpace(literal)
	if literal == "" {
		return time.Time{}, false
	}
	for _, layout := range expiresLayouts {
		if t, err := time.Parse(layout, literal); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
