package cookies

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// newTestJar returns a jar whose clock is fixed at now.
func newTestJar(t *testing.T, now time.Time) *Jar {
	t.Helper()
	j := NewJar()
	j.now = func() time.Time { return now }
	return j
}

var jarNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func TestJar_AbsorbAndHeader(t *testing.T) {
	j := newTestJar(t, jarNow)
	err := j.Absorb("AEC=one; expires=Wed, 09-Jun-2027 10:18:14 GMT; path=/, NID=two; Secure")
	if err != nil {
		t.Fatalf("Absorb failed: %v", err)
	}

	if got, want := j.Header(), "AEC=one; NID=two"; got != want {
		t.Errorf("Header: got %q, want %q", got, want)
	}
}

func TestJar_ReplaceKeepsOrder(t *testing.T) {
	j := newTestJar(t, jarNow)
	if err := j.Absorb("a=1, b=2"); err != nil {
		t.Fatalf("Absorb failed: %v", err)
	}
	if err := j.Absorb("a=3"); err != nil {
		t.Fatalf("Absorb failed: %v", err)
	}

	if got, want := j.Header(), "a=3; b=2"; got != want {
		t.Errorf("Header: got %q, want %q", got, want)
	}
	if j.Len() != 2 {
		t.Errorf("Len: got %d, want 2", j.Len())
	}
}

func TestJar_ExpiredCookieEvictedOnRender(t *testing.T) {
	j := newTestJar(t, jarNow)
	if err := j.Absorb("old=x; Expires=Mon, 01-Jan-2024 00:00:00 GMT, live=y"); err != nil {
		t.Fatalf("Absorb failed: %v", err)
	}

	// Absorbing an expired cookie is legal; it is still held until rendering.
	if j.Len() != 2 {
		t.Fatalf("Len before render: got %d, want 2", j.Len())
	}
	if got := j.Header(); got != "live=y" {
		t.Errorf("Header: got %q, want live=y", got)
	}
	if j.Len() != 1 {
		t.Errorf("Len after render: got %d, want 1", j.Len())
	}
}

func TestJar_ExpiryBoundary(t *testing.T) {
	exact := jarNow.Format("Mon, 02-Jan-2006 15:04:05 MST")
	j := newTestJar(t, jarNow)
	if err := j.Absorb("edge=1; Expires=" + exact); err != nil {
		t.Fatalf("Absorb failed: %v", err)
	}
	// Not strictly before now, so it is still live.
	if got := j.Header(); got != "edge=1" {
		t.Errorf("Header: got %q, want edge=1", got)
	}

	j.now = func() time.Time { return jarNow.Add(time.Second) }
	if got := j.Header(); got != "" {
		t.Errorf("Header after expiry: got %q, want empty", got)
	}
}

func TestJar_UnparseableExpiresNeverExpires(t *testing.T) {
	j := newTestJar(t, jarNow)
	if err := j.Absorb("a=1; Expires=someday"); err != nil {
		t.Fatalf("Absorb failed: %v", err)
	}
	if got := j.Header(); got != "a=1" {
		t.Errorf("Header: got %q, want a=1", got)
	}
}

func TestJar_ExpiresLayouts(t *testing.T) {
	past := []string{
		"Mon, 01-Jan-2024 00:00:00 GMT",
		"Mon, 01 Jan 2024 00:00:00 GMT",
		"Monday, 01-Jan-24 00:00:00 GMT",
		"Mon Jan  1 00:00:00 2024",
	}
	for _, literal := range past {
		expiry, ok := parseExpires(literal)
		if !ok {
			t.Errorf("parseExpires(%q) failed", literal)
			continue
		}
		if !expiry.Before(jarNow) {
			t.Errorf("parseExpires(%q) = %v, want before %v", literal, expiry, jarNow)
		}
	}
}

func TestJar_HeaderEmpty(t *testing.T) {
	if got := NewJar().Header(); got != "" {
		t.Errorf("Header on empty jar: got %q", got)
	}
}

func TestJar_AbsorbHeader(t *testing.T) {
	j := newTestJar(t, jarNow)
	h := http.Header{}
	h.Add("Set-Cookie", "a=1; Path=/")
	h.Add("Set-Cookie", "b=2; Expires=Wed, 09-Jun-2027 10:18:14 GMT, c=3")

	if err := j.AbsorbHeader(h); err != nil {
		t.Fatalf("AbsorbHeader failed: %v", err)
	}
	if got, want := j.Header(), "a=1; b=2; c=3"; got != want {
		t.Errorf("Header: got %q, want %q", got, want)
	}
}

func TestJar_AbsorbIsAtomic(t *testing.T) {
	j := newTestJar(t, jarNow)
	if err := j.Absorb("a=1"); err != nil {
		t.Fatalf("Absorb failed: %v", err)
	}

	h := http.Header{}
	h.Add("Set-Cookie", "c=3")
	h.Add("Set-Cookie", ";")

	if err := j.AbsorbHeader(h); !errors.Is(err, ErrMalformedCookie) {
		t.Fatalf("AbsorbHeader: got %v, want ErrMalformedCookie", err)
	}
	if got := j.Header(); got != "a=1" {
		t.Errorf("jar mutated by failed absorb: Header = %q", got)
	}
}

func TestJar_Seed(t *testing.T) {
	j := newTestJar(t, jarNow)
	j.Seed("SOCS=CAISHAgB; NID=511=xyz; ; AEC=q")

	if got, want := j.Header(), "SOCS=CAISHAgB; NID=511=xyz; AEC=q"; got != want {
		t.Errorf("Header: got %q, want %q", got, want)
	}
	if c := j.Snapshot()["NID"]; c.Expires != "" {
		t.Errorf("seeded cookie should never expire, got Expires=%q", c.Expires)
	}
}

func TestJar_SnapshotRestore(t *testing.T) {
	j := newTestJar(t, jarNow)
	if err := j.Absorb("a=1; Secure; SameSite=lax, b=2; Expires=Wed, 09-Jun-2027 10:18:14 GMT"); err != nil {
		t.Fatalf("Absorb failed: %v", err)
	}

	snap := j.Snapshot()
	snap["a"] = Cookie{Name: "a", Value: "mutated"}
	if j.Snapshot()["a"].Value != "1" {
		t.Error("Snapshot shares state with the jar")
	}

	restored := newTestJar(t, jarNow)
	restored.Restore(j.Snapshot())
	if restored.Len() != 2 {
		t.Fatalf("Len after Restore: got %d, want 2", restored.Len())
	}
	if c := restored.Snapshot()["a"]; !c.Secure || c.SameSite != "lax" {
		t.Errorf("restored cookie lost attributes: %+v", c)
	}
}

func TestJar_ConcurrentAccess(t *testing.T) {
	j := NewJar()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = j.Absorb("a=1, b=2")
		}()
		go func() {
			defer wg.Done()
			_ = j.Header()
		}()
	}
	wg.Wait()

	if got := j.Header(); !strings.Contains(got, "a=1") {
		t.Errorf("Header: got %q", got)
	}
}

func TestStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cookies.json")

	snap := map[string]Cookie{
		"NID": {Name: "NID", Value: "511=abc", Expires: "Wed, 09-Jun-2027 10:18:14 GMT", HTTPOnly: true},
	}
	if err := SaveFile(path, snap); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if got := loaded["NID"]; got.Value != "511=abc" || !got.HTTPOnly || got.Expires == "" {
		t.Errorf("loaded cookie: %+v", got)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	loaded, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty snapshot, got %v", loaded)
	}
}
