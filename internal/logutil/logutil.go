package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

const (
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
)

// Options selects where the standard logger writes.
type Options struct {
	// Stderr sends log output to stderr when no File is set.
	Stderr bool
	// File, when set, receives log output with size-based rotation.
	File string
}

// Setup points the standard logger at the destination chosen by opts.
// Without Stderr or File, log output is discarded so stdout and stderr stay
// clean for command output.
func Setup(opts Options) {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	switch {
	case opts.File != "":
		w, err := openRotating(opts.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			log.SetOutput(os.Stderr)
			return
		}
		log.SetOutput(w)
	case opts.Stderr:
		log.SetOutput(os.Stderr)
	default:
		log.SetOutput(io.Discard)
	}
}

type rotatingWriter struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func openRotating(path string) (*rotatingWriter, error) {
	rotateIfNeeded(path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &rotatingWriter{path: path, f: f}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > maxSizeBytes {
		_ = w.f.Close()
		rotate(w.path)
		nf, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func rotateIfNeeded(path string) {
	if st, err := os.Stat(path); err == nil && st.Size() > maxSizeBytes {
		rotate(path)
	}
}

// rotate shifts path to path.1, path.1 to path.2 and so on; the oldest
// archive is discarded.
func rotate(path string) {
	_ = os.Remove(archiveName(path, maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(archiveName(path, i), archiveName(path, i+1))
	}
	_ = os.Rename(path, archiveName(path, 1))
}

func archiveName(path string, n int) string { return fmt.Sprintf("%s.%d", path, n) }

// Redact masks a secret, leaving the first and last 4 characters: xxxx...yyyy
func Redact(secret string) string {
	if len(secret) <= 8 {
		return "********"
	}
	return fmt.Sprintf("%s...%s", secret[:4], secret[len(secret)-4:])
}

// RedactCookies masks the values of every name=value pair in a Cookie or
// Set-Cookie header. Attribute values such as dates are masked too.
func RedactCookies(header string) string {
	if header == "" {
		return header
	}
	pairs := strings.Split(header, ";")
	for i, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		pairs[i] = name + "=" + Redact(value)
	}
	return strings.Join(pairs, ";")
}
