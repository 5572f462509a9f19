package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ironsheep/lens-ocr/internal/cookies"
	"github.com/ironsheep/lens-ocr/internal/lens"
)

const (
	// EnvFileEnvVar names an alternative .env file, used when none sits next
	// to the executable.
	EnvFileEnvVar = "LENS_OCR_ENV"

	DefaultCookieFileName = "cookies.json"
	DefaultTimeoutSec     = 60
	DefaultConsentDelayMs = 500
)

type LoadOptions struct {
	EnvFileOverride    string
	CookieFileOverride string
}

type Config struct {
	Endpoint       string
	ChromeVersion  string
	UserAgent      string
	Viewport       lens.Dimensions
	CookieFile     string
	TimeoutSec     int
	ConsentDelayMs int
	LogLevel       string
	LogFile        string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadWithOptions reads settings from the environment after loading the .env
// file. Variables already set in the environment take precedence over the
// file.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	envPath := resolveEnvPath(opts)
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", envPath, err)
		}
	}

	viewport := lens.DefaultViewport
	if v := strings.TrimSpace(os.Getenv("LENS_VIEWPORT")); v != "" {
		parsed, err := ParseViewport(v)
		if err != nil {
			return nil, err
		}
		viewport = parsed
	}

	cfg := &Config{
		Endpoint:       os.Getenv("LENS_ENDPOINT"),
		ChromeVersion:  getEnvWithDefault("LENS_CHROME_VERSION", lens.DefaultChromeVersion),
		UserAgent:      getEnvWithDefault("LENS_USER_AGENT", lens.DefaultUserAgent),
		Viewport:       viewport,
		CookieFile:     resolveCookieFile(opts),
		TimeoutSec:     positiveInt("LENS_TIMEOUT_SEC", DefaultTimeoutSec),
		ConsentDelayMs: positiveInt("LENS_CONSENT_DELAY_MS", DefaultConsentDelayMs),
		LogLevel:       strings.ToLower(strings.TrimSpace(os.Getenv("LENS_LOG_LEVEL"))),
		LogFile:        os.Getenv("LENS_LOG_FILE"),
	}
	return cfg, nil
}

// Debug reports whether debug logging was requested.
func (c *Config) Debug() bool { return c.LogLevel == "debug" }

// LensConfig returns the client settings. saved is a cookie snapshot from a
// previous run and may be nil.
func (c *Config) LensConfig(saved map[string]cookies.Cookie) lens.Config {
	return lens.Config{
		Endpoint:      c.Endpoint,
		ChromeVersion: c.ChromeVersion,
		UserAgent:     c.UserAgent,
		Viewport:      c.Viewport,
		Cookies:       saved,
		ConsentDelay:  time.Duration(c.ConsentDelayMs) * time.Millisecond,
		Timeout:       time.Duration(c.TimeoutSec) * time.Second,
	}
}

// ParseViewport parses a "WIDTHxHEIGHT" size such as "1920x1080".
func ParseViewport(s string) (lens.Dimensions, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return lens.Dimensions{}, fmt.Errorf("invalid viewport %q: want WIDTHxHEIGHT", s)
	}
	width, errW := strconv.Atoi(strings.TrimSpace(w))
	height, errH := strconv.Atoi(strings.TrimSpace(h))
	d := lens.Dimensions{Width: width, Height: height}
	if errW != nil || errH != nil || !d.Valid() {
		return lens.Dimensions{}, fmt.Errorf("invalid viewport %q: want WIDTHxHEIGHT", s)
	}
	return d, nil
}

func resolveEnvPath(opts LoadOptions) string {
	if override := strings.TrimSpace(opts.EnvFileOverride); override != "" {
		return override
	}

	if execDir := executableDir(); execDir != "" {
		exeEnv := filepath.Join(execDir, ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

// resolveCookieFile picks the cookie file: the override, then
// LENS_COOKIE_FILE, then cookies.json next to the executable.
func resolveCookieFile(opts LoadOptions) string {
	if override := strings.TrimSpace(opts.CookieFileOverride); override != "" {
		return override
	}
	if env := strings.TrimSpace(os.Getenv("LENS_COOKIE_FILE")); env != "" {
		return env
	}
	if execDir := executableDir(); execDir != "" {
		return filepath.Join(execDir, DefaultCookieFileName)
	}
	return DefaultCookieFileName
}

func executableDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(execPath)
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func positiveInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("config: ignoring %s=%q, using %d", key, v, defaultValue)
		return defaultValue
	}
	return n
}
