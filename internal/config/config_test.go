package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ironsheep/lens-ocr/internal/cookies"
	"github.com/ironsheep/lens-ocr/internal/lens"
)

func TestLoad(t *testing.T) {
	t.Setenv("LENS_ENDPOINT", "http://localhost:9999/upload")
	t.Setenv("LENS_CHROME_VERSION", "125.0.6422.60")
	t.Setenv("LENS_VIEWPORT", "1280x720")
	t.Setenv("LENS_COOKIE_FILE", "/tmp/lens-cookies.json")
	t.Setenv("LENS_TIMEOUT_SEC", "15")
	t.Setenv("LENS_CONSENT_DELAY_MS", "250")
	t.Setenv("LENS_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Endpoint != "http://localhost:9999/upload" {
		t.Errorf("Expected Endpoint override, got '%s'", cfg.Endpoint)
	}
	if cfg.ChromeVersion != "125.0.6422.60" {
		t.Errorf("Expected ChromeVersion '125.0.6422.60', got '%s'", cfg.ChromeVersion)
	}
	if cfg.UserAgent != lens.DefaultUserAgent {
		t.Errorf("Expected default UserAgent, got '%s'", cfg.UserAgent)
	}
	if cfg.Viewport != (lens.Dimensions{Width: 1280, Height: 720}) {
		t.Errorf("Expected Viewport 1280x720, got %+v", cfg.Viewport)
	}
	if cfg.CookieFile != "/tmp/lens-cookies.json" {
		t.Errorf("Expected CookieFile from env, got '%s'", cfg.CookieFile)
	}
	if cfg.TimeoutSec != 15 || cfg.ConsentDelayMs != 250 {
		t.Errorf("Expected timeout 15s and delay 250ms, got %d and %d", cfg.TimeoutSec, cfg.ConsentDelayMs)
	}
	if !cfg.Debug() {
		t.Errorf("Expected Debug() with LENS_LOG_LEVEL=DEBUG")
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"LENS_ENDPOINT", "LENS_CHROME_VERSION", "LENS_VIEWPORT", "LENS_TIMEOUT_SEC",
		"LENS_CONSENT_DELAY_MS", "LENS_LOG_LEVEL", "LENS_COOKIE_FILE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.ChromeVersion != lens.DefaultChromeVersion {
		t.Errorf("ChromeVersion = %q, want default", cfg.ChromeVersion)
	}
	if cfg.Viewport != lens.DefaultViewport {
		t.Errorf("Viewport = %+v, want default", cfg.Viewport)
	}
	if cfg.TimeoutSec != DefaultTimeoutSec || cfg.ConsentDelayMs != DefaultConsentDelayMs {
		t.Errorf("got timeout %d and delay %d, want defaults", cfg.TimeoutSec, cfg.ConsentDelayMs)
	}
	if filepath.Base(cfg.CookieFile) != DefaultCookieFileName {
		t.Errorf("CookieFile = %q, want %s", cfg.CookieFile, DefaultCookieFileName)
	}
	if cfg.Debug() {
		t.Error("Debug() should be false by default")
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("LENS_TIMEOUT_SEC", "soon")
	t.Setenv("LENS_CONSENT_DELAY_MS", "-5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.TimeoutSec != DefaultTimeoutSec {
		t.Errorf("TimeoutSec = %d, want %d", cfg.TimeoutSec, DefaultTimeoutSec)
	}
	if cfg.ConsentDelayMs != DefaultConsentDelayMs {
		t.Errorf("ConsentDelayMs = %d, want %d", cfg.ConsentDelayMs, DefaultConsentDelayMs)
	}
}

func TestLoad_InvalidViewport(t *testing.T) {
	t.Setenv("LENS_VIEWPORT", "wide")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an invalid viewport")
	}
}

func TestLoadWithOptions_EnvFile(t *testing.T) {
	t.Setenv("LENS_USER_AGENT", "")
	t.Setenv("LENS_COOKIE_FILE", "")
	// godotenv.Load does not override variables that are already set, so make
	// sure the test variable starts out unset.
	os.Unsetenv("LENS_USER_AGENT")

	envFile := filepath.Join(t.TempDir(), "lens.env")
	if err := os.WriteFile(envFile, []byte("LENS_USER_AGENT=test-agent/1.0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	defer os.Unsetenv("LENS_USER_AGENT")

	cfg, err := LoadWithOptions(LoadOptions{EnvFileOverride: envFile, CookieFileOverride: "/data/jar.json"})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.UserAgent != "test-agent/1.0" {
		t.Errorf("UserAgent = %q, want value from env file", cfg.UserAgent)
	}
	if cfg.CookieFile != "/data/jar.json" {
		t.Errorf("CookieFile = %q, want override", cfg.CookieFile)
	}
}

func TestLoadWithOptions_MissingEnvFile(t *testing.T) {
	_, err := LoadWithOptions(LoadOptions{EnvFileOverride: filepath.Join(t.TempDir(), "missing.env")})
	if err == nil {
		t.Fatal("expected an error for a missing env file override")
	}
}

func TestParseViewport(t *testing.T) {
	tests := []struct {
		in      string
		want    lens.Dimensions
		wantErr bool
	}{
		{"1920x1080", lens.Dimensions{Width: 1920, Height: 1080}, false},
		{" 800 X 600 ", lens.Dimensions{Width: 800, Height: 600}, false},
		{"1920", lens.Dimensions{}, true},
		{"0x600", lens.Dimensions{}, true},
		{"axb", lens.Dimensions{}, true},
	}

	for _, tt := range tests {
		got, err := ParseViewport(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseViewport(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseViewport(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestLensConfig(t *testing.T) {
	cfg := &Config{
		ChromeVersion:  "124.0.6367.60",
		UserAgent:      "ua",
		Viewport:       lens.Dimensions{Width: 800, Height: 600},
		TimeoutSec:     10,
		ConsentDelayMs: 100,
	}
	saved := map[string]cookies.Cookie{"NID": {Name: "NID", Value: "1"}}

	lc := cfg.LensConfig(saved)
	if lc.ConsentDelay != 100*time.Millisecond {
		t.Errorf("ConsentDelay = %v, want 100ms", lc.ConsentDelay)
	}
	if lc.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", lc.Timeout)
	}
	if lc.Viewport != cfg.Viewport || lc.UserAgent != "ua" {
		t.Errorf("LensConfig did not carry identity settings: %+v", lc)
	}
	if lc.Cookies["NID"].Value != "1" {
		t.Errorf("LensConfig did not carry saved cookies")
	}
}
