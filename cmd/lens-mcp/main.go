package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/lens-ocr/internal/config"
	"github.com/ironsheep/lens-ocr/internal/cookies"
	"github.com/ironsheep/lens-ocr/internal/lens"
	"github.com/ironsheep/lens-ocr/internal/logutil"
	"github.com/ironsheep/lens-ocr/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("lens-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg)

	saved, err := cookies.LoadFile(cfg.CookieFile)
	if err != nil {
		log.Printf("Starting a new session: %v", err)
		saved = nil
	}
	log.Printf("Cookie file %s: %d cookie(s) restored", cfg.CookieFile, len(saved))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(lens.New(cfg.LensConfig(saved)), server.Options{
		Version:    Version,
		CookieFile: cfg.CookieFile,
	})
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Server error: %v", err)
	}
}

// setupLogging sends logs to the log file, or to stderr since stdout carries
// the MCP protocol. Only the startup banner depends on debug.
func setupLogging(cfg *config.Config) {
	logutil.Setup(logutil.Options{Stderr: true, File: cfg.LogFile})
	if cfg.Debug() {
		log.Printf("Lens MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}
}

func printHelp() {
	fmt.Println("lens-mcp - MCP server for Google Lens text recognition")
	fmt.Println()
	fmt.Println("Usage: lens-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  LENS_LOG_LEVEL=debug         Log the startup banner")
	fmt.Println("  LENS_LOG_FILE=<path>         Write logs to a rotating file")
	fmt.Println("  LENS_COOKIE_FILE=<path>      Session cookie file (default: cookies.json next to the binary)")
	fmt.Println("  LENS_CONSENT_DELAY_MS=<ms>   Minimum gap between requests (default: 500)")
	fmt.Println("  LENS_OCR_ENV=<path>          .env file to load")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
