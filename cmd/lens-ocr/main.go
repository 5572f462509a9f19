package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/lens-ocr/internal/clipboard"
	"github.com/ironsheep/lens-ocr/internal/config"
	"github.com/ironsheep/lens-ocr/internal/cookies"
	"github.com/ironsheep/lens-ocr/internal/imaging"
	"github.com/ironsheep/lens-ocr/internal/lens"
	"github.com/ironsheep/lens-ocr/internal/logutil"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

type cliOptions struct {
	noCopy     bool
	jsonOutput bool
	verbose    bool
	cookieFile string
	envFile    string
	width      int
	height     int
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runWithArgs(ctx, os.Args, os.Stdout)
}

func runWithArgs(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		args = []string{"lens-ocr"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	cmd.SetOut(stdout)
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lens-ocr [flags] <image path or URL>",
		Short: "Scan text from an image using Google Lens and copy it to the clipboard",
		Example: "  lens-ocr ./path/to/image.png\n" +
			"  lens-ocr -d https://domain.tld/image.png\n" +
			"  lens-ocr --json screenshot.jpg",
		Version:       fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), *opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&opts.noCopy, "no-copy", "d", false, "Do not copy text to clipboard")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output language and segments with bounding boxes as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.cookieFile, "cookies", "", "Cookie file (default: cookies.json next to the executable)")
	cmd.Flags().StringVar(&opts.envFile, "env", "", "Path to a .env file")
	cmd.Flags().IntVar(&opts.width, "width", 0, "Width of a remote image in pixels (fetched when omitted)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "Height of a remote image in pixels (fetched when omitted)")

	return cmd
}

func runWithOptions(ctx context.Context, opts cliOptions, target string, stdout io.Writer) error {
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		EnvFileOverride:    opts.envFile,
		CookieFileOverride: opts.cookieFile,
	})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logutil.Setup(logutil.Options{Stderr: opts.verbose || cfg.Debug(), File: cfg.LogFile})
	log.Printf("lens-ocr %s: cookie file %s", Version, cfg.CookieFile)

	saved, err := cookies.LoadFile(cfg.CookieFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: starting a new session: %v\n", err)
		saved = nil
	}
	client := lens.New(cfg.LensConfig(saved))

	start := time.Now()
	result, err := scan(ctx, client, cfg, opts, target)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := cookies.SaveFile(cfg.CookieFile, client.Cookies()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	text := result.Text()
	if !opts.noCopy {
		if err := clipboard.Write(text); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: text not copied: %v\n", err)
		}
	}

	return outputResult(stdout, result, target, elapsed, opts.jsonOutput)
}

func scan(ctx context.Context, client *lens.Client, cfg *config.Config, opts cliOptions, target string) (*lens.Result, error) {
	if !isURL(target) {
		result, err := client.ScanByFile(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("scan of %s failed: %w", target, err)
		}
		return result, nil
	}

	dims := lens.Dimensions{Width: opts.width, Height: opts.height}
	if !dims.Valid() {
		probe := &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second}
		w, h, err := imaging.ProbeURL(ctx, probe, target)
		if err != nil {
			return nil, fmt.Errorf("failed to read image size of %s: %w", target, err)
		}
		dims = lens.Dimensions{Width: w, Height: h}
	}

	result, err := client.ScanByURL(ctx, target, dims)
	if err != nil {
		return nil, fmt.Errorf("scan of %s failed: %w", target, err)
	}
	return result, nil
}

// isURL reports whether target is an http(s) URL rather than a file path.
// Windows drive letters parse as URL schemes, so only http and https count.
func isURL(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// OCRResult is the --json output.
type OCRResult struct {
	Source    string         `json:"source"`
	Language  string         `json:"language"`
	Text      string         `json:"text"`
	Segments  []lens.Segment `json:"segments"`
	Timestamp string         `json:"timestamp"`
	Duration  float64        `json:"duration_seconds"`
}

func outputResult(w io.Writer, result *lens.Result, source string, elapsed time.Duration, jsonOutput bool) error {
	if !jsonOutput {
		_, err := fmt.Fprintln(w, result.Text())
		return err
	}

	segments := result.Segments
	if segments == nil {
		segments = []lens.Segment{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(OCRResult{
		Source:    source,
		Language:  result.Language,
		Text:      result.Text(),
		Segments:  segments,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Duration:  elapsed.Seconds(),
	}); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}
