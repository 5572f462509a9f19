package lens

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ironsheep/lens-ocr/internal/blob"
	"github.com/ironsheep/lens-ocr/internal/cookies"
	"github.com/ironsheep/lens-ocr/internal/imaging"
	"github.com/ironsheep/lens-ocr/internal/logutil"
)

const (
	DefaultEndpoint        = "https://lens.google.com/v3/upload"
	DefaultURLEndpoint     = "https://lens.google.com/uploadbyurl"
	DefaultConsentEndpoint = "https://consent.google.com/save"
	DefaultChromeVersion   = "124.0.6367.60"
	DefaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	DefaultConsentDelay    = 500 * time.Millisecond
	DefaultTimeout         = 60 * time.Second
)

// DefaultViewport is the browser window size reported to the service.
var DefaultViewport = Dimensions{Width: 1920, Height: 1080}

// consentParams are appended to the redirect's query when saving consent.
const consentParams = "x=6&set_eom=true&bl=boq_identityfrontenduiserver_20240129.02_p0&app=0"

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 32 << 20

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client. Zero fields take the package defaults.
type Config struct {
	// Endpoint receives image uploads.
	Endpoint string
	// URLEndpoint receives scans of remote images.
	URLEndpoint string
	// ConsentEndpoint is where the consent form is posted.
	ConsentEndpoint string

	ChromeVersion string
	UserAgent     string
	Viewport      Dimensions

	// Headers are added to every scan request. Keys are case-insensitive.
	// A "cookie" entry is loaded into the cookie jar instead.
	Headers map[string]string
	// Cookie is a request-style cookie header ("a=1; b=2") loaded into the jar.
	Cookie string
	// Cookies is a snapshot from a previous session, loaded into the jar.
	Cookies map[string]cookies.Cookie

	// ConsentDelay is waited after each response of the consent exchange and
	// is the minimum spacing between request starts.
	ConsentDelay time.Duration
	// Timeout bounds each HTTP exchange of the default transport.
	Timeout time.Duration
	// HTTPClient replaces the default transport. It must not follow
	// redirects.
	HTTPClient Doer
}

// Client scans images with Google Lens.
//
// A Client keeps one cookie session across scans and is safe for concurrent
// use; requests from all callers share one pacing limiter.
type Client struct {
	endpoint        string
	urlEndpoint     string
	consentEndpoint string
	viewport        Dimensions
	overlay         map[string]string
	identity        identity

	jar   *cookies.Jar
	http  Doer
	pacer *rate.Limiter
	delay time.Duration
}

// New creates a Client from cfg.
func New(cfg Config) *Client {
	c := &Client{
		endpoint:        withDefault(cfg.Endpoint, DefaultEndpoint),
		urlEndpoint:     withDefault(cfg.URLEndpoint, DefaultURLEndpoint),
		consentEndpoint: withDefault(cfg.ConsentEndpoint, DefaultConsentEndpoint),
		viewport:        cfg.Viewport,
		overlay:         normalizeHeaders(cfg.Headers),
		identity: newIdentity(
			withDefault(cfg.ChromeVersion, DefaultChromeVersion),
			withDefault(cfg.UserAgent, DefaultUserAgent),
		),
		jar:  cookies.NewJar(),
		http: cfg.HTTPClient,
	}
	if !c.viewport.Valid() {
		c.viewport = DefaultViewport
	}

	if cfg.Cookies != nil {
		c.jar.Restore(cfg.Cookies)
	}
	if cfg.Cookie != "" {
		c.jar.Seed(cfg.Cookie)
	}
	if seeded, ok := c.overlay["cookie"]; ok {
		c.jar.Seed(seeded)
		delete(c.overlay, "cookie")
	}

	if c.http == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.http = &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	delay := cfg.ConsentDelay
	if delay == 0 {
		delay = DefaultConsentDelay
	}
	if delay < 0 {
		c.pacer = rate.NewLimiter(rate.Inf, 1)
	} else {
		c.delay = delay
		c.pacer = rate.NewLimiter(rate.Every(delay), 1)
	}

	log.Printf("lens: client ready (%s, %d cookies)", c.identity.sbisrc(), c.jar.Len())
	return c
}

// Cookies returns a copy of the session's live cookies, suitable for
// cookies.SaveFile and Config.Cookies.
func (c *Client) Cookies() map[string]cookies.Cookie {
	return c.jar.Snapshot()
}

// ScanByURL scans the image at imageURL. dims is the image's size in pixels
// and is used to place the returned bounding boxes.
func (c *Client) ScanByURL(ctx context.Context, imageURL string, dims Dimensions) (*Result, error) {
	if !dims.Valid() {
		return nil, fmt.Errorf("%w: image dimensions %dx%d", ErrInvalidGeometry, dims.Width, dims.Height)
	}
	endpoint, err := appendQuery(c.urlEndpoint, url.Values{"url": {imageURL}}.Encode())
	if err != nil {
		return nil, err
	}
	return c.scan(ctx, outgoing{method: http.MethodGet, endpoint: endpoint}, dims)
}

// ScanByData uploads encoded image data of the given MIME type.
//
// The image must not exceed imaging.MaxDimension on either side. dims places
// the returned bounding boxes; if it is zero the image's own size is used.
// Formats that cannot be decoded locally, such as HEIC, are uploaded with
// dims as their size, so dims is required for them.
//
// # Errors
//
//   - ErrUnsupportedMime if mime is not an accepted format
//   - ErrImageTooLarge if the image is larger than 1000x1000
//   - *ResponseError for unexpected responses, wrapping the cause
//   - *TransportError when a request cannot be completed
//   - ErrCancelled when ctx ends first
func (c *Client) ScanByData(ctx context.Context, data []byte, mime string, dims Dimensions) (*Result, error) {
	ext, ok := imaging.MimeExtension(mime)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMime, mime)
	}
	_, width, height, err := imaging.DecodeDimensions(data)
	if err != nil {
		if errors.Is(err, ErrUnsupportedMime) || !dims.Valid() {
			return nil, err
		}
		log.Printf("lens: %v; using the given size %dx%d", err, dims.Width, dims.Height)
		width, height = dims.Width, dims.Height
	}
	if width > imaging.MaxDimension || height > imaging.MaxDimension {
		return nil, fmt.Errorf("%w: got %dx%d", ErrImageTooLarge, width, height)
	}
	if dims == (Dimensions{}) {
		dims = Dimensions{Width: width, Height: height}
	}
	if !dims.Valid() {
		return nil, fmt.Errorf("%w: image dimensions %dx%d", ErrInvalidGeometry, dims.Width, dims.Height)
	}

	body, contentType, err := uploadForm(data, mime, ext, width, height)
	if err != nil {
		return nil, err
	}
	return c.scan(ctx, outgoing{
		method:      http.MethodPost,
		endpoint:    c.endpoint,
		contentType: contentType,
		body:        body,
	}, dims)
}

// ScanByBuffer uploads an image of any accepted format, shrinking it first
// if it is larger than imaging.MaxDimension.
func (c *Client) ScanByBuffer(ctx context.Context, data []byte) (*Result, error) {
	prepared, err := imaging.Prepare(data)
	if err != nil {
		return nil, err
	}
	return c.scanPrepared(ctx, prepared)
}

// ScanByFile reads and uploads the image at path.
func (c *Client) ScanByFile(ctx context.Context, path string) (*Result, error) {
	prepared, err := imaging.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return c.scanPrepared(ctx, prepared)
}

// ScanPrepared uploads an image already run through imaging.Prepare.
func (c *Client) ScanPrepared(ctx context.Context, prepared *imaging.Prepared) (*Result, error) {
	return c.scanPrepared(ctx, prepared)
}

func (c *Client) scanPrepared(ctx context.Context, p *imaging.Prepared) (*Result, error) {
	if p.Resized {
		log.Printf("lens: image resized to %dx%d", p.Width, p.Height)
	}
	return c.ScanByData(ctx, p.Data, p.MimeType, Dimensions{Width: p.Width, Height: p.Height})
}

// outgoing describes a scan request so it can be sent again after consent.
type outgoing struct {
	method      string
	endpoint    string
	contentType string
	body        []byte
}

func (c *Client) scan(ctx context.Context, req outgoing, dims Dimensions) (*Result, error) {
	id := uuid.NewString()
	log.Printf("lens[%s]: %s %s", id, req.method, req.endpoint)
	start := time.Now()

	result, err := c.fetch(ctx, id, req, dims, false)
	if err != nil {
		log.Printf("lens[%s]: failed after %v: %v", id, time.Since(start), err)
		return nil, err
	}
	log.Printf("lens[%s]: %d segments (%s) in %v", id, len(result.Segments), result.Language, time.Since(start))
	return result, nil
}

// fetch sends req and follows the consent gate at most once.
func (c *Client) fetch(ctx context.Context, id string, req outgoing, dims Dimensions, secondTry bool) (*Result, error) {
	httpReq, err := c.scanRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, id, httpReq)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return decode(resp, dims)

	case http.StatusFound:
		if secondTry {
			return nil, resp.fail(ErrDoubleRedirect)
		}
		location := resp.Header.Get("Location")
		if location == "" {
			return nil, resp.fail(ErrMissingRedirectTarget)
		}
		if err := c.pause(ctx); err != nil {
			return nil, err
		}
		if err := c.saveConsent(ctx, id, location); err != nil {
			return nil, err
		}
		log.Printf("lens[%s]: consent saved, retrying", id)
		if err := c.pause(ctx); err != nil {
			return nil, err
		}
		return c.fetch(ctx, id, req, dims, true)

	default:
		return nil, resp.fail(ErrUnexpectedStatus)
	}
}

// saveConsent posts the consent form for the redirect target location.
func (c *Client) saveConsent(ctx context.Context, id, location string) error {
	target, err := url.Parse(location)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrMissingRedirectTarget, location, err)
	}
	form := consentParams
	if target.RawQuery != "" {
		form = target.RawQuery + "&" + consentParams
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.consentEndpoint, strings.NewReader(form))
	if err != nil {
		return fmt.Errorf("failed to build consent request: %w", err)
	}
	httpReq.Header = c.identity.consentHeader()
	if cookie := c.jar.Header(); cookie != "" {
		httpReq.Header.Set("Cookie", cookie)
	}

	resp, err := c.send(ctx, id, httpReq)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusSeeOther {
		return resp.fail(ErrUnexpectedStatus)
	}
	return nil
}

func (c *Client) scanRequest(ctx context.Context, req outgoing) (*http.Request, error) {
	query := fmt.Sprintf("s=4&re=df&stcs=%d&vpw=%d&vph=%d&ep=subb",
		time.Now().UnixMilli(), c.viewport.Width, c.viewport.Height)
	endpoint, err := appendQuery(req.endpoint, query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	httpReq.Header = c.identity.header()
	for k, v := range c.overlay {
		httpReq.Header.Set(k, v)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if cookie := c.jar.Header(); cookie != "" {
		httpReq.Header.Set("Cookie", cookie)
	}
	return httpReq, nil
}

// pause waits the consent delay after a response of the consent exchange.
func (c *Client) pause(ctx context.Context) error {
	if c.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return cancelled(ctx, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// response is a fully read HTTP response.
type response struct {
	StatusCode int
	Header     http.Header
	Body       string
}

func (r *response) fail(err error) *ResponseError {
	return &ResponseError{StatusCode: r.StatusCode, Header: r.Header, Body: r.Body, Err: err}
}

// send waits for the pacer, performs one exchange and absorbs the response
// cookies into the jar.
func (c *Client) send(ctx context.Context, id string, req *http.Request) (*response, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, cancelled(ctx, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx, err)
		}
		return nil, &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx, err)
		}
		return nil, &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}

	log.Printf("lens[%s]: %s %s -> %d (%d bytes, cookies %s)", id, req.Method, req.URL.Host+req.URL.Path,
		resp.StatusCode, len(body), logutil.RedactCookies(strings.Join(resp.Header.Values("Set-Cookie"), ", ")))

	r := &response{StatusCode: resp.StatusCode, Header: resp.Header, Body: string(body)}
	if err := c.jar.AbsorbHeader(resp.Header); err != nil {
		return nil, r.fail(err)
	}
	return r, nil
}

// decode extracts the result from a successful response.
func decode(resp *response, dims Dimensions) (*Result, error) {
	decoded, err := blob.Extract(resp.Body)
	if err != nil {
		return nil, resp.fail(err)
	}
	result, err := ParseResult(decoded, dims)
	if err != nil {
		if errors.Is(err, ErrInvalidGeometry) {
			return nil, err
		}
		return nil, resp.fail(err)
	}
	return result, nil
}

// uploadForm builds the multipart body of an image upload.
func uploadForm(data []byte, mime, ext string, width, height int) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part := make(textproto.MIMEHeader)
	part.Set("Content-Disposition", fmt.Sprintf(`form-data; name="encoded_image"; filename="image.%s"`, ext))
	part.Set("Content-Type", mime)
	pw, err := w.CreatePart(part)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := pw.Write(data); err != nil {
		return nil, "", fmt.Errorf("failed to build upload form: %w", err)
	}

	fields := [][2]string{
		{"original_width", strconv.Itoa(width)},
		{"original_height", strconv.Itoa(height)},
		{"processed_image_dimensions", fmt.Sprintf("%d,%d", width, height)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to build upload form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func appendQuery(endpoint, query string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.RawQuery != "" {
		u.RawQuery += "&" + query
	} else {
		u.RawQuery = query
	}
	return u.String(), nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
