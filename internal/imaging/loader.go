package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fyne-io/image/ico"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// MaxDimension is the largest width or height the upload endpoint accepts.
const MaxDimension = 1000

// jpegQuality is used when oversized images are re-encoded.
const jpegQuality = 90

var (
	// ErrUnsupportedMime is returned for images outside the accepted formats.
	ErrUnsupportedMime = errors.New("unsupported image type")

	// ErrImageTooLarge is returned when an image exceeds MaxDimension.
	ErrImageTooLarge = errors.New("image dimensions are larger than 1000x1000")
)

// mimeExtensions lists the accepted MIME types and the file extension used in
// the upload form for each.
var mimeExtensions = map[string]string{
	"image/x-icon": "ico",
	"image/bmp":    "bmp",
	"image/jpeg":   "jpg",
	"image/png":    "png",
	"image/tiff":   "tiff",
	"image/webp":   "webp",
	"image/heic":   "heic",
}

// mimeAliases maps sniffed MIME names onto the names in mimeExtensions.
var mimeAliases = map[string]string{
	"image/vnd.microsoft.icon": "image/x-icon",
	"image/heif":               "image/heic",
}

// MimeExtension returns the upload file extension for an accepted MIME type.
func MimeExtension(mime string) (string, bool) {
	ext, ok := mimeExtensions[mime]
	return ext, ok
}

// IsSupported reports whether mime is one of the accepted formats.
func IsSupported(mime string) bool {
	_, ok := mimeExtensions[mime]
	return ok
}

// Prepared is an image ready for upload.
type Prepared struct {
	// Data is the encoded image, either the original bytes or a JPEG re-encoding.
	Data []byte `json:"-"`

	// MimeType is the MIME type of Data.
	MimeType string `json:"mime_type"`

	// Width and Height are the pixel dimensions of Data.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Resized is true when the original exceeded MaxDimension and was shrunk.
	Resized bool `json:"resized"`
}

// SniffMime detects the MIME type of an image from its magic bytes.
//
// Returns ErrUnsupportedMime if the data is not an image or is an image
// format the upload endpoint does not accept.
func SniffMime(data []byte) (string, error) {
	kind, err := filetype.Image(data)
	if err != nil || kind == filetype.Unknown {
		return "", fmt.Errorf("%w: unrecognized image data", ErrUnsupportedMime)
	}

	mime := kind.MIME.Value
	if alias, ok := mimeAliases[mime]; ok {
		mime = alias
	}
	if !IsSupported(mime) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMime, mime)
	}
	return mime, nil
}

// DecodeDimensions returns the MIME type and pixel dimensions of an image
// without decoding its pixels.
func DecodeDimensions(data []byte) (mime string, width, height int, err error) {
	mime, err = SniffMime(data)
	if err != nil {
		return "", 0, 0, err
	}
	var cfg image.Config
	if mime == "image/x-icon" {
		cfg, err = ico.DecodeConfig(bytes.NewReader(data))
	} else {
		cfg, _, err = image.DecodeConfig(bytes.NewReader(data))
	}
	if err != nil {
		return "", 0, 0, fmt.Errorf("failed to decode %s dimensions: %w", mime, err)
	}
	return mime, cfg.Width, cfg.Height, nil
}

// Prepare validates an image and shrinks it if needed.
//
// Images within MaxDimension on both sides are returned unchanged. Larger
// images are scaled to fit MaxDimension x MaxDimension, preserving the aspect
// ratio, and re-encoded as JPEG.
//
// # Errors
//
//   - ErrUnsupportedMime if the format is not accepted
//   - a decode error if the dimensions cannot be read
func Prepare(data []byte) (*Prepared, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image data", ErrUnsupportedMime)
	}

	mime, width, height, err := DecodeDimensions(data)
	if err != nil {
		return nil, err
	}

	if width <= MaxDimension && height <= MaxDimension {
		return &Prepared{Data: data, MimeType: mime, Width: width, Height: height}, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	fitted := imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}

	bounds := fitted.Bounds()
	return &Prepared{
		Data:     buf.Bytes(),
		MimeType: "image/jpeg",
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Resized:  true,
	}, nil
}

// LoadFile reads and prepares an image file.
func LoadFile(path string) (*Prepared, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return Prepare(data)
}

// Cache memoizes prepared images by file path.
//
// Once a path is loaded, subsequent Load calls return the cached copy without
// disk I/O. Different spellings of the same file (relative vs absolute) are
// cached separately.
//
// Cache is safe for concurrent use by multiple goroutines.
type Cache struct {
	mu     sync.RWMutex
	images map[string]*Prepared
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		images: make(map[string]*Prepared),
	}
}

// Load returns the prepared image for path, reading it on first use.
func (c *Cache) Load(path string) (*Prepared, error) {
	c.mu.RLock()
	if p, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return p, nil
	}
	c.mu.RUnlock()

	p, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = p
	c.mu.Unlock()

	return p, nil
}

// Clear removes all images from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*Prepared)
	c.mu.Unlock()
}

// Evict removes the image cached for path, if any.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}
