// Package imaging prepares images for upload to the Lens endpoint.
//
// The upload endpoint accepts a fixed set of formats and rejects images larger
// than 1000x1000 pixels. Prepare detects the format from the file's magic
// bytes, reads the pixel dimensions, and shrinks oversized images so that both
// sides fit in MaxDimension, re-encoding them as JPEG at quality 90.
//
// # Supported Formats
//
// The accepted MIME types are:
//   - image/x-icon
//   - image/bmp
//   - image/jpeg
//   - image/png
//   - image/tiff
//   - image/webp
//   - image/heic
//
// Dimensions are read with the standard image decoders, the golang.org/x/image
// BMP, TIFF and WebP decoders, and the fyne-io ICO decoder. HEIC files pass
// the format check but have no decoder, so Prepare reports a decode error for
// them; lens.Client.ScanByData still uploads them when the caller supplies the
// size.
//
// Crop and CropRegion cut part of an image out before it is prepared, and
// ProbeURL reads the size of a remote image from its first bytes.
//
// # Thread Safety
//
// Cache is safe for concurrent use. Prepare and DecodeDimensions are stateless.
package imaging
