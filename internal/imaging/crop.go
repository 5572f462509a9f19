package imaging

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Regions lists the names accepted by CropRegion.
var Regions = []string{
	"top-left", "top-right", "bottom-left", "bottom-right",
	"top-half", "bottom-half", "left-half", "right-half", "center",
}

// Crop cuts rect out of the encoded image and prepares the result for upload.
// The crop is re-encoded as PNG, so Prepared.MimeType is image/png unless the
// crop itself exceeds MaxDimension.
func Crop(data []byte, rect image.Rectangle) (*Prepared, error) {
	if _, err := SniffMime(data); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if rect.Empty() {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}
	if !rect.In(bounds) {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y,
			bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Crop(img, rect), imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}
	return Prepare(buf.Bytes())
}

// CropRegion crops a named part of the image, such as "top-half" or
// "center" (the middle 50% on both axes). See Regions.
func CropRegion(data []byte, region string) (*Prepared, error) {
	_, w, h, err := DecodeDimensions(data)
	if err != nil {
		return nil, err
	}
	rect, err := regionRect(region, w, h)
	if err != nil {
		return nil, err
	}
	return Crop(data, rect)
}

func regionRect(region string, w, h int) (image.Rectangle, error) {
	midX, midY := w/2, h/2

	switch region {
	case "top-left":
		return image.Rect(0, 0, midX, midY), nil
	case "top-right":
		return image.Rect(midX, 0, w, midY), nil
	case "bottom-left":
		return image.Rect(0, midY, midX, h), nil
	case "bottom-right":
		return image.Rect(midX, midY, w, h), nil
	case "top-half":
		return image.Rect(0, 0, w, midY), nil
	case "bottom-half":
		return image.Rect(0, midY, w, h), nil
	case "left-half":
		return image.Rect(0, 0, midX, h), nil
	case "right-half":
		return image.Rect(midX, 0, w, h), nil
	case "center":
		return image.Rect(w/4, h/4, w-w/4, h-h/4), nil
	default:
		return image.Rectangle{}, fmt.Errorf("unknown region: %s", region)
	}
}
