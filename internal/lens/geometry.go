package lens

import (
	"encoding/json"
	"fmt"
	"math"
)

// Dimensions is an image size in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both sides are positive.
func (d Dimensions) Valid() bool { return d.Width > 0 && d.Height > 0 }

// PixelRect is a rectangle in image pixels, (X, Y) being the top-left corner.
type PixelRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// BoundingBox locates a segment relative to the image, as fractions of the
// image width and height. The pixel rectangle is derived on demand from the
// fractions and the image dimensions.
type BoundingBox struct {
	CenterPercentX float64
	CenterPercentY float64
	PercentWidth   float64
	PercentHeight  float64

	dims Dimensions
}

// NewBoundingBox builds a box from a [centerX, centerY, width, height] region.
// Components beyond the fourth are ignored.
func NewBoundingBox(region []float64, dims Dimensions) (BoundingBox, error) {
	if err := checkGeometry(region, dims); err != nil {
		return BoundingBox{}, err
	}
	return BoundingBox{
		CenterPercentX: region[0],
		CenterPercentY: region[1],
		PercentWidth:   region[2],
		PercentHeight:  region[3],
		dims:           dims,
	}, nil
}

// Dimensions returns the image size the box is placed in.
func (b BoundingBox) Dimensions() Dimensions { return b.dims }

// PixelRect converts the box to pixels of the image it belongs to.
func (b BoundingBox) PixelRect() PixelRect {
	return pixelRect(b.CenterPercentX, b.CenterPercentY, b.PercentWidth, b.PercentHeight, b.dims)
}

// MarshalJSON includes the derived pixel rectangle as pixel_coords.
func (b BoundingBox) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		CenterPercentX float64   `json:"center_per_x"`
		CenterPercentY float64   `json:"center_per_y"`
		PercentWidth   float64   `json:"per_width"`
		PercentHeight  float64   `json:"per_height"`
		PixelCoords    PixelRect `json:"pixel_coords"`
	}{b.CenterPercentX, b.CenterPercentY, b.PercentWidth, b.PercentHeight, b.PixelRect()})
}

// ToPixelRect converts a [centerX, centerY, width, height] region to pixels.
//
// All four outputs are rounded with math.Round, i.e. halves round away from
// zero. Returns ErrInvalidGeometry if dims is not positive or the region has
// fewer than four components.
func ToPixelRect(region []float64, dims Dimensions) (PixelRect, error) {
	if err := checkGeometry(region, dims); err != nil {
		return PixelRect{}, err
	}
	return pixelRect(region[0], region[1], region[2], region[3], dims), nil
}

// CenterFromTopLeft converts a [topLeftY, topLeftX, width, height] region to
// [centerX, centerY, width, height]. No rounding is applied.
func CenterFromTopLeft(region []float64) ([]float64, error) {
	if len(region) < 4 {
		return nil, fmt.Errorf("%w: region has %d components, want 4", ErrInvalidGeometry, len(region))
	}
	y, x, w, h := region[0], region[1], region[2], region[3]
	return []float64{x + w/2, y + h/2, w, h}, nil
}

func pixelRect(cx, cy, pw, ph float64, dims Dimensions) PixelRect {
	imgW, imgH := float64(dims.Width), float64(dims.Height)
	width := pw * imgW
	height := ph * imgH
	return PixelRect{
		X:      int(math.Round(cx*imgW - width/2)),
		Y:      int(math.Round(cy*imgH - height/2)),
		Width:  int(math.Round(width)),
		Height: int(math.Round(height)),
	}
}

func checkGeometry(region []float64, dims Dimensions) error {
	if !dims.Valid() {
		return fmt.Errorf("%w: image dimensions %dx%d", ErrInvalidGeometry, dims.Width, dims.Height)
	}
	if len(region) < 4 {
		return fmt.Errorf("%w: region has %d components, want 4", ErrInvalidGeometry, len(region))
	}
	return nil
}
