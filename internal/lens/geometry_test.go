package lens

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"
)

func TestToPixelRect(t *testing.T) {
	tests := []struct {
		name   string
		region []float64
		dims   Dimensions
		want   PixelRect
	}{
		{
			name:   "centered box",
			region: []float64{0.5, 0.5, 0.2, 0.1},
			dims:   Dimensions{Width: 1000, Height: 1000},
			want:   PixelRect{X: 400, Y: 450, Width: 200, Height: 100},
		},
		{
			name:   "full image",
			region: []float64{0.5, 0.5, 1, 1},
			dims:   Dimensions{Width: 640, Height: 480},
			want:   PixelRect{X: 0, Y: 0, Width: 640, Height: 480},
		},
		{
			name:   "half pixel rounds away from zero",
			region: []float64{0.5, 0.5, 0.25, 0.25},
			dims:   Dimensions{Width: 10, Height: 10},
			want:   PixelRect{X: 4, Y: 4, Width: 3, Height: 3},
		},
		{
			name:   "extra components ignored",
			region: []float64{0.1, 0.9, 0.2, 0.2, 42},
			dims:   Dimensions{Width: 100, Height: 100},
			want:   PixelRect{X: 0, Y: 80, Width: 20, Height: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToPixelRect(tt.region, tt.dims)
			if err != nil {
				t.Fatalf("ToPixelRect failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestToPixelRect_InvalidGeometry(t *testing.T) {
	tests := []struct {
		name   string
		region []float64
		dims   Dimensions
	}{
		{"zero width", []float64{0.5, 0.5, 0.1, 0.1}, Dimensions{Width: 0, Height: 10}},
		{"negative height", []float64{0.5, 0.5, 0.1, 0.1}, Dimensions{Width: 10, Height: -1}},
		{"short region", []float64{0.5, 0.5, 0.1}, Dimensions{Width: 10, Height: 10}},
		{"nil region", nil, Dimensions{Width: 10, Height: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ToPixelRect(tt.region, tt.dims); !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("expected ErrInvalidGeometry, got %v", err)
			}
			if _, err := NewBoundingBox(tt.region, tt.dims); !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("NewBoundingBox: expected ErrInvalidGeometry, got %v", err)
			}
		})
	}
}

// Recomputing the center and size from a rounded rectangle lands within one
// pixel of the unrounded values.
func TestToPixelRect_InverseWithinOnePixel(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 1000; i++ {
		dims := Dimensions{Width: 1 + rng.Intn(4000), Height: 1 + rng.Intn(4000)}
		region := []float64{rng.Float64(), rng.Float64(), rng.Float64(), rng.Float64()}

		r, err := ToPixelRect(region, dims)
		if err != nil {
			t.Fatalf("ToPixelRect failed: %v", err)
		}

		w, h := float64(dims.Width), float64(dims.Height)
		checks := []struct {
			name      string
			got, want float64
		}{
			{"center x", float64(r.X) + float64(r.Width)/2, region[0] * w},
			{"center y", float64(r.Y) + float64(r.Height)/2, region[1] * h},
			{"width", float64(r.Width), region[2] * w},
			{"height", float64(r.Height), region[3] * h},
		}
		for _, c := range checks {
			if math.Abs(c.got-c.want) > 1 {
				t.Fatalf("region %v in %+v: %s = %v, want %v ±1", region, dims, c.name, c.got, c.want)
			}
		}
	}
}

func TestCenterFromTopLeft(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 200; i++ {
		y, x, w, h := rng.Float64(), rng.Float64(), rng.Float64(), rng.Float64()
		got, err := CenterFromTopLeft([]float64{y, x, w, h})
		if err != nil {
			t.Fatalf("CenterFromTopLeft failed: %v", err)
		}
		if got[0] != x+w/2 || got[1] != y+h/2 || got[2] != w || got[3] != h {
			t.Fatalf("CenterFromTopLeft(%v) = %v", []float64{y, x, w, h}, got)
		}
	}

	if _, err := CenterFromTopLeft([]float64{1, 2}); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("expected ErrInvalidGeometry for a short region, got %v", err)
	}
}

func TestBoundingBox(t *testing.T) {
	dims := Dimensions{Width: 1000, Height: 1000}
	box, err := NewBoundingBox([]float64{0.5, 0.5, 0.2, 0.1}, dims)
	if err != nil {
		t.Fatalf("NewBoundingBox failed: %v", err)
	}

	if box.CenterPercentX != 0.5 || box.CenterPercentY != 0.5 || box.PercentWidth != 0.2 || box.PercentHeight != 0.1 {
		t.Errorf("unexpected box fields: %+v", box)
	}
	if box.Dimensions() != dims {
		t.Errorf("Dimensions() = %+v, want %+v", box.Dimensions(), dims)
	}
	if want := (PixelRect{X: 400, Y: 450, Width: 200, Height: 100}); box.PixelRect() != want {
		t.Errorf("PixelRect() = %+v, want %+v", box.PixelRect(), want)
	}

	data, err := json.Marshal(box)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"pixel_coords":{"x":400,"y":450,"width":200,"height":100}`) {
		t.Errorf("JSON missing pixel_coords: %s", data)
	}
}
