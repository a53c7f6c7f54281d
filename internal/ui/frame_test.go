package ui

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"github.com/five82/rotary/internal/viewer"
)

var (
	red   = color.NRGBA{R: 0xff, A: 0xff}
	blue  = color.NRGBA{B: 0xff, A: 0xff}
	black = color.NRGBA{A: 0xff}
)

// splitImage returns a w x h image, red on the left half and blue on the right.
func splitImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.SetNRGBA(x, y, red)
			} else {
				img.SetNRGBA(x, y, blue)
			}
		}
	}
	return img
}

func TestRasterize_FitsAndLetterboxes(t *testing.T) {
	canvas := rasterize(splitImage(2, 1), 4, 4, 1, viewer.Offset{}, black)

	tests := []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, black}, // letterbox above
		{0, 1, red},
		{3, 2, blue},
		{3, 3, black}, // letterbox below
	}
	for _, tt := range tests {
		if got := canvas.NRGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRasterize_ZoomAndOffset(t *testing.T) {
	// At 2x the image is 8x4 on a 4x2 canvas; shifting right by 2 shows only
	// the red half.
	canvas := rasterize(splitImage(2, 1), 4, 2, 2, viewer.Offset{X: 2}, black)
	for x := 0; x < 4; x++ {
		for y := 0; y < 2; y++ {
			if got := canvas.NRGBAAt(x, y); got != red {
				t.Fatalf("pixel (%d,%d) = %v, want red", x, y, got)
			}
		}
	}

	canvas = rasterize(splitImage(2, 1), 4, 2, 2, viewer.Offset{X: -2}, black)
	if got := canvas.NRGBAAt(0, 0); got != blue {
		t.Fatalf("pixel (0,0) = %v, want blue after panning left", got)
	}
}

func TestRasterize_OffscreenLeavesBackground(t *testing.T) {
	canvas := rasterize(splitImage(2, 1), 4, 2, 2, viewer.Offset{X: 100}, black)
	if got := canvas.NRGBAAt(2, 1); got != black {
		t.Fatalf("pixel = %v, want background", got)
	}
	if empty := rasterize(nil, 4, 2, 1, viewer.Offset{}, black); empty.Bounds().Dx() != 4 {
		t.Fatalf("nil image canvas width = %d, want 4", empty.Bounds().Dx())
	}
}

func TestHalfBlocks(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, red)
	img.SetNRGBA(0, 1, blue)
	img.SetNRGBA(1, 0, red)
	img.SetNRGBA(1, 1, red)

	out := halfBlocks(img, termenv.TrueColor)
	if strings.Count(out, "▀") != 1 {
		t.Fatalf("halfBlocks = %q, want one half block for the split cell", out)
	}
	if strings.Contains(out, "\n") {
		t.Fatalf("halfBlocks = %q, want a single row", out)
	}
	if !strings.Contains(out, "38;2;255;0;0") || !strings.Contains(out, "48;2;0;0;255") {
		t.Fatalf("halfBlocks = %q, want red foreground over blue background", out)
	}

	plain := halfBlocks(image.NewNRGBA(image.Rect(0, 0, 3, 4)), termenv.Ascii)
	if plain != "   \n   " {
		t.Fatalf("ascii halfBlocks = %q, want two rows of spaces", plain)
	}
}

func TestParseHex(t *testing.T) {
	if got := parseHex("#131a24"); got != (color.NRGBA{R: 0x13, G: 0x1a, B: 0x24, A: 0xff}) {
		t.Fatalf("parseHex = %v", got)
	}
	if got := parseHex("nope"); got != black {
		t.Fatalf("parseHex(invalid) = %v, want black", got)
	}
}

func TestFrameCache_ReusesRender(t *testing.T) {
	c := newFrameCache()
	state := viewer.State{Scale: 1}

	first := c.render(0, splitImage(40, 20), 10, 5, state, "#000000", termenv.Ascii)
	if first == "" {
		t.Fatalf("render returned empty output")
	}
	if len(c.prepared) != 1 {
		t.Fatalf("prepared = %d, want 1", len(c.prepared))
	}
	if again := c.render(0, nil, 10, 5, state, "#000000", termenv.Ascii); again != first {
		t.Fatalf("cached render differs")
	}

	c.render(0, splitImage(40, 20), 12, 5, state, "#000000", termenv.Ascii)
	if c.cols != 12 || len(c.prepared) != 1 {
		t.Fatalf("resize did not reset cache: cols=%d prepared=%d", c.cols, len(c.prepared))
	}

	c.forget(0)
	if len(c.prepared) != 0 || c.last != "" {
		t.Fatalf("forget kept frame 0")
	}
}
