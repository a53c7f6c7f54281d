package ui

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/muesli/termenv"

	"github.com/five82/rotary/internal/viewer"
)

// Frames are drawn with half-block cells: every terminal cell shows two
// vertically stacked pixels, so a viewport of cols x rows cells is a canvas of
// cols x rows*2 pixels. Pointer coordinates use the same pixel units.

// rasterize draws img onto a w x h canvas the way the viewer shows it: fitted
// and centred, magnified by scale and shifted by off.
func rasterize(img image.Image, w, h int, scale float64, off viewer.Offset, bg color.Color) *image.NRGBA {
	canvas := imaging.New(w, h, bg)
	if img == nil || w <= 0 || h <= 0 {
		return canvas
	}
	b := img.Bounds()
	iw, ih := float64(b.Dx()), float64(b.Dy())
	if iw == 0 || ih == 0 {
		return canvas
	}

	k := math.Min(float64(w)/iw, float64(h)/ih) * scale
	left := float64(w)/2 - iw*k/2 + off.X
	top := float64(h)/2 - ih*k/2 + off.Y

	dx0, dy0 := math.Max(0, left), math.Max(0, top)
	dx1, dy1 := math.Min(float64(w), left+iw*k), math.Min(float64(h), top+ih*k)
	dw, dh := int(math.Round(dx1-dx0)), int(math.Round(dy1-dy0))
	if dw < 1 || dh < 1 {
		return canvas
	}

	src := image.Rect(
		b.Min.X+int(math.Floor((dx0-left)/k)),
		b.Min.Y+int(math.Floor((dy0-top)/k)),
		b.Min.X+int(math.Ceil((dx1-left)/k)),
		b.Min.Y+int(math.Ceil((dy1-top)/k)),
	).Intersect(b)
	if src.Empty() {
		return canvas
	}

	filter := imaging.NearestNeighbor
	if k < 1 {
		filter = imaging.Box
	}
	scaled := imaging.Resize(imaging.Crop(img, src), dw, dh, filter)
	return imaging.Paste(canvas, scaled, image.Pt(int(math.Round(dx0)), int(math.Round(dy0))))
}

// halfBlocks encodes a canvas as terminal rows. The upper pixel of each cell
// is the foreground of "▀" and the lower pixel its background.
func halfBlocks(img *image.NRGBA, profile termenv.Profile) string {
	b := img.Bounds()
	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteByte('\n')
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			upper := hexColor(img.NRGBAAt(x, y))
			lower := upper
			if y+1 < b.Max.Y {
				lower = hexColor(img.NRGBAAt(x, y+1))
			}
			if upper == lower {
				sb.WriteString(profile.String(" ").Background(profile.Color(upper)).String())
				continue
			}
			sb.WriteString(profile.String("▀").
				Foreground(profile.Color(upper)).
				Background(profile.Color(lower)).
				String())
		}
	}
	return sb.String()
}

func hexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// parseHex converts a theme color such as "#131a24" into a color.
func parseHex(value string) color.NRGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(strings.TrimPrefix(value, "#"), "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.NRGBA{A: 0xff}
	}
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

type renderKey struct {
	index      int
	cols, rows int
	scale      float64
	offset     viewer.Offset
	background string
}

// frameCache keeps a reduced copy of each decoded frame sized for the
// current viewport, plus the last rendered string.
type frameCache struct {
	cols, rows int
	prepared   map[int]image.Image
	lastKey    renderKey
	last       string
}

func newFrameCache() *frameCache {
	return &frameCache{prepared: make(map[int]image.Image)}
}

// render returns the terminal rows for frame index of a session snapshot.
func (c *frameCache) render(index int, img image.Image, cols, rows int, snap viewer.State, background string, profile termenv.Profile) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}
	if cols != c.cols || rows != c.rows {
		c.cols, c.rows = cols, rows
		clear(c.prepared)
		c.last = ""
	}

	key := renderKey{
		index:      index,
		cols:       cols,
		rows:       rows,
		scale:      snap.Scale,
		offset:     snap.Offset,
		background: background,
	}
	if c.last != "" && key == c.lastKey {
		return c.last
	}

	prepared, ok := c.prepared[index]
	if !ok {
		// Never keep more detail than the largest zoom can show.
		prepared = imaging.Fit(img, cols*int(viewer.MaxScale), rows*2*int(viewer.MaxScale), imaging.Box)
		c.prepared[index] = prepared
	}

	canvas := rasterize(prepared, cols, rows*2, snap.Scale, snap.Offset, parseHex(background))
	c.lastKey = key
	c.last = halfBlocks(canvas, profile)
	return c.last
}

// forget drops a prepared frame, as after a successful retry.
func (c *frameCache) forget(index int) {
	delete(c.prepared, index)
	if c.lastKey.index == index {
		c.last = ""
	}
}
