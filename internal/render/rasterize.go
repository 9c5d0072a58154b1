package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/roach88/ledforge/internal/pixel"
)

const (
	DefaultPixelSize = 8
	DefaultZoom      = 1.0
)

// Options controls how LEDs map to output pixels.
type Options struct {
	// PixelSize is the edge length of one LED at zoom 1.
	PixelSize int

	// Zoom scales PixelSize. The resulting cell is at least one pixel.
	Zoom float64

	// GridGap is the number of background pixels between adjacent LEDs.
	GridGap int

	// Background fills the gaps. Zero means opaque black.
	Background color.RGBA
}

// DefaultOptions returns 8px LEDs at zoom 1 with no grid.
func DefaultOptions() Options {
	return Options{PixelSize: DefaultPixelSize, Zoom: DefaultZoom}
}

// CellSize returns the rendered edge length of one LED.
func (o Options) CellSize() int {
	size := o.PixelSize
	if size < 1 {
		size = DefaultPixelSize
	}
	zoom := o.Zoom
	if zoom <= 0 || math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		zoom = DefaultZoom
	}
	return max(1, int(math.Round(float64(size)*zoom)))
}

// Bounds returns the image size Rasterize produces for a width x height
// matrix.
func (o Options) Bounds(width, height int) image.Rectangle {
	cell := o.CellSize()
	gap := max(0, o.GridGap)
	w := width*cell + max(0, width-1)*gap
	h := height*cell + max(0, height-1)*gap
	return image.Rect(0, 0, w, h)
}

// Rasterize draws a row-major LED buffer as an RGBA image.
//
// Without a grid gap the buffer is upscaled in one nearest-neighbor pass.
// With a gap each LED is drawn as its own square over the background.
func Rasterize(pixels pixel.Buffer, width, height int, opts Options) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid matrix size %dx%d", width, height)
	}
	if len(pixels) != width*height {
		return nil, fmt.Errorf("pixel count %d does not match %dx%d", len(pixels), width, height)
	}

	src := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, p := range pixels {
		o := i * 4
		src.Pix[o] = p.R
		src.Pix[o+1] = p.G
		src.Pix[o+2] = p.B
		src.Pix[o+3] = 0xff
	}

	dst := image.NewRGBA(opts.Bounds(width, height))
	if opts.GridGap <= 0 {
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		return dst, nil
	}

	bg := opts.Background
	if bg == (color.RGBA{}) {
		bg = color.RGBA{A: 0xff}
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	cell := opts.CellSize()
	stride := cell + opts.GridGap
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := image.Rect(x*stride, y*stride, x*stride+cell, y*stride+cell)
			draw.Draw(dst, r, image.NewUniform(src.RGBAAt(x, y)), image.Point{}, draw.Src)
		}
	}
	return dst, nil
}
