package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledforge/internal/pixel"
)

func TestRasterize_NearestNeighbor(t *testing.T) {
	px := pixel.Buffer{{R: 255}, {G: 255}, {B: 255}, pixel.White}

	img, err := Rasterize(px, 2, 2, Options{PixelSize: 3, Zoom: 1})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 6), img.Bounds())

	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(2, 2))
	assert.Equal(t, color.RGBA{G: 255, A: 255}, img.RGBAAt(3, 0))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, img.RGBAAt(0, 5))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(5, 5))
}

func TestRasterize_Zoom(t *testing.T) {
	px := pixel.Filled(1, pixel.White)

	img, err := Rasterize(px, 1, 1, Options{PixelSize: 4, Zoom: 2.5})
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())

	img, err = Rasterize(px, 1, 1, Options{PixelSize: 4, Zoom: 0.01})
	require.NoError(t, err)
	assert.Equal(t, 1, img.Bounds().Dx(), "cell never shrinks below one pixel")
}

func TestRasterize_GridGap(t *testing.T) {
	px := pixel.Filled(2, pixel.Pixel{R: 200})
	opts := Options{PixelSize: 2, Zoom: 1, GridGap: 1}

	img, err := Rasterize(px, 2, 1, opts)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 2), img.Bounds())

	assert.Equal(t, color.RGBA{R: 200, A: 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(2, 0), "gap is background")
	assert.Equal(t, color.RGBA{R: 200, A: 255}, img.RGBAAt(3, 1))

	opts.Background = color.RGBA{G: 10, A: 255}
	img, err = Rasterize(px, 2, 1, opts)
	require.NoError(t, err)
	assert.Equal(t, opts.Background, img.RGBAAt(2, 1))
}

func TestRasterize_Errors(t *testing.T) {
	_, err := Rasterize(pixel.NewBuffer(3), 2, 2, DefaultOptions())
	assert.Error(t, err)

	_, err = Rasterize(nil, 0, 2, DefaultOptions())
	assert.Error(t, err)
}

func TestOptions_CellSizeDefaults(t *testing.T) {
	assert.Equal(t, DefaultPixelSize, Options{}.CellSize())
	assert.Equal(t, 16, Options{PixelSize: 8, Zoom: 2}.CellSize())
}
