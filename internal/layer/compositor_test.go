package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledforge/internal/pixel"
)

// createTestCompositor builds a compositor over an n-frame black pattern.
func createTestCompositor(t *testing.T, w, h, n int) *Compositor {
	t.Helper()
	p, err := pixel.NewBlankPattern(w, h, n, pixel.DefaultDurationMS)
	require.NoError(t, err)
	return NewCompositor(p)
}

var red = pixel.Pixel{R: 255}

func TestApplyPixel_ThenComposite(t *testing.T) {
	c := createTestCompositor(t, 4, 4, 1)

	c.ApplyPixel(0, 0, 0, red, 4, 4, 0)
	out := c.Composite(0)

	require.Len(t, out, 16)
	assert.Equal(t, red, out[0])
	for i := 1; i < 16; i++ {
		assert.Equal(t, pixel.Black, out[i], "pixel %d", i)
	}
}

func TestComposite_OpacityLerpOverOpaqueBase(t *testing.T) {
	c := createTestCompositor(t, 8, 8, 1)
	require.Equal(t, 1, c.EnsureLayers(0))

	top := c.AddLayer(0, "top")
	require.Equal(t, 1, top)
	require.True(t, c.ReplaceLayer(0, top, pixel.Filled(64, pixel.Pixel{R: 100}), nil))
	c.SetLayerOpacity(0, top, 0.5)

	for i, p := range c.Composite(0) {
		assert.Equal(t, pixel.Pixel{R: 50}, p, "pixel %d", i)
	}
}

func TestComposite_Deterministic(t *testing.T) {
	c := createTestCompositor(t, 3, 3, 1)
	c.ApplyPixel(0, 1, 1, red, 3, 3, 0)
	l := c.AddLayer(0, "glow")
	c.ApplyPixel(0, 2, 2, pixel.Pixel{G: 200}, 3, 3, l)
	c.SetBlendMode(0, l, BlendScreen)
	c.SetLayerOpacity(0, l, 0.3)

	first := c.Composite(0)
	second := c.Composite(0)
	assert.True(t, first.Equal(second))
}

func TestComposite_InvisibleLayerSkipped(t *testing.T) {
	c := createTestCompositor(t, 2, 2, 1)
	c.ApplyPixel(0, 0, 0, red, 2, 2, 0)
	l := c.AddLayer(0, "cover")
	require.True(t, c.ReplaceLayer(0, l, pixel.Filled(4, pixel.White), nil))

	assert.Equal(t, pixel.White, c.Composite(0)[0])

	c.SetLayerVisible(0, l, false)
	assert.Equal(t, red, c.Composite(0)[0])
}

func TestComposite_FreshLayerIsTransparent(t *testing.T) {
	c := createTestCompositor(t, 2, 2, 1)
	c.ApplyPixel(0, 1, 0, red, 2, 2, 0)
	c.AddLayer(0, "")

	assert.Equal(t, red, c.Composite(0)[1])
}

func TestComposite_NoStackReturnsFramePixels(t *testing.T) {
	c := createTestCompositor(t, 2, 2, 1)
	c.Pattern().Frames[0].Pixels[3] = red

	assert.False(t, c.HasLayers(0))
	assert.Equal(t, red, c.Composite(0)[3])
	assert.True(t, c.AreLayersSynced(0))
}

func TestAreLayersSynced_DetectsDirectWrite(t *testing.T) {
	c := createTestCompositor(t, 2, 2, 2)
	c.ApplyPixel(1, 0, 0, red, 2, 2, 0)

	// Layer edits are not visible in the frame until synced.
	assert.False(t, c.AreLayersSynced(1))
	assert.Equal(t, []int{1}, c.UnsyncedFrames())

	c.SyncFrameFromLayers(1)
	assert.True(t, c.AreLayersSynced(1))
	assert.Equal(t, red, c.Pattern().Frames[1].Pixels[0])

	// A direct write to the frame buffer drifts it from the layers.
	c.Pattern().Frames[1].Pixels[0] = pixel.White
	assert.False(t, c.AreLayersSynced(1))

	c.SyncAllFrames()
	assert.Empty(t, c.UnsyncedFrames())
}

func TestApplyPixel_OutOfBoundsIgnored(t *testing.T) {
	c := createTestCompositor(t, 3, 3, 1)

	for _, xy := range [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 3}, {100, 100}} {
		c.ApplyPixel(0, xy[0], xy[1], red, 3, 3, 0)
	}

	for _, p := range c.Composite(0) {
		assert.Equal(t, pixel.Black, p)
	}
}

func TestApplyPixel_InvalidIndicesDegrade(t *testing.T) {
	c := createTestCompositor(t, 2, 2, 2)

	// Invalid layer falls back to layer 0, which is created on demand.
	c.ApplyPixel(0, 0, 0, red, 2, 2, 7)
	assert.Equal(t, 1, c.LayerCount(0))
	assert.Equal(t, red, c.Composite(0)[0])

	// Frame index past the end clamps to the last frame.
	c.ApplyPixel(99, 1, 1, red, 2, 2, -3)
	assert.Equal(t, red, c.Composite(1)[3])
}

func TestAddLayer_OnEmptyFrameIsLayerZero(t *testing.T) {
	c := createTestCompositor(t, 2, 2, 1)

	idx := c.AddLayer(0, "first")
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1, c.LayerCount(0))

	idx = c.AddLayer(0, "")
	assert.Equal(t, 1, idx)

	layers := c.Layers(0)
	assert.Equal(t, "first", layers[0].Name)
	assert.Equal(t, "Layer 2", layers[1].Name)
	assert.True(t, layers[1].Visible)
	assert.Equal(t, 1.0, layers[1].Opacity)
	assert.Equal(t, BlendNormal, layers[1].BlendMode)
}

func TestAddLayer_NormalizesName(t *testing.T) {
	c := createTestCompositor(t, 1, 1, 1)
	// "e" followed by a combining acute accent.
	idx := c.AddLayer(0, "  cafe\u0301 ")

	l, ok := c.Layer(0, idx)
	require.True(t, ok)
	assert.Equal(t, "caf\u00e9", l.Name)
}

func TestCopyLayerToFrames_DeepCopy(t *testing.T) {
	c := createTestCompositor(t, 2, 2, 3)
	src := c.AddLayer(0, "logo")
	c.ApplyPixel(0, 0, 0, red, 2, 2, src)
	c.SetBlendMode(0, src, BlendAdd)

	copied := c.CopyLayerToFrames(0, src, []int{0, 1, 2, 9})
	assert.Equal(t, 2, copied)

	for _, f := range []int{1, 2} {
		layers := c.Layers(f)
		require.Len(t, layers, 2, "frame %d", f)
		assert.Equal(t, "logo", layers[1].Name)
		assert.Equal(t, BlendAdd, layers[1].BlendMode)
		assert.Equal(t, red, layers[1].Pixels[0])
	}

	// Later edits to the source never reach the copies.
	c.ApplyPixel(0, 1, 1, pixel.White, 2, 2, src)
	l, ok := c.Layer(1, 1)
	require.True(t, ok)
	assert.Equal(t, pixel.Black, l.Pixels[3])
	assert.Equal(t, Transparent, l.Alpha[3])
}

func TestLayers_ReturnsCopies(t *testing.T) {
	c := createTestCompositor(t, 2, 2, 1)
	layers := c.Layers(0)
	layers[0].Pixels[0] = red
	layers[0].Name = "mutated"

	l, _ := c.Layer(0, 0)
	assert.Equal(t, pixel.Black, l.Pixels[0])
	assert.Equal(t, BaseLayerName, l.Name)
}

func TestSetLayerOpacity_Clamped(t *testing.T) {
	c := createTestCompositor(t, 1, 1, 1)

	c.SetLayerOpacity(0, 0, 3.5)
	l, _ := c.Layer(0, 0)
	assert.Equal(t, 1.0, l.Opacity)

	c.SetLayerOpacity(0, 0, -2)
	l, _ = c.Layer(0, 0)
	assert.Equal(t, 0.0, l.Opacity)
}

func TestMetadataChangesDoNotResync(t *testing.T) {
	c := createTestCompositor(t, 1, 1, 1)
	c.ApplyPixel(0, 0, 0, red, 1, 1, 0)
	c.SyncFrameFromLayers(0)

	c.SetLayerVisible(0, 0, false)
	assert.Equal(t, red, c.Pattern().Frames[0].Pixels[0])
	assert.False(t, c.AreLayersSynced(0))
}

func TestRemoveAndMoveLayer(t *testing.T) {
	c := createTestCompositor(t, 1, 1, 1)
	c.EnsureLayers(0)
	c.AddLayer(0, "a")
	c.AddLayer(0, "b")

	require.True(t, c.MoveLayer(0, 2, 0))
	names := func() []string {
		var out []string
		for _, l := range c.Layers(0) {
			out = append(out, l.Name)
		}
		return out
	}
	assert.Equal(t, []string{"b", BaseLayerName, "a"}, names())

	assert.False(t, c.MoveLayer(0, 0, 5))
	require.True(t, c.RemoveLayer(0, 1))
	assert.Equal(t, []string{"b", "a"}, names())

	require.True(t, c.RemoveLayer(0, 0))
	assert.False(t, c.RemoveLayer(0, 0), "last layer is kept")
}

func TestFrameInsertAndDeleteShiftStacks(t *testing.T) {
	c := createTestCompositor(t, 1, 1, 3)
	c.AddLayer(2, "tail")

	c.InsertFrame(1)
	_, ok := c.stacks[2]
	assert.False(t, ok)
	assert.Equal(t, "tail", c.stacks[3][0].Name)

	c.DeleteFrame(0)
	assert.Equal(t, "tail", c.stacks[2][0].Name)
	_, ok = c.stacks[3]
	assert.False(t, ok)
}

func TestCloneStack(t *testing.T) {
	c := createTestCompositor(t, 1, 1, 2)
	c.ApplyPixel(0, 0, 0, red, 1, 1, 0)

	c.CloneStack(0, 1)
	assert.Equal(t, red, c.Composite(1)[0])

	c.ApplyPixel(0, 0, 0, pixel.White, 1, 1, 0)
	assert.Equal(t, red, c.Composite(1)[0])
}

func TestAddLayer_WithoutBaseLayer(t *testing.T) {
	p, err := pixel.NewPattern(2, 1, []pixel.Frame{
		{Pixels: pixel.Buffer{red, red}, DurationMS: 10},
		{Pixels: pixel.Buffer{red, red}, DurationMS: 10},
	})
	require.NoError(t, err)
	c := NewCompositor(p)

	// A bare AddLayer starts an empty stack; the frame's pixels are not in it.
	require.Equal(t, 0, c.AddLayer(0, "overlay"))
	assert.Equal(t, pixel.Buffer{pixel.Black, pixel.Black}, c.Composite(0))

	c.EnsureLayers(1)
	require.Equal(t, 1, c.AddLayer(1, "overlay"))
	assert.Equal(t, pixel.Buffer{red, red}, c.Composite(1))
	assert.True(t, c.AreLayersSynced(1))
}

func TestReplaceLayer_RejectsInvalidIndex(t *testing.T) {
	c := createTestCompositor(t, 2, 1, 1)
	c.EnsureLayers(0)

	assert.False(t, c.ReplaceLayer(0, 1, pixel.Filled(2, red), nil))
	assert.False(t, c.ReplaceLayer(0, -1, pixel.Filled(2, red), nil))
	assert.Equal(t, pixel.Buffer{pixel.Black, pixel.Black}, c.Composite(0))
}

func TestLayerIDs(t *testing.T) {
	c := createTestCompositor(t, 1, 1, 2)
	c.EnsureLayers(0)
	top := c.AddLayer(0, "top")

	layers := c.Layers(0)
	baseID, topID := layers[0].ID, layers[top].ID
	assert.NotZero(t, baseID)
	assert.NotEqual(t, baseID, topID)

	require.True(t, c.MoveLayer(0, top, 0))
	require.True(t, c.ReplaceLayerByID(0, topID, pixel.Buffer{red}, nil))
	l, _ := c.Layer(0, 0)
	assert.Equal(t, "top", l.Name)
	assert.Equal(t, red, l.Pixels[0])

	require.True(t, c.RemoveLayer(0, 0))
	assert.False(t, c.ReplaceLayerByID(0, topID, pixel.Buffer{red}, nil), "removed layer")
	assert.False(t, c.ReplaceLayerByID(1, baseID, pixel.Buffer{red}, nil), "other frame")

	c.CloneStack(0, 1)
	assert.NotEqual(t, baseID, c.Layers(1)[0].ID, "copies get their own IDs")
}

func TestFrameEdited(t *testing.T) {
	c := createTestCompositor(t, 1, 1, 3)
	c.SetFrameEdited(1, true)
	assert.True(t, c.FrameEdited(1))
	assert.False(t, c.FrameEdited(0))

	c.InsertFrame(0)
	assert.True(t, c.FrameEdited(2))
	assert.False(t, c.FrameEdited(1))

	c.DeleteFrame(0)
	assert.True(t, c.FrameEdited(1))

	c.SyncFrameFromLayers(1)
	assert.False(t, c.FrameEdited(1))

	c.SetFrameEdited(1, true)
	c.ResetFrame(1)
	assert.False(t, c.FrameEdited(1))
}

func TestEmptyPatternIsNoOp(t *testing.T) {
	c := createTestCompositor(t, 2, 2, 0)

	assert.Empty(t, c.Composite(0))
	assert.True(t, c.AreLayersSynced(0))
	assert.Equal(t, -1, c.AddLayer(0, "x"))
	assert.NotPanics(t, func() {
		c.ApplyPixel(0, 0, 0, red, 2, 2, 0)
		c.SyncFrameFromLayers(0)
		c.SetLayerVisible(0, 0, false)
	})
}
