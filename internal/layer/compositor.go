package layer

import (
	"github.com/roach88/ledforge/internal/pixel"
)

// Compositor owns the per-frame layer stacks of one pattern and merges them
// into the pattern's authoritative frame buffers.
//
// Layer stacks are created lazily: a frame that has never been touched
// through a layer operation has no stack, composites to its own pixels, and
// reports as synced. The first layer-touch wraps the frame's pixels in a
// fully covered base layer.
//
// Index handling follows one rule throughout: frame indices clamp to the
// nearest valid frame, invalid layer indices fall back to layer 0, and
// out-of-bounds coordinates are ignored. ReplaceLayer is the exception and
// rejects an invalid layer index. A pattern with no frames turns every
// operation into a no-op.
//
// Compositor is not safe for concurrent use.
type Compositor struct {
	pattern *pixel.Pattern
	stacks  map[int][]*Layer
	lastID  uint64

	// edited marks frames whose buffer was written outside the compositor
	// since their last sync.
	edited map[int]bool
}

// NewCompositor creates a compositor over p. The compositor mutates p's frame
// buffers only in SyncFrameFromLayers and SyncAllFrames.
func NewCompositor(p *pixel.Pattern) *Compositor {
	return &Compositor{
		pattern: p,
		stacks:  make(map[int][]*Layer),
		edited:  make(map[int]bool),
	}
}

// Pattern returns the pattern the compositor operates on.
func (c *Compositor) Pattern() *pixel.Pattern {
	return c.pattern
}

// SetPattern swaps the pattern and drops every layer stack.
func (c *Compositor) SetPattern(p *pixel.Pattern) {
	c.pattern = p
	c.stacks = make(map[int][]*Layer)
	c.edited = make(map[int]bool)
}

// SetFrameEdited records whether frame f's buffer has been written directly,
// for example by an action, rather than synced from its layers.
func (c *Compositor) SetFrameEdited(f int, edited bool) {
	f, ok := c.frame(f)
	if !ok {
		return
	}
	if edited {
		c.edited[f] = true
	} else {
		delete(c.edited, f)
	}
}

// FrameEdited reports whether frame f's buffer was written directly since
// its last sync.
func (c *Compositor) FrameEdited(f int) bool {
	f, ok := c.frame(f)
	return ok && c.edited[f]
}

// frame resolves a frame index, clamping to the valid range.
func (c *Compositor) frame(index int) (int, bool) {
	if c.pattern == nil {
		return 0, false
	}
	return c.pattern.ClampFrame(index)
}

// stack returns the layer stack for f, creating the base layer if needed.
func (c *Compositor) stack(f int) []*Layer {
	s, ok := c.stacks[f]
	if !ok || len(s) == 0 {
		s = []*Layer{c.adopt(baseLayer(c.pattern.Frames[f].Pixels))}
		c.stacks[f] = s
	}
	return s
}

// adopt gives l a fresh ID.
func (c *Compositor) adopt(l *Layer) *Layer {
	c.lastID++
	l.ID = c.lastID
	return l
}

// resolveLayer maps an invalid layer index to 0.
func resolveLayer(s []*Layer, index int) int {
	if index < 0 || index >= len(s) {
		return 0
	}
	return index
}

// HasLayers reports whether frame f has an initialized layer stack.
func (c *Compositor) HasLayers(f int) bool {
	f, ok := c.frame(f)
	if !ok {
		return false
	}
	return len(c.stacks[f]) > 0
}

// Composite merges frame f's visible layers bottom to top onto black.
// Invisible layers are skipped entirely. The result is a new buffer.
func (c *Compositor) Composite(f int) pixel.Buffer {
	f, ok := c.frame(f)
	if !ok {
		return pixel.Buffer{}
	}
	s, initialized := c.stacks[f]
	if !initialized || len(s) == 0 {
		// Equivalent to compositing the lazily derived base layer.
		return c.pattern.Frames[f].Pixels.Clone()
	}

	out := pixel.NewBuffer(c.pattern.PixelCount())
	for _, l := range s {
		if !l.Visible || l.Opacity <= 0 {
			continue
		}
		for i := range out {
			if i >= len(l.Pixels) || !l.Covered(i) {
				continue
			}
			coverage := l.Opacity
			if a := l.Alpha[i]; a != Opaque {
				coverage *= float64(a) / 255
			}
			out[i] = Blend(out[i], l.Pixels[i], l.BlendMode, coverage)
		}
	}
	return out
}

// AreLayersSynced reports whether frame f's pixels equal the composite of
// its layers.
func (c *Compositor) AreLayersSynced(f int) bool {
	f, ok := c.frame(f)
	if !ok {
		return true
	}
	return c.Composite(f).Equal(c.pattern.Frames[f].Pixels)
}

// SyncFrameFromLayers writes the composite of frame f into the frame buffer.
func (c *Compositor) SyncFrameFromLayers(f int) {
	f, ok := c.frame(f)
	if !ok {
		return
	}
	c.pattern.Frames[f].Pixels = c.Composite(f)
	delete(c.edited, f)
}

// SyncAllFrames syncs every frame that has a layer stack.
func (c *Compositor) SyncAllFrames() {
	for f := range c.stacks {
		if f < c.pattern.FrameCount() {
			c.SyncFrameFromLayers(f)
		}
	}
}

// UnsyncedFrames lists frame indices whose buffers have drifted from their
// layers, in ascending order.
func (c *Compositor) UnsyncedFrames() []int {
	if c.pattern == nil {
		return nil
	}
	var out []int
	for f := 0; f < c.pattern.FrameCount(); f++ {
		if !c.AreLayersSynced(f) {
			out = append(out, f)
		}
	}
	return out
}

// EnsureLayers derives frame f's base layer if it has no stack yet and
// returns the layer count.
func (c *Compositor) EnsureLayers(f int) int {
	f, ok := c.frame(f)
	if !ok {
		return 0
	}
	return len(c.stack(f))
}

// AddLayer appends a visible, transparent black layer on top of frame f and
// returns its index. An empty name becomes "Layer N". Returns -1 when the
// pattern has no frames.
//
// If f has no stack yet the new layer becomes layer 0 and the frame's own
// pixels are not part of the stack, so the composite turns black until
// something is painted. Call EnsureLayers first to keep the frame's pixels
// as the base layer underneath.
func (c *Compositor) AddLayer(f int, name string) int {
	f, ok := c.frame(f)
	if !ok {
		return -1
	}
	s := c.stacks[f]
	if name == "" {
		name = defaultName(len(s))
	}
	c.stacks[f] = append(s, c.adopt(newLayer(name, c.pattern.PixelCount())))
	return len(c.stacks[f]) - 1
}

// ApplyPixel paints one pixel on a layer of frame f, marking it covered.
// Writes outside 0<=x<width, 0<=y<height are ignored. An invalid layer index
// paints layer 0, creating it first when the frame has no layers.
func (c *Compositor) ApplyPixel(f, x, y int, color pixel.Pixel, width, height, layer int) {
	if x < 0 || x >= width || y < 0 || y >= height {
		return
	}
	f, ok := c.frame(f)
	if !ok {
		return
	}
	s := c.stack(f)
	l := s[resolveLayer(s, layer)]
	i := y*width + x
	if i >= len(l.Pixels) {
		return
	}
	l.Pixels[i] = color
	l.Alpha[i] = Opaque
}

// ReplaceLayer overwrites a layer's pixels and coverage. A nil alpha marks
// every pixel covered. Buffers of the wrong length and layer indices outside
// the stack are rejected.
func (c *Compositor) ReplaceLayer(f, layer int, pixels pixel.Buffer, alpha []uint8) bool {
	f, ok := c.frame(f)
	if !ok {
		return false
	}
	s := c.stack(f)
	if layer < 0 || layer >= len(s) {
		return false
	}
	return c.replace(s[layer], pixels, alpha)
}

// ReplaceLayerByID is ReplaceLayer addressed by layer ID. It returns false
// when frame f no longer holds a layer with that ID.
func (c *Compositor) ReplaceLayerByID(f int, id uint64, pixels pixel.Buffer, alpha []uint8) bool {
	f, ok := c.frame(f)
	if !ok {
		return false
	}
	for _, l := range c.stacks[f] {
		if l.ID == id {
			return c.replace(l, pixels, alpha)
		}
	}
	return false
}

func (c *Compositor) replace(l *Layer, pixels pixel.Buffer, alpha []uint8) bool {
	n := c.pattern.PixelCount()
	if len(pixels) != n || (alpha != nil && len(alpha) != n) {
		return false
	}
	l.Pixels = pixels.Clone()
	if alpha == nil {
		for i := range l.Alpha {
			l.Alpha[i] = Opaque
		}
	} else {
		l.Alpha = append([]uint8(nil), alpha...)
	}
	return true
}

// CopyLayerToFrames appends a deep copy of a layer to each target frame,
// skipping the source frame itself. Returns the number of copies made.
func (c *Compositor) CopyLayerToFrames(src, layer int, targets []int) int {
	src, ok := c.frame(src)
	if !ok {
		return 0
	}
	s := c.stack(src)
	orig := s[resolveLayer(s, layer)].Clone()

	copied := 0
	for _, t := range targets {
		if t < 0 || t >= c.pattern.FrameCount() || t == src {
			continue
		}
		dup := orig.Clone()
		c.stacks[t] = append(c.stack(t), c.adopt(&dup))
		copied++
	}
	return copied
}

// SetLayerVisible updates visibility. The frame buffer is not resynced.
func (c *Compositor) SetLayerVisible(f, layer int, visible bool) {
	if l := c.layerRef(f, layer); l != nil {
		l.Visible = visible
	}
}

// SetLayerOpacity updates opacity, clamped to [0,1]. The frame buffer is not
// resynced.
func (c *Compositor) SetLayerOpacity(f, layer int, opacity float64) {
	if l := c.layerRef(f, layer); l != nil {
		l.Opacity = clampOpacity(opacity)
	}
}

// SetBlendMode updates a layer's blend mode.
func (c *Compositor) SetBlendMode(f, layer int, mode BlendMode) {
	if l := c.layerRef(f, layer); l != nil {
		l.BlendMode = mode
	}
}

// RenameLayer updates a layer's name.
func (c *Compositor) RenameLayer(f, layer int, name string) {
	if l := c.layerRef(f, layer); l != nil {
		l.Name = normalizeName(name)
	}
}

func (c *Compositor) layerRef(f, layer int) *Layer {
	f, ok := c.frame(f)
	if !ok {
		return nil
	}
	s := c.stack(f)
	return s[resolveLayer(s, layer)]
}

// RemoveLayer deletes a layer. The last remaining layer of a frame is never
// removed.
func (c *Compositor) RemoveLayer(f, layer int) bool {
	f, ok := c.frame(f)
	if !ok {
		return false
	}
	s := c.stack(f)
	if len(s) <= 1 || layer < 0 || layer >= len(s) {
		return false
	}
	c.stacks[f] = append(s[:layer:layer], s[layer+1:]...)
	return true
}

// MoveLayer moves a layer to a new z position.
func (c *Compositor) MoveLayer(f, from, to int) bool {
	f, ok := c.frame(f)
	if !ok {
		return false
	}
	s := c.stack(f)
	if from < 0 || from >= len(s) || to < 0 || to >= len(s) {
		return false
	}
	if from == to {
		return true
	}
	l := s[from]
	s = append(s[:from], s[from+1:]...)
	s = append(s[:to], append([]*Layer{l}, s[to:]...)...)
	c.stacks[f] = s
	return true
}

// Layers returns deep copies of frame f's layers, bottom first.
func (c *Compositor) Layers(f int) []Layer {
	f, ok := c.frame(f)
	if !ok {
		return nil
	}
	s := c.stack(f)
	out := make([]Layer, len(s))
	for i, l := range s {
		out[i] = l.Clone()
	}
	return out
}

// Layer returns a deep copy of one layer.
func (c *Compositor) Layer(f, layer int) (Layer, bool) {
	f, ok := c.frame(f)
	if !ok {
		return Layer{}, false
	}
	s := c.stack(f)
	return s[resolveLayer(s, layer)].Clone(), true
}

// LayerCount returns the number of layers in frame f, or 0 when its stack
// has not been initialized.
func (c *Compositor) LayerCount(f int) int {
	f, ok := c.frame(f)
	if !ok {
		return 0
	}
	return len(c.stacks[f])
}

// ResetFrame drops frame f's stack so it is rederived from the frame buffer
// on the next layer-touch.
func (c *Compositor) ResetFrame(f int) {
	delete(c.stacks, f)
	delete(c.edited, f)
}

// InsertFrame shifts stacks at or after index up by one. Call after the
// pattern gained a frame at index.
func (c *Compositor) InsertFrame(index int) {
	next := make(map[int][]*Layer, len(c.stacks))
	for f, s := range c.stacks {
		if f >= index {
			f++
		}
		next[f] = s
	}
	c.stacks = next

	edited := make(map[int]bool, len(c.edited))
	for f := range c.edited {
		if f >= index {
			f++
		}
		edited[f] = true
	}
	c.edited = edited
}

// DeleteFrame drops the stack at index and shifts later stacks down. Call
// after the pattern lost the frame at index.
func (c *Compositor) DeleteFrame(index int) {
	next := make(map[int][]*Layer, len(c.stacks))
	for f, s := range c.stacks {
		switch {
		case f == index:
			continue
		case f > index:
			f--
		}
		next[f] = s
	}
	c.stacks = next

	edited := make(map[int]bool, len(c.edited))
	for f := range c.edited {
		switch {
		case f == index:
			continue
		case f > index:
			f--
		}
		edited[f] = true
	}
	c.edited = edited
}

// CloneStack deep copies frame src's layers onto frame dst, replacing dst's
// stack. When src has no stack, dst's stack is dropped too.
func (c *Compositor) CloneStack(src, dst int) {
	if c.edited[src] {
		c.edited[dst] = true
	} else {
		delete(c.edited, dst)
	}
	s, ok := c.stacks[src]
	if !ok {
		delete(c.stacks, dst)
		return
	}
	out := make([]*Layer, len(s))
	for i, l := range s {
		dup := l.Clone()
		out[i] = c.adopt(&dup)
	}
	c.stacks[dst] = out
}
