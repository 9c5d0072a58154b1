package editor

import (
	"slices"

	"github.com/roach88/ledforge/internal/event"
	"github.com/roach88/ledforge/internal/history"
	"github.com/roach88/ledforge/internal/layer"
	"github.com/roach88/ledforge/internal/pixel"
)

// resolveLayer mirrors the compositor's fallback so history records the
// layer that was actually touched.
func (e *Editor) resolveLayer(f, l int) int {
	if l < 0 || l >= e.comp.LayerCount(f) {
		return 0
	}
	return l
}

// Paint sets one pixel on a layer of frame f, records it in history and
// resyncs the frame. Out-of-bounds coordinates and no-op writes return
// false.
//
// A frame whose buffer was rewritten by an action or a frame-level undo and
// no longer matches its layers is flattened first: its current pixels
// become the single base layer and the paint lands there, so that result
// is kept. Unsynced layer metadata alone does not flatten.
func (e *Editor) Paint(f, x, y int, c pixel.Pixel, layerIndex int) bool {
	w, h := e.pattern.Width, e.pattern.Height
	if x < 0 || x >= w || y < 0 || y >= h {
		return false
	}
	f, ok := e.pattern.ClampFrame(f)
	if !ok {
		return false
	}

	if e.comp.FrameEdited(f) && e.comp.HasLayers(f) && !e.comp.AreLayersSynced(f) {
		e.logger.Warn("frame no longer matches its layers, flattening before paint",
			"frame", f,
			"layers", e.comp.LayerCount(f),
		)
		e.comp.ResetFrame(f)
	}
	e.comp.EnsureLayers(f)
	li := e.resolveLayer(f, layerIndex)
	before, _ := e.comp.Layer(f, li)
	frameBefore := e.pattern.Frames[f].Pixels.Clone()

	e.comp.ApplyPixel(f, x, y, c, w, h, li)

	after, _ := e.comp.Layer(f, li)
	if before.Pixels.Equal(after.Pixels) && slices.Equal(before.Alpha, after.Alpha) {
		return false
	}
	e.comp.SyncFrameFromLayers(f)

	cmd := history.NewLayerCommand("paint", li, before.Pixels, after.Pixels, before.Alpha, after.Alpha).
		WithLayerID(before.ID).
		WithFrames(frameBefore, e.pattern.Frames[f].Pixels)
	e.history.Push(cmd, f)

	e.events.Publish(event.LayersChanged{Frame: f})
	e.publishPattern(f)
	e.publishHistory(f)
	return true
}

// AddLayer appends a transparent layer on top of frame f and returns its
// index, or -1 for an empty pattern. The frame's existing pixels become the
// base layer first, so the new layer always sits above them.
func (e *Editor) AddLayer(f int, name string) int {
	f, ok := e.pattern.ClampFrame(f)
	if !ok {
		return -1
	}
	e.comp.EnsureLayers(f)
	idx := e.comp.AddLayer(f, name)
	e.events.Publish(event.LayersChanged{Frame: f})
	return idx
}

// SetLayerVisible toggles a layer. Call SyncFrame to materialize it.
func (e *Editor) SetLayerVisible(f, layerIndex int, visible bool) {
	e.comp.SetLayerVisible(f, layerIndex, visible)
	e.publishLayers(f)
}

// SetLayerOpacity sets a layer's opacity, clamped to [0,1]. Call SyncFrame
// to materialize it.
func (e *Editor) SetLayerOpacity(f, layerIndex int, opacity float64) {
	e.comp.SetLayerOpacity(f, layerIndex, opacity)
	e.publishLayers(f)
}

// SetBlendMode changes how a layer combines with those below it.
func (e *Editor) SetBlendMode(f, layerIndex int, mode layer.BlendMode) {
	e.comp.SetBlendMode(f, layerIndex, mode)
	e.publishLayers(f)
}

// RenameLayer renames a layer.
func (e *Editor) RenameLayer(f, layerIndex int, name string) {
	e.comp.RenameLayer(f, layerIndex, name)
	e.publishLayers(f)
}

// RemoveLayer deletes a layer, keeping at least one.
func (e *Editor) RemoveLayer(f, layerIndex int) bool {
	ok := e.comp.RemoveLayer(f, layerIndex)
	if ok {
		e.publishLayers(f)
	}
	return ok
}

// MoveLayer changes a layer's z position.
func (e *Editor) MoveLayer(f, from, to int) bool {
	ok := e.comp.MoveLayer(f, from, to)
	if ok {
		e.publishLayers(f)
	}
	return ok
}

// CopyLayerToFrames appends a copy of one layer to each target frame and
// returns how many copies were made. Targets are not resynced.
func (e *Editor) CopyLayerToFrames(src, layerIndex int, targets []int) int {
	n := e.comp.CopyLayerToFrames(src, layerIndex, targets)
	for _, t := range targets {
		if t >= 0 && t < e.pattern.FrameCount() {
			e.events.Publish(event.LayersChanged{Frame: t})
		}
	}
	return n
}

// SyncFrame writes frame f's layer composite into the frame buffer. The
// overwrite is undoable. Returns false when nothing changed.
func (e *Editor) SyncFrame(f int) bool {
	f, ok := e.pattern.ClampFrame(f)
	if !ok {
		return false
	}
	before := e.pattern.Frames[f].Pixels.Clone()
	e.comp.SyncFrameFromLayers(f)
	after := e.pattern.Frames[f].Pixels
	if before.Equal(after) {
		return false
	}
	e.history.Push(history.NewFrameCommand("sync layers", before, after), f)
	e.publishPattern(f)
	e.publishHistory(f)
	return true
}

// FlattenFrame discards frame f's layers so the frame buffer becomes the
// single base layer on the next layer edit. Use it to accept an automation
// result that left the layers behind.
func (e *Editor) FlattenFrame(f int) {
	f, ok := e.pattern.ClampFrame(f)
	if !ok {
		return
	}
	e.comp.ResetFrame(f)
	e.events.Publish(event.LayersChanged{Frame: f})
}

func (e *Editor) publishLayers(f int) {
	if f, ok := e.pattern.ClampFrame(f); ok {
		e.events.Publish(event.LayersChanged{Frame: f})
	}
}
