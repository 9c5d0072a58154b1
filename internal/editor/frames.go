package editor

import (
	"fmt"

	"github.com/roach88/ledforge/internal/history"
	"github.com/roach88/ledforge/internal/pixel"
)

// Undo reverts frame f's newest edit. Returns false when there is nothing
// to undo.
func (e *Editor) Undo(f int) bool {
	cmd, ok := e.history.Undo(f)
	if !ok {
		return false
	}
	e.restore(cmd, true)
	return true
}

// Redo reapplies frame f's newest undone edit.
func (e *Editor) Redo(f int) bool {
	cmd, ok := e.history.Redo(f)
	if !ok {
		return false
	}
	e.restore(cmd, false)
	return true
}

// restore writes one side of a snapshot back. The frame buffer always
// returns to its recorded state. A layer snapshot also goes back into its
// layer, looked up by ID, when that layer still exists.
func (e *Editor) restore(cmd history.Command, undo bool) {
	f := cmd.FrameIndex
	frame := cmd.FrameSnapshot(undo)
	n := e.pattern.PixelCount()
	if f < 0 || f >= e.pattern.FrameCount() || len(frame) != n {
		e.logger.Warn("discarding history entry that no longer fits the pattern",
			"frame", f,
			"id", cmd.ID,
		)
		return
	}

	restored := false
	if !cmd.TargetsFrame() {
		pixels, alpha := cmd.New, cmd.NewAlpha
		if undo {
			pixels, alpha = cmd.Old, cmd.OldAlpha
		}
		if e.comp.ReplaceLayerByID(f, cmd.LayerID, pixels, alpha) {
			restored = true
			e.publishLayers(f)
		} else {
			e.logger.Debug("layer of history entry is gone, restoring frame only",
				"frame", f,
				"layer", cmd.LayerIndex,
				"id", cmd.ID,
			)
		}
	}
	e.pattern.Frames[f].Pixels = frame.Clone()
	e.comp.SetFrameEdited(f, !restored)
	e.publishPattern(f)
	e.publishHistory(f)
}

// ClearHistory drops frame f's undo and redo entries.
func (e *Editor) ClearHistory(f int) {
	e.history.Clear(f)
	e.publishHistory(f)
}

// ClearAllHistory drops every frame's undo and redo entries.
func (e *Editor) ClearAllHistory() {
	e.history.ClearAll()
	for f := range e.pattern.Frames {
		e.publishHistory(f)
	}
}

// AddFrame inserts a black frame at index, or appends when index is out of
// range, and returns the new frame's index. A zero duration uses the
// default.
func (e *Editor) AddFrame(index int, durationMS uint32) int {
	if durationMS == 0 {
		durationMS = pixel.DefaultDurationMS
	}
	n := e.pattern.FrameCount()
	if index < 0 || index > n {
		index = n
	}
	fr := pixel.Frame{Pixels: pixel.NewBuffer(e.pattern.PixelCount()), DurationMS: durationMS}
	e.insertFrame(index, fr)
	return index
}

// DuplicateFrame inserts a copy of frame f, including its layers, right
// after it and returns the copy's index. Returns -1 for an empty pattern.
func (e *Editor) DuplicateFrame(f int) int {
	f, ok := e.pattern.ClampFrame(f)
	if !ok {
		return -1
	}
	e.insertFrame(f+1, e.pattern.Frames[f].Clone())
	e.comp.CloneStack(f, f+1)
	return f + 1
}

func (e *Editor) insertFrame(index int, fr pixel.Frame) {
	frames := e.pattern.Frames
	frames = append(frames, pixel.Frame{})
	copy(frames[index+1:], frames[index:])
	frames[index] = fr
	e.pattern.Frames = frames

	e.comp.InsertFrame(index)
	e.history.InsertFrame(index)
	e.publishPattern(index)
}

// DeleteFrame removes frame f with its layers and history. The last frame
// cannot be deleted.
func (e *Editor) DeleteFrame(f int) bool {
	n := e.pattern.FrameCount()
	if n <= 1 || f < 0 || f >= n {
		return false
	}
	e.pattern.Frames = append(e.pattern.Frames[:f], e.pattern.Frames[f+1:]...)
	e.comp.DeleteFrame(f)
	e.history.RemoveFrame(f)
	e.publishPattern(-1)
	return true
}

// SetFrameDuration changes how long frame f is shown.
func (e *Editor) SetFrameDuration(f int, durationMS uint32) error {
	if durationMS == 0 {
		return &pixel.ConstructionError{
			Code:    pixel.ErrCodeInvalidDuration,
			Message: "duration must be at least 1ms",
			Frame:   f,
		}
	}
	f, ok := e.pattern.ClampFrame(f)
	if !ok {
		return fmt.Errorf("pattern has no frames")
	}
	e.pattern.Frames[f].DurationMS = durationMS
	e.publishPattern(f)
	return nil
}
