package history

import (
	"github.com/roach88/ledforge/internal/pixel"
)

// FrameTarget marks a command that snapshots the frame buffer itself rather
// than one of its layers.
const FrameTarget = -1

// Command is an immutable before/after snapshot of one buffer.
//
// Undo writes Old back, redo writes New. For layer targets the coverage
// arrays travel with the pixels so transparent regions restore exactly.
type Command struct {
	// ID is assigned on Push when empty.
	ID string

	// Seq is the logical time the command was pushed.
	Seq int64

	// FrameIndex is the frame the command belongs to. Set on Push.
	FrameIndex int

	// LayerIndex is the layer snapshotted, or FrameTarget.
	LayerIndex int

	// LayerID addresses the snapshotted layer independently of its
	// position in the stack. Zero means unknown.
	LayerID uint64

	Old pixel.Buffer
	New pixel.Buffer

	OldAlpha []uint8
	NewAlpha []uint8

	// OldFrame and NewFrame hold the frame buffer around a layer edit, so
	// undo and redo restore the frame exactly even when the layer itself is
	// gone. Nil for frame targets, whose Old and New already are the frame.
	OldFrame pixel.Buffer
	NewFrame pixel.Buffer

	// Description is a short human label, e.g. "paint" or "invert".
	Description string
}

// NewFrameCommand snapshots a frame buffer edit.
func NewFrameCommand(description string, before, after pixel.Buffer) Command {
	return Command{
		LayerIndex:  FrameTarget,
		Old:         before.Clone(),
		New:         after.Clone(),
		Description: description,
	}
}

// NewLayerCommand snapshots a layer edit including coverage.
func NewLayerCommand(description string, layer int, before, after pixel.Buffer, beforeAlpha, afterAlpha []uint8) Command {
	return Command{
		LayerIndex:  layer,
		Old:         before.Clone(),
		New:         after.Clone(),
		OldAlpha:    cloneAlpha(beforeAlpha),
		NewAlpha:    cloneAlpha(afterAlpha),
		Description: description,
	}
}

// WithLayerID returns a copy of c addressed to layer id.
func (c Command) WithLayerID(id uint64) Command {
	c.LayerID = id
	return c
}

// WithFrames returns a copy of c carrying the frame buffer before and after
// the edit.
func (c Command) WithFrames(before, after pixel.Buffer) Command {
	c.OldFrame = before.Clone()
	c.NewFrame = after.Clone()
	return c
}

// FrameSnapshot returns the frame buffer to restore: the state before the
// edit for undo, after it for redo. Frame targets return Old or New.
func (c Command) FrameSnapshot(undo bool) pixel.Buffer {
	switch {
	case c.TargetsFrame() && undo:
		return c.Old
	case c.TargetsFrame():
		return c.New
	case undo:
		return c.OldFrame
	default:
		return c.NewFrame
	}
}

// TargetsFrame reports whether the command snapshots the frame buffer.
func (c Command) TargetsFrame() bool {
	return c.LayerIndex == FrameTarget
}

func (c Command) clone() Command {
	out := c
	out.Old = c.Old.Clone()
	out.New = c.New.Clone()
	out.OldAlpha = cloneAlpha(c.OldAlpha)
	out.NewAlpha = cloneAlpha(c.NewAlpha)
	out.OldFrame = c.OldFrame.Clone()
	out.NewFrame = c.NewFrame.Clone()
	return out
}

func cloneAlpha(a []uint8) []uint8 {
	if a == nil {
		return nil
	}
	return append([]uint8(nil), a...)
}
