// Package event carries typed change notifications from the editor and the
// render worker to whoever is displaying them.
//
// Publishers never know their subscribers. A subscriber registers a Handler
// on a Bus and type-switches on the events it cares about.
package event

import (
	"image"
)

// Event is implemented by every notification type.
type Event interface {
	// Name returns a stable identifier, used in logs.
	Name() string
}

// PatternChanged fires when frame contents, frame count or dimensions
// change.
type PatternChanged struct {
	Width  int
	Height int
	Frames int

	// Frame is the frame that changed, or -1 for pattern-wide changes.
	Frame int
}

func (PatternChanged) Name() string { return "pattern_changed" }

// LayersChanged fires when a frame's layer stack or layer metadata changes.
type LayersChanged struct {
	Frame int
}

func (LayersChanged) Name() string { return "layers_changed" }

// HistoryChanged fires after push, undo, redo or clear on a frame.
type HistoryChanged struct {
	Frame   int
	CanUndo bool
	CanRedo bool
}

func (HistoryChanged) Name() string { return "history_changed" }

// FrameReady carries a rasterized frame from the render worker.
type FrameReady struct {
	Image      *image.RGBA
	FrameIndex int
}

func (FrameReady) Name() string { return "frame_ready" }

// QueueChanged reports the render queue depth after an enqueue or dequeue.
type QueueChanged struct {
	Len     int
	Dropped uint64
}

func (QueueChanged) Name() string { return "queue_changed" }
