// Package editor owns one pattern and routes every edit through the
// compositor, the action engine and per-frame history.
//
// An Editor replaces a process-wide pattern repository: callers construct
// it with the collaborators they want and pass it around explicitly. It is
// meant for a single interactive goroutine; only the optional render worker
// runs concurrently.
package editor

import (
	"fmt"
	"log/slog"

	"github.com/roach88/ledforge/internal/action"
	"github.com/roach88/ledforge/internal/event"
	"github.com/roach88/ledforge/internal/history"
	"github.com/roach88/ledforge/internal/layer"
	"github.com/roach88/ledforge/internal/pixel"
	"github.com/roach88/ledforge/internal/render"
)

// ErrPartialRotation is returned by ApplyAction when a 90 degree rotation of
// a non-square pattern does not cover every frame.
var ErrPartialRotation = action.ErrPartialRotation

// Editor is the state of one open pattern.
//
// Editor is not safe for concurrent use.
type Editor struct {
	pattern *pixel.Pattern
	comp    *layer.Compositor
	history *history.Manager
	engine  *action.Engine
	events  event.Publisher
	worker  *render.Worker
	logger  *slog.Logger

	historyOpts []history.Option
}

// Option configures an Editor.
type Option func(*Editor)

// WithMaxHistory sets the per-frame undo limit.
func WithMaxHistory(n int) Option {
	return func(e *Editor) {
		e.historyOpts = append(e.historyOpts, history.WithMaxHistory(n))
	}
}

// WithHistoryOptions passes options through to the history manager, e.g. a
// deterministic clock in tests.
func WithHistoryOptions(opts ...history.Option) Option {
	return func(e *Editor) {
		e.historyOpts = append(e.historyOpts, opts...)
	}
}

// WithActionEngine sets the engine used by ApplyAction.
func WithActionEngine(eng *action.Engine) Option {
	return func(e *Editor) {
		if eng != nil {
			e.engine = eng
		}
	}
}

// WithPublisher sets where change events go.
func WithPublisher(p event.Publisher) Option {
	return func(e *Editor) {
		if p != nil {
			e.events = p
		}
	}
}

// WithRenderWorker enables RequestPreview. The editor does not start or stop
// the worker.
func WithRenderWorker(w *render.Worker) Option {
	return func(e *Editor) {
		e.worker = w
	}
}

// WithLogger sets the editor's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New opens p for editing. The editor works on a deep copy, so later
// changes to p are not seen.
func New(p *pixel.Pattern, opts ...Option) (*Editor, error) {
	if p == nil {
		return nil, fmt.Errorf("nil pattern")
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}

	e := &Editor{
		pattern: p.Clone(),
		events:  event.Discard,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.engine == nil {
		e.engine = action.NewEngine(action.WithLogger(e.logger))
	}
	e.comp = layer.NewCompositor(e.pattern)
	e.history = history.NewManager(e.pattern.FrameCount(), e.historyOpts...)
	return e, nil
}

// Pattern returns a deep copy of the current pattern.
func (e *Editor) Pattern() *pixel.Pattern {
	return e.pattern.Clone()
}

// Width returns the pattern width.
func (e *Editor) Width() int { return e.pattern.Width }

// Height returns the pattern height.
func (e *Editor) Height() int { return e.pattern.Height }

// FrameCount returns the number of frames.
func (e *Editor) FrameCount() int { return e.pattern.FrameCount() }

// Frame returns a copy of frame f's buffer, clamping f.
func (e *Editor) Frame(f int) pixel.Buffer {
	f, ok := e.pattern.ClampFrame(f)
	if !ok {
		return pixel.Buffer{}
	}
	return e.pattern.Frames[f].Pixels.Clone()
}

// Composite returns frame f as its layers currently merge.
func (e *Editor) Composite(f int) pixel.Buffer {
	return e.comp.Composite(f)
}

// AreLayersSynced reports whether frame f matches its layers.
func (e *Editor) AreLayersSynced(f int) bool {
	return e.comp.AreLayersSynced(f)
}

// UnsyncedFrames lists frames whose buffers drifted from their layers.
func (e *Editor) UnsyncedFrames() []int {
	return e.comp.UnsyncedFrames()
}

// Layers returns copies of frame f's layers, bottom first.
func (e *Editor) Layers(f int) []layer.Layer {
	return e.comp.Layers(f)
}

// CanUndo reports whether frame f has an edit to undo.
func (e *Editor) CanUndo(f int) bool { return e.history.CanUndo(f) }

// CanRedo reports whether frame f has an undone edit to redo.
func (e *Editor) CanRedo(f int) bool { return e.history.CanRedo(f) }

// UndoCount returns the depth of frame f's undo stack.
func (e *Editor) UndoCount(f int) int { return e.history.UndoCount(f) }

// RequestPreview queues frame f's composite on the render worker. Returns
// false when there is no worker, no frame, or the worker is stopped.
func (e *Editor) RequestPreview(f int) bool {
	if e.worker == nil {
		return false
	}
	f, ok := e.pattern.ClampFrame(f)
	if !ok {
		return false
	}
	return e.worker.RequestFrame(f, e.comp.Composite(f), e.pattern.Width, e.pattern.Height)
}

func (e *Editor) publishPattern(f int) {
	e.events.Publish(event.PatternChanged{
		Width:  e.pattern.Width,
		Height: e.pattern.Height,
		Frames: e.pattern.FrameCount(),
		Frame:  f,
	})
}

func (e *Editor) publishHistory(f int) {
	e.events.Publish(event.HistoryChanged{
		Frame:   f,
		CanUndo: e.history.CanUndo(f),
		CanRedo: e.history.CanRedo(f),
	})
}
