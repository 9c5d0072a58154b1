package editor

import (
	"fmt"

	"github.com/roach88/ledforge/internal/action"
	"github.com/roach88/ledforge/internal/history"
	"github.com/roach88/ledforge/internal/pixel"
)

// ApplyAction runs the named action over r and commits the result, pushing
// one history entry per changed frame. It returns the number of frames that
// changed.
//
// Layers are left alone. Frames that had layers now differ from them, which
// is logged and reported by UnsyncedFrames.
//
// A 90 degree rotation of a non-square pattern must cover every frame. It
// swaps the pattern's dimensions, which no per-frame snapshot can express,
// so layer stacks are dropped and history is cleared.
func (e *Editor) ApplyAction(name string, p action.Params, r action.Range) (int, error) {
	kind, p, err := e.engine.ResolveKind(name, p)
	if err != nil {
		return 0, err
	}

	n := e.pattern.FrameCount()
	if _, ok := r.Clamp(n); !ok {
		return 0, nil
	}

	w, h := e.pattern.Width, e.pattern.Height
	if kind.Rotates() && w != h {
		if !action.CoversAll(r, n) {
			return 0, ErrPartialRotation
		}
		return e.rotateAll(kind, p)
	}

	results, err := e.engine.Apply(kind, p, e.frameBuffers(), w, h, r)
	if err != nil {
		return 0, fmt.Errorf("apply %s: %w", kind, err)
	}

	changed := 0
	for _, res := range results {
		cur := e.pattern.Frames[res.Index].Pixels
		if cur.Equal(res.Pixels) {
			continue
		}
		e.history.Push(history.NewFrameCommand(string(kind), cur, res.Pixels), res.Index)
		e.pattern.Frames[res.Index].Pixels = res.Pixels
		e.comp.SetFrameEdited(res.Index, true)
		changed++

		if e.comp.HasLayers(res.Index) && !e.comp.AreLayersSynced(res.Index) {
			e.logger.Warn("frame no longer matches its layers",
				"frame", res.Index,
				"action", kind,
			)
		}
		e.publishHistory(res.Index)
	}

	if changed > 0 {
		e.publishPattern(-1)
	}
	e.logger.Debug("action applied",
		"action", kind,
		"start", r.Start,
		"end", r.End,
		"changed", changed,
	)
	return changed, nil
}

// rotateAll rotates every frame of a non-square pattern and swaps its
// dimensions.
func (e *Editor) rotateAll(kind action.Kind, p action.Params) (int, error) {
	results, err := e.engine.Apply(kind, p, e.frameBuffers(), e.pattern.Width, e.pattern.Height, action.All())
	if err != nil {
		return 0, fmt.Errorf("apply %s: %w", kind, err)
	}
	if len(results) == 0 {
		return 0, nil
	}

	for _, res := range results {
		e.pattern.Frames[res.Index].Pixels = res.Pixels
	}
	e.pattern.Width, e.pattern.Height = results[0].Width, results[0].Height

	e.comp.SetPattern(e.pattern)
	e.history.ClearAll()
	e.logger.Info("pattern rotated, layers and history reset",
		"action", kind,
		"width", e.pattern.Width,
		"height", e.pattern.Height,
	)

	for f := range e.pattern.Frames {
		e.publishHistory(f)
	}
	e.publishPattern(-1)
	return len(results), nil
}

// RunSteps applies steps in priority order, each as its own ApplyAction,
// and returns the total number of frame changes. The whole sequence is
// dry-run first, so a failing step leaves the pattern untouched.
func (e *Editor) RunSteps(steps []action.Step) (int, error) {
	ordered := make([]action.Step, len(steps))
	for i, s := range steps {
		kind, p, err := e.engine.ResolveKind(string(s.Kind), s.Params)
		if err != nil {
			return 0, fmt.Errorf("step %d (%s): %w", i, s.Kind, err)
		}
		ordered[i] = action.Step{Kind: kind, Params: p, Range: s.Range}
	}
	if _, _, _, err := e.engine.ApplySteps(ordered, e.frameBuffers(), e.pattern.Width, e.pattern.Height); err != nil {
		return 0, err
	}

	total := 0
	for i, s := range ordered {
		n, err := e.ApplyAction(string(s.Kind), s.Params, s.Range)
		total += n
		if err != nil {
			return total, fmt.Errorf("step %d (%s): %w", i, s.Kind, err)
		}
	}
	return total, nil
}

// ApplyGradient fills every frame in r with a gradient. Empty stops use the
// default red, green, blue ramp.
func (e *Editor) ApplyGradient(stops []pixel.Pixel, axis action.Axis, r action.Range) int {
	r, ok := r.Clamp(e.pattern.FrameCount())
	if !ok {
		return 0
	}
	g := action.Gradient(stops, e.pattern.Width, e.pattern.Height, axis)

	changed := 0
	for f := r.Start; f <= r.End; f++ {
		cur := e.pattern.Frames[f].Pixels
		if cur.Equal(g) {
			continue
		}
		e.history.Push(history.NewFrameCommand("gradient", cur, g), f)
		e.pattern.Frames[f].Pixels = g.Clone()
		e.comp.SetFrameEdited(f, true)
		changed++
		e.publishHistory(f)
	}
	if changed > 0 {
		e.publishPattern(-1)
	}
	return changed
}

func (e *Editor) frameBuffers() []pixel.Buffer {
	out := make([]pixel.Buffer, len(e.pattern.Frames))
	for i, f := range e.pattern.Frames {
		out[i] = f.Pixels
	}
	return out
}
