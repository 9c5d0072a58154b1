package script

import (
	"fmt"
	"math"

	"github.com/roach88/ledforge/internal/action"
	"github.com/roach88/ledforge/internal/editor"
	"github.com/roach88/ledforge/internal/layer"
	"github.com/roach88/ledforge/internal/pixel"
)

// TraceEntry records the outcome of one step.
type TraceEntry struct {
	Seq    int
	Op     string
	Detail string

	// Changed is the number of frames an action changed, 1 or 0 for paint,
	// undo, redo and sync, and the layer index for layer steps.
	Changed int
}

// Result is the editor a script ran against and the trace it produced.
type Result struct {
	Name   string
	Editor *editor.Editor
	Trace  []TraceEntry
}

// Run builds the script's starting pattern and executes its steps on a new
// editor configured with opts.
func Run(s *Script, opts ...editor.Option) (*Result, error) {
	p, err := s.NewPattern()
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", s.Name, err)
	}
	ed, err := editor.New(p, opts...)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", s.Name, err)
	}
	trace, err := Execute(ed, s.Steps)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", s.Name, err)
	}
	return &Result{Name: s.Name, Editor: ed, Trace: trace}, nil
}

// Execute runs steps in order against ed and stops at the first failing
// step. Steps that completed stay applied.
func Execute(ed *editor.Editor, steps []Step) ([]TraceEntry, error) {
	trace := make([]TraceEntry, 0, len(steps))
	for i, st := range steps {
		entry, err := execStep(ed, st)
		if err != nil {
			return trace, fmt.Errorf("step %d (%s): %w", i, st.Op(), err)
		}
		entry.Seq = i + 1
		trace = append(trace, entry)
	}
	return trace, nil
}

func execStep(ed *editor.Editor, st Step) (TraceEntry, error) {
	op := st.Op()
	entry := TraceEntry{Op: op}
	switch op {
	case "action":
		p, err := action.ParamsFromMap(st.Params)
		if err != nil {
			return entry, err
		}
		r := action.All()
		if st.Frames != nil {
			r = action.Range{Start: st.Frames.Start, End: math.MaxInt}
			if st.Frames.End != nil {
				r.End = *st.Frames.End
			}
		}
		n, err := ed.ApplyAction(st.Action, p, r)
		if err != nil {
			return entry, err
		}
		entry.Detail = fmt.Sprintf("%s frames=%s", st.Action, rangeString(r, ed.FrameCount()))
		entry.Changed = n

	case "paint":
		c, err := pixel.ParseHex(st.Paint.Color)
		if err != nil {
			return entry, err
		}
		ok := ed.Paint(st.Paint.Frame, st.Paint.X, st.Paint.Y, c, st.Paint.Layer)
		entry.Detail = fmt.Sprintf("frame=%d x=%d y=%d color=%s layer=%d",
			st.Paint.Frame, st.Paint.X, st.Paint.Y, c, st.Paint.Layer)
		entry.Changed = boolCount(ok)

	case "layer":
		idx, err := execLayer(ed, st.Layer)
		if err != nil {
			return entry, err
		}
		entry.Detail = fmt.Sprintf("frame=%d index=%d", st.Layer.Frame, idx)
		entry.Changed = idx

	case "undo":
		entry.Detail = fmt.Sprintf("frame=%d", *st.Undo)
		entry.Changed = boolCount(ed.Undo(*st.Undo))

	case "redo":
		entry.Detail = fmt.Sprintf("frame=%d", *st.Redo)
		entry.Changed = boolCount(ed.Redo(*st.Redo))

	case "sync":
		entry.Detail = fmt.Sprintf("frame=%d", *st.Sync)
		entry.Changed = boolCount(ed.SyncFrame(*st.Sync))

	default:
		return entry, fmt.Errorf("step has no single operation")
	}
	return entry, nil
}

// execLayer adds a layer, or edits the one at ls.Index, and returns its
// index.
func execLayer(ed *editor.Editor, ls *LayerStep) (int, error) {
	var mode layer.BlendMode
	if ls.Blend != "" {
		m, err := layer.ParseBlendMode(ls.Blend)
		if err != nil {
			return 0, err
		}
		mode = m
	}

	idx := 0
	if ls.Index != nil {
		idx = *ls.Index
		if idx >= len(ed.Layers(ls.Frame)) {
			return 0, fmt.Errorf("frame %d has no layer %d", ls.Frame, idx)
		}
		if ls.Name != "" {
			ed.RenameLayer(ls.Frame, idx, ls.Name)
		}
	} else {
		idx = ed.AddLayer(ls.Frame, ls.Name)
		if idx < 0 {
			return 0, fmt.Errorf("frame %d: cannot add layer", ls.Frame)
		}
	}

	if ls.Opacity != nil {
		ed.SetLayerOpacity(ls.Frame, idx, *ls.Opacity)
	}
	if ls.Visible != nil {
		ed.SetLayerVisible(ls.Frame, idx, *ls.Visible)
	}
	if mode != "" {
		ed.SetBlendMode(ls.Frame, idx, mode)
	}
	return idx, nil
}

func rangeString(r action.Range, n int) string {
	c, ok := r.Clamp(n)
	if !ok {
		return "none"
	}
	return fmt.Sprintf("%d..%d", c.Start, c.End)
}

func boolCount(ok bool) int {
	if ok {
		return 1
	}
	return 0
}
