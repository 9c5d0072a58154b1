package action

import (
	"errors"
	"log/slog"
	"math"

	"github.com/roach88/ledforge/internal/pixel"
)

// ErrPartialRotation is returned when a 90 degree rotation of a non-square
// pattern would leave some frames in the old dimensions.
var ErrPartialRotation = errors.New("rotation of a non-square pattern must cover every frame")

// Range is an inclusive span of frame indices.
type Range struct {
	Start int
	End   int
}

// All covers every frame of any pattern.
func All() Range {
	return Range{Start: 0, End: math.MaxInt}
}

// Single covers one frame.
func Single(f int) Range {
	return Range{Start: f, End: f}
}

// Clamp limits r to n frames. The returned range is empty (ok=false) when
// nothing overlaps.
func (r Range) Clamp(n int) (Range, bool) {
	if r.Start < 0 {
		r.Start = 0
	}
	if r.End >= n {
		r.End = n - 1
	}
	if n <= 0 || r.Start > r.End {
		return Range{}, false
	}
	return r, true
}

// Len returns the number of frames in r, or 0 when empty.
func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// CoversAll reports whether r includes every one of n frames.
func CoversAll(r Range, n int) bool {
	return r.Start <= 0 && r.End >= n-1
}

// Step is one queued action over a range.
type Step struct {
	Kind   Kind
	Params Params
	Range  Range
}

// FrameResult is the transformed buffer for one absolute frame index.
type FrameResult struct {
	Index int
	Result
}

// Engine applies actions over frame ranges. It holds no pixel state: every
// call is a pure function of its inputs.
type Engine struct {
	lenient bool
	logger  *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLenientKinds makes ResolveKind fall back to scroll with default
// parameters for unknown names instead of failing.
func WithLenientKinds() EngineOption {
	return func(e *Engine) {
		e.lenient = true
	}
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an engine. Unknown kinds are rejected unless
// WithLenientKinds is given.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Lenient reports whether unknown kinds fall back to scroll.
func (e *Engine) Lenient() bool {
	return e.lenient
}

// ResolveKind parses name. In lenient mode an unknown name resolves to
// scroll and the params are replaced with DefaultParams.
func (e *Engine) ResolveKind(name string, p Params) (Kind, Params, error) {
	k, err := ParseKind(name)
	if err == nil {
		return k, p, nil
	}
	if !e.lenient {
		return "", Params{}, err
	}
	e.logger.Warn("unknown action kind, falling back to scroll", "kind", name)
	return KindScroll, DefaultParams(), nil
}

// Apply transforms the frames inside r and returns one result per frame, in
// frame order. frames is not modified. An empty range yields no results.
//
// Within the range, each frame is animated by its position: the first frame
// of the range is position 0 and the range length is the total.
func (e *Engine) Apply(kind Kind, p Params, frames []pixel.Buffer, width, height int, r Range) ([]FrameResult, error) {
	r, ok := r.Clamp(len(frames))
	if !ok {
		return nil, nil
	}

	total := r.Len()
	out := make([]FrameResult, 0, total)
	for f := r.Start; f <= r.End; f++ {
		res, err := Transform(kind, frames[f], width, height, f-r.Start, total, p)
		if err != nil {
			return nil, err
		}
		out = append(out, FrameResult{Index: f, Result: res})
	}
	return out, nil
}

// ApplySteps runs steps in priority order over a copy of frames and returns
// the final buffers. Dimensions are threaded through each step so rotations
// compose. Steps are sorted in place.
func (e *Engine) ApplySteps(steps []Step, frames []pixel.Buffer, width, height int) ([]pixel.Buffer, int, int, error) {
	SortByPriority(steps)

	cur := make([]pixel.Buffer, len(frames))
	for i, f := range frames {
		cur[i] = f.Clone()
	}
	for _, s := range steps {
		if s.Kind.Rotates() && width != height && !CoversAll(s.Range, len(cur)) {
			return nil, 0, 0, ErrPartialRotation
		}
		results, err := e.Apply(s.Kind, s.Params, cur, width, height, s.Range)
		if err != nil {
			return nil, 0, 0, err
		}
		for _, r := range results {
			cur[r.Index] = r.Pixels
		}
		if len(results) > 0 && s.Kind.Rotates() {
			width, height = results[0].Width, results[0].Height
		}
	}
	return cur, width, height, nil
}
