package cli

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ledforge/internal/action"
	"github.com/roach88/ledforge/internal/editor"
	"github.com/roach88/ledforge/internal/pixel"
)

// EditResult is the JSON shape for paint and apply.
type EditResult struct {
	Name     string `json:"name"`
	Changed  int    `json:"changed"`
	Revision int64  `json:"revision,omitempty"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// PaintOptions holds flags for the paint command.
type PaintOptions struct {
	*RootOptions
	Frame int
	X     int
	Y     int
	Color string
}

// NewPaintCommand creates the paint command.
func NewPaintCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PaintOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "paint <name>",
		Short: "Set one pixel of a frame",
		Long: `Set one pixel of a stored pattern and save a new revision.

Example:
  ledforge paint heart --frame 2 --x 3 --y 4 --color "#ff0044"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPaint(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Frame, "frame", 0, "frame index")
	cmd.Flags().IntVar(&opts.X, "x", 0, "column")
	cmd.Flags().IntVar(&opts.Y, "y", 0, "row")
	cmd.Flags().StringVar(&opts.Color, "color", "#ffffff", "color (#rrggbb)")

	return cmd
}

func runPaint(opts *PaintOptions, name string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd.Context())

	c, err := pixel.ParseHex(opts.Color)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArg, err.Error(), nil)
	}

	sess, err := openSession(opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer sess.Close()

	p, err := sess.load(ctx, f, name)
	if err != nil {
		return err
	}
	if opts.Frame < 0 || opts.Frame >= p.FrameCount() {
		return f.Fail(ExitCommandError, ErrCodeInvalidArg,
			fmt.Sprintf("frame %d out of range (pattern has %d)", opts.Frame, p.FrameCount()), nil)
	}
	if opts.X < 0 || opts.X >= p.Width || opts.Y < 0 || opts.Y >= p.Height {
		return f.Fail(ExitCommandError, ErrCodeInvalidArg,
			fmt.Sprintf("(%d,%d) is outside the %dx%d matrix", opts.X, opts.Y, p.Width, p.Height), nil)
	}

	ed, err := sess.editor(p)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	res := EditResult{Name: name, Width: ed.Width(), Height: ed.Height()}
	if ed.Paint(opts.Frame, opts.X, opts.Y, c, 0) {
		res.Changed = 1
		info, err := sess.save(ctx, f, name, ed.Pattern())
		if err != nil {
			return err
		}
		res.Revision = info.Revision
	}

	if f.Format == "json" {
		return f.Success(res)
	}
	if res.Changed == 0 {
		fmt.Fprintf(f.Writer, "Pixel (%d,%d) of frame %d is already %s; nothing saved\n", opts.X, opts.Y, opts.Frame, c)
		return nil
	}
	fmt.Fprintf(f.Writer, "✓ Painted (%d,%d) of frame %d %s (revision %d)\n", opts.X, opts.Y, opts.Frame, c, res.Revision)
	return nil
}

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Params []string // key=value
	Start  int
	End    int // -1 means the last frame
	DryRun bool
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <name> <action>",
		Short: "Apply a parametric action over a frame range",
		Long: `Apply an action to a stored pattern and save a new revision.

Actions: scroll, rotate, rotate_ccw, rotate_180, mirror, flip, invert, wipe,
reveal, bounce. Parameters are key=value pairs: direction, speed, distance,
axis, color, easing.

Example:
  ledforge apply banner scroll --param direction=left --param speed=2
  ledforge apply banner wipe --param color=#00ff00 --start 4 --end 9`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "action parameter key=value (repeatable)")
	cmd.Flags().IntVar(&opts.Start, "start", 0, "first frame of the range")
	cmd.Flags().IntVar(&opts.End, "end", -1, "last frame of the range (-1 for the last frame)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report changes without saving")

	return cmd
}

// parseParams turns key=value pairs into the loose map ParamsFromMap reads.
// Numeric values become float64.
func parseParams(pairs []string) (map[string]any, error) {
	m := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("param %q: want key=value", pair)
		}
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			m[key] = n
			continue
		}
		m[key] = value
	}
	return m, nil
}

func runApply(opts *ApplyOptions, name, actionName string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd.Context())

	raw, err := parseParams(opts.Params)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArg, err.Error(), nil)
	}
	params, err := action.ParamsFromMap(raw)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArg, err.Error(), nil)
	}
	r := action.Range{Start: opts.Start, End: opts.End}
	if opts.End < 0 {
		r.End = math.MaxInt
	}

	sess, err := openSession(opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer sess.Close()

	p, err := sess.load(ctx, f, name)
	if err != nil {
		return err
	}
	ed, err := sess.editor(p)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	changed, err := ed.ApplyAction(actionName, params, r)
	if err != nil {
		if action.IsUnknownKind(err) {
			return f.Fail(ExitCommandError, ErrCodeInvalidArg, err.Error(), action.Kinds)
		}
		if errors.Is(err, editor.ErrPartialRotation) {
			return f.Fail(ExitCommandError, ErrCodeInvalidArg, err.Error(), nil)
		}
		return f.Fail(ExitFailure, ErrCodeAction, err.Error(), nil)
	}
	f.VerboseLog("%s changed %d frame(s)", actionName, changed)

	res := EditResult{Name: name, Changed: changed, Width: ed.Width(), Height: ed.Height()}
	if changed > 0 && !opts.DryRun {
		info, err := sess.save(ctx, f, name, ed.Pattern())
		if err != nil {
			return err
		}
		res.Revision = info.Revision
	}

	if f.Format == "json" {
		return f.Success(res)
	}
	switch {
	case changed == 0:
		fmt.Fprintf(f.Writer, "%s changed nothing; nothing saved\n", actionName)
	case opts.DryRun:
		fmt.Fprintf(f.Writer, "%s would change %d frame(s)\n", actionName, changed)
	default:
		fmt.Fprintf(f.Writer, "✓ %s changed %d frame(s), now %dx%d (revision %d)\n",
			actionName, changed, res.Width, res.Height, res.Revision)
	}
	return nil
}
