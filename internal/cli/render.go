package cli

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/ledforge/internal/config"
	"github.com/roach88/ledforge/internal/editor"
	"github.com/roach88/ledforge/internal/event"
	"github.com/roach88/ledforge/internal/pixel"
	"github.com/roach88/ledforge/internal/render"
)

// RenderFlags are the rasterization overrides shared by render and preview.
// Zero values keep the config's setting.
type RenderFlags struct {
	PixelSize int
	Zoom      float64
	GridGap   int
}

func (rf *RenderFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&rf.PixelSize, "pixel-size", 0, "screen pixels per LED (default from config)")
	cmd.Flags().Float64Var(&rf.Zoom, "zoom", 0, "zoom factor (default from config)")
	cmd.Flags().IntVar(&rf.GridGap, "grid-gap", -1, "gap between LEDs in pixels (default from config)")
}

// apply overlays the flags onto the config's render section.
func (rf *RenderFlags) apply(cfg *config.Config) {
	if rf.PixelSize > 0 {
		cfg.Render.PixelSize = rf.PixelSize
	}
	if rf.Zoom > 0 {
		cfg.Render.Zoom = rf.Zoom
	}
	if rf.GridGap >= 0 {
		cfg.Render.GridGap = rf.GridGap
	}
}

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	RenderFlags
	OutDir   string
	Parallel int
}

// RenderResult is the JSON shape for the render command.
type RenderResult struct {
	Name   string   `json:"name"`
	Files  []string `json:"files"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <name>",
		Short: "Export every frame as a PNG",
		Long: `Rasterize every frame of a stored pattern and write frame_NNN.png files.
Frames are rendered in parallel, at most --parallel at a time.

Example:
  ledforge render heart --out ./frames --pixel-size 16 --grid-gap 2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	opts.RenderFlags.register(cmd)
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", ".", "output directory")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", runtime.NumCPU(), "frames rendered concurrently")

	return cmd
}

func runRender(opts *RenderOptions, name string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd.Context())

	sess, err := openSession(opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer sess.Close()
	opts.RenderFlags.apply(sess.cfg)

	p, err := sess.load(ctx, f, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
	}

	files, err := exportFrames(ctx, p, sess.cfg.RenderOptions(), opts.OutDir, opts.Parallel)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeRender, err.Error(), nil)
	}
	for _, file := range files {
		f.VerboseLog("wrote %s", file)
	}

	bounds := sess.cfg.RenderOptions().Bounds(p.Width, p.Height)
	res := RenderResult{Name: name, Files: files, Width: bounds.Dx(), Height: bounds.Dy()}
	if f.Format == "json" {
		return f.Success(res)
	}
	fmt.Fprintf(f.Writer, "✓ Rendered %d frame(s) at %dx%d to %s\n", len(files), res.Width, res.Height, opts.OutDir)
	return nil
}

// exportFrames writes one PNG per frame. The first failure cancels the
// frames not yet started. Returned paths are in frame order.
func exportFrames(ctx context.Context, p *pixel.Pattern, ro render.Options, dir string, parallel int) ([]string, error) {
	files := make([]string, p.FrameCount())

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, parallel))
	for i, fr := range p.Frames {
		path := filepath.Join(dir, fmt.Sprintf("frame_%03d.png", i))
		files[i] = path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := render.Rasterize(fr.Pixels, p.Width, p.Height, ro)
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			if err := writePNG(path, img); err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			slog.Debug("frame exported", "frame", i, "path", path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func writePNG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// PreviewOptions holds flags for the preview command.
type PreviewOptions struct {
	*RootOptions
	RenderFlags
	Frame   int
	Out     string
	Timeout time.Duration
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PreviewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "preview <name>",
		Short: "Render one frame through the background render worker",
		Long: `Queue one frame's layer composite on the render worker and write the
image it produces. This exercises the same path an interactive editor uses
for live previews.

Example:
  ledforge preview heart --frame 3 --out heart-3.png --zoom 2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(opts, args[0], cmd)
		},
	}

	opts.RenderFlags.register(cmd)
	cmd.Flags().IntVar(&opts.Frame, "frame", 0, "frame index")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "preview.png", "output PNG path")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 5*time.Second, "how long to wait for the worker")

	return cmd
}

func runPreview(opts *PreviewOptions, name string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd.Context())

	sess, err := openSession(opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer sess.Close()
	opts.RenderFlags.apply(sess.cfg)

	p, err := sess.load(ctx, f, name)
	if err != nil {
		return err
	}
	if opts.Frame < 0 || opts.Frame >= p.FrameCount() {
		return f.Fail(ExitCommandError, ErrCodeInvalidArg,
			fmt.Sprintf("frame %d out of range (pattern has %d)", opts.Frame, p.FrameCount()), nil)
	}

	bus := event.NewBus()
	ready := make(chan *image.RGBA, 1)
	unsubscribe := bus.Subscribe(func(e event.Event) {
		fr, ok := e.(event.FrameReady)
		if !ok || fr.FrameIndex != opts.Frame {
			return
		}
		select {
		case ready <- fr.Image:
		default:
		}
	})
	defer unsubscribe()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	w := render.NewWorker(append(sess.cfg.WorkerOptions(),
		render.WithPublisher(bus),
		render.WithLogger(slog.Default()),
	)...)
	w.Start(ctx)
	defer w.Stop()

	ed, err := sess.editor(p, editor.WithPublisher(bus), editor.WithRenderWorker(w))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	if !ed.RequestPreview(opts.Frame) {
		return f.Fail(ExitFailure, ErrCodeRender, "render worker rejected the request", nil)
	}

	var img *image.RGBA
	select {
	case img = <-ready:
	case <-ctx.Done():
		return f.Fail(ExitFailure, ErrCodeRender,
			fmt.Sprintf("no frame after %s (%d failed render(s))", opts.Timeout, w.Failed()), nil)
	}

	if err := writePNG(opts.Out, img); err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
	}

	b := img.Bounds()
	res := RenderResult{Name: name, Files: []string{opts.Out}, Width: b.Dx(), Height: b.Dy()}
	if f.Format == "json" {
		return f.Success(res)
	}
	fmt.Fprintf(f.Writer, "✓ Previewed frame %d at %dx%d to %s\n", opts.Frame, res.Width, res.Height, opts.Out)
	return nil
}
