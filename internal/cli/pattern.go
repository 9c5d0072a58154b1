package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/ledforge/internal/pixel"
	"github.com/roach88/ledforge/internal/store"
)

// PatternSummary is the JSON shape for a stored pattern.
type PatternSummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	Frames          int    `json:"frames"`
	Revision        int64  `json:"revision"`
	Digest          string `json:"digest"`
	TotalDurationMS uint64 `json:"total_duration_ms,omitempty"`
}

func summarize(info store.PatternInfo) PatternSummary {
	return PatternSummary{
		ID:       info.ID,
		Name:     info.Name,
		Width:    info.Width,
		Height:   info.Height,
		Frames:   info.FrameCount,
		Revision: info.Revision,
		Digest:   info.Digest,
	}
}

// NewOptions holds flags for the new command.
type NewOptions struct {
	*RootOptions
	Width      int
	Height     int
	Frames     int
	DurationMS uint32
	Fill       string
	Force      bool
}

// NewNewCommand creates the new command.
func NewNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a blank pattern",
		Long: `Create a pattern of identical frames filled with one color and save it.

Example:
  ledforge new heart --width 8 --height 8 --frames 12 --duration 80
  ledforge new sky --width 16 --height 4 --fill "#001133"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Width, "width", 8, "matrix width in LEDs")
	cmd.Flags().IntVar(&opts.Height, "height", 8, "matrix height in LEDs")
	cmd.Flags().IntVar(&opts.Frames, "frames", 1, "number of frames")
	cmd.Flags().Uint32Var(&opts.DurationMS, "duration", 100, "frame duration in milliseconds")
	cmd.Flags().StringVar(&opts.Fill, "fill", "#000000", "fill color (#rrggbb)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "replace an existing pattern with the same name")

	return cmd
}

func runNew(opts *NewOptions, name string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd.Context())

	fill, err := pixel.ParseHex(opts.Fill)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArg, err.Error(), nil)
	}
	p, err := pixel.NewBlankPattern(opts.Width, opts.Height, opts.Frames, opts.DurationMS)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArg, err.Error(), nil)
	}
	for i := range p.Frames {
		p.Frames[i].Pixels = pixel.Filled(p.PixelCount(), fill)
	}

	sess, err := openSession(opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer sess.Close()

	if !opts.Force {
		if _, err := sess.store.Info(ctx, name); err == nil {
			return f.Fail(ExitCommandError, ErrCodeInvalidArg,
				fmt.Sprintf("pattern %q already exists (use --force to replace it)", name), nil)
		}
	}

	info, err := sess.save(ctx, f, name, p)
	if err != nil {
		return err
	}

	if f.Format == "json" {
		return f.Success(summarize(info))
	}
	fmt.Fprintf(f.Writer, "✓ Created %s (%dx%d, %d frame(s), revision %d)\n",
		info.Name, info.Width, info.Height, info.FrameCount, info.Revision)
	return nil
}

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info [name]",
		Short: "List patterns or describe one",
		Long: `Without a name, list every stored pattern. With a name, load the
pattern (verifying every frame digest) and describe it.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runList(rootOpts, cmd)
			}
			return runInfo(rootOpts, args[0], cmd)
		},
	}
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	sess, err := openSession(opts, f)
	if err != nil {
		return err
	}
	defer sess.Close()

	list, err := sess.store.ListPatterns(commandContext(cmd.Context()))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}

	out := make([]PatternSummary, len(list))
	for i, info := range list {
		out[i] = summarize(info)
	}
	if f.Format == "json" {
		return f.Success(out)
	}
	if len(out) == 0 {
		fmt.Fprintln(f.Writer, "No patterns.")
		return nil
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tFRAMES\tREVISION")
	for _, s := range out {
		fmt.Fprintf(tw, "%s\t%dx%d\t%d\t%d\n", s.Name, s.Width, s.Height, s.Frames, s.Revision)
	}
	return tw.Flush()
}

func runInfo(opts *RootOptions, name string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	ctx := commandContext(cmd.Context())
	sess, err := openSession(opts, f)
	if err != nil {
		return err
	}
	defer sess.Close()

	p, err := sess.load(ctx, f, name)
	if err != nil {
		return err
	}
	info, err := sess.store.Info(ctx, name)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}

	s := summarize(info)
	s.TotalDurationMS = p.TotalDurationMS()
	if f.Format == "json" {
		return f.Success(s)
	}
	fmt.Fprintf(f.Writer, "Name:     %s\n", s.Name)
	fmt.Fprintf(f.Writer, "ID:       %s\n", s.ID)
	fmt.Fprintf(f.Writer, "Size:     %dx%d\n", s.Width, s.Height)
	fmt.Fprintf(f.Writer, "Frames:   %d (%d ms total)\n", s.Frames, s.TotalDurationMS)
	fmt.Fprintf(f.Writer, "Revision: %d\n", s.Revision)
	fmt.Fprintf(f.Writer, "Digest:   %s\n", s.Digest)
	return nil
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <name>",
		Short:         "Delete a stored pattern",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			sess, err := openSession(rootOpts, f)
			if err != nil {
				return err
			}
			defer sess.Close()

			ok, err := sess.store.DeletePattern(commandContext(cmd.Context()), args[0])
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
			}
			if !ok {
				return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("pattern %q not found", args[0]), nil)
			}
			if f.Format == "json" {
				return f.Success(map[string]string{"deleted": args[0]})
			}
			fmt.Fprintf(f.Writer, "✓ Deleted %s\n", args[0])
			return nil
		},
	}
}
