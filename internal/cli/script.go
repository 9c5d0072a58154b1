package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ledforge/internal/script"
)

// ScriptOptions holds flags for the script command.
type ScriptOptions struct {
	*RootOptions
	Pattern string // run against a stored pattern instead of the script's own
	Save    string // store the result under this name
}

// ScriptStep is the JSON shape of one trace entry.
type ScriptStep struct {
	Seq     int    `json:"seq"`
	Op      string `json:"op"`
	Detail  string `json:"detail"`
	Changed int    `json:"changed"`
}

// ScriptResult is the JSON shape for the script command.
type ScriptResult struct {
	Script   string       `json:"script"`
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	Frames   int          `json:"frames"`
	Digest   string       `json:"digest"`
	Trace    []ScriptStep `json:"trace"`
	Saved    string       `json:"saved,omitempty"`
	Revision int64        `json:"revision,omitempty"`
}

// NewScriptCommand creates the script command.
func NewScriptCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScriptOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "script <file>",
		Short: "Run an automation script (.yaml or .cue)",
		Long: `Run an automation script and print the resulting trace and frames.

By default the script starts from the pattern it describes. With --pattern
it edits a stored pattern instead. Nothing is saved unless --save is given.

Example:
  ledforge script fade.yaml --save fade
  ledforge script sparkle.cue --pattern banner --save banner`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Pattern, "pattern", "", "stored pattern to run the script against")
	cmd.Flags().StringVar(&opts.Save, "save", "", "save the result under this name")

	return cmd
}

func runScript(opts *ScriptOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd.Context())

	s, err := script.Load(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeScript, err.Error(), nil)
	}
	f.VerboseLog("loaded script %s with %d step(s)", s.Name, len(s.Steps))

	sess, err := openSession(opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer sess.Close()

	var res *script.Result
	if opts.Pattern != "" {
		p, err := sess.load(ctx, f, opts.Pattern)
		if err != nil {
			return err
		}
		ed, err := sess.editor(p)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		trace, err := script.Execute(ed, s.Steps)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeScript, err.Error(), nil)
		}
		res = &script.Result{Name: s.Name, Editor: ed, Trace: trace}
	} else {
		res, err = script.Run(s, sess.editorOptions()...)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeScript, err.Error(), nil)
		}
	}

	final := res.Editor.Pattern()
	out := ScriptResult{
		Script: s.Name,
		Width:  final.Width,
		Height: final.Height,
		Frames: final.FrameCount(),
		Digest: final.Digest(),
		Trace:  make([]ScriptStep, len(res.Trace)),
	}
	for i, e := range res.Trace {
		out.Trace[i] = ScriptStep{Seq: e.Seq, Op: e.Op, Detail: e.Detail, Changed: e.Changed}
	}

	if opts.Save != "" {
		info, err := sess.save(ctx, f, opts.Save, final)
		if err != nil {
			return err
		}
		out.Saved = info.Name
		out.Revision = info.Revision
	}

	if f.Format == "json" {
		return f.Success(out)
	}
	if _, err := f.Writer.Write(script.Snapshot(res)); err != nil {
		return err
	}
	if out.Saved != "" {
		fmt.Fprintf(f.Writer, "✓ Saved %s (revision %d)\n", out.Saved, out.Revision)
	}
	return nil
}
