package script

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ledforge/internal/pixel"
)

// DefaultDurationMS is used when a script's pattern omits duration_ms.
const DefaultDurationMS = 100

// Script is an automation script: a starting pattern and the edits to run
// on it in order.
type Script struct {
	// Name identifies the script and names its golden file.
	Name string `yaml:"name" json:"name"`

	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Pattern describes the blank pattern Run starts from. Execute ignores
	// it and edits whatever pattern the editor already holds.
	Pattern PatternSpec `yaml:"pattern" json:"pattern"`

	Steps []Step `yaml:"steps" json:"steps"`
}

// PatternSpec describes a uniformly filled starting pattern.
type PatternSpec struct {
	Width      int    `yaml:"width" json:"width"`
	Height     int    `yaml:"height" json:"height"`
	Frames     int    `yaml:"frames,omitempty" json:"frames,omitempty"`
	DurationMS uint32 `yaml:"duration_ms,omitempty" json:"duration_ms,omitempty"`

	// Fill is a #rrggbb color. Empty means black.
	Fill string `yaml:"fill,omitempty" json:"fill,omitempty"`
}

// Step is one edit. Exactly one of its operation fields is set.
type Step struct {
	// Action names an action kind, applied with Params over Frames.
	Action string         `yaml:"action,omitempty" json:"action,omitempty"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
	Frames *FrameRange    `yaml:"frames,omitempty" json:"frames,omitempty"`

	Paint *PaintStep `yaml:"paint,omitempty" json:"paint,omitempty"`
	Layer *LayerStep `yaml:"layer,omitempty" json:"layer,omitempty"`

	// Undo, Redo and Sync hold the frame they operate on.
	Undo *int `yaml:"undo,omitempty" json:"undo,omitempty"`
	Redo *int `yaml:"redo,omitempty" json:"redo,omitempty"`
	Sync *int `yaml:"sync,omitempty" json:"sync,omitempty"`
}

// FrameRange is an inclusive frame span. A nil End runs to the last frame.
type FrameRange struct {
	Start int  `yaml:"start" json:"start"`
	End   *int `yaml:"end,omitempty" json:"end,omitempty"`
}

// PaintStep sets one pixel on a layer.
type PaintStep struct {
	Frame int    `yaml:"frame" json:"frame"`
	X     int    `yaml:"x" json:"x"`
	Y     int    `yaml:"y" json:"y"`
	Color string `yaml:"color" json:"color"`
	Layer int    `yaml:"layer,omitempty" json:"layer,omitempty"`
}

// LayerStep adds a layer, or edits an existing one when Index is set.
type LayerStep struct {
	Frame   int      `yaml:"frame" json:"frame"`
	Index   *int     `yaml:"index,omitempty" json:"index,omitempty"`
	Name    string   `yaml:"name,omitempty" json:"name,omitempty"`
	Opacity *float64 `yaml:"opacity,omitempty" json:"opacity,omitempty"`
	Visible *bool    `yaml:"visible,omitempty" json:"visible,omitempty"`
	Blend   string   `yaml:"blend,omitempty" json:"blend,omitempty"`
}

// Op names the operation a step performs, or "" when none or several are
// set.
func (s Step) Op() string {
	var ops []string
	if s.Action != "" {
		ops = append(ops, "action")
	}
	if s.Paint != nil {
		ops = append(ops, "paint")
	}
	if s.Layer != nil {
		ops = append(ops, "layer")
	}
	if s.Undo != nil {
		ops = append(ops, "undo")
	}
	if s.Redo != nil {
		ops = append(ops, "redo")
	}
	if s.Sync != nil {
		ops = append(ops, "sync")
	}
	if len(ops) != 1 {
		return ""
	}
	return ops[0]
}

// Load reads a script, choosing YAML or CUE by file extension.
func Load(path string) (*Script, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return LoadCUE(path)
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return nil, fmt.Errorf("script %s: unsupported extension (want .yaml, .yml or .cue)", path)
	}
}

// LoadYAML reads and validates a YAML script. Unknown fields are rejected.
func LoadYAML(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes and validates a YAML script.
func ParseYAML(data []byte) (*Script, error) {
	var s Script
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return &s, nil
}

// Validate checks required fields and that each step has one operation.
// Action names and parameters are checked when the step runs.
func (s *Script) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Pattern.Width < 1 || s.Pattern.Height < 1 {
		return fmt.Errorf("pattern dimensions must be positive, got %dx%d", s.Pattern.Width, s.Pattern.Height)
	}
	if s.Pattern.Frames < 0 {
		return fmt.Errorf("pattern frames must not be negative, got %d", s.Pattern.Frames)
	}
	if s.Pattern.Fill != "" {
		if _, err := pixel.ParseHex(s.Pattern.Fill); err != nil {
			return fmt.Errorf("pattern fill: %w", err)
		}
	}
	for i, st := range s.Steps {
		if st.Op() == "" {
			return fmt.Errorf("step %d: exactly one of action, paint, layer, undo, redo or sync must be set", i)
		}
		if (st.Params != nil || st.Frames != nil) && st.Action == "" {
			return fmt.Errorf("step %d: params and frames only apply to actions", i)
		}
	}
	return nil
}

// NewPattern builds the starting pattern described by s.
func (s *Script) NewPattern() (*pixel.Pattern, error) {
	frames := max(1, s.Pattern.Frames)
	dur := s.Pattern.DurationMS
	if dur == 0 {
		dur = DefaultDurationMS
	}
	p, err := pixel.NewBlankPattern(s.Pattern.Width, s.Pattern.Height, frames, dur)
	if err != nil {
		return nil, err
	}
	if s.Pattern.Fill != "" {
		c, err := pixel.ParseHex(s.Pattern.Fill)
		if err != nil {
			return nil, fmt.Errorf("pattern fill: %w", err)
		}
		for i := range p.Frames {
			p.Frames[i].Pixels = pixel.Filled(p.PixelCount(), c)
		}
	}
	return p, nil
}
