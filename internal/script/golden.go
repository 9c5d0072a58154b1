package script

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as stable text: the trace, then every frame as
// rows of hex colors.
func Snapshot(res *Result) []byte {
	p := res.Editor.Pattern()

	var b strings.Builder
	fmt.Fprintf(&b, "script: %s\n", res.Name)
	fmt.Fprintf(&b, "size: %dx%d\n", p.Width, p.Height)
	fmt.Fprintf(&b, "frames: %d\n", p.FrameCount())
	b.WriteString("trace:\n")
	for _, e := range res.Trace {
		fmt.Fprintf(&b, "  %d %s %s changed=%d\n", e.Seq, e.Op, e.Detail, e.Changed)
	}
	for i, f := range p.Frames {
		fmt.Fprintf(&b, "frame %d (%dms):\n", i, f.DurationMS)
		for y := 0; y < p.Height; y++ {
			row := make([]string, p.Width)
			for x := range row {
				row[x] = strings.TrimPrefix(f.Pixels[y*p.Width+x].String(), "#")
			}
			fmt.Fprintf(&b, "  %s\n", strings.Join(row, " "))
		}
	}
	return []byte(b.String())
}

// AssertGolden compares the result's snapshot with
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/script -update
func AssertGolden(t *testing.T, name string, res *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(res))
}

// RunWithGolden runs a script and compares its snapshot with the golden
// file named after the script.
func RunWithGolden(t *testing.T, s *Script) *Result {
	t.Helper()

	res, err := Run(s)
	if err != nil {
		t.Fatalf("run script %s: %v", s.Name, err)
	}
	AssertGolden(t, s.Name, res)
	return res
}
