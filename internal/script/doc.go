// Package script runs automation scripts against a pattern editor.
//
// A script names a starting pattern and a list of steps. Each step is one
// of action, paint, layer, undo, redo or sync:
//
//	name: fade-in
//	pattern: {width: 8, height: 8, frames: 10}
//	steps:
//	  - paint: {frame: 0, x: 3, y: 3, color: "#ff8800"}
//	  - action: reveal
//	    params: {direction: right, easing: ease_in_quad}
//	    frames: {start: 0}
//
// Scripts may be written in YAML (unknown keys rejected) or CUE, which is
// unified with the embedded #Script schema before decoding.
//
// Snapshot and AssertGolden turn a run into stable text for golden tests.
package script
