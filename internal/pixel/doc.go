// Package pixel defines the value types shared by every part of the engine.
//
// A Buffer is a flat, row-major slice of RGB pixels addressed by y*width+x.
// A Frame pairs a Buffer with a display duration, and a Pattern is an ordered
// sequence of frames that all share one width and height.
//
// # Invariants
//
//   - len(Frame.Pixels) == Pattern.Width * Pattern.Height for every frame
//   - Frame.DurationMS >= 1
//
// Constructors (NewFrame, NewPattern) reject values that break these
// invariants with a *ConstructionError. Everything downstream of construction
// assumes they hold and degrades silently (clamp or no-op) on bad indices.
//
// Buffers are values: Clone returns an independent copy, and every component
// that keeps a buffer beyond a call (history snapshots, render requests,
// layer stacks) clones it at the boundary.
package pixel
