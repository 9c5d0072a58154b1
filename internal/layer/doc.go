// Package layer implements per-frame layer stacks and the compositor that
// merges them into a pattern's frame buffers.
//
// Layer edits are non-destructive: painting, visibility, opacity and blend
// mode changes touch only the layer stack. A frame's authoritative pixels
// change only when the caller asks for SyncFrameFromLayers. AreLayersSynced
// lets callers detect a frame buffer that was written directly (for example
// by an automation action) and has drifted from its layers.
//
// Compositing formula, per pixel, bottom to top over black:
//
//	out = lerp(acc, mode(acc, layer), opacity * alpha/255)
//
// where mode is one of the BlendMode functions and alpha is the layer's
// per-pixel coverage.
package layer
