// Package action implements the parametric automation actions: deterministic
// pixel-buffer transforms applied across a range of frames.
//
// # Kinds
//
//   - scroll: toroidal shift by round(distance*speed*(i+1)) pixels
//   - rotate, rotate_ccw: 90 degree rotations; width and height swap
//   - rotate_180: reversal of the flat buffer
//   - mirror, flip: reflection across the horizontal or vertical axis
//   - invert: 255-c on every channel
//   - wipe: sweep a fill color across the frame as the range progresses
//   - reveal: sweep the original image in over black
//   - bounce: scroll by a distance oscillating as |sin(phase*pi)|
//
// Transforms are pure. They never mutate their input and never touch a
// pattern; callers commit the returned buffers themselves.
//
// Unknown kind names are an error (*UnknownKindError). Engines built with
// WithLenientKinds instead fall back to scroll with DefaultParams, which is
// how older automation files expect to be treated.
package action
