// Package history implements per-frame undo and redo.
//
// Each frame owns an independent pair of stacks holding Command snapshots.
// A command records the buffer before and after one edit; the manager never
// touches pattern data itself. Callers write Old back on undo and New on
// redo.
//
// Commands are stamped with a logical sequence number from a shared Clock
// and an ID from an IDGenerator. Tests inject deterministic versions of both
// through WithClock and WithIDGenerator.
package history
