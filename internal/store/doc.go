// Package store provides SQLite-backed persistence for patterns.
//
// Each pattern is one row in patterns plus one row per frame in frames. Frame
// pixels are stored as packed RGB blobs next to their digest, so a load
// detects damaged data instead of handing a malformed buffer to the editor.
//
// # Names
//
// Pattern names are trimmed and NFC-normalized. Saving under an existing
// name replaces the pattern and bumps its revision.
//
// # Ordering
//
// Frames are read back ORDER BY idx ASC; patterns are listed ORDER BY name
// COLLATE BINARY ASC, so listings are stable across platforms.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Deleting a pattern cascades to its frames
package store
