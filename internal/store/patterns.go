package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/ledforge/internal/pixel"
)

// ErrNotFound is returned when no pattern has the requested name.
var ErrNotFound = errors.New("pattern not found")

// CorruptFrameError reports a stored frame whose pixels no longer match the
// digest written with them.
type CorruptFrameError struct {
	Pattern string
	Frame   int
	Want    string
	Got     string
}

func (e *CorruptFrameError) Error() string {
	return fmt.Sprintf("CORRUPT_FRAME: pattern %q frame %d digest %s, expected %s",
		e.Pattern, e.Frame, shortDigest(e.Got), shortDigest(e.Want))
}

// IsCorruptFrame reports whether err wraps a *CorruptFrameError.
func IsCorruptFrame(err error) bool {
	var ce *CorruptFrameError
	return errors.As(err, &ce)
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

// PatternInfo summarizes a stored pattern without its pixels.
type PatternInfo struct {
	ID         string
	Name       string
	Width      int
	Height     int
	FrameCount int

	// Revision counts saves under this name, starting at 1.
	Revision int64

	// Digest is the pattern digest at save time.
	Digest string
}

// normalizeName makes visually identical names address the same pattern.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// SavePattern writes p under name, replacing any pattern already saved
// under it. The pattern is validated first. Frames are written in one
// transaction, so a failed save leaves the previous revision intact.
func (s *Store) SavePattern(ctx context.Context, name string, p *pixel.Pattern) (PatternInfo, error) {
	name = normalizeName(name)
	if name == "" {
		return PatternInfo{}, fmt.Errorf("save pattern: empty name")
	}
	if p == nil {
		return PatternInfo{}, fmt.Errorf("save pattern %q: nil pattern", name)
	}
	if err := p.Validate(); err != nil {
		return PatternInfo{}, fmt.Errorf("save pattern %q: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PatternInfo{}, fmt.Errorf("save pattern %q: begin: %w", name, err)
	}
	defer tx.Rollback()

	info := PatternInfo{
		Name:       name,
		Width:      p.Width,
		Height:     p.Height,
		FrameCount: p.FrameCount(),
		Digest:     p.Digest(),
	}

	err = tx.QueryRowContext(ctx,
		`SELECT id, revision FROM patterns WHERE name = ?`, name,
	).Scan(&info.ID, &info.Revision)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		info.ID = uuid.Must(uuid.NewV7()).String()
		info.Revision = 1
		_, err = tx.ExecContext(ctx, `
			INSERT INTO patterns (id, name, width, height, frame_count, revision, digest)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, info.ID, info.Name, info.Width, info.Height, info.FrameCount, info.Revision, info.Digest)
	case err == nil:
		info.Revision++
		_, err = tx.ExecContext(ctx, `
			UPDATE patterns
			SET width = ?, height = ?, frame_count = ?, revision = ?, digest = ?
			WHERE id = ?
		`, info.Width, info.Height, info.FrameCount, info.Revision, info.Digest, info.ID)
	}
	if err != nil {
		return PatternInfo{}, fmt.Errorf("save pattern %q: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM frames WHERE pattern_id = ?`, info.ID); err != nil {
		return PatternInfo{}, fmt.Errorf("save pattern %q: clear frames: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO frames (pattern_id, idx, duration_ms, pixels, digest)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return PatternInfo{}, fmt.Errorf("save pattern %q: prepare: %w", name, err)
	}
	defer stmt.Close()

	for i, f := range p.Frames {
		if _, err := stmt.ExecContext(ctx, info.ID, i, f.DurationMS, f.Pixels.Bytes(), f.Pixels.Digest()); err != nil {
			return PatternInfo{}, fmt.Errorf("save pattern %q: frame %d: %w", name, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return PatternInfo{}, fmt.Errorf("save pattern %q: commit: %w", name, err)
	}
	return info, nil
}

// LoadPattern reads the pattern saved under name. Frame blobs are checked
// against their digests and the result is run through pixel validation, so
// a returned pattern always satisfies the length invariant.
func (s *Store) LoadPattern(ctx context.Context, name string) (*pixel.Pattern, error) {
	name = normalizeName(name)
	info, err := s.Info(ctx, name)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, duration_ms, pixels, digest
		FROM frames
		WHERE pattern_id = ?
		ORDER BY idx ASC
	`, info.ID)
	if err != nil {
		return nil, fmt.Errorf("load pattern %q: query frames: %w", name, err)
	}
	defer rows.Close()

	var frames []pixel.Frame
	for rows.Next() {
		var (
			idx      int
			duration uint32
			blob     []byte
			digest   string
		)
		if err := rows.Scan(&idx, &duration, &blob, &digest); err != nil {
			return nil, fmt.Errorf("load pattern %q: scan frame: %w", name, err)
		}
		if idx != len(frames) {
			return nil, fmt.Errorf("load pattern %q: frame %d missing", name, len(frames))
		}
		buf, err := pixel.BufferFromBytes(blob)
		if err != nil {
			return nil, fmt.Errorf("load pattern %q: frame %d: %w", name, idx, err)
		}
		if got := buf.Digest(); got != digest {
			return nil, &CorruptFrameError{Pattern: name, Frame: idx, Want: digest, Got: got}
		}
		frames = append(frames, pixel.Frame{Pixels: buf, DurationMS: duration})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load pattern %q: iterate frames: %w", name, err)
	}
	if len(frames) != info.FrameCount {
		return nil, fmt.Errorf("load pattern %q: found %d frames, expected %d", name, len(frames), info.FrameCount)
	}

	p, err := pixel.NewPattern(info.Width, info.Height, frames)
	if err != nil {
		return nil, fmt.Errorf("load pattern %q: %w", name, err)
	}
	return p, nil
}

// Info returns the summary of the pattern saved under name.
func (s *Store) Info(ctx context.Context, name string) (PatternInfo, error) {
	name = normalizeName(name)
	info, err := scanInfo(s.db.QueryRowContext(ctx, `
		SELECT id, name, width, height, frame_count, revision, digest
		FROM patterns
		WHERE name = ?
	`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return PatternInfo{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return PatternInfo{}, fmt.Errorf("read pattern %q: %w", name, err)
	}
	return info, nil
}

// ListPatterns returns every stored pattern ordered by name.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListPatterns(ctx context.Context) ([]PatternInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, width, height, frame_count, revision, digest
		FROM patterns
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	out := []PatternInfo{}
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patterns: %w", err)
	}
	return out, nil
}

// DeletePattern removes a pattern and its frames. Returns false when no
// pattern had that name.
func (s *Store) DeletePattern(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM patterns WHERE name = ?`, normalizeName(name))
	if err != nil {
		return false, fmt.Errorf("delete pattern %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete pattern %q: %w", name, err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInfo(r rowScanner) (PatternInfo, error) {
	var info PatternInfo
	err := r.Scan(&info.ID, &info.Name, &info.Width, &info.Height, &info.FrameCount, &info.Revision, &info.Digest)
	return info, err
}
