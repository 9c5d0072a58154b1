package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledforge/internal/pixel"
	"github.com/roach88/ledforge/internal/testutil"
)

// createTestManager returns a manager with deterministic Seq and ID values.
func createTestManager(t *testing.T, frames int, opts ...Option) *Manager {
	t.Helper()
	opts = append([]Option{
		WithClock(testutil.NewDeterministicClock()),
		WithIDGenerator(testutil.NewSequentialIDGenerator("")),
	}, opts...)
	return NewManager(frames, opts...)
}

func buf(v uint8) pixel.Buffer {
	return pixel.Filled(4, pixel.Pixel{R: v})
}

func TestPush_StampsCommand(t *testing.T) {
	m := createTestManager(t, 2)

	stored, ok := m.Push(NewFrameCommand("paint", buf(0), buf(1)), 1)
	require.True(t, ok)
	assert.Equal(t, "cmd-0001", stored.ID)
	assert.Equal(t, int64(1), stored.Seq)
	assert.Equal(t, 1, stored.FrameIndex)
	assert.True(t, stored.TargetsFrame())

	stored, _ = m.Push(NewFrameCommand("paint", buf(1), buf(2)), 0)
	assert.Equal(t, int64(2), stored.Seq)
	assert.Equal(t, 1, m.UndoCount(0))
	assert.Equal(t, 1, m.UndoCount(1))
}

func TestPush_KeepsExplicitID(t *testing.T) {
	m := createTestManager(t, 1)
	cmd := NewFrameCommand("x", buf(0), buf(1))
	cmd.ID = "given"

	stored, ok := m.Push(cmd, 0)
	require.True(t, ok)
	assert.Equal(t, "given", stored.ID)
}

func TestPush_DefaultIDIsUUID(t *testing.T) {
	m := NewManager(1)
	stored, ok := m.Push(NewFrameCommand("x", buf(0), buf(1)), 0)
	require.True(t, ok)
	assert.Len(t, stored.ID, 36)
}

func TestPush_ClearsRedo(t *testing.T) {
	m := createTestManager(t, 1)
	m.Push(NewFrameCommand("a", buf(0), buf(1)), 0)
	m.Push(NewFrameCommand("b", buf(1), buf(2)), 0)

	_, ok := m.Undo(0)
	require.True(t, ok)
	assert.True(t, m.CanRedo(0))

	m.Push(NewFrameCommand("c", buf(1), buf(3)), 0)
	assert.False(t, m.CanRedo(0))
	assert.Equal(t, 0, m.RedoCount(0))
	assert.Equal(t, 2, m.UndoCount(0))
}

func TestPush_TrimsOldestFirst(t *testing.T) {
	m := createTestManager(t, 1, WithMaxHistory(3))
	for i := 0; i < 5; i++ {
		m.Push(NewFrameCommand("step", buf(uint8(i)), buf(uint8(i+1))), 0)
	}
	assert.Equal(t, 3, m.UndoCount(0))

	// Remaining commands are steps 2, 3, 4.
	var olds []uint8
	for m.CanUndo(0) {
		cmd, _ := m.Undo(0)
		olds = append(olds, cmd.Old[0].R)
	}
	assert.Equal(t, []uint8{4, 3, 2}, olds)
}

func TestPush_DefaultLimit(t *testing.T) {
	m := createTestManager(t, 1)
	assert.Equal(t, DefaultMaxHistory, m.MaxHistory())

	for i := 0; i < DefaultMaxHistory+10; i++ {
		m.Push(NewFrameCommand("step", buf(0), buf(1)), 0)
	}
	assert.Equal(t, DefaultMaxHistory, m.UndoCount(0))
}

func TestPush_GrowsStacksAndRejectsNegative(t *testing.T) {
	m := createTestManager(t, 1)
	_, ok := m.Push(NewFrameCommand("x", buf(0), buf(1)), 4)
	require.True(t, ok)
	assert.Equal(t, 5, m.FrameCount())

	_, ok = m.Push(NewFrameCommand("x", buf(0), buf(1)), -7)
	assert.False(t, ok)
}

func TestUndoRedo_Empty(t *testing.T) {
	m := createTestManager(t, 1)

	_, ok := m.Undo(0)
	assert.False(t, ok)
	_, ok = m.Redo(0)
	assert.False(t, ok)
	_, ok = m.Undo(9)
	assert.False(t, ok)
}

// The test plays the caller's role, writing snapshots back into state.
func TestUndoRedo_RoundTrip(t *testing.T) {
	m := createTestManager(t, 1)
	state := buf(0)

	for i := uint8(1); i <= 6; i++ {
		next := buf(i * 10)
		m.Push(NewFrameCommand("edit", state, next), 0)
		state = next
	}
	final := state.Clone()

	for n := 1; n <= 6; n++ {
		s := final.Clone()
		for i := 0; i < n; i++ {
			cmd, ok := m.Undo(0)
			require.True(t, ok)
			s = cmd.Old
		}
		for i := 0; i < n; i++ {
			cmd, ok := m.Redo(0)
			require.True(t, ok)
			s = cmd.New
		}
		assert.True(t, s.Equal(final), "undo/redo %d", n)
	}

	// Fully undone reaches the original.
	var s pixel.Buffer
	for m.CanUndo(0) {
		cmd, _ := m.Undo(0)
		s = cmd.Old
	}
	assert.True(t, s.Equal(buf(0)))
}

func TestUndoRedo_ReturnsCopies(t *testing.T) {
	m := createTestManager(t, 1)
	old := buf(5)
	m.Push(NewFrameCommand("x", old, buf(6)), 0)
	old[0] = pixel.White

	cmd, _ := m.Undo(0)
	assert.Equal(t, uint8(5), cmd.Old[0].R)
	cmd.Old[0] = pixel.White

	cmd, _ = m.Redo(0)
	cmd, _ = m.Undo(0)
	assert.Equal(t, uint8(5), cmd.Old[0].R)
}

func TestLayerCommandCarriesAlpha(t *testing.T) {
	m := createTestManager(t, 1)
	alphaBefore := []uint8{0, 0, 0, 0}
	alphaAfter := []uint8{255, 0, 0, 0}
	m.Push(NewLayerCommand("paint", 2, buf(0), buf(1), alphaBefore, alphaAfter), 0)
	alphaBefore[0] = 9

	cmd, ok := m.Undo(0)
	require.True(t, ok)
	assert.False(t, cmd.TargetsFrame())
	assert.Equal(t, 2, cmd.LayerIndex)
	assert.Equal(t, []uint8{0, 0, 0, 0}, cmd.OldAlpha)
	assert.Equal(t, []uint8{255, 0, 0, 0}, cmd.NewAlpha)
}

func TestLayerCommandCarriesFrameSnapshots(t *testing.T) {
	m := createTestManager(t, 1)
	before, after := buf(3), buf(4)
	m.Push(NewLayerCommand("paint", 1, buf(0), buf(1), nil, nil).
		WithLayerID(7).
		WithFrames(before, after), 0)
	before[0] = pixel.White

	cmd, ok := m.Undo(0)
	require.True(t, ok)
	assert.Equal(t, uint64(7), cmd.LayerID)
	assert.Equal(t, buf(3), cmd.FrameSnapshot(true))
	assert.Equal(t, buf(4), cmd.FrameSnapshot(false))

	frame := NewFrameCommand("invert", buf(5), buf(6))
	assert.Equal(t, buf(5), frame.FrameSnapshot(true))
	assert.Equal(t, buf(6), frame.FrameSnapshot(false))
}

func TestCurrentFrame(t *testing.T) {
	m := createTestManager(t, 3)
	m.SetCurrentFrame(2)
	assert.Equal(t, 2, m.Current())

	stored, ok := m.Push(NewFrameCommand("x", buf(0), buf(1)), CurrentFrame)
	require.True(t, ok)
	assert.Equal(t, 2, stored.FrameIndex)
	assert.True(t, m.CanUndo(CurrentFrame))
	assert.False(t, m.CanUndo(0))

	_, ok = m.Undo(CurrentFrame)
	assert.True(t, ok)
	assert.Equal(t, 1, m.RedoCount(CurrentFrame))
}

func TestSetFrameCount(t *testing.T) {
	m := createTestManager(t, 3)
	m.Push(NewFrameCommand("x", buf(0), buf(1)), 0)
	m.Push(NewFrameCommand("x", buf(0), buf(1)), 2)

	m.SetFrameCount(5)
	assert.Equal(t, 5, m.FrameCount())
	assert.Equal(t, 1, m.UndoCount(0))
	assert.Equal(t, 1, m.UndoCount(2))

	m.SetFrameCount(2)
	assert.Equal(t, 2, m.FrameCount())
	assert.Equal(t, 1, m.UndoCount(0))
	assert.Equal(t, 0, m.UndoCount(2))

	// Regrowing does not resurrect truncated stacks.
	m.SetFrameCount(3)
	assert.Equal(t, 0, m.UndoCount(2))
}

func TestInsertAndRemoveFrame(t *testing.T) {
	m := createTestManager(t, 3)
	m.Push(NewFrameCommand("f1", buf(0), buf(1)), 1)

	m.InsertFrame(0)
	assert.Equal(t, 4, m.FrameCount())
	assert.Equal(t, 0, m.UndoCount(1))
	cmd, ok := m.Peek(2)
	require.True(t, ok)
	assert.Equal(t, "f1", cmd.Description)

	m.RemoveFrame(0)
	assert.Equal(t, 3, m.FrameCount())
	assert.Equal(t, 1, m.UndoCount(1))
}

func TestClear(t *testing.T) {
	m := createTestManager(t, 2)
	for f := 0; f < 2; f++ {
		m.Push(NewFrameCommand("x", buf(0), buf(1)), f)
		m.Push(NewFrameCommand("y", buf(1), buf(2)), f)
		m.Undo(f)
	}

	m.Clear(0)
	assert.False(t, m.CanUndo(0))
	assert.False(t, m.CanRedo(0))
	assert.True(t, m.CanUndo(1))

	m.ClearAll()
	assert.False(t, m.CanUndo(1))
	assert.False(t, m.CanRedo(1))
	assert.Equal(t, 2, m.FrameCount())
}

func TestClock(t *testing.T) {
	c := NewClockAt(41)
	assert.Equal(t, int64(41), c.Current())
	assert.Equal(t, int64(42), c.Next())
	assert.Equal(t, int64(1), NewClock().Next())
}
