package history

// DefaultMaxHistory bounds each frame's undo stack.
const DefaultMaxHistory = 50

// CurrentFrame selects the manager's active frame in place of an explicit
// index.
const CurrentFrame = -1

// Manager keeps independent undo and redo stacks per frame.
//
// A push always clears the frame's redo stack, so there is no redo tree. When
// an undo stack grows past the limit its oldest command is evicted first.
// Snapshots are cloned on the way in and on the way out, so callers can never
// alias a stored buffer.
//
// Manager is not safe for concurrent use.
type Manager struct {
	undo       [][]Command
	redo       [][]Command
	current    int
	maxHistory int
	clock      Sequencer
	ids        IDGenerator
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxHistory sets the per-frame undo limit. Values below 1 are ignored.
func WithMaxHistory(n int) Option {
	return func(m *Manager) {
		if n >= 1 {
			m.maxHistory = n
		}
	}
}

// WithClock sets the sequencer used to stamp commands.
func WithClock(c Sequencer) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithIDGenerator sets the generator used for command IDs.
func WithIDGenerator(g IDGenerator) Option {
	return func(m *Manager) {
		m.ids = g
	}
}

// NewManager creates a manager with empty stacks for frameCount frames.
func NewManager(frameCount int, opts ...Option) *Manager {
	m := &Manager{
		maxHistory: DefaultMaxHistory,
		clock:      NewClock(),
		ids:        UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.SetFrameCount(frameCount)
	return m
}

// MaxHistory returns the per-frame undo limit.
func (m *Manager) MaxHistory() int {
	return m.maxHistory
}

// FrameCount returns the number of per-frame stack pairs.
func (m *Manager) FrameCount() int {
	return len(m.undo)
}

// SetFrameCount grows or truncates the stacks to exactly n frames. Stacks
// for surviving indices are kept.
func (m *Manager) SetFrameCount(n int) {
	if n < 0 {
		n = 0
	}
	for len(m.undo) < n {
		m.undo = append(m.undo, nil)
		m.redo = append(m.redo, nil)
	}
	m.undo = m.undo[:n:n]
	m.redo = m.redo[:n:n]
}

// InsertFrame opens empty stacks at index, shifting later frames up.
func (m *Manager) InsertFrame(index int) {
	if index < 0 || index > len(m.undo) {
		index = len(m.undo)
	}
	m.undo = append(m.undo[:index], append([][]Command{nil}, m.undo[index:]...)...)
	m.redo = append(m.redo[:index], append([][]Command{nil}, m.redo[index:]...)...)
}

// RemoveFrame drops the stacks at index, shifting later frames down.
func (m *Manager) RemoveFrame(index int) {
	if index < 0 || index >= len(m.undo) {
		return
	}
	m.undo = append(m.undo[:index], m.undo[index+1:]...)
	m.redo = append(m.redo[:index], m.redo[index+1:]...)
}

// SetCurrentFrame sets the frame CurrentFrame refers to.
func (m *Manager) SetCurrentFrame(f int) {
	if f >= 0 {
		m.current = f
	}
}

// Current returns the active frame.
func (m *Manager) Current() int {
	return m.current
}

func (m *Manager) resolve(f int) int {
	if f == CurrentFrame {
		return m.current
	}
	return f
}

// Push records cmd on frame f's undo stack and clears its redo stack. The
// stacks grow to include f if needed. The stored command is returned with
// its ID, Seq and FrameIndex filled in. Negative frames other than
// CurrentFrame are rejected.
func (m *Manager) Push(cmd Command, f int) (Command, bool) {
	f = m.resolve(f)
	if f < 0 {
		return Command{}, false
	}
	if f >= len(m.undo) {
		m.SetFrameCount(f + 1)
	}

	stored := cmd.clone()
	stored.FrameIndex = f
	stored.Seq = m.clock.Next()
	if stored.ID == "" {
		stored.ID = m.ids.Generate()
	}

	m.undo[f] = append(m.undo[f], stored)
	m.redo[f] = nil
	if over := len(m.undo[f]) - m.maxHistory; over > 0 {
		// Drop the oldest. Copy down so the backing array does not grow
		// without bound.
		m.undo[f] = append(m.undo[f][:0], m.undo[f][over:]...)
	}
	return stored.clone(), true
}

// Undo moves frame f's newest command to its redo stack and returns it. The
// caller restores cmd.Old. Returns false when there is nothing to undo.
func (m *Manager) Undo(f int) (Command, bool) {
	f = m.resolve(f)
	if !m.CanUndo(f) {
		return Command{}, false
	}
	s := m.undo[f]
	cmd := s[len(s)-1]
	s[len(s)-1] = Command{}
	m.undo[f] = s[:len(s)-1]
	m.redo[f] = append(m.redo[f], cmd)
	return cmd.clone(), true
}

// Redo moves frame f's newest undone command back to its undo stack and
// returns it. The caller reapplies cmd.New.
func (m *Manager) Redo(f int) (Command, bool) {
	f = m.resolve(f)
	if !m.CanRedo(f) {
		return Command{}, false
	}
	s := m.redo[f]
	cmd := s[len(s)-1]
	s[len(s)-1] = Command{}
	m.redo[f] = s[:len(s)-1]
	m.undo[f] = append(m.undo[f], cmd)
	return cmd.clone(), true
}

// CanUndo reports whether frame f has commands to undo.
func (m *Manager) CanUndo(f int) bool {
	return m.UndoCount(f) > 0
}

// CanRedo reports whether frame f has commands to redo.
func (m *Manager) CanRedo(f int) bool {
	return m.RedoCount(f) > 0
}

// UndoCount returns the depth of frame f's undo stack.
func (m *Manager) UndoCount(f int) int {
	f = m.resolve(f)
	if f < 0 || f >= len(m.undo) {
		return 0
	}
	return len(m.undo[f])
}

// RedoCount returns the depth of frame f's redo stack.
func (m *Manager) RedoCount(f int) int {
	f = m.resolve(f)
	if f < 0 || f >= len(m.redo) {
		return 0
	}
	return len(m.redo[f])
}

// Peek returns frame f's newest undoable command without moving it.
func (m *Manager) Peek(f int) (Command, bool) {
	f = m.resolve(f)
	if !m.CanUndo(f) {
		return Command{}, false
	}
	return m.undo[f][len(m.undo[f])-1].clone(), true
}

// Clear empties both stacks of frame f.
func (m *Manager) Clear(f int) {
	f = m.resolve(f)
	if f < 0 || f >= len(m.undo) {
		return
	}
	m.undo[f] = nil
	m.redo[f] = nil
}

// ClearAll empties every frame's stacks. The frame count is kept.
func (m *Manager) ClearAll() {
	for i := range m.undo {
		m.undo[i] = nil
		m.redo[i] = nil
	}
}
