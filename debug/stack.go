package debug

import "path/filepath"

// Frame is one synthetic call frame, pushed on every passage entry
// (tunnel calls and thread starts both count as pushes).
type Frame struct {
	ID      int
	Passage string
	File    string
	Line    int
	Locals  map[string]any
	Temps   map[string]any
}

// StackTracker owns the ordered passage call stack. Frame ids are
// monotonic and never reused within a session.
type StackTracker struct {
	frames []*Frame
	nextID int
}

func NewStackTracker() *StackTracker {
	return &StackTracker{nextID: 1}
}

// Push appends a frame for the entered passage and returns its id.
func (t *StackTracker) Push(passage, file string, line int) int {
	f := &Frame{
		ID:      t.nextID,
		Passage: passage,
		File:    file,
		Line:    line,
		Locals:  make(map[string]any),
		Temps:   make(map[string]any),
	}
	t.nextID++
	t.frames = append(t.frames, f)
	return f.ID
}

// Pop removes the top frame. Popping an empty stack is a no-op.
func (t *StackTracker) Pop() {
	if len(t.frames) == 0 {
		return
	}
	t.frames = t.frames[:len(t.frames)-1]
}

// Depth reports the current number of frames.
func (t *StackTracker) Depth() int {
	return len(t.frames)
}

// Top returns the most recent frame, or nil when empty.
func (t *StackTracker) Top() *Frame {
	if len(t.frames) == 0 {
		return nil
	}
	return t.frames[len(t.frames)-1]
}

// Frames returns the stack most-recent-first.
func (t *StackTracker) Frames() []*Frame {
	out := make([]*Frame, 0, len(t.frames))
	for i := len(t.frames) - 1; i >= 0; i-- {
		out = append(out, t.frames[i])
	}
	return out
}

// Lookup finds a frame by id.
func (t *StackTracker) Lookup(id int) (*Frame, bool) {
	for _, f := range t.frames {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// UpdateCurrentLine advances the topmost frame's reported line without
// changing stack shape. The interceptor drives this from intra-passage
// progress hints; a missing top frame is a no-op.
func (t *StackTracker) UpdateCurrentLine(line int) {
	if f := t.Top(); f != nil {
		f.Line = line
	}
}

// Reset discards every frame. Ids keep counting; they are never reused
// within a session.
func (t *StackTracker) Reset() {
	t.frames = nil
}

// SourceName renders a frame's file for display: the basename of the
// path, or "<unknown>" when the passage has no known source.
func (f *Frame) SourceName() string {
	if f.File == "" {
		return "<unknown>"
	}
	return filepath.Base(f.File)
}
