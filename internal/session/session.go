// Package session holds the live inventory state for one user session:
// the current tree and the bounded undo stack. A session is an explicit
// value owned by its caller, never package-level state, so tests and
// multiple sessions run in isolation.
package session

import "github.com/kstrand/attic/internal/tree"

// MaxUndo bounds the undo stack; the oldest snapshot is dropped first.
const MaxUndo = 10

// UndoEntry pairs a pre-mutation tree snapshot with a short label for
// the action that followed it.
type UndoEntry struct {
	Tree  *tree.Node `json:"tree"`
	Label string     `json:"label"`
}

// State is the persistable shape of a session.
type State struct {
	Tree *tree.Node  `json:"tree"`
	Undo []UndoEntry `json:"undo,omitempty"`
}

// Session owns the live tree. Mutating callers push a pre-mutation
// snapshot, replace Tree wholesale, and discard any reference to the
// old value.
type Session struct {
	Tree *tree.Node
	undo []UndoEntry
}

// New starts a session on the given tree, or the default house when
// tree is nil.
func New(t *tree.Node) *Session {
	if t == nil {
		t = tree.DefaultHouse()
	}
	return &Session{Tree: tree.Migrate(t)}
}

// Restore rebuilds a session from persisted state.
func Restore(st *State) *Session {
	if st == nil || st.Tree == nil {
		return New(nil)
	}
	s := New(st.Tree)
	if len(st.Undo) > MaxUndo {
		st.Undo = st.Undo[len(st.Undo)-MaxUndo:]
	}
	s.undo = st.Undo
	return s
}

// Snapshot captures the session for persistence.
func (s *Session) Snapshot() *State {
	return &State{Tree: s.Tree, Undo: append([]UndoEntry(nil), s.undo...)}
}

// PushUndo records the current tree under the given label before a
// mutation is applied.
func (s *Session) PushUndo(label string) {
	s.PushSnapshot(s.Tree, label)
}

// PushSnapshot records an explicit pre-mutation tree. Deferred commits
// use it when the snapshot to restore predates the current tree.
func (s *Session) PushSnapshot(t *tree.Node, label string) {
	s.undo = append(s.undo, UndoEntry{Tree: t, Label: label})
	if len(s.undo) > MaxUndo {
		s.undo = s.undo[len(s.undo)-MaxUndo:]
	}
}

// Undo rolls the tree back to the most recent snapshot wholesale and
// returns its label. Undo itself pushes nothing, so it is never
// undoable.
func (s *Session) Undo() (string, bool) {
	if len(s.undo) == 0 {
		return "", false
	}
	last := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.Tree = last.Tree
	return last.Label, true
}

// CanUndo reports whether an undo snapshot is available.
func (s *Session) CanUndo() bool { return len(s.undo) > 0 }

// UndoDepth returns the number of stacked snapshots.
func (s *Session) UndoDepth() int { return len(s.undo) }
