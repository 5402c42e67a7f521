// Package history holds the undo/redo stack shared by the proposal editor and
// the design overlay, and the bounded trash used for deleted sections.
package history

// History is an undo/redo stack of snapshots of T. Callers push the value
// they are about to replace; Undo and Redo swap it with the current one.
type History[T any] struct {
	clone    func(T) T
	capacity int
	past     []T
	future   []T
}

// New returns a history. capacity <= 0 means unbounded.
func New[T any](capacity int, clone func(T) T) *History[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &History[T]{clone: clone, capacity: capacity}
}

// Push records prev as the state before a change and clears the redo side.
func (h *History[T]) Push(prev T) {
	h.past = append(h.past, h.clone(prev))
	if h.capacity > 0 && len(h.past) > h.capacity {
		h.past = h.past[len(h.past)-h.capacity:]
	}
	h.future = h.future[:0]
}

// Undo returns the previous state, storing cur for Redo.
func (h *History[T]) Undo(cur T) (T, bool) {
	if len(h.past) == 0 {
		var zero T
		return zero, false
	}
	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, h.clone(cur))
	return prev, true
}

// Redo re-applies the last undone state, storing cur for Undo.
func (h *History[T]) Redo(cur T) (T, bool) {
	if len(h.future) == 0 {
		var zero T
		return zero, false
	}
	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, h.clone(cur))
	return next, true
}

func (h *History[T]) CanUndo() bool { return len(h.past) > 0 }
func (h *History[T]) CanRedo() bool { return len(h.future) > 0 }

// Len returns the number of undoable steps.
func (h *History[T]) Len() int { return len(h.past) }

func (h *History[T]) Reset() {
	h.past = nil
	h.future = nil
}
