package engine

// History is an immutable undo/redo stack. Every method returns a new
// History and leaves the receiver untouched, so older values stay valid
// snapshots.
type History[T any] struct {
	past    []T
	present T
	future  []T
	limit   int
}

// NewHistory starts a history at present. limit caps the number of undo
// steps kept; 0 keeps all of them.
func NewHistory[T any](present T, limit int) History[T] {
	if limit < 0 {
		limit = 0
	}
	return History[T]{present: present, limit: limit}
}

func (h History[T]) Present() T { return h.present }

func (h History[T]) Past() []T { return append([]T(nil), h.past...) }

func (h History[T]) Future() []T { return append([]T(nil), h.future...) }

func (h History[T]) CanUndo() bool { return len(h.past) > 0 }

func (h History[T]) CanRedo() bool { return len(h.future) > 0 }

// Commit makes next the present, pushes the old present onto past and
// drops the redo stack.
func (h History[T]) Commit(next T) History[T] {
	past := make([]T, 0, len(h.past)+1)
	past = append(past, h.past...)
	past = append(past, h.present)
	if h.limit > 0 && len(past) > h.limit {
		past = past[len(past)-h.limit:]
	}
	return History[T]{past: past, present: next, limit: h.limit}
}

// Undo moves the last past entry into present. No-op when past is empty.
func (h History[T]) Undo() History[T] {
	if len(h.past) == 0 {
		return h
	}
	n := len(h.past)
	future := make([]T, 0, len(h.future)+1)
	future = append(future, h.present)
	future = append(future, h.future...)
	return History[T]{
		past:    append([]T(nil), h.past[:n-1]...),
		present: h.past[n-1],
		future:  future,
		limit:   h.limit,
	}
}

// Redo moves the first future entry into present. No-op when future is empty.
func (h History[T]) Redo() History[T] {
	if len(h.future) == 0 {
		return h
	}
	past := make([]T, 0, len(h.past)+1)
	past = append(past, h.past...)
	past = append(past, h.present)
	return History[T]{
		past:    past,
		present: h.future[0],
		future:  append([]T(nil), h.future[1:]...),
		limit:   h.limit,
	}
}
