package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dashboard/internal/engine"
)

func TestHistory_UndoRedoLaws(t *testing.T) {
	h := engine.NewHistory("a", 0).Commit("b").Commit("c")

	assert.Equal(t, "c", h.Present())
	assert.Equal(t, []string{"a", "b"}, h.Past())

	undone := h.Undo()
	assert.Equal(t, "b", undone.Present())
	assert.Equal(t, []string{"c"}, undone.Future())

	assert.Equal(t, h.Present(), undone.Redo().Present(), "redo after undo restores present")
	assert.Equal(t, "c", h.Present(), "older values are untouched")
}

func TestHistory_CommitClearsFuture(t *testing.T) {
	h := engine.NewHistory(1, 0).Commit(2).Undo()
	assert.True(t, h.CanRedo())

	h = h.Commit(3)

	assert.False(t, h.CanRedo())
	assert.Equal(t, []int{1}, h.Past())
	assert.Equal(t, 3, h.Present())
}

func TestHistory_EmptyStacksAreNoops(t *testing.T) {
	h := engine.NewHistory("only", 0)
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
	assert.Equal(t, "only", h.Undo().Present())
	assert.Equal(t, "only", h.Redo().Present())
}

func TestHistory_Limit(t *testing.T) {
	h := engine.NewHistory(0, 2)
	for i := 1; i <= 5; i++ {
		h = h.Commit(i)
	}
	assert.Equal(t, []int{3, 4}, h.Past())
}

func TestHistory_BranchesDoNotShareStorage(t *testing.T) {
	base := engine.NewHistory(0, 0).Commit(1)
	left := base.Commit(2)
	right := base.Commit(3)

	assert.Equal(t, []int{0, 1}, left.Past())
	assert.Equal(t, []int{0, 1}, right.Past())
	assert.Equal(t, 2, left.Undo().Redo().Present())
}
