package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoRedo(t *testing.T) {
	h := New[int](0, nil)
	cur := 0
	for i := 1; i <= 3; i++ {
		h.Push(cur)
		cur = i
	}

	prev, ok := h.Undo(cur)
	require.True(t, ok)
	assert.Equal(t, 2, prev)
	cur = prev

	prev, ok = h.Undo(cur)
	require.True(t, ok)
	assert.Equal(t, 1, prev)
	cur = prev

	next, ok := h.Redo(cur)
	require.True(t, ok)
	assert.Equal(t, 2, next)
	cur = next

	// a new change drops the redo side
	h.Push(cur)
	cur = 10
	assert.False(t, h.CanRedo())
	_, ok = h.Redo(cur)
	assert.False(t, ok)
}

func TestCapacityDropsOldest(t *testing.T) {
	h := New[int](2, nil)
	h.Push(1)
	h.Push(2)
	h.Push(3)
	assert.Equal(t, 2, h.Len())

	v, _ := h.Undo(4)
	assert.Equal(t, 3, v)
	v, _ = h.Undo(v)
	assert.Equal(t, 2, v)
	_, ok := h.Undo(v)
	assert.False(t, ok)
}

func TestCloneIsolatesSnapshots(t *testing.T) {
	h := New[[]string](0, func(s []string) []string { return append([]string(nil), s...) })
	cur := []string{"a"}
	h.Push(cur)
	cur[0] = "changed"

	prev, ok := h.Undo(cur)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, prev)
}

func TestTrashTakeLatestByTag(t *testing.T) {
	tr := NewTrash(3)
	tr.Push(FieldPatch{ID: "pricing", Values: map[string]string{"price": "1"}})
	tr.Push(SplicePatch{ID: "inclus", List: "inclus", Strings: []string{"x"}})
	tr.Push(FieldPatch{ID: "pricing", Values: map[string]string{"price": "2"}})

	p, ok := tr.Take("pricing")
	require.True(t, ok)
	assert.Equal(t, FieldPatchKind, p.Kind())
	assert.Equal(t, "2", p.(FieldPatch).Values["price"])
	assert.Equal(t, []string{"pricing", "inclus"}, tr.Tags())

	_, ok = tr.Take("missing")
	assert.False(t, ok)
}

func TestTrashEvictsOldest(t *testing.T) {
	tr := NewTrash(2)
	assert.Nil(t, tr.Push(FieldPatch{ID: "a"}))
	assert.Nil(t, tr.Push(FieldPatch{ID: "b"}))
	evicted := tr.Push(FieldPatch{ID: "c"})
	require.NotNil(t, evicted)
	assert.Equal(t, "a", evicted.Tag())
	assert.Equal(t, []string{"b", "c"}, tr.Tags())
}
