package mirror

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rec struct {
	ID   int
	Name string
}

func byID(id int) func(rec) bool {
	return func(r rec) bool { return r.ID == id }
}

func TestList_ReplaceCopiesInput(t *testing.T) {
	l := New[rec]()
	in := []rec{{1, "a"}, {2, "b"}}
	l.Replace(in)
	in[0].Name = "changed"

	assert.Equal(t, []rec{{1, "a"}, {2, "b"}}, l.Snapshot())
}

func TestList_RemoveAllKeepsOrder(t *testing.T) {
	l := New[rec]()
	l.Replace([]rec{{1, "a"}, {2, "b"}, {3, "c"}, {2, "dup"}, {4, "d"}})

	removed := l.RemoveAll(byID(2))

	assert.Equal(t, 2, removed)
	assert.Equal(t, []rec{{1, "a"}, {3, "c"}, {4, "d"}}, l.Snapshot())
}

func TestList_ReplaceFirst(t *testing.T) {
	l := New[rec]()
	l.Replace([]rec{{1, "a"}, {2, "b"}})

	assert.True(t, l.ReplaceFirst(byID(2), rec{2, "B"}))
	assert.False(t, l.ReplaceFirst(byID(9), rec{9, "x"}))
	assert.Equal(t, []rec{{1, "a"}, {2, "B"}}, l.Snapshot())
}

func TestList_FindAndClear(t *testing.T) {
	l := New[rec]()
	l.Append(rec{7, "g"})
	l.AppendAll([]rec{{8, "h"}, {9, "i"}})

	got, ok := l.Find(byID(8))
	require.True(t, ok)
	assert.Equal(t, "h", got.Name)

	l.Clear()
	assert.Equal(t, 0, l.Len())
	_, ok = l.Find(byID(8))
	assert.False(t, ok)
}

func TestList_SnapshotIsDetached(t *testing.T) {
	l := New[rec]()
	l.Append(rec{1, "a"})
	snap := l.Snapshot()
	snap[0].Name = "mutated"

	got, _ := l.Find(byID(1))
	assert.Equal(t, "a", got.Name)
}

func TestList_ConcurrentAppend(t *testing.T) {
	l := New[rec]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Append(rec{ID: i})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, l.Len())
}
