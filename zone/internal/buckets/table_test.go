package buckets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func members(t *Table[string], tag int) []string {
	var out []string
	t.Visit(tag, func(h Handle, data *string) bool {
		out = append(out, *data)
		return true
	})
	return out
}

func TestInsertLinksAtTail(t *testing.T) {
	table := NewTable[string](4)

	require.Equal(t, NoHandle, table.Head(1))
	require.Equal(t, NoHandle, table.Tail(1))

	a := table.Insert(1, "a")
	require.Equal(t, a, table.Head(1))
	require.Equal(t, a, table.Tail(1))
	require.Equal(t, a, table.Next(a))

	b := table.Insert(1, "b")
	c := table.Insert(1, "c")

	require.Equal(t, a, table.Head(1))
	require.Equal(t, c, table.Tail(1))
	require.Equal(t, b, table.Next(a))
	require.Equal(t, a, table.Next(c))
	require.Equal(t, 3, table.Len(1))
	require.Equal(t, []string{"a", "b", "c"}, members(table, 1))
	require.NoError(t, table.Validate())
}

func TestRemoveHeadAdvances(t *testing.T) {
	table := NewTable[string](4)
	a := table.Insert(2, "a")
	b := table.Insert(2, "b")
	table.Insert(2, "c")

	require.Equal(t, "a", table.Remove(a))
	require.Equal(t, b, table.Head(2))
	require.Equal(t, []string{"b", "c"}, members(table, 2))
	require.NoError(t, table.Validate())
}

func TestRemoveSoleMemberEmptiesBucket(t *testing.T) {
	table := NewTable[string](4)
	a := table.Insert(3, "a")

	table.Remove(a)
	require.Equal(t, NoHandle, table.Head(3))
	require.Equal(t, 0, table.Len(3))
	require.Equal(t, 0, table.Live())
	require.NoError(t, table.Validate())
}

func TestRemoveMiddle(t *testing.T) {
	table := NewTable[string](4)
	table.Insert(1, "a")
	b := table.Insert(1, "b")
	table.Insert(1, "c")

	table.Remove(b)
	require.Equal(t, []string{"a", "c"}, members(table, 1))
	require.NoError(t, table.Validate())
}

func TestHandlesAreReused(t *testing.T) {
	table := NewTable[string](4)
	a := table.Insert(1, "a")
	table.Insert(1, "b")
	table.Remove(a)

	c := table.Insert(2, "c")
	require.Equal(t, a, c)
	require.Equal(t, "c", *table.Data(c))
	require.Equal(t, 2, table.Tag(c))
	require.Equal(t, 2, table.Live())
	require.NoError(t, table.Validate())
}

func TestRetagMovesToTail(t *testing.T) {
	table := NewTable[string](4)
	a := table.Insert(1, "a")
	table.Insert(1, "b")
	table.Insert(2, "x")

	table.Retag(a, 2)
	require.Equal(t, 2, table.Tag(a))
	require.Equal(t, []string{"b"}, members(table, 1))
	require.Equal(t, []string{"x", "a"}, members(table, 2))
	require.Equal(t, a, table.Tail(2))
	require.NoError(t, table.Validate())

	table.Retag(a, 2)
	require.Equal(t, []string{"x", "a"}, members(table, 2))
}

func TestDetach(t *testing.T) {
	table := NewTable[string](4)
	a := table.Insert(3, "a")
	table.Insert(3, "b")

	table.Detach(a)
	require.True(t, table.Detached(a))
	require.Equal(t, -1, table.Tag(a))
	require.Equal(t, []string{"b"}, members(table, 3))
	require.Equal(t, 2, table.Live())
	require.NoError(t, table.Validate())

	require.Equal(t, "a", table.Remove(a))
	require.Equal(t, 1, table.Live())
	require.NoError(t, table.Validate())
}

func TestCircularUnderChurn(t *testing.T) {
	table := NewTable[string](2)
	var live []Handle

	for i := 0; i < 200; i++ {
		live = append(live, table.Insert(1, "x"))
		if i%3 == 0 {
			victim := live[len(live)/2]
			live = append(live[:len(live)/2], live[len(live)/2+1:]...)
			table.Remove(victim)
		}

		require.Equal(t, len(live), table.Len(1))
		if len(live) == 0 {
			require.Equal(t, NoHandle, table.Head(1))
			continue
		}

		steps := 0
		head := table.Head(1)
		for h := head; ; {
			steps++
			h = table.Next(h)
			if h == head {
				break
			}
		}
		require.Equal(t, len(live), steps)
	}

	require.NoError(t, table.Validate())
}

func TestValidateCatchesBrokenLinks(t *testing.T) {
	table := NewTable[string](2)
	a := table.Insert(1, "a")
	table.Insert(1, "b")

	table.records[a].next = a
	require.Error(t, table.Validate())
}

func TestInvalidTagPanics(t *testing.T) {
	table := NewTable[string](2)
	require.Panics(t, func() {
		table.Insert(2, "a")
	})
	require.Panics(t, func() {
		table.Head(-1)
	})
}

func TestDeadHandlePanics(t *testing.T) {
	table := NewTable[string](2)
	a := table.Insert(1, "a")
	table.Remove(a)

	require.Panics(t, func() {
		table.Remove(a)
	})
}
