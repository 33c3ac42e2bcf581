package grid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGrid(t *testing.T) {
	g := New()

	p := NewPosition(0, 0)
	h := Handle{Index: 1, Generation: 1}

	g.Insert(p, h, Up)

	o, ok := g.Get(p)
	require.True(t, ok)
	require.Equal(t, NewOccupant(h, Up), o)
	require.True(t, g.Contains(p))
	require.Equal(t, 1, g.Len())

	removed, ok := g.Remove(p)
	require.True(t, ok)
	require.Equal(t, NewOccupant(h, Up), removed)

	_, ok = g.Get(p)
	require.False(t, ok)
	require.False(t, g.Contains(p))
	require.Zero(t, g.Len())
}

func TestGridZeroValue(t *testing.T) {
	var g Grid

	_, ok := g.Get(NewPosition(1, 1))
	require.False(t, ok)
	_, ok = g.Remove(NewPosition(1, 1))
	require.False(t, ok)

	g.Insert(NewPosition(1, 1), Handle{Index: 3}, Down)
	require.Equal(t, 1, g.Len())
}

func TestGridInsert(t *testing.T) {
	t.Run("occupant is replaced", func(t *testing.T) {
		g := New()
		p := NewPosition(2, -3)

		g.Insert(p, Handle{Index: 1}, Up)
		g.Insert(p, Handle{Index: 2}, Left)

		o, ok := g.Get(p)
		require.True(t, ok)
		require.Equal(t, NewOccupant(Handle{Index: 2}, Left), o)
		require.Equal(t, 1, g.Len())
	})

	t.Run("same occupant at many positions", func(t *testing.T) {
		g := New()
		h := Handle{Index: 1}

		g.Insert(NewPosition(0, 0), h, Up)
		g.Insert(NewPosition(1, 1), h, Up)
		require.Equal(t, 2, g.Len())
	})
}

func TestGridRemove(t *testing.T) {
	t.Run("empty cell", func(t *testing.T) {
		g := New()

		o, ok := g.Remove(NewPosition(5, 5))
		require.False(t, ok)
		require.Zero(t, o)
	})
}

func TestGridGetMut(t *testing.T) {
	g := New()
	p := NewPosition(0, 0)
	h := Handle{Index: 1}

	g.Insert(p, h, Up)

	o, ok := g.GetMut(p)
	require.True(t, ok)
	o.Rotation = Right

	got, _ := g.Get(p)
	require.Equal(t, NewOccupant(h, Right), got)

	_, ok = g.GetMut(NewPosition(1, 0))
	require.False(t, ok)
}

func TestGridContainsMatchesGet(t *testing.T) {
	g := New()
	g.Insert(NewPosition(0, 0), Handle{Index: 1}, Up)
	g.Insert(NewPosition(-4, 9), Handle{Index: 2}, Down)

	count := 0
	for x := int32(-10); x <= 10; x++ {
		for y := int32(-10); y <= 10; y++ {
			p := NewPosition(x, y)
			_, ok := g.Get(p)
			require.Equal(t, ok, g.Contains(p))
			if ok {
				count++
			}
		}
	}
	require.Equal(t, g.Len(), count)
}

func TestGridAll(t *testing.T) {
	g := New()
	g.Insert(NewPosition(0, 0), Handle{Index: 1}, Up)
	g.Insert(NewPosition(1, 0), Handle{Index: 2}, Right)
	g.Insert(NewPosition(0, 1), Handle{Index: 3}, Down)

	t.Run("every cell is visited", func(t *testing.T) {
		cells := make(map[Position]Occupant)
		for p, o := range g.All() {
			cells[p] = o
		}
		require.Len(t, cells, 3)
		require.Equal(t, NewOccupant(Handle{Index: 2}, Right), cells[NewPosition(1, 0)])
	})

	t.Run("iteration is restartable", func(t *testing.T) {
		seq := g.All()

		count := 0
		for range seq {
			count++
		}
		for range seq {
			count++
		}
		require.Equal(t, 6, count)
	})

	t.Run("iteration stops early", func(t *testing.T) {
		count := 0
		for range g.All() {
			count++
			break
		}
		require.Equal(t, 1, count)
	})

	t.Run("occupants are updated in place", func(t *testing.T) {
		for _, o := range g.AllMut() {
			o.Rotation = o.Rotation.Opposite()
		}

		o, _ := g.Get(NewPosition(1, 0))
		require.Equal(t, Left, o.Rotation)
	})
}

func TestGridFill(t *testing.T) {
	h := Handle{Index: 7}

	t.Run("radius 1 fills the 4 cells around the origin", func(t *testing.T) {
		g := New()
		g.Fill(h, Right, 1)

		require.Equal(t, 4, g.Len())
		for _, p := range []Position{{-1, -1}, {-1, 0}, {0, -1}, {0, 0}} {
			o, ok := g.Get(p)
			require.True(t, ok, p.String())
			require.Equal(t, NewOccupant(h, Right), o)
		}
	})

	t.Run("radius 3 behaves like radius 1", func(t *testing.T) {
		g := New()
		g.Fill(h, Up, 3)
		require.Equal(t, 4, g.Len())
	})

	t.Run("even radius fills nothing", func(t *testing.T) {
		g := New()
		g.Fill(h, Up, 2)
		require.Zero(t, g.Len())
	})

	t.Run("negative radius fills nothing", func(t *testing.T) {
		g := New()
		g.Fill(h, Up, -1)
		require.Zero(t, g.Len())
	})
}

func TestGridFillSquare(t *testing.T) {
	g := New()
	g.FillSquare(Handle{Index: 1}, Left, 2)

	require.Equal(t, 16, g.Len())
	require.True(t, g.Contains(NewPosition(-2, -2)))
	require.True(t, g.Contains(NewPosition(1, 1)))
	require.False(t, g.Contains(NewPosition(2, 2)))
}

func TestGridClear(t *testing.T) {
	g := New()
	g.FillSquare(Handle{Index: 1}, Up, 3)
	require.NotZero(t, g.Len())

	g.Clear()
	require.Zero(t, g.Len())
}

func TestGridDebugInfo(t *testing.T) {
	t.Run("empty grid", func(t *testing.T) {
		info := New().DebugInfo()
		require.Zero(t, info.OccupiedCount)
		require.Equal(t, Position{}, info.Min)
		require.Equal(t, Position{}, info.Max)
	})

	t.Run("bounding box", func(t *testing.T) {
		g := New()
		g.Insert(NewPosition(-3, 2), Handle{Index: 1}, Up)
		g.Insert(NewPosition(5, -1), Handle{Index: 2}, Up)
		g.Insert(NewPosition(0, 7), Handle{Index: 3}, Left)

		info := g.DebugInfo()
		require.Equal(t, 3, info.OccupiedCount)
		require.Equal(t, NewPosition(-3, -1), info.Min)
		require.Equal(t, NewPosition(5, 7), info.Max)
		require.Equal(t, uint32(2), info.Rotations[Up])
		require.Equal(t, uint32(1), info.Rotations[Left])
	})
}
