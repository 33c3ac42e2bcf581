package grid

import (
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

// seeded returns a grid where each cell around the origin is occupied by a
// distinct handle. Cardinal cells face the direction they are in and ordinal
// cells face the opposite of their north/south component.
func seeded(t *testing.T) *Grid {
	t.Helper()

	g := New()
	g.Insert(NewPosition(0, 1), Handle{Index: 1}, Up)
	g.Insert(NewPosition(1, 0), Handle{Index: 2}, Right)
	g.Insert(NewPosition(0, -1), Handle{Index: 3}, Down)
	g.Insert(NewPosition(-1, 0), Handle{Index: 4}, Left)

	g.Insert(NewPosition(-1, 1), Handle{Index: 5}, Up)
	g.Insert(NewPosition(1, 1), Handle{Index: 6}, Right)
	g.Insert(NewPosition(1, -1), Handle{Index: 7}, Down)
	g.Insert(NewPosition(-1, -1), Handle{Index: 8}, Left)
	return g
}

func redacted(x, y int32, r Rotation) *Neighbor {
	n := NewNeighbor(NewPosition(x, y), NewOccupant(NoHandle, r))
	return &n
}

func TestCardinalNeighbors(t *testing.T) {
	t.Run("single east neighbor", func(t *testing.T) {
		g := New()
		a := Handle{Index: 1}
		b := Handle{Index: 2}

		g.Insert(NewPosition(0, 0), a, Up)
		g.Insert(NewPosition(1, 0), b, Right)

		n := g.CardinalNeighbors(NewPosition(0, 0))
		require.NotNil(t, n.East)
		require.Equal(t, NewNeighbor(NewPosition(1, 0), NewOccupant(b, Right)), *n.East)
		require.Nil(t, n.North)
		require.Nil(t, n.South)
		require.Nil(t, n.West)
		require.Equal(t, 1, n.Len())
	})

	t.Run("all neighbors", func(t *testing.T) {
		g := seeded(t)

		n := g.CardinalNeighbors(NewPosition(0, 0)).WithEmptyHandles()
		require.Equal(t, CardinalNeighbors{
			North: redacted(0, 1, Up),
			East:  redacted(1, 0, Right),
			South: redacted(0, -1, Down),
			West:  redacted(-1, 0, Left),
		}, n)
		require.Equal(t, 4, n.Len())
	})

	t.Run("handles are kept", func(t *testing.T) {
		g := seeded(t)

		n := g.CardinalNeighbors(NewPosition(0, 0))
		require.Equal(t, Handle{Index: 1}, n.North.Occupant.Handle)
		require.Equal(t, Handle{Index: 4}, n.Get(West).Occupant.Handle)
		require.Nil(t, n.Get(NorthWest))
	})

	t.Run("empty grid", func(t *testing.T) {
		require.Equal(t, CardinalNeighbors{}, New().CardinalNeighbors(NewPosition(3, 3)))
	})
}

func TestOrdinalNeighbors(t *testing.T) {
	t.Run("all neighbors", func(t *testing.T) {
		g := seeded(t)

		n := g.OrdinalNeighbors(NewPosition(0, 0)).WithEmptyHandles()
		require.Equal(t, OrdinalNeighbors{
			NorthWest: redacted(-1, 1, Up),
			NorthEast: redacted(1, 1, Right),
			SouthEast: redacted(1, -1, Down),
			SouthWest: redacted(-1, -1, Left),
		}, n)
		require.Equal(t, 4, n.Len())
	})

	t.Run("cardinal cells are ignored", func(t *testing.T) {
		g := New()
		g.Insert(NewPosition(0, 1), Handle{Index: 1}, Up)
		g.Insert(NewPosition(1, 0), Handle{Index: 2}, Up)

		require.Zero(t, g.OrdinalNeighbors(NewPosition(0, 0)).Len())
	})

	t.Run("relative to the query position", func(t *testing.T) {
		g := seeded(t)

		n := g.OrdinalNeighbors(NewPosition(0, 1))
		require.Nil(t, n.NorthWest)
		require.Nil(t, n.NorthEast)
		require.Equal(t, NewPosition(1, 0), n.SouthEast.Position)
		require.Equal(t, NewPosition(-1, 0), n.SouthWest.Position)
	})
}

func TestNeighbor(t *testing.T) {
	g := seeded(t)

	n, ok := g.Neighbor(NewPosition(0, 0), SouthEast)
	require.True(t, ok)
	require.Equal(t, NewPosition(1, -1), n.Position)

	_, ok = g.Neighbor(NewPosition(5, 5), North)
	require.False(t, ok)
}

func TestSquareRadiusNeighbors(t *testing.T) {
	expected := []Neighbor{
		*redacted(0, 1, Up),
		*redacted(1, 0, Right),
		*redacted(0, -1, Down),
		*redacted(-1, 0, Left),
		*redacted(-1, 1, Up),
		*redacted(1, 1, Right),
		*redacted(1, -1, Down),
		*redacted(-1, -1, Left),
	}

	t.Run("radius 1", func(t *testing.T) {
		n := seeded(t).SquareRadiusNeighbors(NewPosition(0, 0), 1)
		require.Equal(t, 8, n.Len())
		require.ElementsMatch(t, expected, n.WithEmptyHandles().Neighbors)
	})

	t.Run("radius 2", func(t *testing.T) {
		n := seeded(t).SquareRadiusNeighbors(NewPosition(0, 0), 2)
		require.ElementsMatch(t, expected, n.WithEmptyHandles().Neighbors)
	})

	t.Run("center is included", func(t *testing.T) {
		g := seeded(t)
		g.Insert(NewPosition(0, 0), Handle{Index: 9}, Down)

		n := g.SquareRadiusNeighbors(NewPosition(0, 0), 1)
		require.Equal(t, 9, n.Len())
		require.Contains(t, n.WithEmptyHandles().Neighbors, *redacted(0, 0, Down))
	})

	t.Run("radius 0 only returns the center", func(t *testing.T) {
		g := seeded(t)
		require.Zero(t, g.SquareRadiusNeighbors(NewPosition(0, 0), 0).Len())
		require.Equal(t, 1, g.SquareRadiusNeighbors(NewPosition(1, 1), 0).Len())
	})

	t.Run("negative radius", func(t *testing.T) {
		require.Zero(t, seeded(t).SquareRadiusNeighbors(NewPosition(0, 0), -1).Len())
	})

	t.Run("far away", func(t *testing.T) {
		require.Zero(t, seeded(t).SquareRadiusNeighbors(NewPosition(10, 10), 3).Len())
	})
}

func TestRoundedRadiusNeighbors(t *testing.T) {
	t.Run("corners are excluded", func(t *testing.T) {
		n := seeded(t).RoundedRadiusNeighbors(NewPosition(0, 0), 1)
		require.ElementsMatch(t, []Neighbor{
			*redacted(0, 1, Up),
			*redacted(1, 0, Right),
			*redacted(0, -1, Down),
			*redacted(-1, 0, Left),
		}, n.WithEmptyHandles().Neighbors)
	})

	t.Run("corners are included with a larger radius", func(t *testing.T) {
		n := seeded(t).RoundedRadiusNeighbors(NewPosition(0, 0), 2)
		require.Equal(t, 8, n.Len())
	})

	t.Run("disc boundary", func(t *testing.T) {
		g := New()
		g.Insert(NewPosition(3, 4), Handle{Index: 1}, Up)
		g.Insert(NewPosition(4, 4), Handle{Index: 2}, Up)

		n := g.RoundedRadiusNeighbors(NewPosition(0, 0), 5)
		require.Equal(t, []Neighbor{
			NewNeighbor(NewPosition(3, 4), NewOccupant(Handle{Index: 1}, Up)),
		}, n.Neighbors)
	})
}

func TestWithEmptyHandles(t *testing.T) {
	g := seeded(t)
	p := NewPosition(0, 0)

	t.Run("cardinal is idempotent", func(t *testing.T) {
		once := g.CardinalNeighbors(p).WithEmptyHandles()
		require.Equal(t, once, once.WithEmptyHandles())
	})

	t.Run("ordinal is idempotent", func(t *testing.T) {
		once := g.OrdinalNeighbors(p).WithEmptyHandles()
		require.Equal(t, once, once.WithEmptyHandles())
	})

	t.Run("radius is idempotent", func(t *testing.T) {
		once := g.SquareRadiusNeighbors(p, 1).WithEmptyHandles()
		require.Equal(t, once, once.WithEmptyHandles())
	})

	t.Run("empty radius result", func(t *testing.T) {
		require.Equal(t, RadiusNeighbors{}, RadiusNeighbors{}.WithEmptyHandles())

		n := g.SquareRadiusNeighbors(NewPosition(100, 100), 2).WithEmptyHandles()
		require.NotNil(t, n.Neighbors)
		require.Empty(t, n.Neighbors)
	})

	t.Run("source is left untouched", func(t *testing.T) {
		n := g.CardinalNeighbors(p)
		_ = n.WithEmptyHandles()
		require.False(t, n.North.Occupant.Handle.IsNone())
	})

	t.Run("handles are normalized", func(t *testing.T) {
		for _, n := range g.SquareRadiusNeighbors(p, 1).WithEmptyHandles().Neighbors {
			require.Equal(t, NoHandle, n.Occupant.Handle)
		}
	})
}

func TestDirection(t *testing.T) {
	for _, d := range CardinalDirections() {
		require.True(t, d.IsCardinal())
	}
	for _, d := range OrdinalDirections() {
		require.False(t, d.IsCardinal())
	}

	require.Equal(t, NewOffset(-1, 1), NorthWest.Offset())
	require.Equal(t, Offset{}, Direction(99).Offset())
	require.Equal(t, "south_east", SouthEast.String())
}

func TestRadiusNeighborsEmptyEncoding(t *testing.T) {
	results := map[string]RadiusNeighbors{
		"empty grid":        New().SquareRadiusNeighbors(NewPosition(0, 0), 3),
		"empty area":        seeded(t).RoundedRadiusNeighbors(NewPosition(50, -50), 3),
		"negative radius":   seeded(t).SquareRadiusNeighbors(NewPosition(0, 0), -1),
		"redacted no match": seeded(t).SquareRadiusNeighbors(NewPosition(50, 50), 1).WithEmptyHandles(),
	}

	for name, n := range results {
		t.Run(name, func(t *testing.T) {
			b, err := json.Marshal(n)
			require.NoError(t, err)
			require.JSONEq(t, `{"neighbors":[]}`, string(b))
		})
	}
}
