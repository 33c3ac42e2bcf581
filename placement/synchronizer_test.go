package placement

import (
	"testing"

	"github.com/aukilabs/entitygrid/grid"
	"github.com/aukilabs/entitygrid/models"
	"github.com/stretchr/testify/require"
)

func TestSynchronizerSync(t *testing.T) {
	t.Run("tracked objects are inserted", func(t *testing.T) {
		var table models.ObjectTable
		g := grid.New()
		s := NewSynchronizer(Settings{CellSize: 2})

		a := table.Spawn(1, grid.NewPosition(0, 0), false)
		b := table.Spawn(1, grid.NewPosition(1, 0), false)

		s.Track(a, grid.Up)
		s.Track(b, grid.Right)
		require.Equal(t, 2, s.Pending())
		require.Zero(t, g.Len())

		placements := s.Sync(g)
		require.Len(t, placements, 2)
		require.Zero(t, s.Pending())
		require.False(t, placements[0].Updated())
		require.Equal(t, a, placements[0].Object)
		require.Equal(t, b, placements[1].Object)

		o, ok := g.Get(grid.NewPosition(1, 0))
		require.True(t, ok)
		require.Equal(t, grid.NewOccupant(b.Handle, grid.Right), o)

		require.Equal(t, grid.Right, b.Rotation())
		require.Equal(t, float32(2), b.Pose().PX)
	})

	t.Run("occupied cell is updated in place", func(t *testing.T) {
		var table models.ObjectTable
		g := grid.New()
		s := NewSynchronizer(DefaultSettings())

		a := table.Spawn(1, grid.NewPosition(2, 2), false)
		s.Track(a, grid.Up)
		s.Sync(g)

		before, _ := g.GetMut(grid.NewPosition(2, 2))

		b := table.Spawn(2, grid.NewPosition(2, 2), false)
		s.Track(b, grid.Left)
		placements := s.Sync(g)

		require.Len(t, placements, 1)
		require.True(t, placements[0].Updated())
		require.Equal(t, grid.NewOccupant(a.Handle, grid.Up), *placements[0].Replaced)
		require.Equal(t, 1, g.Len())

		after, _ := g.GetMut(grid.NewPosition(2, 2))
		require.Same(t, before, after)
		require.Equal(t, grid.NewOccupant(b.Handle, grid.Left), *after)
	})

	t.Run("new rotation is used for the pose of an update", func(t *testing.T) {
		var table models.ObjectTable
		g := grid.New()
		s := NewSynchronizer(DefaultSettings())

		a := table.Spawn(1, grid.NewPosition(0, 0), false)
		s.Place(g, a, grid.Up)

		b := table.Spawn(1, grid.NewPosition(0, 0), false)
		p := s.Place(g, b, grid.Down)
		require.True(t, p.Updated())
		require.Equal(t, DefaultSettings().WorldPose(b.Position, grid.Down), b.Pose())
	})

	t.Run("later placements in a pass win", func(t *testing.T) {
		var table models.ObjectTable
		g := grid.New()
		s := NewSynchronizer(DefaultSettings())

		a := table.Spawn(1, grid.NewPosition(0, 0), false)
		b := table.Spawn(1, grid.NewPosition(0, 0), false)
		s.Track(a, grid.Up)
		s.Track(b, grid.Right)

		placements := s.Sync(g)
		require.Len(t, placements, 2)
		require.False(t, placements[0].Updated())
		require.True(t, placements[1].Updated())

		o, _ := g.Get(grid.NewPosition(0, 0))
		require.Equal(t, b.Handle, o.Handle)
	})

	t.Run("despawned objects are skipped", func(t *testing.T) {
		var table models.ObjectTable
		g := grid.New()
		s := NewSynchronizer(DefaultSettings())

		a := table.Spawn(1, grid.NewPosition(0, 0), false)
		s.Track(a, grid.Up)
		table.Despawn(a.Handle)

		require.Empty(t, s.Sync(g))
		require.Zero(t, g.Len())
	})

	t.Run("nothing to sync", func(t *testing.T) {
		s := NewSynchronizer(DefaultSettings())
		require.Nil(t, s.Sync(grid.New()))
	})
}
