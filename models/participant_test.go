package models

import (
	"testing"

	"github.com/aukilabs/entitygrid/grid"
	"github.com/stretchr/testify/require"
)

func TestParticipantAddObject(t *testing.T) {
	p := Participant{
		ID: 1,
	}

	o := &Object{
		Handle:        grid.Handle{Index: 1, Generation: 1},
		ParticipantID: 1,
	}

	p.AddObject(o)
	require.Equal(t, []grid.Handle{o.Handle}, p.Handles())
}

func TestParticipantRemoveObject(t *testing.T) {
	p := Participant{
		ID: 1,
	}

	o := &Object{
		Handle:        grid.Handle{Index: 1, Generation: 1},
		ParticipantID: 1,
	}

	p.AddObject(o)
	require.Len(t, p.Handles(), 1)

	p.RemoveObject(o)
	require.Empty(t, p.Handles())
}

func TestParticipantIDs(t *testing.T) {
	participants := []*Participant{
		{
			ID: 1,
		},
		{
			ID: 2,
		},
	}

	require.Equal(t, []uint32{1, 2}, ParticipantIDs(participants))
}
