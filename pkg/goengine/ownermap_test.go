package goengine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsumego/goigo/pkg/board"
)

func TestOwnerMapUnclearBeforeMinGames(t *testing.T) {
	m := NewOwnerMap(9)
	b := board.NewBoard(9)
	for i := 0; i < GJMinGames-1; i++ {
		m.Record(b)
	}
	require.Equal(t, StatusUnclear, m.StatusAt(0))
}

func TestOwnerMapClassifiesDominantColor(t *testing.T) {
	m := NewOwnerMap(9)
	b := board.NewBoard(9)
	b.SetSideToMove(board.Black)
	require.NoError(t, b.Play(b.CoordAt(0, 0)))

	for i := 0; i < GJMinGames; i++ {
		m.Record(b)
	}

	require.Equal(t, StatusBlack, m.StatusAt(b.CoordAt(0, 0)))
	require.Equal(t, StatusUnclear, m.StatusAt(b.CoordAt(8, 8)), "never occupied, should stay unclear")
}

func TestOwnerMapGroupStatusMajorityVote(t *testing.T) {
	m := NewOwnerMap(9)
	black := board.NewBoard(9)
	pts := []board.Coord{black.CoordAt(1, 1), black.CoordAt(1, 2), black.CoordAt(1, 3)}
	for _, p := range pts {
		black.SetSideToMove(board.Black)
		require.NoError(t, black.Play(p))
	}

	for i := 0; i < GJMinGames; i++ {
		m.Record(black)
	}

	require.Equal(t, StatusBlack, m.GroupStatus(pts))
}

func TestOwnerMapPassIsSafeRequiresFullCoverage(t *testing.T) {
	m := NewOwnerMap(9)
	b := board.NewBoard(9)

	require.False(t, m.PassIsSafe(board.Black), "zero playouts")

	for i := 0; i < GJMinGames; i++ {
		m.Record(b) // everything stays Empty -> never classified Black or White
	}
	require.False(t, m.PassIsSafe(board.Black), "no point owned by either side")
}

func TestOwnerMapReset(t *testing.T) {
	m := NewOwnerMap(9)
	b := board.NewBoard(9)
	b.SetSideToMove(board.Black)
	require.NoError(t, b.Play(b.CoordAt(0, 0)))
	for i := 0; i < GJMinGames; i++ {
		m.Record(b)
	}
	require.NotZero(t, m.Playouts())

	m.Reset()

	require.Zero(t, m.Playouts())
	require.Equal(t, StatusUnclear, m.StatusAt(b.CoordAt(0, 0)))
}
