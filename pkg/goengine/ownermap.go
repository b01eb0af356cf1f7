package goengine

import (
	"sync/atomic"

	"github.com/tsumego/goigo/pkg/board"
)

// Status is a point's or group's classification once enough playouts
// have accumulated to judge it.
type Status int

const (
	StatusUnclear Status = iota
	StatusDame
	StatusBlack
	StatusWhite
)

// OwnerMap aggregates, per point, how many completed playouts ended
// with that point held by each color. It outlives any single tree —
// the engine keeps one across a whole genmove call, including the
// transient tree built for DeadGroupList.
type OwnerMap struct {
	size     int
	black    []atomic.Int32
	white    []atomic.Int32
	playouts atomic.Int32
}

func NewOwnerMap(size int) *OwnerMap {
	return &OwnerMap{
		size:  size,
		black: make([]atomic.Int32, size*size),
		white: make([]atomic.Int32, size*size),
	}
}

// Reset clears every counter in place, so a tree's GoOperations
// instances (which hold a pointer to this map) keep tallying into the
// same map across a fresh search at a new position.
func (m *OwnerMap) Reset() {
	for i := range m.black {
		m.black[i].Store(0)
		m.white[i].Store(0)
	}
	m.playouts.Store(0)
}

// Record tallies one completed playout's final board.
func (m *OwnerMap) Record(b *board.Board) {
	for i := 0; i < m.size*m.size; i++ {
		switch b.At(board.Coord(i)) {
		case board.Black:
			m.black[i].Add(1)
		case board.White:
			m.white[i].Add(1)
		}
	}
	m.playouts.Add(1)
}

// Playouts is the total number of playouts recorded.
func (m *OwnerMap) Playouts() int32 { return m.playouts.Load() }

// StatusAt classifies a single point once at least GJMinGames playouts
// have been recorded; before that it's always Unclear.
func (m *OwnerMap) StatusAt(c board.Coord) Status {
	total := m.playouts.Load()
	if total < GJMinGames {
		return StatusUnclear
	}

	black := float64(m.black[c].Load())
	white := float64(m.white[c].Load())

	if black/float64(total) > GJThreshold {
		return StatusBlack
	}
	if white/float64(total) > GJThreshold {
		return StatusWhite
	}
	if (black+white)/float64(total) > GJThreshold {
		return StatusDame
	}
	return StatusUnclear
}

// GroupStatus classifies an entire chain by majority vote of its
// points' individual statuses.
func (m *OwnerMap) GroupStatus(points []board.Coord) Status {
	counts := map[Status]int{}
	for _, p := range points {
		counts[m.StatusAt(p)]++
	}

	best, bestCount := StatusUnclear, -1
	for status, count := range counts {
		if count > bestCount {
			best, bestCount = status, count
		}
	}
	return best
}

// PassIsSafe reports whether passing would not concede: every point on
// the board is either judged Dame or matches the side's own color, so
// there's nothing left worth contesting.
func (m *OwnerMap) PassIsSafe(side board.Color) bool {
	if m.playouts.Load() < GJMinGames {
		return false
	}
	own := StatusBlack
	if side == board.White {
		own = StatusWhite
	}

	for i := 0; i < m.size*m.size; i++ {
		status := m.StatusAt(board.Coord(i))
		if status == StatusUnclear {
			return false
		}
		if status != StatusDame && status != own {
			return false
		}
	}
	return true
}
