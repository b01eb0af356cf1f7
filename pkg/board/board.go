// Package board is a reference implementation of the opaque Board
// collaborator the search core is written against: a square Go grid
// with capture, simple-ko, and one-point-eye detection, plus a plain
// undo stack so a scratch copy can be replayed and rolled back many
// times per second inside a playout without reallocating.
package board

import "fmt"

// Color is one of the four states a point can hold.
type Color int8

const (
	Empty Color = iota
	Black
	White
	Off // off-board sentinel, returned for out-of-range neighbors
)

func (c Color) Opposite() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	default:
		return c
	}
}

func (c Color) String() string {
	switch c {
	case Black:
		return "B"
	case White:
		return "W"
	case Off:
		return "#"
	default:
		return "."
	}
}

// Coord is a board point, or one of the two move sentinels.
type Coord int32

const (
	Pass   Coord = -1
	Resign Coord = -2
)

// OffBoard is the Coord returned for a point outside the grid; At
// reports Off for it.
const OffBoard Coord = -3

// move is one undo record: what changed so Undo can reverse it exactly.
type move struct {
	coord      Coord
	color      Color
	captured   []Coord
	prevKo     Coord
	prevToMove Color
	wasPass    bool
}

// Board is a size*size square Go grid.
type Board struct {
	Size      int
	cells     []Color
	toMove    Color
	ko        Coord
	passCount int
	moveCount int
	moves     []move
}

// NewBoard builds an empty board of the given side length, Black to move.
func NewBoard(size int) *Board {
	return &Board{
		Size:   size,
		cells:  make([]Color, size*size),
		toMove: Black,
		ko:     Pass,
	}
}

func (b *Board) at(c Coord) Color {
	if c < 0 || int(c) >= len(b.cells) {
		return Off
	}
	return b.cells[c]
}

// SideToMove is the color whose turn it is.
func (b *Board) SideToMove() Color { return b.toMove }

// SetSideToMove overrides whose turn it is, for constructing test
// positions and for handicap/rengo setups where the next mover isn't
// simply the opposite of the last move played.
func (b *Board) SetSideToMove(c Color) { b.toMove = c }

// MoveCount is the number of plays (passes included) applied so far.
func (b *Board) MoveCount() int { return b.moveCount }

// LastWasPass reports whether the most recent play was a pass.
func (b *Board) LastWasPass() bool {
	return len(b.moves) > 0 && b.moves[len(b.moves)-1].wasPass
}

// PassedTwice reports whether the game just ended by two consecutive passes.
func (b *Board) PassedTwice() bool { return b.passCount >= 2 }

func (b *Board) rowCol(c Coord) (int, int) { return int(c) / b.Size, int(c) % b.Size }

func (b *Board) coord(row, col int) Coord {
	if row < 0 || row >= b.Size || col < 0 || col >= b.Size {
		return OffBoard
	}
	return Coord(row*b.Size + col)
}

func (b *Board) neighbors(c Coord) [4]Coord {
	row, col := b.rowCol(c)
	return [4]Coord{
		b.coord(row-1, col),
		b.coord(row+1, col),
		b.coord(row, col-1),
		b.coord(row, col+1),
	}
}

// group returns every point in the chain containing c, and whether the
// chain has at least one liberty.
func (b *Board) group(c Coord) ([]Coord, bool) {
	color := b.at(c)
	seen := map[Coord]bool{c: true}
	stack := []Coord{c}
	chain := []Coord{c}
	hasLiberty := false

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, n := range b.neighbors(cur) {
			if n == OffBoard {
				continue
			}
			switch b.at(n) {
			case Empty:
				hasLiberty = true
			case color:
				if !seen[n] {
					seen[n] = true
					chain = append(chain, n)
					stack = append(stack, n)
				}
			}
		}
	}

	return chain, hasLiberty
}

// IsLegal reports whether c is a legal move for the side to move,
// ignoring superko (only simple ko is tracked, per the search core's
// scope).
func (b *Board) IsLegal(c Coord) bool {
	if c == Pass {
		return true
	}
	if c == Resign {
		return false
	}
	if b.at(c) != Empty {
		return false
	}
	if c == b.ko {
		return false
	}

	// Simulate: does this placement leave a liberty, either directly
	// or by capturing an adjacent enemy chain that would otherwise
	// suffocate?
	for _, n := range b.neighbors(c) {
		if n == OffBoard {
			continue
		}
		if b.at(n) == Empty {
			return true
		}
	}

	color := b.toMove
	b.cells[c] = color
	for _, n := range b.neighbors(c) {
		if n == OffBoard {
			continue
		}
		if b.at(n) == color.Opposite() {
			if _, alive := b.group(n); !alive {
				b.cells[c] = Empty
				return true // capturing move
			}
		}
	}

	// Suicide check: would our own new chain have a liberty?
	_, alive := b.group(c)
	b.cells[c] = Empty
	return alive
}

// LegalMoves enumerates every currently legal point, pass always included.
func (b *Board) LegalMoves() []Coord {
	moves := make([]Coord, 0, len(b.cells)+1)
	for i := range b.cells {
		c := Coord(i)
		if b.cells[c] == Empty && b.IsLegal(c) {
			moves = append(moves, c)
		}
	}
	moves = append(moves, Pass)
	return moves
}

// IsSelfEye reports whether c is an eye of color: every orthogonal
// neighbor is color, and at least 3 of 4 diagonal neighbors are color
// (fewer, scaled down, at the edge).
func (b *Board) IsSelfEye(c Coord, color Color) bool {
	if b.at(c) != Empty {
		return false
	}
	for _, n := range b.neighbors(c) {
		if n == OffBoard {
			continue
		}
		if b.at(n) != color {
			return false
		}
	}

	row, col := b.rowCol(c)
	diagonals := [4]Coord{
		b.coord(row-1, col-1),
		b.coord(row-1, col+1),
		b.coord(row+1, col-1),
		b.coord(row+1, col+1),
	}

	total, friendly := 0, 0
	for _, d := range diagonals {
		if d == OffBoard {
			continue
		}
		total++
		if b.at(d) == color {
			friendly++
		}
	}

	required := 3
	if total < 4 {
		required = total // every on-board diagonal must be friendly near the edge
	}
	return friendly >= required
}

// Play applies c for the side to move, updating capture and ko state.
// Returns an error only if c is not currently legal.
func (b *Board) Play(c Coord) error {
	if c != Pass && !b.IsLegal(c) {
		return fmt.Errorf("board: illegal move %d for %s", c, b.toMove)
	}

	rec := move{coord: c, color: b.toMove, prevKo: b.ko, prevToMove: b.toMove}

	if c == Pass {
		rec.wasPass = true
		b.passCount++
		b.ko = Pass
		b.toMove = b.toMove.Opposite()
		b.moveCount++
		b.moves = append(b.moves, rec)
		return nil
	}

	b.passCount = 0
	b.cells[c] = b.toMove
	enemy := b.toMove.Opposite()

	var captured []Coord
	for _, n := range b.neighbors(c) {
		if n == OffBoard || b.at(n) != enemy {
			continue
		}
		chain, alive := b.group(n)
		if alive {
			continue
		}
		for _, p := range chain {
			if b.cells[p] == enemy {
				b.cells[p] = Empty
				captured = append(captured, p)
			}
		}
	}
	rec.captured = captured

	// Simple-ko: exactly one stone captured, and it would immediately
	// recapture c if replayed.
	b.ko = Pass
	if len(captured) == 1 {
		if chain, _ := b.group(c); len(chain) == 1 && b.LibertiesOf(c) == 1 {
			b.ko = captured[0]
		}
	}

	b.toMove = enemy
	b.moveCount++
	b.moves = append(b.moves, rec)
	return nil
}

// Undo reverses the most recent Play.
func (b *Board) Undo() {
	if len(b.moves) == 0 {
		return
	}
	rec := b.moves[len(b.moves)-1]
	b.moves = b.moves[:len(b.moves)-1]
	b.moveCount--
	b.toMove = rec.prevToMove
	b.ko = rec.prevKo
	b.passCount = 0
	for i := len(b.moves) - 1; i >= 0 && b.moves[i].wasPass; i-- {
		b.passCount++
	}

	if rec.wasPass {
		return
	}

	b.cells[rec.coord] = Empty
	for _, p := range rec.captured {
		b.cells[p] = rec.color.Opposite()
	}
}

// Copy returns an independent deep copy, for per-playout scratch boards
// and pondering.
func (b *Board) Copy() *Board {
	clone := &Board{
		Size:      b.Size,
		cells:     make([]Color, len(b.cells)),
		toMove:    b.toMove,
		ko:        b.ko,
		passCount: b.passCount,
		moveCount: b.moveCount,
		moves:     append([]move(nil), b.moves...),
	}
	copy(clone.cells, b.cells)
	return clone
}

// At returns the color at c (Off if c is out of range).
func (b *Board) At(c Coord) Color { return b.at(c) }

// CoordAt converts a (row, col) pair to a Coord, returning OffBoard if
// either index is out of range.
func (b *Board) CoordAt(row, col int) Coord { return b.coord(row, col) }

// LibertiesOf counts the distinct empty points bordering the chain
// containing c.
func (b *Board) LibertiesOf(c Coord) int {
	color := b.at(c)
	if color != Black && color != White {
		return 0
	}
	seen := map[Coord]bool{c: true}
	libs := map[Coord]bool{}
	stack := []Coord{c}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, n := range b.neighbors(cur) {
			if n == OffBoard {
				continue
			}
			switch b.at(n) {
			case Empty:
				libs[n] = true
			case color:
				if !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
		}
	}

	return len(libs)
}

// AreaScore computes simple area scoring: stones plus territory fully
// surrounded by one color, adjusted by komi (added to White's total).
// Empty regions bordering both colors (dame) score nobody.
func (b *Board) AreaScore(komi float64) (black, white float64) {
	visited := make([]bool, len(b.cells))

	for i := range b.cells {
		c := Coord(i)
		switch b.cells[c] {
		case Black:
			black++
		case White:
			white++
		case Empty:
			if visited[c] {
				continue
			}
			region, borders := b.emptyRegion(c, visited)
			if borders == Black {
				black += float64(len(region))
			} else if borders == White {
				white += float64(len(region))
			}
		}
	}

	white += komi
	return black, white
}

// emptyRegion floods the empty region containing c, returning its
// points and the single color bordering it (Empty if it borders both
// colors, i.e. it's dame).
func (b *Board) emptyRegion(c Coord, visited []bool) ([]Coord, Color) {
	stack := []Coord{c}
	visited[c] = true
	region := []Coord{c}
	border := Empty
	mixed := false

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, n := range b.neighbors(cur) {
			if n == OffBoard {
				continue
			}
			switch b.at(n) {
			case Empty:
				if !visited[n] {
					visited[n] = true
					region = append(region, n)
					stack = append(stack, n)
				}
			case Black, White:
				nc := b.at(n)
				if border == Empty {
					border = nc
				} else if border != nc {
					mixed = true
				}
			}
		}
	}

	if mixed {
		return region, Empty
	}
	return region, border
}
