// Package playout supplies the random rollout and prior collaborators
// the search core treats as opaque: PlayoutPolicy.choose/assess and the
// per-node prior map consulted at expansion. The pattern/gamma-table
// machinery a production policy would use stays out of scope here —
// these are the cheap uniform and move-ordered stand-ins the core needs
// something concrete to run against.
package playout

import (
	"math/rand"

	"github.com/tsumego/goigo/pkg/board"
)

// Policy chooses the next move to play during a rollout.
type Policy interface {
	Choose(b *board.Board, color board.Color, rng *rand.Rand) board.Coord
}

// RandomPolicy samples uniformly among legal, non-self-eye points,
// falling back to pass when none remain.
type RandomPolicy struct{}

func (RandomPolicy) Choose(b *board.Board, color board.Color, rng *rand.Rand) board.Coord {
	candidates := candidateMoves(b, color)
	if len(candidates) == 0 {
		return board.Pass
	}
	return candidates[rng.Intn(len(candidates))]
}

// MoveOrderPolicy scores candidates with a cheap static bonus — one
// point per adjacent enemy chain in atari that the move captures — and
// samples from the highest-scoring tier, falling back to RandomPolicy's
// uniform choice when nothing scores above zero. Extending the player's
// own chain earns no bonus.
type MoveOrderPolicy struct{}

func (MoveOrderPolicy) Choose(b *board.Board, color board.Color, rng *rand.Rand) board.Coord {
	candidates := candidateMoves(b, color)
	if len(candidates) == 0 {
		return board.Pass
	}

	best := -1
	var bestMoves []board.Coord
	for _, c := range candidates {
		score := moveBonus(b, c, color)
		if score > best {
			best = score
			bestMoves = bestMoves[:0]
			bestMoves = append(bestMoves, c)
		} else if score == best {
			bestMoves = append(bestMoves, c)
		}
	}

	return bestMoves[rng.Intn(len(bestMoves))]
}

func candidateMoves(b *board.Board, color board.Color) []board.Coord {
	legal := b.LegalMoves()
	candidates := make([]board.Coord, 0, len(legal))
	for _, c := range legal {
		if c == board.Pass {
			continue
		}
		if b.IsSelfEye(c, color) {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// moveBonus rewards moves that capture an adjacent enemy chain already
// in atari (one liberty) over quiet moves; everything else scores 0.
func moveBonus(b *board.Board, c board.Coord, color board.Color) int {
	enemy := color.Opposite()
	bonus := 0
	row, col := int(c)/b.Size, int(c)%b.Size
	for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		n := b.CoordAt(row+d[0], col+d[1])
		if n == board.OffBoard || b.At(n) != enemy {
			continue
		}
		if b.LibertiesOf(n) == 1 {
			bonus++
		}
	}
	return bonus
}

// Prior supplies an expansion-time prior over a node's candidate moves;
// the core never depends on how priors are computed. GoOperations holds
// one from its Config, but its ExpandNode does not call it.
type Prior interface {
	Priors(b *board.Board, color board.Color) map[board.Coord]float64
}

// UniformPrior hands every legal non-pass move an equal weight, leaving
// room for a learned Prior to be substituted without the core changing.
type UniformPrior struct{}

func (UniformPrior) Priors(b *board.Board, color board.Color) map[board.Coord]float64 {
	candidates := candidateMoves(b, color)
	if len(candidates) == 0 {
		return nil
	}
	weight := 1.0 / float64(len(candidates))
	priors := make(map[board.Coord]float64, len(candidates))
	for _, c := range candidates {
		priors[c] = weight
	}
	return priors
}
