// Package goengine wires the generic search core in pkg/mcts to the
// concrete Go board in pkg/board and the rollout/prior collaborators in
// pkg/playout, and adds everything the distilled search core treats as
// out of scope: time allocation, tree reuse and pondering, the
// ownership map, and the engine surface a text-protocol front-end (not
// implemented here) would call into.
package goengine

import (
	"math"
	"math/rand"

	"github.com/tsumego/goigo/pkg/board"
	"github.com/tsumego/goigo/pkg/mcts"
	"github.com/tsumego/goigo/pkg/playout"
)

// GoOperations is the GameOperations adapter: Traverse/BackTraverse
// play and undo moves on a private board, ExpandNode enumerates legal
// children (the Prior held here is not consulted), and Rollout hands
// off to a playout.Policy until the scratch game ends.
type GoOperations struct {
	scratch  *board.Board
	rootSide board.Color
	policy   playout.Policy
	prior    playout.Prior
	config   *Config
	owner    *OwnerMap
	arena    *NodeArena
	rand     *rand.Rand
	moves    int
}

// NewGoOperations builds an operations instance scoped to b (not
// copied — callers pass a board already private to this tree/worker).
// owner may be nil when a caller has no use for ownership tallies (the
// transient DeadGroupList tree still wants one; a bench run may not).
// arena is nil unless fast_alloc is enabled, in which case every clone
// of this instance shares the same slab.
func NewGoOperations(b *board.Board, cfg *Config, owner *OwnerMap, arena *NodeArena) *GoOperations {
	return &GoOperations{
		scratch:  b,
		rootSide: b.SideToMove(),
		policy:   cfg.PlayoutPolicy,
		prior:    cfg.Prior,
		config:   cfg,
		owner:    owner,
		arena:    arena,
	}
}

func (ops *GoOperations) SetRand(r *rand.Rand) { ops.rand = r }

func (ops *GoOperations) Reset() {
	ops.rootSide = ops.scratch.SideToMove()
	ops.moves = 0
}

// ExpandNode enumerates legal, non-self-eye moves plus pass, installs
// each as a child, and marks children terminal when they'd end the
// game by double pass. It does not consult the configured Prior: every
// child starts with empty statistics.
func (ops *GoOperations) ExpandNode(parent *mcts.NodeBase[board.Coord, *mcts.NodeStats]) uint32 {
	legal := ops.legalCandidates()

	children, ok := ops.arena.alloc(len(legal))
	if !ok {
		// Arena exhausted: decline to expand and leave Children nil.
		// Selection sees 0 children installed and releases the expansion
		// latch without marking the node expanded, so it stays a leaf and
		// is retried on its next visit.
		return 0
	}
	if children == nil {
		children = make([]mcts.NodeBase[board.Coord, *mcts.NodeStats], len(legal))
	}
	parent.Children = children

	for i, c := range legal {
		terminal := c == board.Pass && ops.scratch.LastWasPass()
		parent.Children[i] = *mcts.NewBaseNode(parent, c, terminal, &mcts.NodeStats{})
	}

	return uint32(len(legal))
}

func (ops *GoOperations) legalCandidates() []board.Coord {
	legal := ops.scratch.LegalMoves()
	out := make([]board.Coord, 0, len(legal))
	color := ops.scratch.SideToMove()
	for _, c := range legal {
		if c != board.Pass && ops.scratch.IsSelfEye(c, color) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (ops *GoOperations) Traverse(c board.Coord) {
	if err := ops.scratch.Play(c); err == nil {
		ops.moves++
	}
}

func (ops *GoOperations) BackTraverse() {
	if ops.moves > 0 {
		ops.scratch.Undo()
		ops.moves--
	}
}

// Rollout plays the scratch position to termination with the configured
// playout policy, scores it by area count plus komi, and reports the
// outcome from the perspective of the side to move at the position it
// started from (the node being scored), undoing every move it played so
// the scratch board is left exactly as it found it.
func (ops *GoOperations) Rollout() mcts.Result {
	played := 0
	maxLen := ops.config.GameLength
	blackStones, whiteStones := 0, 0
	side := ops.scratch.SideToMove()

	for played < maxLen {
		if ops.scratch.PassedTwice() {
			break
		}
		blackStones, whiteStones = countStones(ops.scratch)
		if ops.config.MercyThreshold > 0 {
			diff := blackStones - whiteStones
			if diff < 0 {
				diff = -diff
			}
			if diff >= ops.config.MercyThreshold {
				break
			}
		}

		move := ops.policy.Choose(ops.scratch, ops.scratch.SideToMove(), ops.rand)
		if err := ops.scratch.Play(move); err != nil {
			break
		}
		played++
	}

	result := ops.scoreResult(side)
	if ops.owner != nil {
		ops.owner.Record(ops.scratch)
	}

	for ; played > 0; played-- {
		ops.scratch.Undo()
	}

	return result
}

// scoreResult scores the final scratch position for side and, when
// val_scale is configured, blends in the margin via a logistic curve
// instead of a flat win/loss/draw, so a 40-point win doesn't
// backpropagate the same result as a half-point one.
func (ops *GoOperations) scoreResult(side board.Color) mcts.Result {
	black, white := ops.scratch.AreaScore(ops.config.Komi + ops.config.Dynkomi)

	var sideScore, otherScore float64
	if side == board.Black {
		sideScore, otherScore = black, white
	} else {
		sideScore, otherScore = white, black
	}

	if ops.config.ValScale > 0 {
		margin := sideScore - otherScore - ops.config.ValExtra
		points := ops.config.ValPoints
		if points <= 0 {
			points = 1
		}
		return mcts.Result(1 / (1 + math.Exp(-ops.config.ValScale*margin/points)))
	}

	switch {
	case sideScore > otherScore:
		return 1.0
	case sideScore < otherScore:
		return 0.0
	default:
		return 0.5
	}
}

func countStones(b *board.Board) (black, white int) {
	for row := 0; row < b.Size; row++ {
		for col := 0; col < b.Size; col++ {
			switch b.At(b.CoordAt(row, col)) {
			case board.Black:
				black++
			case board.White:
				white++
			}
		}
	}
	return
}

// Clone returns an operations instance with its own board copy, for an
// independent worker goroutine or root-parallel tree clone.
func (ops *GoOperations) Clone() *GoOperations {
	return &GoOperations{
		scratch:  ops.scratch.Copy(),
		rootSide: ops.rootSide,
		policy:   ops.policy,
		prior:    ops.prior,
		config:   ops.config,
		owner:    ops.owner,
		arena:    ops.arena,
	}
}
