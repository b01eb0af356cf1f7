package playout

import (
	"math/rand"
	"testing"

	"github.com/tsumego/goigo/pkg/board"
)

func TestRandomPolicyReturnsLegalMove(t *testing.T) {
	b := board.NewBoard(5)
	rng := rand.New(rand.NewSource(1))
	policy := RandomPolicy{}

	c := policy.Choose(b, board.Black, rng)
	if c == board.Pass {
		t.Fatal("expected a move on an empty board, got pass")
	}
	if err := b.Play(c); err != nil {
		t.Fatalf("policy returned illegal move: %v", err)
	}
}

func TestMoveOrderPolicyPrefersCapture(t *testing.T) {
	b := board.NewBoard(5)
	// Put a lone White stone in atari at (2,2), liberty only at (2,3).
	b.SetSideToMove(board.White)
	_ = b.Play(b.CoordAt(2, 2))
	b.SetSideToMove(board.Black)
	_ = b.Play(b.CoordAt(1, 2))
	b.SetSideToMove(board.Black)
	_ = b.Play(b.CoordAt(3, 2))
	b.SetSideToMove(board.Black)
	_ = b.Play(b.CoordAt(2, 1))

	b.SetSideToMove(board.Black)
	rng := rand.New(rand.NewSource(1))
	policy := MoveOrderPolicy{}
	c := policy.Choose(b, board.Black, rng)

	if c != b.CoordAt(2, 3) {
		t.Fatalf("expected capturing move at (2,3), got %v", c)
	}
}

func TestUniformPriorSumsToOne(t *testing.T) {
	b := board.NewBoard(3)
	priors := UniformPrior{}.Priors(b, board.Black)

	sum := 0.0
	for _, w := range priors {
		sum += w
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("expected prior weights to sum to ~1, got %v", sum)
	}
}
