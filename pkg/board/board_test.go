package board

import "testing"

func TestPlayAndUndoRestoresState(t *testing.T) {
	b := NewBoard(9)
	c := b.coord(4, 4)

	if err := b.Play(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.At(c) != Black {
		t.Fatalf("expected Black at center, got %v", b.At(c))
	}
	if b.SideToMove() != White {
		t.Fatalf("expected White to move, got %v", b.SideToMove())
	}

	b.Undo()
	if b.At(c) != Empty {
		t.Fatalf("expected Empty after undo, got %v", b.At(c))
	}
	if b.SideToMove() != Black {
		t.Fatalf("expected Black to move again after undo, got %v", b.SideToMove())
	}
}

func TestCaptureRemovesDeadChain(t *testing.T) {
	b := NewBoard(5)
	// Surround a single White stone at (2,2) with Black.
	plays := []struct {
		row, col int
		color    Color
	}{
		{2, 2, White},
		{1, 2, Black},
		{3, 2, Black},
		{2, 1, Black},
	}
	for _, p := range plays {
		b.SetSideToMove(p.color)
		if err := b.Play(b.coord(p.row, p.col)); err != nil {
			t.Fatalf("setup play failed: %v", err)
		}
	}

	b.toMove = Black
	if err := b.Play(b.coord(2, 3)); err != nil {
		t.Fatalf("capturing move failed: %v", err)
	}

	if b.At(b.coord(2, 2)) != Empty {
		t.Fatalf("expected captured stone removed, got %v", b.At(b.coord(2, 2)))
	}
}

func TestPassTwiceEndsGame(t *testing.T) {
	b := NewBoard(9)
	if err := b.Play(Pass); err != nil {
		t.Fatal(err)
	}
	if err := b.Play(Pass); err != nil {
		t.Fatal(err)
	}
	if !b.PassedTwice() {
		t.Fatal("expected PassedTwice after two consecutive passes")
	}
}

func TestSimpleKoForbidsImmediateRecapture(t *testing.T) {
	b := NewBoard(5)
	// Classic ko shape capturing a single stone at (2,2).
	setup := []struct {
		row, col int
		color    Color
	}{
		{1, 2, Black},
		{2, 1, Black},
		{3, 2, Black},
		{2, 2, White},
		{1, 3, White},
		{3, 3, White},
		{2, 4, White},
	}
	for _, p := range setup {
		b.SetSideToMove(p.color)
		if err := b.Play(b.coord(p.row, p.col)); err != nil {
			t.Fatalf("setup play failed: %v", err)
		}
	}

	b.toMove = Black
	if err := b.Play(b.coord(2, 3)); err != nil {
		t.Fatalf("expected capture of isolated stone to succeed: %v", err)
	}
	if b.At(b.coord(2, 2)) != Empty {
		t.Fatalf("expected the ko point to be empty after capture")
	}

	b.toMove = White
	if b.IsLegal(b.coord(2, 2)) {
		t.Fatal("expected immediate recapture at the ko point to be illegal")
	}
}

func TestAreaScoreCountsStonesAndTerritory(t *testing.T) {
	b := NewBoard(3)
	b.toMove = Black
	_ = b.Play(b.coord(0, 0))
	b.toMove = White
	_ = b.Play(b.coord(2, 2))

	black, white := b.AreaScore(0)
	if black != 1 || white != 1 {
		t.Fatalf("expected 1 stone each with no settled territory, got black=%v white=%v", black, white)
	}
}
