package goengine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tsumego/goigo/pkg/board"
)

func smallConfig() *Config {
	cfg := DefaultConfig()
	cfg.ThreadModel = ThreadModelTree
	cfg.GameLength = 40
	return cfg
}

func gamesInfo(n float64) TimeInfo {
	return TimeInfo{Period: PeriodMove, Dim: DimensionGames, Budget: n}
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Threads = 0
	if _, err := NewEngine(5, cfg); err == nil {
		t.Fatal("expected error for zero threads")
	}
}

func TestEngineGenmoveReturnsLegalMove(t *testing.T) {
	eng, err := NewEngine(5, smallConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	b := board.NewBoard(5)

	move, err := eng.Genmove(b, gamesInfo(50), board.Black)
	if err != nil {
		t.Fatalf("Genmove: %v", err)
	}
	if move != board.Pass && move != board.Resign && !b.IsLegal(move) {
		t.Fatalf("Genmove returned illegal move %v", move)
	}
}

func TestEngineNotifyPlayPromotesTree(t *testing.T) {
	eng, err := NewEngine(5, smallConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	b := board.NewBoard(5)

	move, err := eng.Genmove(b, gamesInfo(50), board.Black)
	if err != nil {
		t.Fatalf("Genmove: %v", err)
	}
	if move == board.Resign {
		t.Skip("engine resigned immediately, nothing to promote")
	}
	if move != board.Pass {
		if err := b.Play(move); err != nil {
			t.Fatalf("replaying genmove's own move: %v", err)
		}
	} else {
		_ = b.Play(board.Pass)
	}

	if err := eng.NotifyPlay(b, move); err != nil {
		t.Fatalf("NotifyPlay: %v", err)
	}
	if eng.tree == nil {
		t.Fatal("expected tree to survive NotifyPlay")
	}
}

func TestEngineNotifyPlayResignDropsTree(t *testing.T) {
	eng, err := NewEngine(5, smallConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	b := board.NewBoard(5)
	if _, err := eng.Genmove(b, gamesInfo(30), board.Black); err != nil {
		t.Fatalf("Genmove: %v", err)
	}

	if err := eng.NotifyPlay(b, board.Resign); err != nil {
		t.Fatalf("NotifyPlay(resign): %v", err)
	}
	if eng.tree != nil {
		t.Fatal("expected tree to be dropped after a resignation")
	}
}

func TestEngineNotifyPlayRejectsNonAlternatingPlay(t *testing.T) {
	eng, err := NewEngine(5, smallConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	b := board.NewBoard(5)

	first := b.CoordAt(0, 0)
	if err := b.Play(first); err != nil {
		t.Fatalf("playing %v: %v", first, err)
	}
	if err := eng.NotifyPlay(b, first); err != nil {
		t.Fatalf("NotifyPlay(first): %v", err)
	}

	// Board.SideToMove hasn't changed since: report another point as if
	// black had moved twice in a row.
	second := b.CoordAt(0, 1)
	err = eng.NotifyPlay(b, second)
	if err == nil {
		t.Fatal("expected a Non-alternating FatalError, got nil")
	}
	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("expected a *FatalError, got %T: %v", err, err)
	}
	if !strings.Contains(fatal.Error(), "Non-alternating") {
		t.Fatalf("FatalError message %q doesn't mention Non-alternating", fatal.Error())
	}
}

func TestEngineDeadGroupListIsTransient(t *testing.T) {
	eng, err := NewEngine(5, smallConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	b := board.NewBoard(5)
	group := []board.Coord{b.CoordAt(0, 0), b.CoordAt(0, 1)}

	statuses := eng.DeadGroupList(b, [][]board.Coord{group})
	if len(statuses) != 1 {
		t.Fatalf("got %d statuses, want 1", len(statuses))
	}
	if eng.tree != nil {
		t.Fatal("DeadGroupList should discard its transient tree")
	}
}

func TestEnginePrinthookEmitsOneGlyphPerPoint(t *testing.T) {
	eng, err := NewEngine(3, smallConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	var sb strings.Builder
	eng.Printhook(&sb)

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for _, line := range lines {
		if len(line) != 3 {
			t.Fatalf("line %q has length %d, want 3", line, len(line))
		}
	}
}

func TestEngineChatWinrateFormatsRootScore(t *testing.T) {
	eng, err := NewEngine(5, smallConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if got := eng.Chat("winrate"); got != "" {
		t.Fatalf("Chat before any search = %q, want empty", got)
	}

	b := board.NewBoard(5)
	if _, err := eng.Genmove(b, gamesInfo(30), board.Black); err != nil {
		t.Fatalf("Genmove: %v", err)
	}
	if got := eng.Chat("winrate"); got == "" {
		t.Fatal("Chat(\"winrate\") empty after a search ran")
	}
	if got := eng.Chat("unknown"); got != "" {
		t.Fatalf("Chat for an unknown command = %q, want empty", got)
	}
}

func TestEngineDoneClearsState(t *testing.T) {
	eng, err := NewEngine(5, smallConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	b := board.NewBoard(5)
	if _, err := eng.Genmove(b, gamesInfo(30), board.Black); err != nil {
		t.Fatalf("Genmove: %v", err)
	}

	eng.Done()

	if eng.tree != nil || eng.ownermap != nil {
		t.Fatal("Done should clear both the tree and the ownership map")
	}
}

func TestEngineGenmoveWalltimeDoesNotHang(t *testing.T) {
	eng, err := NewEngine(5, smallConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	b := board.NewBoard(5)
	info := TimeInfo{
		Period:      PeriodMove,
		Dim:         DimensionWalltime,
		Byoyomi:     true,
		Recommended: 20 * time.Millisecond,
		MaxTime:     time.Second,
	}

	done := make(chan struct{})
	go func() {
		_, _ = eng.Genmove(b, info, board.Black)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Genmove did not return within 5s of a 20ms walltime budget")
	}
}
