package goengine

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/klog/v2"

	"github.com/tsumego/goigo/pkg/board"
	"github.com/tsumego/goigo/pkg/mcts"
)

// Tree is the concrete search tree this engine drives: UCB1 selection
// over Go moves, plain (non-RAVE) node statistics.
type Tree = mcts.MCTS[board.Coord, *mcts.NodeStats, mcts.Result, *GoOperations, *mcts.UCB1[board.Coord, *mcts.NodeStats, mcts.Result, *GoOperations]]

func newTree(b *board.Board, cfg *Config, owner *OwnerMap) *Tree {
	strategy := mcts.NewUCB1[board.Coord, *mcts.NodeStats, mcts.Result, *GoOperations](mcts.ExplorationParam)
	var arena *NodeArena
	if cfg.FastAlloc {
		arena = NewNodeArena(cfg.MaxTreeBytes)
	}
	ops := NewGoOperations(b, cfg, owner, arena)
	tree := mcts.NewMTCS[board.Coord, *mcts.NodeStats, mcts.Result, *GoOperations](
		strategy, ops, cfg.ThreadModel.toMultithreadPolicy(), &mcts.NodeStats{},
	)
	tree.SetLimits(mcts.DefaultLimits().
		SetThreads(cfg.Threads).
		SetMbSize(int(cfg.MaxTreeBytes >> 20)).
		SetExpandVisits(cfg.ExpandVisits))

	listener := mcts.StatsListener[board.Coord]{}
	listener.SetCycleInterval(progressCycleInterval).OnCycle(logProgress)
	tree.SetListener(listener)

	return tree
}

// progressCycleInterval is how many root visits elapse between the
// progress lines runSearch's poll loop relies on logProgress for.
const progressCycleInterval = 2000

// logProgress renders one status line from a tree snapshot: depth
// reached, playouts, nodes/sec, and the current best line with its
// evaluation. It's the stand-in for a protocol front-end's periodic
// "info" line, driven by the same MultiPv machinery that front end
// would use.
func logProgress(stats mcts.ListenerTreeStats[board.Coord]) {
	if len(stats.Lines) == 0 {
		klog.V(3).Infof("search progress: depth=%d cycles=%d cps=%d (no lines yet)",
			stats.Maxdepth, stats.Cycles, stats.Cps)
		return
	}
	best := stats.Lines[0]
	klog.V(3).Infof("search progress: depth=%d cycles=%d cps=%d eval=%.3f pv=%v",
		stats.Maxdepth, stats.Cycles, stats.Cps, best.Eval, best.Moves)
}

var metricsOnce sync.Once
var (
	searchCycles     prometheus.Counter
	searchCollisions prometheus.Counter
	treeSizeNodes    prometheus.Gauge
	genmoveDuration  prometheus.Histogram
)

func registerMetrics() {
	metricsOnce.Do(func() {
		searchCycles = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "goigo_search_cycles_total", Help: "Total MCTS playout cycles run.",
		})
		searchCollisions = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "goigo_search_collisions_total", Help: "Total expansion-latch collisions observed.",
		})
		treeSizeNodes = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "goigo_tree_size_nodes", Help: "Node count of the live search tree.",
		})
		genmoveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "goigo_genmove_duration_seconds", Help: "Wall-clock duration of Genmove calls.",
		})
		prometheus.MustRegister(searchCycles, searchCollisions, treeSizeNodes, genmoveDuration)
	})
}

// Engine is the external surface the (out of scope) protocol front-end
// calls into: one tree, one ownership map, optional background
// pondering, all guarded by a single mutex since only one Genmove or
// NotifyPlay is ever in flight at a time.
type Engine struct {
	mu        sync.Mutex
	cfg       *Config
	tree      *Tree
	ownermap  *OwnerMap
	boardSize int
	ponderCtx *ponderHandle
	warnings  warnings
	lastMover board.Color
}

type ponderHandle struct {
	cancel func()
	done   chan struct{}
}

// NewEngine validates cfg and constructs an engine with no tree yet;
// the first NotifyPlay or Genmove builds one.
func NewEngine(boardSize int, cfg *Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	registerMetrics()
	if cfg.ForceSeed != 0 {
		seed := cfg.ForceSeed
		mcts.SetSeedGeneratorFn(func() int64 { return seed })
		klog.V(2).Infof("goigo: forced rollout seed %d", seed)
	}
	return &Engine{
		cfg:       cfg,
		boardSize: boardSize,
		ownermap:  NewOwnerMap(boardSize),
	}, nil
}

func (e *Engine) ensureTree(b *board.Board) {
	if e.tree == nil {
		e.ownermap = NewOwnerMap(e.boardSize)
		e.tree = newTree(b.Copy(), e.cfg, e.ownermap)
	}
}

// NotifyPlay is called for every move played by either side, after b has
// already applied it. It stops any running ponder, rejects non-alternating
// play outright, then promotes the tree to the played position (a no-op
// for the move Genmove just chose and promoted) or drops it on mismatch,
// so the next Genmove builds a fresh one.
func (e *Engine) NotifyPlay(b *board.Board, move board.Coord) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopPonderLocked()

	if move == board.Resign {
		e.lastMover = board.Empty
		e.tree = nil
		return nil
	}

	mover := b.SideToMove().Opposite()
	if e.lastMover != board.Empty && mover == e.lastMover {
		return NewFatalError(fmt.Sprintf("Non-alternating play: %s moved twice in a row", mover), nil)
	}
	e.lastMover = mover

	if e.tree == nil {
		e.ensureTree(b)
		return nil
	}

	// Genmove already promoted the tree past our own move: the tree's
	// board has caught up with b and its root is this move.
	if e.tree.Ops().scratch.MoveCount() == b.MoveCount() && e.tree.Root.Move == move {
		return nil
	}

	if !e.tree.MakeMove(move) {
		e.warnings.add("promote failed for move %v, dropping tree", move)
		klog.Warningf("goigo: promote failed for move %v, dropping tree", move)
		e.tree = nil
	}

	return nil
}

func (e *Engine) stopPonderLocked() {
	if e.ponderCtx != nil {
		e.ponderCtx.cancel()
		<-e.ponderCtx.done
		e.ponderCtx = nil
	}
}

// Genmove is the central entry: runs (or resumes) a search under the
// stop conditions derived from info, then finalizes a move per §4.9.
func (e *Engine) Genmove(b *board.Board, info TimeInfo, color board.Color) (board.Coord, error) {
	start := time.Now()
	defer func() { genmoveDuration.Observe(time.Since(start).Seconds()) }()

	id := uuid.New().String()
	klog.V(2).Infof("[%s] genmove color=%v", id, color)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopPonderLocked()
	e.ensureTree(b)
	e.ownermap.Reset()

	stop := Allocate(info, time.Now())
	e.runSearch(stop, id)

	best := e.tree.BestChild(e.tree.Root, mcts.BestChildMostVisits)
	if best == nil {
		klog.V(2).Infof("[%s] no children after search, returning pass", id)
		return board.Pass, nil
	}

	coord := best.Move
	if best.Stats.AvgQ() < mcts.Result(e.cfg.ResignRatio) &&
		best.Stats.N() > GJMinGames && coord != board.Pass {
		klog.V(2).Infof("[%s] resigning, winrate %.3f after %d playouts", id, best.Stats.AvgQ(), best.Stats.N())
		return board.Resign, nil
	}

	if b.LastWasPass() && e.ownermap.PassIsSafe(color) {
		coord = board.Pass
	}

	e.tree.MakeMove(coord)
	treeSizeNodes.Set(float64(e.tree.Size()))

	if e.cfg.Pondering && coord != board.Pass {
		e.startPonderLocked()
	}

	return coord, nil
}

// searchPollInterval is the busy-wait period the controller loop in
// runSearch polls the tree at.
const searchPollInterval = 100 * time.Millisecond

// Early-win thresholds: a move can be chosen before its soft time/game
// budget is spent if it already looks decisive enough that more search
// is unlikely to change the answer.
const (
	earlyWinMinPlayouts   int32 = 2000
	earlyWinShortPlayouts int32 = 500
	earlyWinShortValue    mcts.Result = 0.95
)

// runSearch arms the worker pool's hard backstop at stop.Worst, then
// polls every searchPollInterval to apply the softer stop conditions:
// an early-win break once the current best move looks decisive, and a
// desired-budget stop that's only honored once the most-visited child
// and the best-winrate child agree on the winner (so a move that's
// merely popular but not yet clearly best doesn't end the search early).
func (e *Engine) runSearch(stop StopCondition, id string) {
	limits := e.tree.Limits()
	limits.SetCycles(mcts.DefaultCyclesLimit)
	limits.SetMovetime(mcts.DefaultMovetimeLimit)
	if stop.ByGames {
		limits.SetCycles(uint32(stop.Worst))
	} else {
		remaining := time.Until(time.Unix(0, int64(stop.Worst)))
		if remaining < 0 {
			remaining = 0
			klog.Warningf("[%s] stop deadline already in the past by the time search started", id)
		}
		limits.SetMovetime(int(remaining.Milliseconds()))
	}

	e.tree.SearchMultiThreaded()
	e.pollSearch(stop, id)
	e.tree.Synchronize()

	searchCycles.Add(float64(e.tree.Cycles()))
	searchCollisions.Add(float64(e.tree.CollisionCount()))
}

func (e *Engine) pollSearch(stop StopCondition, id string) {
	ticker := time.NewTicker(searchPollInterval)
	defer ticker.Stop()

	memoryNoticeGiven := false

	for {
		if !e.tree.Limiter.Expand() && !memoryNoticeGiven {
			klog.Warningf("[%s] tree memory exhausted, expansion stopped, existing nodes keep accumulating stats", id)
			memoryNoticeGiven = true
		}

		if e.hardStopReached(stop) {
			break
		}

		if best := e.tree.BestChild(e.tree.Root, mcts.BestChildMostVisits); best != nil {
			playouts, value := best.Stats.N(), best.Stats.AvgQ()

			if (playouts >= earlyWinMinPlayouts && value >= mcts.Result(e.cfg.LossThreshold)) ||
				(playouts >= earlyWinShortPlayouts && value >= earlyWinShortValue) {
				klog.V(2).Infof("[%s] early win break, playouts=%d value=%.3f", id, playouts, value)
				break
			}

			if e.desiredStopReached(stop) {
				winner := e.tree.BestChild(e.tree.Root, mcts.BestChildWinRate)
				if winner == nil || best.Move == winner.Move {
					break
				}
			}
		}

		<-ticker.C
	}

	e.tree.Stop()
}

func (e *Engine) hardStopReached(stop StopCondition) bool {
	if stop.ByGames {
		return float64(e.tree.Cycles()) >= stop.Worst
	}
	return float64(time.Now().UnixNano()) >= stop.Worst
}

func (e *Engine) desiredStopReached(stop StopCondition) bool {
	if stop.ByGames {
		return float64(e.tree.Cycles()) >= stop.Desired
	}
	return float64(time.Now().UnixNano()) >= stop.Desired
}

// startPonderLocked resumes background search on the tree already
// promoted to the position after our own move, so it keeps growing
// while the opponent thinks. NotifyPlay (on their reply) or the next
// Genmove stops it before touching the tree again.
func (e *Engine) startPonderLocked() {
	done := make(chan struct{})
	stopped := make(chan struct{})
	e.ponderCtx = &ponderHandle{
		cancel: func() { close(stopped) },
		done:   done,
	}

	e.tree.Limits().SetInfinite(true)
	e.tree.SearchMultiThreaded()

	go func() {
		defer close(done)
		<-stopped
		// cancel is only called by stopPonderLocked, whose caller holds
		// e.mu and waits on done, so the tree is not touched concurrently.
		if e.tree != nil {
			e.tree.Stop()
			e.tree.Synchronize()
		}
	}()
}

// Chat answers a small set of introspection queries by formatting tree
// statistics: "winrate" for the root evaluation, "bestmove" for the
// engine's current top choice, and "pv" for its principal variation.
func (e *Engine) Chat(cmd string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tree == nil {
		return ""
	}
	switch cmd {
	case "winrate":
		return fmt.Sprintf("%.3f", e.tree.RootScore())
	case "bestmove":
		return fmt.Sprint(e.tree.BestMove())
	case "pv":
		moves, _, _ := e.tree.Pv(e.tree.Root, mcts.BestChildMostVisits, false)
		return fmt.Sprint(moves)
	default:
		return ""
	}
}

// DeadGroupList builds a transient tree (if none is live), runs exactly
// GJMinGames playouts, reports classification for every group, then
// discards the transient tree so the next Genmove starts clean.
func (e *Engine) DeadGroupList(b *board.Board, groups [][]board.Coord) []Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	transient := e.tree == nil
	if transient {
		e.ensureTree(b)
		limits := e.tree.Limits()
		limits.SetCycles(GJMinGames)
		limits.SetMovetime(mcts.DefaultMovetimeLimit)
		e.tree.SearchMultiThreaded()
		e.tree.Synchronize()
	}

	statuses := make([]Status, len(groups))
	for i, g := range groups {
		statuses[i] = e.ownermap.GroupStatus(g)
	}

	if transient {
		e.tree = nil
	}
	return statuses
}

// Cycles is the number of playouts the live tree's most recent search
// ran, or 0 with none built.
func (e *Engine) Cycles() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tree == nil {
		return 0
	}
	return e.tree.Cycles()
}

// TreeSize is the live tree's node count, or 0 with none built.
func (e *Engine) TreeSize() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tree == nil {
		return 0
	}
	return e.tree.Size()
}

// Done tears the engine down: stops pondering, drops the tree and map.
func (e *Engine) Done() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopPonderLocked()
	e.tree = nil
	e.ownermap = nil
}

// Printhook emits one status glyph per board point, left to right, top
// to bottom: 'X' black, 'O' white, ':' dame, ',' unclear.
func (e *Engine) Printhook(w io.Writer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ownermap == nil {
		return
	}
	for i := 0; i < e.boardSize*e.boardSize; i++ {
		glyph := byte(',')
		switch e.ownermap.StatusAt(board.Coord(i)) {
		case StatusBlack:
			glyph = 'X'
		case StatusWhite:
			glyph = 'O'
		case StatusDame:
			glyph = ':'
		}
		_, _ = w.Write([]byte{glyph})
		if (i+1)%e.boardSize == 0 {
			_, _ = w.Write([]byte{'\n'})
		}
	}
}
