package mcts

// SearchLine is one line of a MultiPv report: the move at its root, the
// rest of its principal variation, and the evaluation of that root.
type SearchLine[T MoveLike] struct {
	BestMove T
	Moves    []T
	Eval     float64
	Terminal bool
	Draw     bool
}

// ListenerTreeStats is the snapshot handed to every ListenerFunc.
type ListenerTreeStats[T MoveLike] struct {
	Maxdepth   int
	Cycles     int
	TimeMs     int
	Cps        uint32
	Lines      []SearchLine[T]
	StopReason StopReason
}

// toListenerStats builds a ListenerTreeStats snapshot, including a fresh
// MultiPv evaluation, from the tree's current state.
func toListenerStats[T MoveLike, S NodeStatsLike[S], R GameResult, O GameOperations[T, S, R, O], A StrategyLike[T, S, R, O]](tree *MCTS[T, S, R, O, A]) ListenerTreeStats[T] {
	pv := tree.MultiPv(BestChildMostVisits)
	lines := make([]SearchLine[T], len(pv))
	for i := range pv {
		lines[i] = SearchLine[T]{
			BestMove: pv[i].Root.Move,
			Moves:    pv[i].Pv,
			Eval:     float64(pv[i].Root.Stats.AvgQ()),
			Terminal: pv[i].Terminal,
			Draw:     pv[i].Draw,
		}
	}

	return ListenerTreeStats[T]{
		Lines:      lines,
		Maxdepth:   tree.MaxDepth(),
		Cycles:     tree.Cycles(),
		TimeMs:     int(tree.Limiter.Elapsed()),
		Cps:        tree.Cps(),
		StopReason: tree.Limiter.StopReason(),
	}
}

// ListenerFunc receives a snapshot of the tree's statistics at some
// point during or after a search.
type ListenerFunc[T MoveLike] func(ListenerTreeStats[T])

// StatsListener wires optional callbacks into the search loop. OnCycle
// fires every nCycles root visits; it's comparatively expensive since
// it rebuilds a MultiPv report, so it defaults to off.
type StatsListener[T MoveLike] struct {
	onDepth ListenerFunc[T]
	onCycle ListenerFunc[T]
	onStop  ListenerFunc[T]
	nCycles int
}

// OnDepth attaches a callback fired whenever the search reaches a new
// maximum depth. Called only by the main search thread.
func (listener *StatsListener[T]) OnDepth(onDepth ListenerFunc[T]) *StatsListener[T] {
	listener.onDepth = onDepth
	return listener
}

// OnCycle attaches a callback fired every nCycles root visits. This
// rebuilds a MultiPv report on each call, noticeably slowing the
// search; leave nCycles coarse enough for the intended use (e.g.
// progress reporting) rather than per-iteration debugging.
func (listener *StatsListener[T]) OnCycle(onCycle ListenerFunc[T]) *StatsListener[T] {
	listener.onCycle = onCycle
	return listener
}

// SetCycleInterval sets how many root visits elapse between onCycle
// invocations. Values below 1 are treated as 1.
func (listener *StatsListener[T]) SetCycleInterval(nCycles int) *StatsListener[T] {
	listener.nCycles = max(1, nCycles)
	return listener
}

// OnStop attaches the callback fired once, by the main thread, after
// the search has fully stopped and StopReason is available.
func (listener *StatsListener[T]) OnStop(onStop ListenerFunc[T]) *StatsListener[T] {
	listener.onStop = onStop
	return listener
}
