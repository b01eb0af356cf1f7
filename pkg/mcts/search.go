package mcts

import (
	"math/rand"
	"runtime"
	"sync/atomic"
)

// Synchronize blocks until a running SearchMultiThreaded call has fully
// stopped: every worker has exited its loop and, in root-parallel mode,
// their private trees have been merged and normalized back into Root.
func (mcts *MCTS[T, S, R, O, A]) Synchronize() {
	if mcts.shouldMerge() {
		for !mcts.merged.Load() {
			runtime.Gosched()
		}
	} else {
		mcts.wg.Wait()
	}
}

func (mcts *MCTS[T, S, R, O, A]) mergeResults() {
	threads := int32(len(mcts.roots))
	for _, other := range mcts.roots[1:] {
		mergeResult(mcts.Root, other)
	}
	normalizeTree(mcts.Root, threads)
	mcts.merged.Store(true)
	mcts.roots = nil
}

// mergeResult folds other's statistics into root's, recursively, summing
// counters node by node. Children are matched positionally: ExpandNode
// must return children in the same order for every clone of a position,
// which holds as long as it's a pure function of the position.
func mergeResult[T MoveLike, S NodeStatsLike[S]](root *NodeBase[T, S], other *NodeBase[T, S]) {
	if root == nil || other == nil {
		return
	}

	visits, vl := other.Stats.GetVvl()
	root.Stats.AddVvl(visits, vl)
	root.Stats.AddQ(other.Stats.Q())
	if rr, ok := any(root.Stats).(RaveStatsLike[S]); ok {
		if ro, ok := any(other.Stats).(RaveStatsLike[S]); ok {
			rr.AddQRAVE(ro.QRAVE())
			rr.AddNRAVE(ro.NRAVE())
		}
	}

	otherLen := len(other.Children)
	rootLen := len(root.Children)

	if rootLen != otherLen {
		// A mismatch only happens near leaves one clone expanded and
		// another didn't reach; there's nowhere principled to put the
		// extra children of a non-empty mismatch, so it's skipped.
		if rootLen == 0 && otherLen != 0 {
			root.Children = make([]NodeBase[T, S], otherLen)
			copy(root.Children, other.Children)
		}
		return
	}

	for i := 0; i < otherLen; i++ {
		child := &other.Children[i]
		if child.Move == root.Children[i].Move {
			mergeResult(&root.Children[i], child)
		} else {
			panic("mcts: mergeResult child mismatch, ExpandNode must return children in a stable order")
		}
	}
}

// SearchMultiThreaded starts Limiter.Limits().NThreads worker goroutines
// and returns immediately; call Synchronize to wait for them to stop.
//
// MultithreadRootParallel gives every worker but the main one its own
// cloned tree, searched independently and merged back into Root once
// all have stopped. MultithreadTreeParallel and MultithreadTreeParallelVL
// share Root directly; the latter additionally applies virtual loss on
// descent to steer concurrent workers away from each other's in-flight
// selections.
func (mcts *MCTS[T, S, R, O, A]) SearchMultiThreaded() {
	mcts.setupSearch()
	threads := max(1, mcts.Limiter.Limits().NThreads)

	mcts.roots = make([]*NodeBase[T, S], threads)
	for i := 0; i < threads; i++ {
		if i == 0 || mcts.multithreadPolicy != MultithreadRootParallel {
			mcts.roots[i] = mcts.Root
		} else {
			mcts.roots[i] = mcts.Root.Clone(nil)
		}
	}

	for id := range threads {
		mcts.wg.Add(1)
		go mcts.Search(mcts.roots[id], mcts.ops.Clone(), id)
	}
}

func (mcts *MCTS[T, S, R, O, A]) shouldMerge() bool {
	return mcts.multithreadPolicy == MultithreadRootParallel && mcts.Limiter.Limits().NThreads > 1
}

// setupSearch resets the per-search counters; it doesn't start anything.
func (mcts *MCTS[T, S, R, O, A]) setupSearch() {
	mcts.Limiter.Reset()
	mcts.cycles.Store(0)
	mcts.collisionCount.Store(0)
	mcts.cps.Store(0)
	mcts.maxdepth.Store(0)
	mcts.merged.Store(false)
}

// Search is one worker's main loop: select, rollout, backpropagate,
// until the limiter says to stop. threadId 0 is the privileged thread:
// it alone updates maxdepth, invokes listeners, evaluates the final
// stop reason, and (in root-parallel mode) merges the other workers'
// trees into Root once they've all exited.
func (mcts *MCTS[T, S, R, O, A]) Search(root *NodeBase[T, S], ops O, threadId int) {
	threadRand := rand.New(rand.NewSource(SeedGeneratorFn() + int64(threadId)))
	if rg, ok := GameOperations[T, S, R, O](ops).(RandGameOperations[T, S, R, O]); ok {
		rg.SetRand(threadRand)
	}

	if root.Terminal() || len(root.Children) == 0 {
		if threadId == mainThreadId {
			mcts.invokeListener(mcts.listener.onStop)
			mcts.wg.Done()
			mcts.wg.Wait()
			if mcts.shouldMerge() {
				mcts.mergeResults()
			}
			return
		}
		mcts.wg.Done()
		return
	}

	for mcts.Limiter.Ok(mcts.Size(), uint32(mcts.MaxDepth()), uint32(mcts.Cycles())) {
		node := mcts.Selection(root, ops, threadRand, threadId)
		mcts.strategy.Backpropagate(ops, node, ops.Rollout(), mcts.virtualLoss)

		mcts.cycles.Add(1)
		if elapsed := mcts.Limiter.Elapsed(); elapsed > 0 {
			mcts.cps.Store(uint32(mcts.Cycles()) * 1000 / elapsed)
		}

		if threadId == mainThreadId && mcts.listener.onCycle != nil &&
			mcts.Root.Stats.N()%int32(max(1, mcts.listener.nCycles)) == 0 {
			mcts.listener.onCycle(toListenerStats(mcts))
		}
	}

	if threadId == mainThreadId {
		mcts.Limiter.EvaluateStopReason(mcts.Size(), uint32(mcts.MaxDepth()), uint32(mcts.Cycles()))
	}

	mcts.Limiter.Stop()

	if threadId == mainThreadId {
		mcts.invokeListener(mcts.listener.onStop)
		mcts.wg.Done()
		mcts.wg.Wait()
		if mcts.shouldMerge() {
			mcts.mergeResults()
		}
	} else {
		mcts.wg.Done()
	}
}

// Selection descends from root along the strategy's Select policy until
// it reaches an unexpanded node with at least ExpandVisits real visits,
// expanding it (subject to the expansion latch, so only one goroutine
// per node ever calls ExpandNode), then picks one of the freshly
// expanded children at random to start the rollout from. Concurrent
// descenders that find a node already being expanded by another worker
// spin on Expanding(), counted as a collision once per occurrence.
func (mcts *MCTS[T, S, R, O, A]) Selection(root *NodeBase[T, S], ops O, threadRand *rand.Rand, threadId int) *NodeBase[T, S] {
	node := root
	depth := 0

	for node.Expanded() {
		node = mcts.strategy.Select(node, root)
		ops.Traverse(node.Move)
		depth++

		if mcts.virtualLoss > 0 {
			node.Stats.AddVvl(mcts.virtualLoss, mcts.virtualLoss)
		}
	}

	if node.Stats.RealVisits() >= mcts.Limiter.Limits().ExpandVisits && !node.Terminal() {
		if mcts.Limiter.Expand() && node.CanExpand() {
			added := ops.ExpandNode(node)
			mcts.size.Add(added)
			if added == 0 && len(node.Children) == 0 {
				// Nothing installed (e.g. an exhausted arena): release the
				// latch without marking the node expanded, so it stays a leaf.
				atomic.StoreUint32(&node.Flags, flagNone)
			} else {
				node.FinishExpanding()
			}
		}

		first := true
		for node.Expanding() {
			if first {
				mcts.collisionCount.Add(1)
				first = false
			}
			runtime.Gosched()
		}

		if node.Expanded() && len(node.Children) > 0 {
			node = &node.Children[threadRand.Int31n(int32(len(node.Children)))]
			ops.Traverse(node.Move)
			depth++

			if mcts.virtualLoss > 0 {
				node.Stats.AddVvl(mcts.virtualLoss, mcts.virtualLoss)
			} else {
				node.Stats.AddVvl(0, 0)
			}
		}
	}

	if threadId == mainThreadId && depth >= 2 && depth > int(mcts.maxdepth.Load()) {
		mcts.maxdepth.Store(int32(depth))
		mcts.invokeListener(mcts.listener.onDepth)
	}

	return node
}
