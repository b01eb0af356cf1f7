package mcts

import (
	"fmt"
	"sync/atomic"
)

// NodeStatsLike is the set of per-node statistics the search core needs.
// Implementations must be safe for concurrent use: every accessor reads
// or writes through atomic operations, since tree-parallel search shares
// one node across goroutines. S is the concrete stats type itself, so
// Clone() can return the same type callers instantiated the tree with
// (plain NodeStats, or RaveStats for RAVE-backed trees).
type NodeStatsLike[S any] interface {
	N() int32
	VirtualLoss() int32
	AddQ(Result)
	AvgQ() Result
	Q() Result
	RawQ() uint64
	SetVvl(visits, vl int32)
	GetVvl() (visits int32, vl int32)
	AddVvl(visits, vl int32)
	RealVisits() int32
	Clone() S
	// Normalize divides the accumulated visit and outcome counters by k.
	// Used once, after a root-parallel merge, to turn the sum of k
	// independent trees' statistics back into the average a single
	// search of the same duration would have produced.
	Normalize(k int32)
}

// NodeStats holds the playout count and cumulated outcome for a node.
// playouts is the node's "n" and the cumulated outcome divided by
// playouts is its "value" (win rate) in the vocabulary of the search
// driver this package backs. Reading value from two independent atomic
// loads (q then n) can observe a sum computed from a newer playout count
// than the one read, or vice-versa; that is an accepted, harmless race
// the selection policy tolerates.
type NodeStats struct {
	q           uint64 // compounded outcomes, fixed point with 1e-3 precision
	n           int32  // playouts; read via GetVvl/N, never directly
	virtualLoss int32  // current virtual loss; n - virtualLoss is always >= 0
}

func (stats *NodeStats) Clone() *NodeStats {
	return &NodeStats{
		q:           atomic.LoadUint64(&stats.q),
		n:           atomic.LoadInt32(&stats.n),
		virtualLoss: atomic.LoadInt32(&stats.virtualLoss),
	}
}

// AvgQ is the node's value: cumulated outcome divided by playouts.
func (stats *NodeStats) AvgQ() Result {
	return Result(atomic.LoadUint64(&stats.q)) / 1e3 / Result(stats.N())
}

// Q is the cumulated, un-averaged outcome for this node.
func (stats *NodeStats) Q() Result {
	return Result(atomic.LoadUint64(&stats.q)) / 1e3
}

// RawQ is the cumulated outcome at its underlying 1e-3 fixed-point scale.
func (stats *NodeStats) RawQ() uint64 {
	return atomic.LoadUint64(&stats.q)
}

// AddQ adds one playout's outcome to the cumulated sum.
func (stats *NodeStats) AddQ(result Result) {
	atomic.AddUint64(&stats.q, uint64(result*1e3))
}

// N is the playout count, including virtual loss.
func (stats *NodeStats) N() int32 {
	return atomic.LoadInt32(&stats.n)
}

func (stats *NodeStats) VirtualLoss() int32 {
	return atomic.LoadInt32(&stats.virtualLoss)
}

// GetVvl reads playouts and virtual loss together, retrying until it
// observes a pair satisfying virtualLoss <= visits (real visits >= 0).
func (stats *NodeStats) GetVvl() (visits int32, virtualLoss int32) {
	for {
		visits = atomic.LoadInt32(&stats.n)
		virtualLoss = atomic.LoadInt32(&stats.virtualLoss)
		if virtualLoss <= visits {
			return visits, virtualLoss
		}
	}
}

// RealVisits is playouts minus any outstanding virtual loss.
func (stats *NodeStats) RealVisits() int32 {
	visits, virtualLoss := stats.GetVvl()
	return visits - virtualLoss
}

// AddVvl atomically adds to both the playout and virtual-loss counters.
// Descent adds (VirtualLoss, VirtualLoss); backup reverses it with
// (1-VirtualLoss, -VirtualLoss) so the net effect of one full descend/
// backup cycle is a single real playout.
func (stats *NodeStats) AddVvl(visits, virtualLoss int32) {
	atomic.AddInt32(&stats.virtualLoss, virtualLoss)
	atomic.AddInt32(&stats.n, visits)
}

// SetVvl overwrites both counters; panics if the invariant
// virtualLoss <= visits would be violated.
func (stats *NodeStats) SetVvl(visits, virtualLoss int32) {
	if virtualLoss > visits {
		panic(fmt.Sprintf("mcts: virtual loss (%d) cannot exceed visits (%d)", virtualLoss, visits))
	}
	atomic.StoreInt32(&stats.virtualLoss, virtualLoss)
	atomic.StoreInt32(&stats.n, visits)
}

// Normalize divides q and n by k, run once after merging k independently
// searched root-parallel trees into one. Called single-threaded after
// all workers have stopped, so plain (non-atomic) division is safe.
func (stats *NodeStats) Normalize(k int32) {
	if k < 2 {
		return
	}
	stats.q = stats.q / uint64(k)
	stats.n = stats.n / k
	stats.virtualLoss = stats.virtualLoss / k
}
