package mcts

import (
	"math"
	"slices"
	"sync/atomic"
)

// Rapid Action Value Estimation (RAVE) blends a node's direct win rate
// with an all-moves-as-first (AMAF) estimate gathered from every move
// played anywhere in the rollouts that passed through its parent. It
// pays off on games with a high branching factor and transposable
// positions, where the same move played in a different order leads to
// the same outcome, letting one rollout inform many siblings at once.
//
// Reference: https://en.wikipedia.org/wiki/Monte_Carlo_tree_search#Improvements

// RaveStatsLike extends NodeStatsLike with the AMAF counters RAVE needs
// alongside a node's ordinary playout/value statistics.
type RaveStatsLike[S any] interface {
	NodeStatsLike[S]

	// QRAVE is the cumulated outcome of every rollout that played this
	// node's move anywhere below its parent, not just through this node.
	QRAVE() Result
	RawQRAVE() int32
	// NRAVE is how many such rollouts there were.
	NRAVE() int32
	AddQRAVE(Result)
	AddNRAVE(int32)
}

// RaveStats augments NodeStats with the AMAF counters.
type RaveStats struct {
	NodeStats

	q_rave int32 // cumulated AMAF outcome, 1e-3 fixed point
	n_rave int32 // AMAF playout count
}

func DefaultRaveStats() *RaveStats {
	return &RaveStats{}
}

func (r *RaveStats) Clone() *RaveStats {
	return &RaveStats{
		NodeStats: NodeStats{
			q:           r.RawQ(),
			n:           r.N(),
			virtualLoss: r.VirtualLoss(),
		},
		q_rave: r.RawQRAVE(),
		n_rave: r.NRAVE(),
	}
}

func (r *RaveStats) QRAVE() Result {
	return Result(atomic.LoadInt32(&r.q_rave)) / Result(1e3)
}

func (r *RaveStats) RawQRAVE() int32 {
	return atomic.LoadInt32(&r.q_rave)
}

func (r *RaveStats) NRAVE() int32 {
	return atomic.LoadInt32(&r.n_rave)
}

func (r *RaveStats) AddQRAVE(result Result) {
	atomic.AddInt32(&r.q_rave, int32(result*1e3))
}

func (r *RaveStats) AddNRAVE(playouts int32) {
	atomic.AddInt32(&r.n_rave, playouts)
}

// Normalize divides the direct and AMAF counters alike by k.
func (r *RaveStats) Normalize(k int32) {
	r.NodeStats.Normalize(k)
	if k < 2 {
		return
	}
	r.q_rave = r.q_rave / k
	r.n_rave = r.n_rave / k
}

// RaveBetaFnType blends direct value and AMAF value; it should be close
// to 1 for small n/n_rave (trust the AMAF estimate early) and close to
// 0 as n grows large (trust direct statistics once there are enough).
type RaveBetaFnType func(n, n_rave int32) float64

// RaveDSilver is David Silver's RAVE blending formula from his MoGo work.
func RaveDSilver(n, n_rave int32) float64 {
	const (
		b      = 0.1
		factor = 4 * b * b
	)
	return float64(n_rave) / (float64(n+n_rave) + factor*float64(n*n_rave))
}

// RaveGameResult is the payload RAVE's Backpropagate needs beyond a
// plain scalar Result: the move list a rollout played (so siblings that
// share a move can be credited), grown in place as Backpropagate
// ascends and prepends each node's move.
type RaveGameResult[T MoveLike] interface {
	Value() Result
	Moves() []T
	Append(T)
	SwitchTurn()
}

// RaveGameOperations is GameOperations specialized for RAVE's stats and
// result types; it adds nothing of its own, it just pins S and R to the
// interfaces RAVE requires.
type RaveGameOperations[T MoveLike, S RaveStatsLike[S], R RaveGameResult[T], O GameOperations[T, S, R, O]] interface {
	GameOperations[T, S, R, O]
}

// RAVE is a StrategyLike combining RAVE selection with AMAF-aware backup.
type RAVE[T MoveLike, S RaveStatsLike[S], R RaveGameResult[T], O GameOperations[T, S, R, O]] struct {
	ExplorationParam float64
	BetaFunction     RaveBetaFnType
}

func NewRAVE[T MoveLike, S RaveStatsLike[S], R RaveGameResult[T], O GameOperations[T, S, R, O]]() *RAVE[T, S, R, O] {
	return &RAVE[T, S, R, O]{
		ExplorationParam: 0.3, // lower than UCB1's default; AMAF already supplies exploration
		BetaFunction:     RaveDSilver,
	}
}

func (r *RAVE[T, S, R, O]) SetExplorationParam(c float64) *RAVE[T, S, R, O] {
	r.ExplorationParam = c
	return r
}

func (r *RAVE[T, S, R, O]) SetBetaFunction(f RaveBetaFnType) *RAVE[T, S, R, O] {
	r.BetaFunction = f
	return r
}

// Select blends each child's direct value with its AMAF value via
// BetaFunction, then adds the usual UCB exploration term.
func (r *RAVE[T, S, R, O]) Select(parent, root *NodeBase[T, S]) *NodeBase[T, S] {
	if parent.Terminal() {
		return parent
	}

	best := float64(-1)
	index := 0
	lnParentVisits := math.Log(float64(max(1, parent.Stats.N())))

	for i := range parent.Children {
		child := &parent.Children[i]
		visits, vl := child.Stats.GetVvl()
		actualVisits := visits - vl

		if actualVisits == 0 {
			return child
		}

		q := float64(child.Stats.Q()) / float64(visits)
		b := 0.0
		amafq := 0.0
		if nRave := child.Stats.NRAVE(); nRave > 0 {
			b = r.BetaFunction(actualVisits, nRave)
			amafq = float64(child.Stats.QRAVE()) / float64(nRave)
		}

		ucb := (1.0-b)*q + b*amafq +
			r.ExplorationParam*math.Sqrt(lnParentVisits/float64(visits))

		if ucb > best {
			best = ucb
			index = i
		}
	}

	return &parent.Children[index]
}

// Backpropagate ascends from node to the root crediting the flipped
// result at each level, same as UCB1.Backpropagate, and additionally
// credits every sibling of node's parent whose move also appears in the
// rollout's move list with an AMAF outcome, growing that move list with
// node's own move as it goes.
func (r *RAVE[T, S, R, O]) Backpropagate(ops O, node *NodeBase[T, S], result R, virtualLoss int32) {
	v := result.Value()

	for node != nil {
		v = 1.0 - v
		node.Stats.AddQ(v)

		if node.Parent != nil {
			node.Stats.AddVvl(1-virtualLoss, -virtualLoss)

			mvs := result.Moves()
			for i := range node.Parent.Children {
				sibling := &node.Parent.Children[i]
				if slices.Contains(mvs, sibling.Move) {
					sibling.Stats.AddQRAVE(v)
					sibling.Stats.AddNRAVE(1)
				}
			}

			result.Append(node.Move)
		} else {
			node.Stats.AddVvl(1, 0)
		}

		result.SwitchTurn()
		node = node.Parent
		ops.BackTraverse()
	}
}
