package mcts

// StrategyLike couples a selection rule with its matching backup rule:
// the two must agree on what a child's statistics mean (a plain win
// rate for UCB1, a blended win-rate/AMAF estimate for RAVE), so they are
// implemented together rather than mixed independently.
type StrategyLike[T MoveLike, S NodeStatsLike[S], R GameResult, O GameOperations[T, S, R, O]] interface {
	// Select picks the child of parent the search should descend into
	// next. Implementations return an unvisited child immediately, and
	// return parent back unchanged when parent.Terminal().
	Select(parent, root *NodeBase[T, S]) *NodeBase[T, S]
	// Backpropagate ascends from node to the root, crediting result to
	// each node's statistics from that node's mover's perspective, and
	// reversing virtualLoss worth of the provisional virtual-loss
	// penalty applied during descent (0 when the search isn't using
	// virtual loss). It calls ops.BackTraverse() once per node visited,
	// undoing the matching Traverse calls made during Selection.
	Backpropagate(ops O, node *NodeBase[T, S], result R, virtualLoss int32)
}
