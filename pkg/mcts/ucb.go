package mcts

import "math"

// UCB1 selects children by the classic UCB1 formula: exploitation (win
// rate) plus an exploration bonus that shrinks as a child accrues
// visits relative to its parent.
type UCB1[T MoveLike, S NodeStatsLike[S], R GameResult, O GameOperations[T, S, R, O]] struct {
	ExplorationParam float64
}

// NewUCB1 builds a UCB1 strategy with the given exploration constant.
func NewUCB1[T MoveLike, S NodeStatsLike[S], R GameResult, O GameOperations[T, S, R, O]](explorationParam float64) *UCB1[T, S, R, O] {
	return &UCB1[T, S, R, O]{ExplorationParam: explorationParam}
}

func (u *UCB1[T, S, R, O]) SetExplorationParam(c float64) *UCB1[T, S, R, O] {
	u.ExplorationParam = max(0, c)
	return u
}

// Select picks the child maximising value + C*sqrt(ln(parentVisits)/visits).
// An unvisited child is always explored first.
func (u *UCB1[T, S, R, O]) Select(parent, root *NodeBase[T, S]) *NodeBase[T, S] {
	if parent.Terminal() || len(parent.Children) == 0 {
		return parent
	}

	best := float64(-1)
	index := 0
	lnParentVisits := math.Log(float64(max(1, parent.Stats.N())))

	for i := range parent.Children {
		child := &parent.Children[i]
		visits, vl := child.Stats.GetVvl()

		if visits-vl == 0 {
			return child
		}

		// UCB1 = exploitation + exploration. The game is assumed
		// zero-sum, so expanding towards the best value according to
		// the root also expands towards the best value for whoever
		// moves at parent.
		ucb1 := float64(child.Stats.Q())/float64(visits) +
			u.ExplorationParam*math.Sqrt(lnParentVisits/float64(visits))

		if ucb1 > best {
			best = ucb1
			index = i
		}
	}

	return &parent.Children[index]
}

// Backpropagate ascends from node to the root, crediting result at each
// level and flipping it every step since the game is two-player
// zero-sum: a result credited to one mover is exactly 1-result from the
// other mover's perspective.
//
// source: https://en.wikipedia.org/wiki/Monte_Carlo_tree_search
func (u *UCB1[T, S, R, O]) Backpropagate(ops O, node *NodeBase[T, S], result Result, virtualLoss int32) {
	for node != nil {
		if node.Parent != nil {
			node.Stats.AddVvl(1-virtualLoss, -virtualLoss)
		} else {
			node.Stats.AddVvl(1, 0)
		}

		result = 1.0 - result
		node.Stats.AddQ(result)

		node = node.Parent
		ops.BackTraverse()
	}
}
