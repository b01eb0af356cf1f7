package mcts

import (
	"fmt"
	"math/rand"
	"os"
	"testing"
)

const branchFactor = 20

type Move int

// DummyOps is a minimal GameOperations implementation for exercising
// the search core: it expands every node to branchFactor children and
// down to depth 8, then returns a uniformly random outcome.
type DummyOps struct {
	depth int
	rand  *rand.Rand
}

func (d *DummyOps) Reset()        { d.depth = 0 }
func (d *DummyOps) Traverse(Move) { d.depth++ }
func (d *DummyOps) BackTraverse() { d.depth-- }

func (d *DummyOps) ExpandNode(parent *NodeBase[Move, *NodeStats]) uint32 {
	parent.Children = make([]NodeBase[Move, *NodeStats], branchFactor)
	for i := range parent.Children {
		parent.Children[i] = *NewBaseNode(parent, Move(i), d.depth >= 8, &NodeStats{})
	}
	return branchFactor
}

func (d *DummyOps) Rollout() Result {
	switch d.rand.Intn(3) {
	case 0:
		return 0.5
	case 1:
		return 1.0
	default:
		return 0.0
	}
}

func (d *DummyOps) SetRand(r *rand.Rand) {
	d.rand = r
}

func (d *DummyOps) Clone() *DummyOps {
	return &DummyOps{depth: d.depth}
}

type DummyMCTS struct {
	*MCTS[Move, *NodeStats, Result, *DummyOps, *UCB1[Move, *NodeStats, Result, *DummyOps]]
}

func NewDummyMCTS(policy MultithreadPolicy) *DummyMCTS {
	ops := &DummyOps{}
	strategy := NewUCB1[Move, *NodeStats, Result, *DummyOps](0.75)
	return &DummyMCTS{
		MCTS: NewMTCS[Move, *NodeStats, Result, *DummyOps](strategy, ops, policy, &NodeStats{}),
	}
}

func TestMain(m *testing.M) {
	SetSeedGeneratorFn(func() int64 {
		return 42
	})
	fmt.Printf("Using seed %d\n", SeedGeneratorFn())

	os.Exit(m.Run())
}

func GetDummyMCTS() *DummyMCTS {
	tree := NewDummyMCTS(MultithreadTreeParallel)
	tree.Limiter.SetLimits(DefaultLimits().SetCycles(10000))
	tree.SearchMultiThreaded()
	tree.Synchronize()
	return tree
}

func TestDummySearch(t *testing.T) {
	tree := GetDummyMCTS()

	if len(tree.Root.Children) == 0 {
		t.Fatal("No children found after search")
	}

	pv, _, _ := tree.Pv(tree.Root, BestChildMostVisits, false)
	t.Logf("eval %.2f cps %d cycles %d pv %v", tree.RootScore(), tree.Cps(), tree.Cycles(), pv)
}

func TestDummySearchWithListener(t *testing.T) {
	tree := NewDummyMCTS(MultithreadTreeParallel)
	tree.SetLimits(DefaultLimits().SetCycles(10000).SetThreads(4))
	listener := (&StatsListener[Move]{}).
		OnDepth(func(stats ListenerTreeStats[Move]) {
			mainLine := stats.Lines[0]
			t.Logf("depth %d cycle %d cps %d eval %.2f pv %v", stats.Maxdepth, stats.Cycles, stats.Cps, mainLine.Eval, mainLine.Moves)
		}).
		OnCycle(func(stats ListenerTreeStats[Move]) {
			mainLine := stats.Lines[0]
			t.Logf("cycle %d depth %d cps %d eval %.2f pv %v", stats.Cycles, stats.Maxdepth, stats.Cps, mainLine.Eval, mainLine.Moves)
		}).
		SetCycleInterval(2000).
		OnStop(func(stats ListenerTreeStats[Move]) {
			mainLine := stats.Lines[0]
			t.Logf("stop reason %s after %d cycles, maxdepth %d cps %d pv %v", stats.StopReason, stats.Cycles, stats.Maxdepth, stats.Cps, mainLine.Moves)
		})

	tree.SetListener(*listener)
	tree.SearchMultiThreaded()
	tree.Synchronize()

	pv, _, _ := tree.Pv(tree.Root, BestChildMostVisits, false)
	if len(pv) <= 2 {
		t.Fatalf("No pv found after search, %v", pv)
	}
}

func TestDummySearchRootParallel(t *testing.T) {
	tree := NewDummyMCTS(MultithreadRootParallel)
	tree.Limiter.SetLimits(DefaultLimits().SetCycles(10000).SetThreads(4))
	tree.SearchMultiThreaded()
	tree.Synchronize()

	if len(tree.Root.Children) == 0 {
		t.Fatal("No children found after search")
	}

	pv, _, _ := tree.Pv(tree.Root, BestChildMostVisits, false)
	t.Logf("eval %.2f cps %d cycles %d pv %v", tree.RootScore(), tree.Cps(), tree.Cycles(), pv)
}

func TestDummySearchTreeParallelVL(t *testing.T) {
	tree := NewDummyMCTS(MultithreadTreeParallelVL)
	tree.Limiter.SetLimits(DefaultLimits().SetCycles(10000).SetThreads(4))
	tree.SearchMultiThreaded()
	tree.Synchronize()

	if len(tree.Root.Children) == 0 {
		t.Fatal("No children found after search")
	}
	if tree.CollisionCount() < 0 {
		t.Fatal("collision count should never be negative")
	}
}

func TestMakeMove(t *testing.T) {
	tree := GetDummyMCTS()

	maxdepth := tree.MaxDepth()
	size := tree.Size()
	pv, _, _ := tree.Pv(tree.Root, BestChildMostVisits, false)

	if len(pv) <= 2 {
		t.Fatalf("No pv found after search, %v", pv)
	}

	tree.MakeMove(pv[0])

	if tree.MaxDepth() >= maxdepth {
		t.Fatalf("Max depth not decreased after MakeMove, was %d, now %d", maxdepth, tree.MaxDepth())
	}
	if tree.Size() >= size {
		t.Fatalf("Tree size not decreased after MakeMove, was %d, now %d", size, tree.Size())
	}

	newPv, _, _ := tree.Pv(tree.Root, BestChildMostVisits, false)
	if len(newPv) <= 1 {
		t.Fatalf("No pv found after MakeMove, %v", newPv)
	}

	if len(pv)-1 != len(newPv) {
		t.Fatalf("PV length not decreased after MakeMove, was %d, now %d", len(pv), len(newPv))
	}

	t.Logf("Tree size before move: %d, after move: %d", size, tree.Size())
	t.Logf("Pv before move: %v, after move: %v", pv, newPv)

	for i := range newPv {
		if pv[i+1] != newPv[i] {
			t.Fatalf("PV move %d not matching after MakeMove, was %v, now %v", i, pv, newPv)
		}
	}
}

func deepCompare(n1, n2 *NodeBase[Move, *NodeStats]) bool {
	if n1 == n2 {
		return true
	}
	if n1 == nil || n2 == nil {
		return false
	}
	if n1.Move != n2.Move {
		return false
	}
	if n1.Flags != n2.Flags {
		return false
	}
	if n1.Stats.N() != n2.Stats.N() || n1.Stats.RawQ() != n2.Stats.RawQ() {
		return false
	}
	if len(n1.Children) != len(n2.Children) {
		return false
	}
	for i := range n1.Children {
		if !deepCompare(&n1.Children[i], &n2.Children[i]) {
			return false
		}
	}
	return true
}

func TestNodeClone(t *testing.T) {
	tree := GetDummyMCTS()
	clone := tree.Root.Clone(nil)

	if !deepCompare(tree.Root, clone) {
		t.Fatal("Cloned node does not match original")
	}

	for i := range tree.Root.Children {
		if clone.Children[i].Parent != clone {
			t.Fatal("Cloned child's parent does not point to cloned node")
		}
	}
}
