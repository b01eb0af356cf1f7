package goengine

import (
	"sync/atomic"
	"unsafe"

	"github.com/tsumego/goigo/pkg/board"
	"github.com/tsumego/goigo/pkg/mcts"
)

// nodeType is the concrete node this engine's tree stores; arena sizing
// and the backing slab are both expressed in units of it.
type nodeType = mcts.NodeBase[board.Coord, *mcts.NodeStats]

// NodeArena is a bump-allocated slab of tree nodes, used in place of a
// per-expansion heap slice when fast_alloc is enabled. It is shared (by
// pointer) across every GoOperations clone of a search, the same way
// OwnerMap is: one slab per tree, not per worker. Exhaustion is silent —
// ExpandNode simply declines to install children and the node stays a
// leaf — since fast_alloc trades the default allocator's headroom for
// flat, cache-friendly node storage and is not meant to fall back to it.
type NodeArena struct {
	slab   []nodeType
	offset atomic.Uint32
}

// NewNodeArena preallocates a slab sized to hold byteBudget worth of
// nodes. A zero or negative budget disables the arena (fast_alloc off).
func NewNodeArena(byteBudget int64) *NodeArena {
	if byteBudget <= 0 {
		return nil
	}
	n := uint32(byteBudget / int64(unsafe.Sizeof(nodeType{})))
	if n == 0 {
		n = 1
	}
	return &NodeArena{slab: make([]nodeType, n)}
}

// alloc bump-allocates n contiguous nodes, or reports exhaustion.
func (a *NodeArena) alloc(n int) ([]nodeType, bool) {
	if a == nil || n == 0 {
		return nil, true
	}
	for {
		cur := a.offset.Load()
		next := cur + uint32(n)
		if next > uint32(len(a.slab)) || next < cur {
			return nil, false
		}
		if a.offset.CompareAndSwap(cur, next) {
			return a.slab[cur:next:next], true
		}
	}
}

// Reset rewinds the bump offset so a reused tree starts with a fresh
// slab instead of carrying over a previous search's allocations.
func (a *NodeArena) Reset() {
	if a != nil {
		a.offset.Store(0)
	}
}

// Len is the number of nodes handed out so far, for diagnostics.
func (a *NodeArena) Len() uint32 {
	if a == nil {
		return 0
	}
	return a.offset.Load()
}
