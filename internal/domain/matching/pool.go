package matching

import (
	"math"

	"github.com/okian/detbench/internal/domain/model"
)

// Candidate pool.
//
// Expected events live in an append-only arena in generation order. For each
// label a treap keyed by offset indexes the candidates still outstanding.
// Distances are positive, so within a label generation order and offset order
// agree and offsets are unique: the leftmost outstanding node with
// offset >= lo is the first-fit candidate for a window starting at lo.

// treap node
type node struct {
	offset int
	idx    int // arena index
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// priorityFor spreads arena indexes with splitmix64 so the treap stays balanced
// while two runs over the same input build the same tree.
func priorityFor(idx int) uint64 {
	z := uint64(idx) + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func insert(n *node, offset, idx int) *node {
	if n == nil {
		return &node{offset: offset, idx: idx, prio: priorityFor(idx), size: 1}
	}
	if offset < n.offset {
		n.left = insert(n.left, offset, idx)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, offset, idx)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, offset int) *node {
	if n == nil {
		return nil
	}
	switch {
	case offset == n.offset:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, offset)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, offset)
		}
	case offset < n.offset:
		n.left = deleteNode(n.left, offset)
	default:
		n.right = deleteNode(n.right, offset)
	}
	fix(n)
	return n
}

// lowerBound returns the node with the smallest offset >= lo, or nil.
func lowerBound(n *node, lo int) *node {
	var best *node
	for n != nil {
		if n.offset >= lo {
			best = n
			n = n.left
		} else {
			n = n.right
		}
	}
	return best
}

type pool struct {
	arena    []model.ExpectedEvent
	consumed []bool
	byLabel  map[string]*node
	left     int
}

func newPool(events []model.ExpectedEvent) *pool {
	p := &pool{
		arena:    events,
		consumed: make([]bool, len(events)),
		byLabel:  make(map[string]*node),
		left:     len(events),
	}
	for i, ev := range events {
		p.byLabel[ev.Label] = insert(p.byLabel[ev.Label], ev.Offset, i)
	}
	return p
}

// take removes and returns the first outstanding candidate with the given
// label whose offset lies in [offset-tol, offset+tol].
func (p *pool) take(label string, offset, tol int) (model.ExpectedEvent, bool) {
	root, ok := p.byLabel[label]
	if !ok {
		return model.ExpectedEvent{}, false
	}
	n := lowerBound(root, windowStart(offset, tol))
	if n == nil || beyond(n.offset, offset, tol) {
		return model.ExpectedEvent{}, false
	}
	p.byLabel[label] = deleteNode(root, n.offset)
	p.consumed[n.idx] = true
	p.left--
	return p.arena[n.idx], true
}

// windowStart is offset-tol clamped at math.MinInt. tol is never negative.
func windowStart(offset, tol int) int {
	if offset < math.MinInt+tol {
		return math.MinInt
	}
	return offset - tol
}

// beyond reports whether candidate lies more than tol after offset. The
// difference is taken in uint so it cannot wrap.
func beyond(candidate, offset, tol int) bool {
	return candidate > offset && uint(candidate)-uint(offset) > uint(tol)
}

// outstanding returns the candidates never taken, in generation order.
func (p *pool) outstanding() []model.ExpectedEvent {
	out := make([]model.ExpectedEvent, 0, p.left)
	for i, ev := range p.arena {
		if !p.consumed[i] {
			out = append(out, ev)
		}
	}
	return out
}

// size reports how many candidates with label are still outstanding.
func (p *pool) size(label string) int {
	return nsize(p.byLabel[label])
}
