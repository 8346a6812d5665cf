package pq

import "iter"

// ListItem is one link in a NodeList.
//
// Items are created when a node is inserted and discarded when it is removed;
// callers only ever see them through First, Last, Prev and Next.
type ListItem struct {
	node *Node     // the node held at this position
	prev *ListItem // the previous item (nil at the head)
	next *ListItem // the next item (nil at the tail)
}

// Node returns the node held by the item.
func (it *ListItem) Node() *Node { return it.node }

// Prev returns the previous item, or nil at the head of the list.
func (it *ListItem) Prev() *ListItem { return it.prev }

// Next returns the next item, or nil at the tail of the list.
func (it *ListItem) Next() *ListItem { return it.next }

// NodeList is a doubly linked list of nodes supporting O(1) splicing.
//
// A NodeList owns its items but not the nodes they hold. Lookups by node
// (Remove, Replace, Flatten, Contains) scan by identity and are O(n).
//
// The zero value is an empty list ready to use. A NodeList is not safe for
// concurrent use.
type NodeList struct {
	first *ListItem
	last  *ListItem
	size  int
}

// Len returns the number of nodes in the list.
func (l *NodeList) Len() int { return l.size }

// First returns the head item, or nil if the list is empty.
func (l *NodeList) First() *ListItem { return l.first }

// Last returns the tail item, or nil if the list is empty.
func (l *NodeList) Last() *ListItem { return l.last }

// AddFirst inserts n at the head of the list.
func (l *NodeList) AddFirst(n *Node) {
	it := &ListItem{node: n, next: l.first}
	if l.first == nil {
		l.last = it
	} else {
		l.first.prev = it
	}
	l.first = it
	l.size++
}

// AddLast inserts n at the tail of the list.
func (l *NodeList) AddLast(n *Node) {
	it := &ListItem{node: n, prev: l.last}
	if l.last == nil {
		l.first = it
	} else {
		l.last.next = it
	}
	l.last = it
	l.size++
}

func (l *NodeList) find(n *Node) *ListItem {
	for it := l.first; it != nil; it = it.next {
		if it.node == n {
			return it
		}
	}
	return nil
}

func (l *NodeList) unlink(it *ListItem) {
	if it.prev == nil {
		l.first = it.next
	} else {
		it.prev.next = it.next
	}
	if it.next == nil {
		l.last = it.prev
	} else {
		it.next.prev = it.prev
	}
	it.prev, it.next = nil, nil
	l.size--
}

// Remove unlinks the item holding n. It reports whether n was found;
// removing an absent node is a no-op.
func (l *NodeList) Remove(n *Node) bool {
	it := l.find(n)
	if it == nil {
		return false
	}
	l.unlink(it)
	return true
}

// Replace swaps old for n in place, keeping its position. It reports whether
// old was found; the list's shape and size never change.
func (l *NodeList) Replace(old, n *Node) bool {
	it := l.find(old)
	if it == nil {
		return false
	}
	it.node = n
	return true
}

// Contains reports whether n is held by the list.
func (l *NodeList) Contains(n *Node) bool {
	return l.find(n) != nil
}

// Reverse flips the order of the list in O(n).
func (l *NodeList) Reverse() {
	if l.size < 2 {
		return
	}
	for it := l.first; it != nil; it = it.prev {
		it.prev, it.next = it.next, it.prev
	}
	l.first, l.last = l.last, l.first
}

// Concatenate moves every item of other onto the tail of l in O(1).
// other is left empty. Concatenating a list onto itself is a no-op.
func (l *NodeList) Concatenate(other *NodeList) {
	if other == nil || other == l || other.size == 0 {
		return
	}
	if l.last == nil {
		l.first = other.first
	} else {
		l.last.next = other.first
		other.first.prev = l.last
	}
	l.last = other.last
	l.size += other.size
	other.clear()
}

// Flatten replaces the item holding n with the contents of n's own child
// list, in order, leaving n's child list empty. A childless n is simply
// removed. It reports whether n was found.
//
// Flatten only rewires list items; parent links and label buckets are the
// caller's concern (see Node.Flatten).
func (l *NodeList) Flatten(n *Node) bool {
	it := l.find(n)
	if it == nil {
		return false
	}
	inner := &n.children
	if inner == l {
		return false
	}
	if inner.size == 0 {
		l.unlink(it)
		return true
	}

	inner.first.prev = it.prev
	if it.prev == nil {
		l.first = inner.first
	} else {
		it.prev.next = inner.first
	}
	inner.last.next = it.next
	if it.next == nil {
		l.last = inner.last
	} else {
		it.next.prev = inner.last
	}
	l.size += inner.size - 1
	it.prev, it.next = nil, nil
	inner.clear()
	return true
}

func (l *NodeList) clear() {
	l.first, l.last, l.size = nil, nil, 0
}

// All iterates over the nodes from head to tail.
//
// Each call returns a fresh iterator. Mutating the list while iterating is
// not supported; use Slice to iterate over a snapshot instead.
func (l *NodeList) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for it := l.first; it != nil; it = it.next {
			if !yield(it.node) {
				return
			}
		}
	}
}

// Backward iterates over the nodes from tail to head.
func (l *NodeList) Backward() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for it := l.last; it != nil; it = it.prev {
			if !yield(it.node) {
				return
			}
		}
	}
}

// Slice returns a snapshot of the nodes in list order.
func (l *NodeList) Slice() []*Node {
	out := make([]*Node, 0, l.size)
	for it := l.first; it != nil; it = it.next {
		out = append(out, it.node)
	}
	return out
}
