package pq

// TrimAndFlatten reduces a Q-node with at most one partial child.
//
// Children are removed on one side of pointer by one label and on the other
// side by the opposite label: with reversed false, full children are removed
// before pointer and empty children after it; reversed swaps the sides. A nil
// pointer means there is no boundary, so every empty child is removed when
// reversed is false and every full child when it is true.
//
// Partial children other than pointer lose their grandchildren carrying the
// label being removed on their side and are then flattened. A partial pointer
// is never removed; it is flattened in place, with its children reversed
// first when reversed is set. After trimming, the whole child sequence is
// reversed when reversed is set.
//
// TrimAndFlatten returns every removed node, children and grandchildren, in
// removal order.
func (n *Node) TrimAndFlatten(pointer *Node, reversed bool) []*Node {
	var removed []*Node
	toRemove := Full
	if reversed != (pointer == nil) {
		toRemove = Empty
	}
	var pending *Node
	for _, c := range n.ChildSlice() {
		if pending != nil {
			n.Flatten(pending)
			pending = nil
		}
		switch {
		case c.label == toRemove:
			n.RemoveChild(c)
			removed = append(removed, c)
		case c.label == Partial && c != pointer:
			removed = c.removeLabeled(toRemove, removed)
			pending = c
		}
		if c == pointer {
			if c.label == Partial {
				if reversed {
					c.ReverseChildren()
				}
				pending = c
			}
			toRemove = opposite(toRemove)
		}
	}
	if pending != nil {
		n.Flatten(pending)
	}
	if reversed {
		n.ReverseChildren()
	}
	return removed
}

// TrimAndFlattenBetween reduces a Q-node with two partial boundaries.
//
// Full children are removed outside the span from start to end and empty
// children inside it. A partial start or end is flattened in place, end with
// its children reversed first so that its full side faces the span. Other
// partial children lose the grandchildren carrying the label removed at their
// position and are flattened. A nil start or end leaves that side of the span
// open.
//
// TrimAndFlattenBetween returns every removed node in removal order.
func (n *Node) TrimAndFlattenBetween(start, end *Node) []*Node {
	var removed []*Node
	toRemove := Full
	var pending *Node
	for _, c := range n.ChildSlice() {
		if pending != nil {
			n.Flatten(pending)
			pending = nil
		}
		switch c {
		case start:
			if c.label == Partial {
				pending = c
			}
			toRemove = Empty
		case end:
			if c.label == Partial {
				c.ReverseChildren()
				pending = c
			}
			toRemove = Full
		}
		switch {
		case c.label == toRemove:
			n.RemoveChild(c)
			removed = append(removed, c)
		case c.label == Partial && c != start && c != end:
			removed = c.removeLabeled(toRemove, removed)
			pending = c
		}
	}
	if pending != nil {
		n.Flatten(pending)
	}
	return removed
}

// removeLabeled detaches every child of n carrying label l and appends them
// to removed.
func (n *Node) removeLabeled(l Label, removed []*Node) []*Node {
	for _, gc := range n.LabelView(l) {
		n.RemoveChild(gc)
		removed = append(removed, gc)
	}
	return removed
}

func opposite(l Label) Label {
	if l == Empty {
		return Full
	}
	return Empty
}

// CleanSinglyPartial trims a Q-node with at most one partial child, choosing
// the boundary and direction that remove the fewest leaves, and returns the
// removed nodes (see TrimAndFlatten).
func (n *Node) CleanSinglyPartial() []*Node {
	var (
		count, reverseCount, lastChange, carry int
		maxCount, maxReverseCount              int
		maxPos, maxReversePos, lastChild       *Node
	)
	for c := range n.children.All() {
		if carry != 0 {
			count -= carry
			carry = 0
		}
		reverseCount -= lastChange
		switch c.label {
		case Empty:
			count += c.leaves
			lastChange = c.leaves
		case Full:
			count -= c.leaves
			lastChange = -c.leaves
		case Partial:
			for gc := range c.labeled[Empty] {
				count += gc.leaves
				lastChange += gc.leaves
			}
			for gc := range c.labeled[Full] {
				carry += gc.leaves
				reverseCount += gc.leaves
			}
		}
		if count > maxCount {
			maxCount = count
			maxPos = c
		}
		if reverseCount > maxReverseCount {
			maxReverseCount = reverseCount
			maxReversePos = lastChild
		}
		lastChild = c
	}
	maxReverseCount -= lastChange
	if reverseCount > maxReverseCount {
		maxReverseCount = reverseCount
		maxReversePos = lastChild
	}
	if maxReverseCount > maxCount {
		return n.TrimAndFlatten(maxReversePos, true)
	}
	return n.TrimAndFlatten(maxPos, false)
}

// CleanDoublyPartial trims a Q-node around the contiguous zone whose leaves
// are most nearly all full, and returns the removed nodes (see
// TrimAndFlattenBetween).
func (n *Node) CleanDoublyPartial() []*Node {
	var (
		count, carry, maxZoneScore          int
		maxCountSinceAnchor, countAtAnchor  int
		anchorPos, maxNodeSinceAnchor       *Node
		maxAnchorPos, maxNodeSinceMaxAnchor *Node
	)
	for c := range n.children.All() {
		count += carry
		carry = 0
		switch c.label {
		case Empty:
			carry = -c.leaves
		case Full:
			carry = c.leaves
		case Partial:
			for gc := range c.labeled[Empty] {
				if count <= countAtAnchor {
					count -= gc.leaves
				} else {
					carry -= gc.leaves
				}
			}
			for gc := range c.labeled[Full] {
				if count <= countAtAnchor {
					carry += gc.leaves
				} else {
					count += gc.leaves
				}
			}
		}
		if count <= countAtAnchor {
			if zone := maxCountSinceAnchor - countAtAnchor; zone >= maxZoneScore {
				maxAnchorPos = anchorPos
				maxNodeSinceMaxAnchor = maxNodeSinceAnchor
				maxZoneScore = zone
			}
			anchorPos = c
			countAtAnchor = count
			maxCountSinceAnchor = countAtAnchor
		} else if count > maxCountSinceAnchor {
			maxCountSinceAnchor = count
			maxNodeSinceAnchor = c
		}
	}
	count += carry
	if count > maxCountSinceAnchor {
		maxCountSinceAnchor = count
		maxNodeSinceAnchor = nil
	}
	if maxCountSinceAnchor-countAtAnchor >= maxZoneScore {
		maxAnchorPos = anchorPos
		maxNodeSinceMaxAnchor = maxNodeSinceAnchor
	}
	return n.TrimAndFlattenBetween(maxAnchorPos, maxNodeSinceMaxAnchor)
}
