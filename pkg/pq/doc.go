// Package pq implements the node machinery of a PQ-tree.
//
// A PQ-tree represents a family of permutations of its leaves. P-nodes allow
// their children in any order, Q-nodes fix the order of their children up to
// reversal. Reduction algorithms (planarity testing, consecutive-ones
// problems) label nodes Empty, Full or Partial and then rewrite Q-nodes so
// that the full leaves become consecutive.
//
// # Building Blocks
//
// [NodeList] is a doubly linked list of nodes with O(1) insertion at either
// end, O(1) concatenation and in-place flattening of a nested list.
//
// [Node] owns a NodeList of children and maintains two derived indexes on
// every mutation: its leaf count, propagated to every ancestor, and a
// partition of its direct children by [Label].
//
// # Reduction Primitives
//
// [Node.TrimAndFlatten] and [Node.TrimAndFlattenBetween] remove the children
// on the wrong side of one or two boundaries and splice partial children into
// their parent. [Node.CleanSinglyPartial] and [Node.CleanDoublyPartial] pick
// the boundaries that remove the fewest leaves.
//
// # Example
//
//	q := pq.NewNode(pq.QNode)
//	for _, l := range []pq.Label{pq.Empty, pq.Empty, pq.Full, pq.Empty} {
//		c := pq.NewNode(pq.LeafNode)
//		q.AddChild(c)
//		c.Relabel(l)
//	}
//	removed := q.TrimAndFlatten(q.FirstChild().Node(), false)
//
// # Invariants
//
// [Validate] checks list linkage, parent links, the label partition and leaf
// counts of a whole subtree. Mutations on well-formed trees always preserve
// them; operations on absent nodes are no-ops.
//
// None of the types in this package are safe for concurrent use.
package pq
