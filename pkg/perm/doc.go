// Package perm answers the consecutive-ones question on top of package pq:
// given n elements and a set of subsets, which orderings keep every subset
// contiguous?
//
// # PQ-trees
//
// [NewPQTree] starts from the universal tree (one P-node over all leaves).
// Each [PQTree.Reduce] labels the constraint's leaves Full, bubbles labels up
// through the label partitions of the pq nodes and rewrites the pertinent
// subtree so that only orderings keeping the constraint consecutive remain:
//
//	tree := perm.NewPQTree(5)
//	tree.Reduce([]int{1, 2, 3})
//	fmt.Println(tree)              // {0 {1 2 3} 4}
//	fmt.Println(tree.ValidCount()) // 36
//
// A Reduce returning false means the constraints cannot be satisfied together.
// Use [PQTree.Enumerate] or [PQTree.EnumerateFunc] to list the orderings and
// [PQTree.ToDOT] to draw the tree.
//
// # Brute force
//
// [All], [Generate], [IsConsecutive] and [Satisfies] work on plain
// permutations and serve as the reference for small inputs.
package perm
