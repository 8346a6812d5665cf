package perm

import (
	"slices"
	"strings"

	"github.com/matzehuels/pqtree/pkg/pq"
)

// PQTree is a data structure that compactly represents a family of permutations
// satisfying "consecutive ones" constraints.
//
// A PQ-tree encodes the valid orderings of n elements where certain subsets
// must appear consecutively. The tree has two types of internal nodes:
//   - P-nodes (Permutable): children can appear in any order (n! orderings)
//   - Q-nodes (seQuence): children have a fixed order, reversible (2 orderings)
//
// The tree is built from [pq.Node] values: element i is the leaf whose
// RealNum is i. Reduce labels the leaves of a constraint Full, bubbles labels
// up through the label partitions of each node and rewrites the pertinent
// subtree with ReplaceChild, ReverseChildren and Flatten.
//
// PQTree is not safe for concurrent use. The zero value of PQTree represents
// the empty permutation; use NewPQTree to create instances.
type PQTree struct {
	root   *pq.Node
	leaves []*pq.Node
}

// NewPQTree creates a PQ-tree representing all n! permutations of n elements.
//
// The elements are numbered [0, 1, ..., n-1]. Initially, no constraints are
// applied, so all n! orderings are valid. Call Reduce to apply consecutive-ones
// constraints that restrict the set of valid permutations.
//
// For n = 0, NewPQTree returns a tree representing one empty permutation.
// For n = 1, NewPQTree returns a tree with a single element.
func NewPQTree(n int) *PQTree {
	if n <= 0 {
		return &PQTree{}
	}
	leaves := make([]*pq.Node, n)
	for i := range leaves {
		leaves[i] = pq.NewLeaf(0, i)
	}
	if n == 1 {
		return &PQTree{root: leaves[0], leaves: leaves}
	}

	root := pq.NewNode(pq.PNode)
	for _, leaf := range leaves {
		root.AddChild(leaf)
	}
	return &PQTree{root: root, leaves: leaves}
}

// Root returns the root node of the tree, or nil for the empty tree.
// Callers must not mutate it.
func (t *PQTree) Root() *pq.Node { return t.root }

// Size returns the number of elements.
func (t *PQTree) Size() int { return len(t.leaves) }

// Reduce applies a consecutive-ones constraint to the tree.
//
// After calling Reduce(constraint), only permutations where all elements in
// constraint appear consecutively (in any order) remain valid. Multiple calls
// to Reduce apply cumulative constraints, further restricting the valid set.
//
// Reduce returns true if the constraint is satisfiable with previously applied
// constraints, false if the constraint creates a contradiction. When Reduce
// returns false, the tree is left in an undefined state and should not be used
// further.
//
// Element indices must be in the range [0, n-1]; out-of-range indices are
// silently ignored. Trivial constraints (length 0, 1, or equal to tree size)
// are always satisfiable and have no effect on the tree structure.
//
// Example:
//
//	tree := perm.NewPQTree(5)
//	tree.Reduce([]int{1, 2, 3})  // Elements 1, 2, 3 must be consecutive
//	tree.Reduce([]int{0, 1})     // Elements 0, 1 must be consecutive
func (t *PQTree) Reduce(constraint []int) bool {
	if t.root == nil || len(constraint) <= 1 || len(constraint) == len(t.leaves) {
		return true
	}

	clearLabels(t.root)
	total := 0
	for _, elem := range constraint {
		if elem >= 0 && elem < len(t.leaves) && t.leaves[elem].Label() != pq.Full {
			t.leaves[elem].Relabel(pq.Full)
			total++
		}
	}
	if total <= 1 || total == len(t.leaves) {
		clearLabels(t.root)
		return true
	}

	bubbleUp(t.root)
	ok := t.reduce(pertinentRoot(t.root, total), true)
	if ok {
		clearLabels(t.root)
	}
	return ok
}

// Clone creates an independent deep copy of the PQ-tree.
//
// The cloned tree represents the same set of valid permutations but can be
// modified independently. This is useful for exploring multiple constraint
// branches in search algorithms.
func (t *PQTree) Clone() *PQTree {
	if t.root == nil {
		return &PQTree{}
	}
	root := t.root.Clone()
	leaves := make([]*pq.Node, len(t.leaves))
	for leaf := range root.Leaves() {
		leaves[leaf.RealNum()] = leaf
	}
	return &PQTree{root: root, leaves: leaves}
}

func clearLabels(n *pq.Node) {
	n.Relabel(pq.Unknown)
	n.SetPertinentChildCount(0)
	n.SetPertinentLeafCount(0)
	for c := range n.Children() {
		clearLabels(c)
	}
}

// bubbleUp labels every node bottom-up: unlabelled leaves become Empty, an
// internal node is Full when all its children are, Empty when none is Full or
// Partial, and Partial otherwise.
func bubbleUp(n *pq.Node) pq.Label {
	if n.Type() == pq.LeafNode {
		if n.Label() == pq.Unknown {
			n.Relabel(pq.Empty)
		}
		if n.Label() == pq.Full {
			n.SetPertinentLeafCount(1)
		}
		return n.Label()
	}

	pertinent := 0
	for c := range n.Children() {
		bubbleUp(c)
		pertinent += c.PertinentLeafCount()
	}
	n.SetPertinentLeafCount(pertinent)

	full, partial := n.NumLabeled(pq.Full), n.NumLabeled(pq.Partial)
	n.SetPertinentChildCount(full + partial)
	switch {
	case full == n.NumChildren():
		n.Relabel(pq.Full)
	case full == 0 && partial == 0:
		n.Relabel(pq.Empty)
	default:
		n.Relabel(pq.Partial)
	}
	return n.Label()
}

// pertinentRoot returns the deepest node whose subtree holds all total full
// leaves.
func pertinentRoot(root *pq.Node, total int) *pq.Node {
	n := root
	for {
		next := n
		for c := range n.Children() {
			if c.PertinentLeafCount() == total {
				next = c
				break
			}
		}
		if next == n {
			return n
		}
		n = next
	}
}

// reduce rewrites the partial subtree rooted at n bottom-up. Below the
// pertinent root every partial node ends up as a Q-node whose full children
// sit at one end.
func (t *PQTree) reduce(n *pq.Node, isRoot bool) bool {
	if n.Label() != pq.Partial {
		return true
	}
	for _, c := range n.LabelView(pq.Partial) {
		if !t.reduce(c, false) {
			return false
		}
	}

	switch n.Type() {
	case pq.PNode:
		return t.reducePNode(n, isRoot)
	case pq.QNode:
		return reduceQNode(n, isRoot)
	}
	return true
}

func (t *PQTree) reducePNode(n *pq.Node, isRoot bool) bool {
	partialCh := n.LabelView(pq.Partial)
	fullCh := n.LabelView(pq.Full)
	if len(partialCh) > 2 || (len(partialCh) == 2 && !isRoot) {
		return false
	}

	if !isRoot {
		var q *pq.Node
		if len(partialCh) == 1 {
			q = partialCh[0]
			orient(q, false)
		} else {
			q = pq.NewNode(pq.QNode)
		}
		if b := bundle(n.LabelView(pq.Empty), pq.Empty); b != nil {
			q.AddFirstChild(b)
		}
		if b := bundle(fullCh, pq.Full); b != nil {
			q.AddChild(b)
		}
		n.Parent().ReplaceChild(n, q)
		q.Relabel(pq.Partial)
		return true
	}

	switch len(partialCh) {
	case 0:
		if len(fullCh) > 1 {
			groupChildren(n, fullCh, pq.PNode)
		}
	case 1:
		q := partialCh[0]
		orient(q, false)
		if b := bundle(fullCh, pq.Full); b != nil {
			q.AddChild(b)
		}
		t.collapse(n)
	case 2:
		left, right := partialCh[0], partialCh[1]
		orient(left, false)
		orient(right, true)
		if b := bundle(fullCh, pq.Full); b != nil {
			left.AddChild(b)
		}
		n.RemoveChild(right)
		left.ConcatenateSibling(right)
		t.collapse(n)
	}
	return true
}

// reduceQNode splices every partial child into n, full side towards the
// pertinent run, and checks that the full children are consecutive. Below
// the pertinent root the run must also touch one end of n.
func reduceQNode(n *pq.Node, isRoot bool) bool {
	for _, c := range n.LabelView(pq.Partial) {
		mergeQNode(n, c)
	}

	children := n.ChildSlice()
	first, last := -1, -1
	for i, child := range children {
		if child.Label() == pq.Full {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return false
	}
	for i := first; i <= last; i++ {
		if children[i].Label() != pq.Full {
			return false
		}
	}
	return isRoot || first == 0 || last == len(children)-1
}

// groupChildren moves group under a new node of type kind that takes the
// place of group[0]. group must be in sibling order.
func groupChildren(parent *pq.Node, group []*pq.Node, kind pq.NodeType) {
	if len(group) <= 1 {
		return
	}

	node := pq.NewNode(kind)
	parent.ReplaceChild(group[0], node)
	for _, child := range group {
		node.AddChild(child)
	}
	node.Relabel(group[0].Label())
}

// bundle returns group as a single detached-or-attached node: the node itself
// for a group of one, or a new P-node labelled l holding the whole group.
func bundle(group []*pq.Node, l pq.Label) *pq.Node {
	switch len(group) {
	case 0:
		return nil
	case 1:
		return group[0]
	}
	p := pq.NewNode(pq.PNode)
	for _, child := range group {
		p.AddChild(child)
	}
	p.Relabel(l)
	return p
}

// orient reverses a reduced partial Q-node if needed so that its full
// children come first (fullsFirst) or last.
func orient(q *pq.Node, fullsFirst bool) {
	first := q.FirstChild()
	if first == nil {
		return
	}
	if (first.Node().Label() == pq.Full) != fullsFirst {
		q.ReverseChildren()
	}
}

// collapse replaces n by its only child.
func (t *PQTree) collapse(n *pq.Node) {
	if n.NumChildren() != 1 {
		return
	}
	only := n.FirstChild().Node()
	if parent := n.Parent(); parent != nil {
		parent.ReplaceChild(n, only)
		return
	}
	n.RemoveChild(only)
	if n == t.root {
		t.root = only
	}
}

// mergeQNode splices a reduced partial Q-node child into its Q-node parent,
// reversing it first so that its full end faces the pertinent neighbour, or
// the outer end of parent when it has none.
func mergeQNode(parent, child *pq.Node) {
	prev, next := child.PrevSibling(), child.NextSibling()
	orient(child, pertinent(prev) || (!pertinent(next) && prev == nil))
	parent.Flatten(child)
}

func pertinent(n *pq.Node) bool {
	return n != nil && n.Label() != pq.Empty
}

// Enumerate returns all valid permutations represented by the tree.
//
// If limit > 0, Enumerate returns at most limit permutations.
// If limit <= 0, Enumerate returns all valid permutations.
//
// Each returned slice is a separate allocation containing element indices in
// permuted order. For trees with a large ValidCount, always use a limit, or
// stream with EnumerateFunc instead.
//
// Example:
//
//	tree := perm.NewPQTree(4)
//	tree.Reduce([]int{0, 1, 2})
//	orderings := tree.Enumerate(10)  // Get first 10 valid orderings
func (t *PQTree) Enumerate(limit int) [][]int {
	if t.root == nil {
		return [][]int{{}}
	}

	var results [][]int
	enumerateLazy(t.root, nil, func(perm []int) bool {
		results = append(results, perm)
		return limit <= 0 || len(results) < limit
	})
	return results
}

// EnumerateFunc generates valid permutations one at a time via callback.
//
// EnumerateFunc calls fn for each valid permutation until fn returns false or
// all permutations are exhausted. The slice passed to fn is only valid for the
// duration of the call.
//
// EnumerateFunc returns the number of permutations processed before stopping.
// If fn always returns true, the return value equals ValidCount().
func (t *PQTree) EnumerateFunc(fn func([]int) bool) int {
	if t.root == nil {
		fn([]int{})
		return 1
	}

	count := 0
	enumerateLazy(t.root, nil, func(perm []int) bool {
		count++
		return fn(perm)
	})
	return count
}

// enumerateLazy generates permutations one at a time via callback.
// Returns false if callback signaled stop, true otherwise.
func enumerateLazy(node *pq.Node, prefix []int, emit func([]int) bool) bool {
	if node.Type() == pq.LeafNode {
		return emit(append(slices.Clone(prefix), node.RealNum()))
	}

	return forEachChildPerm(node, func(children []*pq.Node) bool {
		return enumerateChildrenLazy(children, prefix, emit)
	})
}

// For Q-nodes: yields forward and reverse only.
// For P-nodes: generates permutations one at a time without storing them all.
func forEachChildPerm(node *pq.Node, fn func([]*pq.Node) bool) bool {
	children := node.ChildSlice()
	if node.Type() == pq.QNode {
		if !fn(children) {
			return false
		}
		if len(children) <= 1 {
			return true
		}
		rev := slices.Clone(children)
		slices.Reverse(rev)
		return fn(rev)
	}

	n := len(children)
	if n == 0 {
		return fn(nil)
	}
	if n == 1 {
		return fn(children)
	}

	perm := slices.Clone(children)
	state := make([]int, n)

	if !fn(slices.Clone(perm)) {
		return false
	}

	// Heap's algorithm, iteratively
	for i := 0; i < n; {
		if state[i] < i {
			if i&1 == 0 {
				perm[0], perm[i] = perm[i], perm[0]
			} else {
				perm[state[i]], perm[i] = perm[i], perm[state[i]]
			}
			if !fn(slices.Clone(perm)) {
				return false
			}
			state[i]++
			i = 0
		} else {
			state[i] = 0
			i++
		}
	}
	return true
}

func enumerateChildrenLazy(children []*pq.Node, prefix []int, emit func([]int) bool) bool {
	if len(children) == 0 {
		return emit(slices.Clone(prefix))
	}

	first := children[0]
	rest := children[1:]

	return enumerateLazy(first, nil, func(firstPerm []int) bool {
		newPrefix := append(slices.Clone(prefix), firstPerm...)
		return enumerateChildrenLazy(rest, newPrefix, emit)
	})
}

// ValidCount returns the number of valid permutations represented by the tree.
//
// The count is computed from the tree structure without enumerating:
//   - P-nodes multiply by n! (factorial of child count)
//   - Q-nodes multiply by 2 (forward and reverse)
//   - Leaf nodes contribute 1
func (t *PQTree) ValidCount() int {
	if t.root == nil {
		return 1
	}
	return countPerms(t.root)
}

func countPerms(node *pq.Node) int {
	if node.Type() == pq.LeafNode {
		return 1
	}

	product := 1
	for child := range node.Children() {
		product *= countPerms(child)
	}

	switch node.Type() {
	case pq.QNode:
		return 2 * product
	default:
		return Factorial(node.NumChildren()) * product
	}
}

// String returns a human-readable representation of the tree structure.
//
// P-nodes are enclosed in curly braces, Q-nodes in square brackets, and leaf
// nodes are shown as single digits 0-9, or (a), (b), ... for indices >= 10.
//
// Example output: "{0 {1 2 3} 4}" represents a tree where elements 1, 2, 3
// must be consecutive but can permute among themselves.
func (t *PQTree) String() string {
	return t.StringWithLabels(nil)
}

// StringWithLabels returns a human-readable representation using custom
// labels: element i is displayed as labels[i] when present, and as its
// numeric form otherwise.
//
// Example:
//
//	tree := perm.NewPQTree(3)
//	tree.Reduce([]int{0, 1})
//	fmt.Println(tree.StringWithLabels([]string{"app", "auth", "db"}))  // "{{app auth} db}"
func (t *PQTree) StringWithLabels(labels []string) string {
	if t.root == nil {
		return "(empty)"
	}
	var sb strings.Builder
	writeNode(&sb, t.root, labels)
	return sb.String()
}

func writeNode(sb *strings.Builder, n *pq.Node, labels []string) {
	if n.Type() == pq.LeafNode {
		sb.WriteString(elementName(n.RealNum(), labels))
		return
	}

	open, close := "{", "}"
	if n.Type() == pq.QNode {
		open, close = "[", "]"
	}
	sb.WriteString(open)
	i := 0
	for child := range n.Children() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		writeNode(sb, child, labels)
		i++
	}
	sb.WriteString(close)
}

func elementName(value int, labels []string) string {
	switch {
	case value < len(labels):
		return labels[value]
	case value < 10:
		return string('0' + rune(value))
	default:
		return "(" + string('a'+rune(value-10)) + ")"
	}
}

// ToDOT returns a Graphviz DOT representation of the tree structure, with
// leaves named as in StringWithLabels. See pq.ToDOT for the styling.
func (t *PQTree) ToDOT(labels []string) string {
	return pq.ToDOT(t.root, func(n *pq.Node) string {
		if n.Type() == pq.LeafNode {
			return elementName(n.RealNum(), labels)
		}
		return ""
	})
}
