package pq

import "github.com/matzehuels/pqtree/pkg/errors"

// Validate checks the structural invariants of the subtree rooted at root and
// returns the first violation as an *errors.Error with code
// errors.ErrCodeInvariant, or nil.
//
// Checked for every node:
//   - the child list is well linked: size matches the reachable items, the
//     head has no prev, the tail has no next and prev/next links pair up;
//   - every child points back to the node as its parent;
//   - the label partition holds exactly the children, each under its label;
//   - a leaf has no children and a leaf count of 1, any other node has the
//     sum of its children's counts;
//   - no node is reachable twice.
func Validate(root *Node) error {
	if root == nil {
		return nil
	}
	seen := make(map[*Node]bool)
	return validate(root, seen)
}

func validate(n *Node, seen map[*Node]bool) error {
	if seen[n] {
		return invariant(n, "node reachable twice")
	}
	seen[n] = true

	if err := validateList(n); err != nil {
		return err
	}

	buckets := 0
	for l := range n.labeled {
		for c := range n.labeled[l] {
			if c.parent != n {
				return invariant(n, "label partition holds a non-child %s", c)
			}
			if c.label != Label(l) {
				return invariant(n, "child %s filed under %s", c, Label(l))
			}
		}
		buckets += len(n.labeled[l])
	}
	if buckets != n.children.Len() {
		return invariant(n, "label partition holds %d nodes, want %d", buckets, n.children.Len())
	}

	sum := 0
	for c := range n.children.All() {
		if c.parent != n {
			return invariant(n, "child %s has wrong parent", c)
		}
		if !n.HasLabeledChild(c.label, c) {
			return invariant(n, "child %s missing from %s partition", c, c.label)
		}
		if err := validate(c, seen); err != nil {
			return err
		}
		sum += c.leaves
	}

	if n.typ == LeafNode {
		if n.children.Len() != 0 {
			return invariant(n, "leaf has %d children", n.children.Len())
		}
		if n.leaves != 1 {
			return invariant(n, "leaf count %d, want 1", n.leaves)
		}
		return nil
	}
	if n.leaves != sum {
		return invariant(n, "leaf count %d, want %d", n.leaves, sum)
	}
	return nil
}

func validateList(n *Node) error {
	l := &n.children
	if (l.first == nil) != (l.last == nil) {
		return invariant(n, "child list has only one boundary")
	}
	if l.first != nil && l.first.prev != nil {
		return invariant(n, "child list head has a predecessor")
	}
	if l.last != nil && l.last.next != nil {
		return invariant(n, "child list tail has a successor")
	}
	count := 0
	var prev *ListItem
	for it := l.first; it != nil; it = it.next {
		if it.prev != prev {
			return invariant(n, "child list link mismatch at position %d", count)
		}
		prev = it
		count++
		if count > l.size {
			break
		}
	}
	if prev != l.last {
		return invariant(n, "child list tail is not reachable from head")
	}
	if count != l.size {
		return invariant(n, "child list size %d, want %d", l.size, count)
	}
	return nil
}

func invariant(n *Node, format string, args ...any) error {
	e := errors.New(errors.ErrCodeInvariant, format, args...)
	e.Message = n.String() + ": " + e.Message
	return e
}
