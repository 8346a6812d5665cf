package pq

import (
	"fmt"
	"iter"

	"github.com/matzehuels/pqtree/pkg/errors"
)

// Node is a vertex of a PQ-tree.
//
// Every node owns the NodeList of its children and keeps a non-owning link to
// its parent. Two derived indexes are maintained by every mutating method:
//
//   - the number of leaves in the subtree (LeafCount), propagated through all
//     ancestors on each structural change;
//   - a partition of the direct children by label, so NumLabeled and
//     HasLabeledChild are O(1).
//
// A node is attached to at most one parent at a time. Attaching a node that
// already has a parent moves it: it is first removed from the old parent.
// Attaching a node beneath itself panics with an *errors.Error of code
// errors.ErrCodeCycle.
//
// Node is not safe for concurrent use.
type Node struct {
	typ      NodeType
	label    Label
	parent   *Node
	children NodeList
	labeled  [numLabels]map[*Node]struct{}
	leaves   int

	direction         *DirectionIndicator
	pertinentChildren int
	pertinentLeaves   int
	virtualNum        int
	realNum           int
}

// NewNode creates a detached node of type t with no children and the
// Unknown label. A leaf starts with a leaf count of 1, any other node with 0.
func NewNode(t NodeType) *Node {
	n := &Node{typ: t}
	if t == LeafNode {
		n.leaves = 1
	}
	return n
}

// NewLeaf creates a detached leaf carrying the given numbers.
//
// virtual identifies the vertex the leaf's edge points to and real identifies
// the element the leaf stands for; perm uses real as the element index.
func NewLeaf(virtual, real int) *Node {
	n := NewNode(LeafNode)
	n.virtualNum = virtual
	n.realNum = real
	return n
}

// Type returns the node's type.
func (n *Node) Type() NodeType { return n.typ }

// Label returns the node's current label.
func (n *Node) Label() Label { return n.label }

// Parent returns the node's parent, or nil for a root or detached node.
func (n *Node) Parent() *Node { return n.parent }

// LeafCount returns the number of leaves in the subtree rooted at n.
func (n *Node) LeafCount() int { return n.leaves }

// NumChildren returns the number of direct children.
func (n *Node) NumChildren() int { return n.children.Len() }

// Children iterates over the direct children in order.
func (n *Node) Children() iter.Seq[*Node] { return n.children.All() }

// ChildSlice returns a snapshot of the direct children in order.
func (n *Node) ChildSlice() []*Node { return n.children.Slice() }

// FirstChild returns the head item of the child list, or nil.
func (n *Node) FirstChild() *ListItem { return n.children.First() }

// LastChild returns the tail item of the child list, or nil.
func (n *Node) LastChild() *ListItem { return n.children.Last() }

// Relabel sets the node's label and moves it to the matching bucket of its
// parent's label partition.
func (n *Node) Relabel(l Label) {
	if n.parent != nil {
		n.parent.bucketRemove(n)
		n.label = l
		n.parent.bucketAdd(n)
		return
	}
	n.label = l
}

// NumLabeled returns the number of direct children carrying label l.
func (n *Node) NumLabeled(l Label) int {
	if !l.valid() {
		return 0
	}
	return len(n.labeled[l])
}

// HasLabeledChild reports whether c is a direct child of n carrying label l.
func (n *Node) HasLabeledChild(l Label, c *Node) bool {
	if !l.valid() {
		return false
	}
	_, ok := n.labeled[l][c]
	return ok
}

// LabelView returns a snapshot of the direct children carrying label l, in
// sibling order. The result may be modified freely while n is mutated.
func (n *Node) LabelView(l Label) []*Node {
	if n.NumLabeled(l) == 0 {
		return nil
	}
	out := make([]*Node, 0, len(n.labeled[l]))
	for c := range n.children.All() {
		if c.label == l {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) bucketAdd(c *Node) {
	if n.labeled[c.label] == nil {
		n.labeled[c.label] = make(map[*Node]struct{})
	}
	n.labeled[c.label][c] = struct{}{}
}

func (n *Node) bucketRemove(c *Node) {
	delete(n.labeled[c.label], c)
}

func (n *Node) clearBuckets() {
	for l := range n.labeled {
		n.labeled[l] = nil
	}
}

func (n *Node) propagate(delta int) {
	if delta == 0 {
		return
	}
	for a := n; a != nil; a = a.parent {
		a.leaves += delta
	}
}

// isAncestorOrSelf reports whether a is n or one of n's ancestors.
func (n *Node) isAncestorOrSelf(a *Node) bool {
	for p := n; p != nil; p = p.parent {
		if p == a {
			return true
		}
	}
	return false
}

// prepareAttach detaches c from its current parent so that it can be linked
// under n.
func (n *Node) prepareAttach(c *Node, op string) {
	if c == nil {
		panic(errors.New(errors.ErrCodeInvalidInput, "%s: nil node", op))
	}
	if n.isAncestorOrSelf(c) {
		panic(errors.New(errors.ErrCodeCycle, "%s: node would become its own descendant", op))
	}
	if c.parent != nil {
		c.parent.RemoveChild(c)
	}
}

// AddChild appends c to n's children.
func (n *Node) AddChild(c *Node) {
	n.prepareAttach(c, "add child")
	n.children.AddLast(c)
	n.link(c)
}

// AddFirstChild prepends c to n's children.
func (n *Node) AddFirstChild(c *Node) {
	n.prepareAttach(c, "add first child")
	n.children.AddFirst(c)
	n.link(c)
}

func (n *Node) link(c *Node) {
	c.parent = n
	n.bucketAdd(c)
	n.propagate(c.leaves)
}

// RemoveChild detaches c from n. Removing a node that is not a child of n is
// a no-op.
func (n *Node) RemoveChild(c *Node) {
	if c == nil || c.parent != n {
		return
	}
	n.children.Remove(c)
	n.bucketRemove(c)
	c.parent = nil
	n.propagate(-c.leaves)
}

// ReplaceChild puts repl in old's position and detaches old. It is a no-op if
// old is not a child of n.
func (n *Node) ReplaceChild(old, repl *Node) {
	if old == nil || old.parent != n || repl == old {
		return
	}
	n.prepareAttach(repl, "replace child")
	n.children.Replace(old, repl)
	n.bucketRemove(old)
	old.parent = nil
	repl.parent = n
	n.bucketAdd(repl)
	n.propagate(repl.leaves - old.leaves)
}

// ReverseChildren reverses the order of n's children and toggles n's
// direction indicator, if any.
func (n *Node) ReverseChildren() {
	if n.direction != nil {
		n.direction.Reverse()
	}
	n.children.Reverse()
}

// ConcatenateSibling moves all of other's children onto the end of n's
// children, in order. other is left childless with a leaf count of 0 but
// stays attached where it is; see MergeSibling to also detach it.
func (n *Node) ConcatenateSibling(other *Node) {
	if other == nil || other == n || other.children.Len() == 0 {
		return
	}
	if n.isAncestorOrSelf(other) {
		panic(errors.New(errors.ErrCodeCycle, "concatenate sibling: node is a descendant of its sibling"))
	}
	moved := 0
	for c := range other.children.All() {
		c.parent = n
		n.bucketAdd(c)
		moved += c.leaves
	}
	other.clearBuckets()
	n.children.Concatenate(&other.children)
	other.propagate(-moved)
	n.propagate(moved)
}

// MergeSibling concatenates other's children onto n and then removes the
// emptied other from its parent.
func (n *Node) MergeSibling(other *Node) {
	if other == nil || other == n {
		return
	}
	n.ConcatenateSibling(other)
	if other.parent != nil {
		other.parent.RemoveChild(other)
	}
}

// Flatten splices child's children into n's children at child's position.
// child ends up detached and childless. n's leaf count does not change.
//
// Flatten is a no-op if child is not a child of n, and removes child outright
// if it has no children.
func (n *Node) Flatten(child *Node) {
	if child == nil || child.parent != n {
		return
	}
	if child.children.Len() == 0 {
		n.RemoveChild(child)
		return
	}
	n.bucketRemove(child)
	moved := 0
	for c := range child.children.All() {
		c.parent = n
		n.bucketAdd(c)
		moved += c.leaves
	}
	child.clearBuckets()
	n.children.Flatten(child)
	child.parent = nil
	delta := moved - child.leaves
	child.leaves -= moved
	n.propagate(delta)
}

// PrevSibling returns the sibling before n, or nil. It is O(siblings).
func (n *Node) PrevSibling() *Node {
	if it := n.item(); it != nil && it.prev != nil {
		return it.prev.node
	}
	return nil
}

// NextSibling returns the sibling after n, or nil. It is O(siblings).
func (n *Node) NextSibling() *Node {
	if it := n.item(); it != nil && it.next != nil {
		return it.next.node
	}
	return nil
}

func (n *Node) item() *ListItem {
	if n.parent == nil {
		return nil
	}
	return n.parent.children.find(n)
}

// Clone returns a detached deep copy of the subtree rooted at n. Labels,
// leaf numbers, counters and direction indicators are copied.
func (n *Node) Clone() *Node {
	c := &Node{
		typ:               n.typ,
		label:             n.label,
		leaves:            n.leaves,
		pertinentChildren: n.pertinentChildren,
		pertinentLeaves:   n.pertinentLeaves,
		virtualNum:        n.virtualNum,
		realNum:           n.realNum,
	}
	if n.direction != nil {
		d := *n.direction
		c.direction = &d
	}
	for child := range n.children.All() {
		cc := child.Clone()
		cc.parent = c
		c.children.AddLast(cc)
		c.bucketAdd(cc)
	}
	return c
}

// Leaves iterates over the leaves of the subtree rooted at n, left to right.
func (n *Node) Leaves() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.walkLeaves(yield)
	}
}

func (n *Node) walkLeaves(yield func(*Node) bool) bool {
	if n.typ == LeafNode {
		return yield(n)
	}
	for c := range n.children.All() {
		if !c.walkLeaves(yield) {
			return false
		}
	}
	return true
}

// DirectionIndicator returns the indicator attached to n, or nil.
func (n *Node) DirectionIndicator() *DirectionIndicator { return n.direction }

// SetDirectionIndicator attaches d to n, replacing any previous indicator.
// A nil d removes it.
func (n *Node) SetDirectionIndicator(d *DirectionIndicator) { n.direction = d }

// PertinentChildCount returns the driver's pertinent child counter.
func (n *Node) PertinentChildCount() int { return n.pertinentChildren }

// SetPertinentChildCount sets the driver's pertinent child counter.
func (n *Node) SetPertinentChildCount(v int) { n.pertinentChildren = v }

// PertinentLeafCount returns the driver's pertinent leaf counter.
func (n *Node) PertinentLeafCount() int { return n.pertinentLeaves }

// SetPertinentLeafCount sets the driver's pertinent leaf counter.
func (n *Node) SetPertinentLeafCount(v int) { n.pertinentLeaves = v }

// VirtualNum returns the number of the vertex a leaf points to.
func (n *Node) VirtualNum() int { return n.virtualNum }

// SetVirtualNum sets the virtual number.
func (n *Node) SetVirtualNum(v int) { n.virtualNum = v }

// RealNum returns the number of the element a leaf stands for.
func (n *Node) RealNum() int { return n.realNum }

// SetRealNum sets the real number.
func (n *Node) SetRealNum(v int) { n.realNum = v }

// String describes the node itself, not its subtree.
func (n *Node) String() string {
	if n.typ == LeafNode {
		return fmt.Sprintf("LEAF(%d)[%s]", n.realNum, n.label)
	}
	return fmt.Sprintf("%s[%s children=%d leaves=%d]", n.typ, n.label, n.children.Len(), n.leaves)
}
