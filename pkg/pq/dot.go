package pq

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// NameFunc names a node for display. Returning "" falls back to the default:
// the real number for a leaf and the type letter for an internal node.
type NameFunc func(*Node) string

func displayName(n *Node, name NameFunc) string {
	if name != nil {
		if s := name(n); s != "" {
			return s
		}
	}
	switch n.typ {
	case LeafNode:
		return strconv.Itoa(n.realNum)
	case QNode:
		return "Q"
	default:
		return "P"
	}
}

// Sprint renders the subtree rooted at root in bracket notation: P-nodes in
// curly braces, Q-nodes in square brackets and leaves by name. Internal nodes
// that have a name are prefixed by it, as in "q1[a b c]".
func Sprint(root *Node, name NameFunc) string {
	if root == nil {
		return "(empty)"
	}
	var sb strings.Builder
	sprint(&sb, root, name)
	return sb.String()
}

func sprint(sb *strings.Builder, n *Node, name NameFunc) {
	if n.typ == LeafNode {
		sb.WriteString(displayName(n, name))
		return
	}
	open, close := "{", "}"
	if n.typ == QNode {
		open, close = "[", "]"
	}
	if name != nil {
		sb.WriteString(name(n))
	}
	sb.WriteString(open)
	first := true
	for c := range n.children.All() {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		sprint(sb, c, name)
	}
	sb.WriteString(close)
}

var labelFill = [...]string{
	Unknown: "white",
	Empty:   "#e8e8e8",
	Full:    "#8fd19e",
	Partial: "#ffe08a",
}

// ToDOT returns a Graphviz digraph of the subtree rooted at root.
//
// Node representation:
//   - P-nodes: ellipse
//   - Q-nodes: box
//   - Leaves: rounded box
//
// Nodes are filled by label (white when Unknown) and captioned by name, with
// the label appended for anything other than Unknown.
func ToDOT(root *Node, name NameFunc) string {
	var buf bytes.Buffer
	buf.WriteString("digraph PQTree {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"SF Mono, Menlo, monospace\", fontsize=14, style=filled, fillcolor=white];\n")
	buf.WriteString("  edge [arrowhead=none];\n\n")

	if root != nil {
		writeDOTNode(&buf, root, 0, name)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeDOTNode(buf *bytes.Buffer, n *Node, id int, name NameFunc) int {
	nodeID := fmt.Sprintf("n%d", id)
	next := id + 1

	caption := displayName(n, name)
	if n.label != Unknown {
		caption += "\n" + n.label.String()
	}
	fill := "white"
	if n.label.valid() {
		fill = labelFill[n.label]
	}

	switch n.typ {
	case LeafNode:
		fmt.Fprintf(buf, "  %s [label=%q, shape=box, style=\"filled,rounded\", fillcolor=%q];\n", nodeID, caption, fill)
	case PNode:
		fmt.Fprintf(buf, "  %s [label=%q, shape=ellipse, fillcolor=%q];\n", nodeID, caption, fill)
	case QNode:
		fmt.Fprintf(buf, "  %s [label=%q, shape=box, fillcolor=%q];\n", nodeID, caption, fill)
	}

	for c := range n.children.All() {
		fmt.Fprintf(buf, "  %s -> n%d;\n", nodeID, next)
		next = writeDOTNode(buf, c, next, name)
	}
	return next
}
