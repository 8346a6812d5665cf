package pq

import (
	"strconv"
	"strings"

	"github.com/matzehuels/pqtree/pkg/errors"
)

// NodeType distinguishes leaves from the two kinds of internal node.
type NodeType int

const (
	// LeafNode is an atomic element with no children.
	LeafNode NodeType = iota
	// PNode children may be permuted arbitrarily.
	PNode
	// QNode children are fixed in order up to reversal.
	QNode
)

var nodeTypeNames = [...]string{
	LeafNode: "LEAF",
	PNode:    "PNODE",
	QNode:    "QNODE",
}

func (t NodeType) String() string {
	if t < 0 || int(t) >= len(nodeTypeNames) {
		return "NodeType(" + strconv.Itoa(int(t)) + ")"
	}
	return nodeTypeNames[t]
}

// MarshalText encodes the type by name.
func (t NodeType) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= len(nodeTypeNames) {
		return nil, errors.New(errors.ErrCodeInvalidTree, "unknown node type %d", int(t))
	}
	return []byte(nodeTypeNames[t]), nil
}

// UnmarshalText decodes a type name as produced by MarshalText.
func (t *NodeType) UnmarshalText(b []byte) error {
	v, err := ParseNodeType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseNodeType parses a node type name. Matching is case-insensitive and
// also accepts the short forms "P", "Q" and "L".
func ParseNodeType(s string) (NodeType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LEAF", "L":
		return LeafNode, nil
	case "PNODE", "P":
		return PNode, nil
	case "QNODE", "Q":
		return QNode, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidTree, "unknown node type %q", s)
}

// Label classifies a node during one reduction pass.
//
// The zero value is Unknown, the label of every freshly created node.
type Label int

const (
	// Unknown is the initial label, before any classification.
	Unknown Label = iota
	// Empty marks a subtree with no pertinent leaves.
	Empty
	// Full marks a subtree whose leaves are all pertinent.
	Full
	// Partial marks a subtree with both pertinent and non-pertinent leaves.
	Partial

	numLabels
)

var labelNames = [...]string{
	Unknown: "UNKNOWN",
	Empty:   "EMPTY",
	Full:    "FULL",
	Partial: "PARTIAL",
}

func (l Label) valid() bool { return l >= 0 && l < numLabels }

func (l Label) String() string {
	if !l.valid() {
		return "Label(" + strconv.Itoa(int(l)) + ")"
	}
	return labelNames[l]
}

// MarshalText encodes the label by name.
func (l Label) MarshalText() ([]byte, error) {
	if !l.valid() {
		return nil, errors.New(errors.ErrCodeInvalidTree, "unknown label %d", int(l))
	}
	return []byte(labelNames[l]), nil
}

// UnmarshalText decodes a label name as produced by MarshalText.
func (l *Label) UnmarshalText(b []byte) error {
	v, err := ParseLabel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// ParseLabel parses a label name case-insensitively. The empty string parses
// as Unknown, and "E", "F" and "P" are accepted as short forms.
func ParseLabel(s string) (Label, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "UNKNOWN", "?":
		return Unknown, nil
	case "EMPTY", "E":
		return Empty, nil
	case "FULL", "F":
		return Full, nil
	case "PARTIAL", "P":
		return Partial, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidTree, "unknown label %q", s)
}
