package io

import (
	"strconv"

	"github.com/matzehuels/pqtree/pkg/errors"
	"github.com/matzehuels/pqtree/pkg/pq"
)

// NodeSpec is the serialized form of a node and its subtree.
type NodeSpec struct {
	ID        string         `json:"id,omitempty" toml:"id,omitempty" yaml:"id,omitempty" validate:"omitempty,max=128"`
	Type      pq.NodeType    `json:"type" toml:"type" yaml:"type"`
	Label     pq.Label       `json:"label,omitempty" toml:"label,omitempty" yaml:"label,omitempty"`
	Virtual   int            `json:"virtual,omitempty" toml:"virtual,omitempty" yaml:"virtual,omitempty"`
	Real      int            `json:"real,omitempty" toml:"real,omitempty" yaml:"real,omitempty"`
	Direction *DirectionSpec `json:"direction,omitempty" toml:"direction,omitempty" yaml:"direction,omitempty"`
	Children  []NodeSpec     `json:"children,omitempty" toml:"children,omitempty" yaml:"children,omitempty" validate:"dive"`
}

// DirectionSpec is the serialized form of a pq.DirectionIndicator.
type DirectionSpec struct {
	Number   int  `json:"number" toml:"number" yaml:"number"`
	Reversed bool `json:"reversed,omitempty" toml:"reversed,omitempty" yaml:"reversed,omitempty"`
}

// Build creates the tree described by spec. Children are attached in order,
// so leaf counts and label partitions are consistent on return.
func Build(spec NodeSpec) (*Tree, error) {
	t := NewTree(nil)
	root, err := t.build(spec, "root")
	if err != nil {
		return nil, err
	}
	t.Root = root
	return t, nil
}

// BuildNode creates the detached subtree described by spec, registering its
// ids in t. The ids must not clash with nodes already named in t.
func (t *Tree) BuildNode(spec NodeSpec) (*pq.Node, error) {
	return t.build(spec, "new")
}

func (t *Tree) build(spec NodeSpec, path string) (*pq.Node, error) {
	if spec.ID != "" {
		path = spec.ID
	}
	if spec.Type == pq.LeafNode && len(spec.Children) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidTree, "%s: leaf has %d children", path, len(spec.Children))
	}
	if _, err := spec.Type.MarshalText(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTree, err, "%s", path)
	}
	if _, err := spec.Label.MarshalText(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTree, err, "%s", path)
	}

	var n *pq.Node
	if spec.Type == pq.LeafNode {
		n = pq.NewLeaf(spec.Virtual, spec.Real)
	} else {
		n = pq.NewNode(spec.Type)
		n.SetVirtualNum(spec.Virtual)
		n.SetRealNum(spec.Real)
	}
	n.Relabel(spec.Label)
	if d := spec.Direction; d != nil {
		n.SetDirectionIndicator(&pq.DirectionIndicator{Number: d.Number, Reversed: d.Reversed})
	}
	if spec.ID != "" {
		if err := t.SetName(n, spec.ID); err != nil {
			return nil, err
		}
	}

	for i, cs := range spec.Children {
		c, err := t.build(cs, childPath(path, i))
		if err != nil {
			return nil, err
		}
		n.AddChild(c)
	}
	return n, nil
}

func childPath(parent string, i int) string {
	return parent + "/" + strconv.Itoa(i)
}

// Spec captures the subtree rooted at n, taking ids from t when t is
// non-nil.
func Spec(t *Tree, n *pq.Node) NodeSpec {
	s := NodeSpec{
		Type:    n.Type(),
		Label:   n.Label(),
		Virtual: n.VirtualNum(),
		Real:    n.RealNum(),
	}
	if t != nil {
		s.ID = t.Name(n)
	}
	if d := n.DirectionIndicator(); d != nil {
		s.Direction = &DirectionSpec{Number: d.Number, Reversed: d.Reversed}
	}
	for c := range n.Children() {
		s.Children = append(s.Children, Spec(t, c))
	}
	return s
}
