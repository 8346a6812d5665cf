package io

import (
	"github.com/matzehuels/pqtree/pkg/errors"
	"github.com/matzehuels/pqtree/pkg/pq"
)

// Tree is a PQ-tree together with the ids of its named nodes.
type Tree struct {
	Root *pq.Node

	byID   map[string]*pq.Node
	byNode map[*pq.Node]string
}

// NewTree wraps root with an empty id table.
func NewTree(root *pq.Node) *Tree {
	return &Tree{
		Root:   root,
		byID:   make(map[string]*pq.Node),
		byNode: make(map[*pq.Node]string),
	}
}

// Node returns the node named id.
func (t *Tree) Node(id string) (*pq.Node, bool) {
	n, ok := t.byID[id]
	return n, ok
}

// Name returns the id of n, or "" if n is unnamed.
func (t *Tree) Name(n *pq.Node) string {
	return t.byNode[n]
}

// SetName names n. Ids must be valid and unique within the tree.
func (t *Tree) SetName(n *pq.Node, id string) error {
	if err := errors.ValidateNodeID(id); err != nil {
		return err
	}
	if other, ok := t.byID[id]; ok && other != n {
		return errors.New(errors.ErrCodeInvalidTree, "duplicate node id %q", id)
	}
	if old, ok := t.byNode[n]; ok {
		delete(t.byID, old)
	}
	t.byID[id] = n
	t.byNode[n] = id
	return nil
}

// Len returns the number of named nodes.
func (t *Tree) Len() int { return len(t.byID) }

// NameFunc returns a pq.NameFunc that displays nodes by id.
func (t *Tree) NameFunc() pq.NameFunc {
	return t.Name
}

// Names returns the ids of nodes, using the default display name for
// unnamed ones.
func (t *Tree) Names(nodes []*pq.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		if out[i] = t.Name(n); out[i] == "" {
			out[i] = pq.Sprint(n, nil)
		}
	}
	return out
}

// String renders the tree in bracket notation with ids as names.
func (t *Tree) String() string {
	return pq.Sprint(t.Root, t.Name)
}
