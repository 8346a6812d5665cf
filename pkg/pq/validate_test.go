package pq

import (
	"testing"

	"github.com/matzehuels/pqtree/pkg/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(root, a, b *Node)
	}{
		{"leaf count", func(root, _, _ *Node) { root.leaves = 7 }},
		{"leaf with children", func(_, a, b *Node) { a.children.AddLast(NewLeaf(0, 9)) }},
		{"stale bucket", func(_, a, _ *Node) { a.label = Full }},
		{"foreign bucket entry", func(root, _, _ *Node) { root.bucketAdd(NewLeaf(0, 9)) }},
		{"wrong parent", func(_, a, _ *Node) { a.parent = nil }},
		{"list size", func(root, _, _ *Node) { root.children.size = 5 }},
		{"broken back link", func(root, _, _ *Node) { root.children.last.prev = nil }},
		{"tail successor", func(root, _, _ *Node) { root.children.last.next = root.children.first }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := NewNode(QNode)
			a, b := NewLeaf(0, 0), NewLeaf(0, 1)
			root.AddChild(a)
			root.AddChild(b)
			if err := Validate(root); err != nil {
				t.Fatalf("valid tree rejected: %v", err)
			}

			tt.corrupt(root, a, b)
			err := Validate(root)
			if err == nil {
				t.Fatal("corruption not detected")
			}
			if !errors.Is(err, errors.ErrCodeInvariant) {
				t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvariant)
			}
		})
	}
}

func TestValidateNil(t *testing.T) {
	if err := Validate(nil); err != nil {
		t.Errorf("Validate(nil) = %v", err)
	}
}
