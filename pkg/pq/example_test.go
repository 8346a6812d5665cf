package pq_test

import (
	"fmt"

	"github.com/matzehuels/pqtree/pkg/pq"
)

func ExampleNode_TrimAndFlatten() {
	q := pq.NewNode(pq.QNode)
	for i, l := range []pq.Label{pq.Empty, pq.Empty, pq.Full, pq.Empty} {
		c := pq.NewLeaf(0, i+1)
		q.AddChild(c)
		c.Relabel(l)
	}

	removed := q.TrimAndFlatten(q.FirstChild().Node(), false)
	fmt.Println("kept:", pq.Sprint(q, nil))
	fmt.Println("removed:", len(removed))
	// Output:
	// kept: [1 3]
	// removed: 2
}

func ExampleNode_Flatten() {
	root := pq.NewNode(pq.QNode)
	inner := pq.NewNode(pq.QNode)
	root.AddChild(pq.NewLeaf(0, 0))
	root.AddChild(inner)
	root.AddChild(pq.NewLeaf(0, 3))
	inner.AddChild(pq.NewLeaf(0, 1))
	inner.AddChild(pq.NewLeaf(0, 2))

	fmt.Println(pq.Sprint(root, nil), root.LeafCount())
	root.Flatten(inner)
	fmt.Println(pq.Sprint(root, nil), root.LeafCount())
	// Output:
	// [0 [1 2] 3] 4
	// [0 1 2 3] 4
}

func ExampleNodeList_Concatenate() {
	var a, b pq.NodeList
	for i := range 4 {
		n := pq.NewLeaf(0, i+1)
		if i < 2 {
			a.AddLast(n)
		} else {
			b.AddLast(n)
		}
	}

	a.Concatenate(&b)
	for n := range a.All() {
		fmt.Print(n.RealNum(), " ")
	}
	fmt.Println("| other:", b.Len())
	// Output:
	// 1 2 3 4 | other: 0
}

func ExampleValidate() {
	root := pq.NewNode(pq.PNode)
	root.AddChild(pq.NewLeaf(0, 0))
	root.AddChild(pq.NewLeaf(0, 1))
	fmt.Println(pq.Validate(root))
	// Output:
	// <nil>
}
