package pq

import (
	"strings"
	"testing"
)

func TestToDOT(t *testing.T) {
	f := newFixture()
	root := f.q("root", Partial, f.leaf("a", Empty), f.leaf("b", Full))

	dot := ToDOT(root, f.name)

	if !strings.HasPrefix(dot, "digraph PQTree {") {
		t.Error("ToDOT() should start with 'digraph PQTree {'")
	}
	if !strings.HasSuffix(strings.TrimSpace(dot), "}") {
		t.Error("ToDOT() should end with '}'")
	}
	expected := []string{
		"rankdir=TB",
		"bgcolor=\"transparent\"",
		"arrowhead=none",
		`n0 [label="root\nPARTIAL", shape=box`,
		`n1 [label="a\nEMPTY", shape=box, style="filled,rounded"`,
		"n0 -> n1;",
		"n0 -> n2;",
		labelFill[Full],
	}
	for _, exp := range expected {
		if !strings.Contains(dot, exp) {
			t.Errorf("ToDOT() missing %q\n%s", exp, dot)
		}
	}
}

func TestToDOTEmpty(t *testing.T) {
	dot := ToDOT(nil, nil)
	if !strings.Contains(dot, "digraph PQTree {") || strings.Contains(dot, "n0") {
		t.Errorf("unexpected DOT for empty tree:\n%s", dot)
	}
}

func TestSprint(t *testing.T) {
	f := newFixture()
	root := f.q("r", Unknown,
		f.leaf("a", Empty),
		f.add("p", NewNode(PNode)),
		f.leaf("b", Full),
	)
	f.get("p").AddChild(f.leaf("c", Empty))
	f.get("p").AddChild(f.leaf("d", Empty))

	if got, want := Sprint(root, f.name), "r[a p{c d} b]"; got != want {
		t.Errorf("Sprint() = %q, want %q", got, want)
	}
	if got := Sprint(nil, nil); got != "(empty)" {
		t.Errorf("Sprint(nil) = %q", got)
	}
}
