// Package scenario runs scripted rewrites of PQ-trees.
//
// A scenario document describes a tree and a list of ops applied to it in
// order. Documents are TOML or YAML:
//
//	name = "singly partial"
//
//	[tree]
//	id = "q"
//	type = "QNODE"
//	  [[tree.children]]
//	  id = "c1"
//	  label = "EMPTY"
//	  # ...
//
//	[[ops]]
//	op = "trim"
//	target = "q"
//	node = "c1"
//	expect = ["c1", "c3"]
//
// Nodes are addressed by id; "root" addresses the root unless a node is
// named so. The ops mirror the structural operations of package pq: add,
// add-first, remove, replace, reverse, concat, merge, flatten, relabel, trim,
// trim-between, clean-singly and clean-doubly.
//
// A [Session] applies ops one at a time and checks the tree invariants after
// each. A [Runner] drives a whole session, logs every step, reports to the
// observability hooks and caches the [Result] of whole documents.
package scenario
