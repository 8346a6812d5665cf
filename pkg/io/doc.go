// Package io provides JSON import and export for PQ-trees.
//
// # JSON Format
//
// A tree is a single nested node object:
//
//	{
//	  "id": "root",
//	  "type": "QNODE",
//	  "children": [
//	    {"id": "a", "type": "LEAF", "label": "EMPTY", "real": 0},
//	    {"id": "p", "type": "PNODE", "label": "PARTIAL", "children": [
//	      {"id": "b", "type": "LEAF", "label": "FULL", "real": 1},
//	      {"id": "c", "type": "LEAF", "real": 2}
//	    ]}
//	  ]
//	}
//
// # Node Fields
//
//   - id: optional identifier, unique within the tree, used by scenarios to
//     address nodes and as the display name
//   - type: LEAF, PNODE or QNODE (P, Q and L are accepted on input; a missing
//     type means LEAF)
//   - label: UNKNOWN, EMPTY, FULL or PARTIAL (missing means UNKNOWN)
//   - virtual, real: leaf numbers
//   - direction: optional {"number": n, "reversed": bool} indicator
//   - children: child nodes in order; a LEAF must not have any
//
// The same node schema is used by the scenario package for the tree section
// of TOML and YAML scenarios, which is why [NodeSpec] carries toml and yaml
// tags as well.
//
// # Import
//
// Use [ImportJSON] to read a tree from a file path, or [ReadJSON] to read
// from any io.Reader. Both validate ids and structure; errors carry the
// errors.ErrCodeInvalidTree or errors.ErrCodeInvalidID code.
//
// # Export
//
// Use [ExportJSON] to write a tree to a file, or [WriteJSON] to write to any
// io.Writer. Labels, numbers, direction indicators and ids survive the round
// trip; leaf counts and label partitions are rebuilt on import.
package io
