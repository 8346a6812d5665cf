package scenario

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/pqtree/pkg/errors"
	pqio "github.com/matzehuels/pqtree/pkg/io"
)

// Operation names accepted in the "op" field.
const (
	OpAdd         = "add"
	OpAddFirst    = "add-first"
	OpRemove      = "remove"
	OpReplace     = "replace"
	OpReverse     = "reverse"
	OpConcat      = "concat"
	OpMerge       = "merge"
	OpFlatten     = "flatten"
	OpRelabel     = "relabel"
	OpTrim        = "trim"
	OpTrimBetween = "trim-between"
	OpCleanSingly = "clean-singly"
	OpCleanDoubly = "clean-doubly"
)

// Ops lists every operation in the order they are documented.
var Ops = []string{
	OpAdd, OpAddFirst, OpRemove, OpReplace, OpReverse, OpConcat, OpMerge,
	OpFlatten, OpRelabel, OpTrim, OpTrimBetween, OpCleanSingly, OpCleanDoubly,
}

// RootID addresses the root of the tree when no node carries that id.
const RootID = "root"

// Scenario is a tree plus a script of structural operations applied to it.
type Scenario struct {
	Name        string        `toml:"name" yaml:"name" json:"name" validate:"required,max=128"`
	Description string        `toml:"description,omitempty" yaml:"description,omitempty" json:"description,omitempty"`
	Tree        pqio.NodeSpec `toml:"tree" yaml:"tree" json:"tree"`
	Ops         []Op          `toml:"ops" yaml:"ops" json:"ops" validate:"dive"`
}

// Op is one step of a scenario. Which operand fields are used depends on Op:
//
//	add, add-first      target, node or subtree
//	remove              target, node
//	replace             target, node (the old child), with or subtree
//	reverse             target
//	concat, merge       target, node (the sibling)
//	flatten             target, node (the child)
//	relabel             target, label
//	trim                target, node (the pointer, optional), reversed
//	trim-between        target, start, end (both optional)
//	clean-singly/doubly target
//
// Expect, when set, lists the target's child ids after the step; Removed
// lists the ids of the nodes a trim or clean step must remove.
type Op struct {
	Op       string         `toml:"op" yaml:"op" json:"op" validate:"required,oneof=add add-first remove replace reverse concat merge flatten relabel trim trim-between clean-singly clean-doubly"`
	Target   string         `toml:"target,omitempty" yaml:"target,omitempty" json:"target,omitempty" validate:"omitempty,max=128"`
	Node     string         `toml:"node,omitempty" yaml:"node,omitempty" json:"node,omitempty" validate:"omitempty,max=128"`
	With     string         `toml:"with,omitempty" yaml:"with,omitempty" json:"with,omitempty" validate:"omitempty,max=128"`
	Subtree  *pqio.NodeSpec `toml:"subtree,omitempty" yaml:"subtree,omitempty" json:"subtree,omitempty"`
	Label    string         `toml:"label,omitempty" yaml:"label,omitempty" json:"label,omitempty"`
	Reversed bool           `toml:"reversed,omitempty" yaml:"reversed,omitempty" json:"reversed,omitempty"`
	Start    string         `toml:"start,omitempty" yaml:"start,omitempty" json:"start,omitempty"`
	End      string         `toml:"end,omitempty" yaml:"end,omitempty" json:"end,omitempty"`
	Expect   []string       `toml:"expect,omitempty" yaml:"expect,omitempty" json:"expect,omitempty"`
	Removed  []string       `toml:"removed,omitempty" yaml:"removed,omitempty" json:"removed,omitempty"`
}

// TargetID returns the id of the node the op applies to.
func (o Op) TargetID() string {
	if o.Target == "" {
		return RootID
	}
	return o.Target
}

var validate = validator.New()

// Validate checks the scenario's fields and the operands each op needs. It
// does not build the tree; ids are resolved when the scenario runs.
func (s *Scenario) Validate() error {
	if err := validate.Struct(s); err != nil {
		return errors.New(errors.ErrCodeInvalidScenario, "%s", describe(err))
	}
	for i, op := range s.Ops {
		if err := op.check(); err != nil {
			return errors.New(errors.ErrCodeInvalidScenario, "op %d (%s): %s", i+1, op.Op, err)
		}
	}
	return nil
}

func (o Op) check() error {
	switch o.Op {
	case OpAdd, OpAddFirst:
		if (o.Node == "") == (o.Subtree == nil) {
			return fmt.Errorf("exactly one of node or subtree is required")
		}
	case OpRemove, OpConcat, OpMerge, OpFlatten:
		if o.Node == "" {
			return fmt.Errorf("node is required")
		}
	case OpReplace:
		if o.Node == "" {
			return fmt.Errorf("node is required")
		}
		if (o.With == "") == (o.Subtree == nil) {
			return fmt.Errorf("exactly one of with or subtree is required")
		}
	case OpRelabel:
		if o.Label == "" {
			return fmt.Errorf("label is required")
		}
	}
	if o.Removed != nil && !removes(o.Op) {
		return fmt.Errorf("removed is only checked for trim and clean ops")
	}
	return nil
}

func removes(op string) bool {
	switch op {
	case OpTrim, OpTrimBetween, OpCleanSingly, OpCleanDoubly:
		return true
	}
	return false
}

// describe joins validator errors into a single message.
func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Namespace()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s: unknown value %q", fe.Namespace(), fe.Value()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s: longer than %s characters", fe.Namespace(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
