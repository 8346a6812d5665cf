package scenario

import (
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/pqtree/pkg/errors"
	pqio "github.com/matzehuels/pqtree/pkg/io"
	"github.com/matzehuels/pqtree/pkg/pq"
)

// Step is the outcome of one applied op.
type Step struct {
	Index    int           `json:"index"`
	Op       string        `json:"op"`
	Target   string        `json:"target"`
	Children []string      `json:"children"`
	Removed  []string      `json:"removed,omitempty"`
	Tree     string        `json:"tree"`
	Duration time.Duration `json:"duration_ns"`
}

// Session applies the ops of a scenario one at a time. The invariants of the
// whole tree are checked after every op.
//
// A Session is not safe for concurrent use.
type Session struct {
	scenario *Scenario
	tree     *pqio.Tree
	pos      int
}

// NewSession builds the scenario's tree. The scenario should have passed
// [Scenario.Validate].
func NewSession(s *Scenario) (*Session, error) {
	tree, err := pqio.Build(s.Tree)
	if err != nil {
		return nil, fmt.Errorf("build tree: %w", err)
	}
	if err := pq.Validate(tree.Root); err != nil {
		return nil, fmt.Errorf("build tree: %w", err)
	}
	return &Session{scenario: s, tree: tree}, nil
}

// Tree returns the tree being rewritten.
func (s *Session) Tree() *pqio.Tree { return s.tree }

// Scenario returns the script being applied.
func (s *Session) Scenario() *Scenario { return s.scenario }

// Pos returns the number of ops applied so far.
func (s *Session) Pos() int { return s.pos }

// Len returns the number of ops in the script.
func (s *Session) Len() int { return len(s.scenario.Ops) }

// Done reports whether every op has been applied.
func (s *Session) Done() bool { return s.pos >= len(s.scenario.Ops) }

// Peek returns the next op without applying it.
func (s *Session) Peek() (Op, bool) {
	if s.Done() {
		return Op{}, false
	}
	return s.scenario.Ops[s.pos], true
}

// Next applies the next op and checks its expectations. The session advances
// even when the step fails, so the failing tree can still be inspected.
func (s *Session) Next() (Step, error) {
	op, ok := s.Peek()
	if !ok {
		return Step{}, errors.New(errors.ErrCodeInvalidInput, "scenario %q has no more ops", s.scenario.Name)
	}
	s.pos++

	step := Step{Index: s.pos, Op: op.Op, Target: op.TargetID()}
	start := time.Now()
	target, removed, err := s.apply(op)
	step.Duration = time.Since(start)
	step.Tree = s.tree.String()
	if err != nil {
		return step, fmt.Errorf("step %d (%s): %w", step.Index, op.Op, err)
	}
	step.Children = s.tree.Names(target.ChildSlice())
	step.Removed = s.tree.Names(removed)

	if err := pq.Validate(s.tree.Root); err != nil {
		return step, fmt.Errorf("step %d (%s): %w", step.Index, op.Op, err)
	}
	if op.Expect != nil && !slices.Equal(step.Children, op.Expect) {
		return step, errors.Wrap(errors.ErrCodeExpectation, &errors.ExpectationError{
			Step: step.Index, Node: step.Target, Got: step.Children, Want: op.Expect,
		}, "scenario %q", s.scenario.Name)
	}
	if op.Removed != nil && !slices.Equal(step.Removed, op.Removed) {
		return step, errors.Wrap(errors.ErrCodeExpectation, &errors.ExpectationError{
			Step: step.Index, Node: step.Target, What: "removed children", Got: step.Removed, Want: op.Removed,
		}, "scenario %q", s.scenario.Name)
	}
	return step, nil
}

// lookup resolves a node id. "root" falls back to the tree root.
func (s *Session) lookup(id string) (*pq.Node, error) {
	if n, ok := s.tree.Node(id); ok {
		return n, nil
	}
	if id == RootID {
		return s.tree.Root, nil
	}
	return nil, errors.New(errors.ErrCodeNotFound, "no node with id %q", id)
}

// lookupOptional resolves id, mapping the empty id to nil.
func (s *Session) lookupOptional(id string) (*pq.Node, error) {
	if id == "" {
		return nil, nil
	}
	return s.lookup(id)
}

// operand resolves the node an add or replace attaches: either an existing
// node named by id or a new subtree.
func (s *Session) operand(id string, spec *pqio.NodeSpec) (*pq.Node, error) {
	if spec != nil {
		return s.tree.BuildNode(*spec)
	}
	return s.lookup(id)
}

func (s *Session) apply(op Op) (target *pq.Node, removed []*pq.Node, err error) {
	// Attaching a node beneath itself panics with an *errors.Error.
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*errors.Error)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()

	target, err = s.lookup(op.TargetID())
	if err != nil {
		return nil, nil, err
	}

	switch op.Op {
	case OpAdd, OpAddFirst:
		c, err := s.operand(op.Node, op.Subtree)
		if err != nil {
			return nil, nil, err
		}
		if op.Op == OpAdd {
			target.AddChild(c)
		} else {
			target.AddFirstChild(c)
		}
	case OpRemove:
		c, err := s.lookup(op.Node)
		if err != nil {
			return nil, nil, err
		}
		target.RemoveChild(c)
	case OpReplace:
		old, err := s.lookup(op.Node)
		if err != nil {
			return nil, nil, err
		}
		repl, err := s.operand(op.With, op.Subtree)
		if err != nil {
			return nil, nil, err
		}
		target.ReplaceChild(old, repl)
	case OpReverse:
		target.ReverseChildren()
	case OpConcat, OpMerge, OpFlatten:
		other, err := s.lookup(op.Node)
		if err != nil {
			return nil, nil, err
		}
		switch op.Op {
		case OpConcat:
			target.ConcatenateSibling(other)
		case OpMerge:
			target.MergeSibling(other)
		default:
			target.Flatten(other)
		}
	case OpRelabel:
		l, err := pq.ParseLabel(op.Label)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "relabel %s", op.TargetID())
		}
		target.Relabel(l)
	case OpTrim:
		pointer, err := s.lookupOptional(op.Node)
		if err != nil {
			return nil, nil, err
		}
		removed = target.TrimAndFlatten(pointer, op.Reversed)
	case OpTrimBetween:
		start, err := s.lookupOptional(op.Start)
		if err != nil {
			return nil, nil, err
		}
		end, err := s.lookupOptional(op.End)
		if err != nil {
			return nil, nil, err
		}
		removed = target.TrimAndFlattenBetween(start, end)
	case OpCleanSingly:
		removed = target.CleanSinglyPartial()
	case OpCleanDoubly:
		removed = target.CleanDoublyPartial()
	default:
		return nil, nil, errors.New(errors.ErrCodeInvalidScenario, "unknown op %q", op.Op)
	}
	return target, removed, nil
}
