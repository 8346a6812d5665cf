package cli

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/pqtree/pkg/errors"
	pqio "github.com/matzehuels/pqtree/pkg/io"
	"github.com/matzehuels/pqtree/pkg/pq"
	"github.com/matzehuels/pqtree/pkg/scenario"
)

func newTestModel(t *testing.T, file string) StepModel {
	t.Helper()
	s, err := scenario.LoadFile(filepath.Join("testdata", file))
	if err != nil {
		t.Fatal(err)
	}
	sess, err := scenario.NewSession(s)
	if err != nil {
		t.Fatal(err)
	}
	return NewStepModel(sess)
}

func press(m StepModel, key string) StepModel {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(StepModel)
}

func TestStepModel(t *testing.T) {
	m := newTestModel(t, "reverse.toml")
	if !strings.Contains(m.View(), "next  ") {
		t.Error("view should show the next op")
	}

	m = press(m, "n")
	if len(m.Steps) != 1 || m.Session.Pos() != 1 {
		t.Fatalf("after n: steps=%d pos=%d", len(m.Steps), m.Session.Pos())
	}
	m = press(m, "enter")
	if len(m.Steps) != 2 {
		t.Fatalf("after enter: steps=%d", len(m.Steps))
	}

	m = press(m, "a")
	if !m.Session.Done() || m.Err != nil {
		t.Fatalf("after a: done=%v err=%v", m.Session.Done(), m.Err)
	}
	view := m.View()
	for _, want := range []string{"all ops applied", "[3/3]", "q[c b]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	// Further steps are ignored.
	m = press(m, "n")
	if len(m.Steps) != 3 || m.Err != nil {
		t.Errorf("after done: steps=%d err=%v", len(m.Steps), m.Err)
	}
}

func TestStepModelStopsOnError(t *testing.T) {
	m := press(newTestModel(t, "broken.yaml"), "a")
	if !errors.Is(m.Err, errors.ErrCodeExpectation) {
		t.Fatalf("Err = %v, want %s", m.Err, errors.ErrCodeExpectation)
	}
	if len(m.Steps) != 1 {
		t.Errorf("steps = %d, want 1", len(m.Steps))
	}
	if !strings.Contains(m.View(), "step 2") {
		t.Errorf("view should show the failure:\n%s", m.View())
	}
}

func TestStepModelQuit(t *testing.T) {
	m := newTestModel(t, "reverse.toml")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestDescribeOp(t *testing.T) {
	tests := []struct {
		op   scenario.Op
		want string
	}{
		{scenario.Op{Op: scenario.OpReverse, Target: "q"}, "reverse q"},
		{scenario.Op{Op: scenario.OpReverse}, "reverse root"},
		{scenario.Op{Op: scenario.OpRemove, Target: "p", Node: "a"}, "remove p: a"},
		{scenario.Op{Op: scenario.OpReplace, Target: "p", Node: "a", With: "b"}, "replace p: a -> b"},
		{
			scenario.Op{Op: scenario.OpAdd, Target: "p", Subtree: &pqio.NodeSpec{Type: pq.QNode}},
			"add p: <qnode>",
		},
		{scenario.Op{Op: scenario.OpRelabel, Target: "x", Label: "FULL"}, "relabel x: FULL"},
		{scenario.Op{Op: scenario.OpTrim, Target: "q", Node: "c1", Reversed: true}, "trim q: c1 (reversed)"},
		{scenario.Op{Op: scenario.OpTrimBetween, Target: "r", Start: "p1"}, "trim-between r: p1 .. nil"},
	}
	for _, tt := range tests {
		if got := describeOp(tt.op); got != tt.want {
			t.Errorf("describeOp(%+v) = %q, want %q", tt.op, got, tt.want)
		}
	}
}
