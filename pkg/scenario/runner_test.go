package scenario

import (
	"context"
	stderrors "errors"
	"io"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pqtree/pkg/cache"
	"github.com/matzehuels/pqtree/pkg/errors"
	pqio "github.com/matzehuels/pqtree/pkg/io"
	"github.com/matzehuels/pqtree/pkg/observability"
	"github.com/matzehuels/pqtree/pkg/pq"
)

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(io.Discard))
}

func leaf(id string, real int) pqio.NodeSpec {
	return pqio.NodeSpec{ID: id, Real: real}
}

// structure builds p{a b c} and rewrites it with the structural ops.
func structure() *Scenario {
	return &Scenario{
		Name: "structure",
		Tree: pqio.NodeSpec{ID: "p", Type: pq.PNode, Children: []pqio.NodeSpec{
			leaf("a", 0), leaf("b", 1), leaf("c", 2),
		}},
		Ops: []Op{
			{Op: OpAdd, Target: "p", Subtree: &pqio.NodeSpec{ID: "d", Real: 3}, Expect: []string{"a", "b", "c", "d"}},
			{Op: OpAddFirst, Target: "p", Node: "d", Expect: []string{"d", "a", "b", "c"}},
			{Op: OpReverse, Target: "p", Expect: []string{"c", "b", "a", "d"}},
			{Op: OpRemove, Target: "p", Node: "b", Expect: []string{"c", "a", "d"}},
			{Op: OpReplace, Target: "p", Node: "a", Subtree: &pqio.NodeSpec{
				ID: "q", Type: pq.QNode, Children: []pqio.NodeSpec{leaf("x", 4), leaf("y", 5)},
			}, Expect: []string{"c", "q", "d"}},
			{Op: OpFlatten, Target: "p", Node: "q", Expect: []string{"c", "x", "y", "d"}},
			{Op: OpRelabel, Target: "x", Label: "FULL"},
			{Op: OpReplace, Target: "p", Node: "d", With: "b", Expect: []string{"c", "x", "y", "b"}},
		},
	}
}

func TestRunStructure(t *testing.T) {
	s := structure()
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	res, err := quietRunner(nil).Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Steps) != len(s.Ops) {
		t.Fatalf("len(Steps) = %d, want %d", len(res.Steps), len(s.Ops))
	}
	if res.Final != "p{c x y b}" {
		t.Errorf("Final = %q, want %q", res.Final, "p{c x y b}")
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}

	tree, err := res.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	x, _ := tree.Node("x")
	if x.Label() != pq.Full {
		t.Errorf("x label = %v, want FULL", x.Label())
	}
	if tree.Root.LeafCount() != 4 {
		t.Errorf("LeafCount() = %d, want 4", tree.Root.LeafCount())
	}
}

func TestRunFiles(t *testing.T) {
	tests := []struct {
		file  string
		final string
	}{
		{"singly.toml", "q[c1 c3]"},
		{"doubly.yaml", "root[e1 g1_1 g1_2 g1_3 g1_4 f g2_4 g2_3 g2_2 g2_1 e2]"},
		{"siblings.toml", "[n[n1 n2 n3 n4]]"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			s, err := LoadFile(filepath.Join("testdata", tt.file))
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			res, err := quietRunner(nil).Run(context.Background(), s)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if res.Final != tt.final {
				t.Errorf("Final = %q, want %q", res.Final, tt.final)
			}
		})
	}
}

func TestRunSinglyRemoved(t *testing.T) {
	s, err := LoadFile(filepath.Join("testdata", "singly.toml"))
	if err != nil {
		t.Fatal(err)
	}
	res, err := quietRunner(nil).Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := res.Steps[0].Removed; !slices.Equal(got, []string{"c2", "c4"}) {
		t.Errorf("Removed = %v, want [c2 c4]", got)
	}
}

func TestRunFailures(t *testing.T) {
	base := func(ops ...Op) *Scenario {
		return &Scenario{
			Name: "failing",
			Tree: pqio.NodeSpec{ID: "p", Type: pq.PNode, Children: []pqio.NodeSpec{
				{ID: "q", Type: pq.QNode, Children: []pqio.NodeSpec{leaf("a", 0), leaf("b", 1)}},
				leaf("c", 2),
			}},
			Ops: ops,
		}
	}

	tests := []struct {
		name  string
		s     *Scenario
		code  errors.Code
		steps int
	}{
		{
			name:  "wrong expectation",
			s:     base(Op{Op: OpReverse, Target: "q", Expect: []string{"a", "b"}}),
			code:  errors.ErrCodeExpectation,
			steps: 1,
		},
		{
			name:  "wrong removed",
			s:     base(Op{Op: OpTrim, Target: "q", Removed: []string{"zz"}}),
			code:  errors.ErrCodeExpectation,
			steps: 1,
		},
		{
			name:  "unknown node",
			s:     base(Op{Op: OpReverse}, Op{Op: OpRemove, Target: "p", Node: "zz"}),
			code:  errors.ErrCodeNotFound,
			steps: 2,
		},
		{
			name:  "cycle",
			s:     base(Op{Op: OpAdd, Target: "q", Node: "p"}),
			code:  errors.ErrCodeCycle,
			steps: 1,
		},
		{
			name:  "bad label",
			s:     base(Op{Op: OpRelabel, Target: "a", Label: "HALF"}),
			code:  errors.ErrCodeInvalidScenario,
			steps: 1,
		},
		{
			name: "leaf with children",
			s: &Scenario{Name: "bad tree", Tree: pqio.NodeSpec{
				Children: []pqio.NodeSpec{leaf("a", 0)},
			}},
			code: errors.ErrCodeInvalidTree,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := quietRunner(nil).Run(context.Background(), tt.s)
			if !errors.Is(err, tt.code) {
				t.Fatalf("Run() error = %v, want code %s", err, tt.code)
			}
			if len(res.Steps) != tt.steps {
				t.Errorf("len(Steps) = %d, want %d", len(res.Steps), tt.steps)
			}
		})
	}
}

func TestRunExpectationDetails(t *testing.T) {
	s := structure()
	s.Ops[2].Expect = []string{"d", "c", "b", "a"}

	_, err := quietRunner(nil).Run(context.Background(), s)
	var exp *errors.ExpectationError
	if !stderrors.As(err, &exp) {
		t.Fatalf("Run() error = %v, want an ExpectationError", err)
	}
	if exp.Step != 3 || exp.Node != "p" {
		t.Errorf("Step=%d Node=%q, want 3 and p", exp.Step, exp.Node)
	}
	if !slices.Equal(exp.Got, []string{"c", "b", "a", "d"}) {
		t.Errorf("Got = %v", exp.Got)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := quietRunner(nil).Run(ctx, structure())
	if !errors.Is(err, errors.ErrCodeCanceled) {
		t.Fatalf("Run() error = %v, want %s", err, errors.ErrCodeCanceled)
	}
	if len(res.Steps) != 0 {
		t.Errorf("len(Steps) = %d, want 0", len(res.Steps))
	}
	if res.Final != "p{a b c}" {
		t.Errorf("Final = %q, want the untouched tree", res.Final)
	}
}

func TestSession(t *testing.T) {
	sess, err := NewSession(structure())
	if err != nil {
		t.Fatal(err)
	}
	if sess.Len() != 8 || sess.Pos() != 0 {
		t.Fatalf("Len=%d Pos=%d", sess.Len(), sess.Pos())
	}
	op, ok := sess.Peek()
	if !ok || op.Op != OpAdd {
		t.Fatalf("Peek() = %v, %v", op, ok)
	}
	for !sess.Done() {
		if _, err := sess.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
	if _, err := sess.Next(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Next() after the last op error = %v", err)
	}
	if got := sess.Tree().String(); got != "p{c x y b}" {
		t.Errorf("tree = %q", got)
	}
}

type scenarioRecorder struct {
	observability.NoopScenarioHooks
	mu        sync.Mutex
	steps     int
	completed []error
}

func (r *scenarioRecorder) OnStep(context.Context, string, int, time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps++
}

func (r *scenarioRecorder) OnScenarioComplete(_ context.Context, _ string, _ int, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, err)
}

func TestRunHooks(t *testing.T) {
	rec := &scenarioRecorder{}
	observability.SetScenarioHooks(rec)
	defer observability.Reset()

	if _, err := quietRunner(nil).Run(context.Background(), structure()); err != nil {
		t.Fatal(err)
	}
	if rec.steps != 8 {
		t.Errorf("steps = %d, want 8", rec.steps)
	}
	if len(rec.completed) != 1 || rec.completed[0] != nil {
		t.Errorf("completed = %v, want one nil error", rec.completed)
	}
}

func TestRunDocumentCache(t *testing.T) {
	c, err := cache.NewMemoryCache(4)
	if err != nil {
		t.Fatal(err)
	}
	doc := []byte(`
name = "cached"
[tree]
type = "QNODE"
  [[tree.children]]
  id = "a"
  [[tree.children]]
  id = "b"
  real = 1
[[ops]]
op = "reverse"
expect = ["b", "a"]
`)
	r := quietRunner(c)
	ctx := context.Background()

	first, hit, err := r.RunDocument(ctx, doc, FormatTOML)
	if err != nil || hit {
		t.Fatalf("first RunDocument: hit=%v err=%v", hit, err)
	}
	second, hit, err := r.RunDocument(ctx, doc, FormatTOML)
	if err != nil || !hit {
		t.Fatalf("second RunDocument: hit=%v err=%v", hit, err)
	}
	if second.RunID != first.RunID || second.Final != "[b a]" {
		t.Errorf("cached result = %+v, want %+v", second, first)
	}
	if _, err := second.Build(); err != nil {
		t.Errorf("Build cached tree: %v", err)
	}

	// A failing document is not cached.
	bad := []byte("name = \"bad\"\n[[ops]]\nop = \"remove\"\nnode = \"zz\"\n")
	for range 2 {
		if _, hit, err := r.RunDocument(ctx, bad, FormatTOML); hit || !errors.Is(err, errors.ErrCodeNotFound) {
			t.Errorf("RunDocument(bad) hit=%v err=%v", hit, err)
		}
	}
}
