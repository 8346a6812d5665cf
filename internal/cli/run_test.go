package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pqtree/pkg/scenario"
)

func TestStepTable(t *testing.T) {
	steps := []scenario.Step{
		{Index: 1, Op: "trim", Target: "q", Children: []string{"c1", "c3"}, Removed: []string{"c2", "c4"}, Duration: 1500 * time.Nanosecond},
		{Index: 2, Op: "reverse", Target: "q", Children: []string{"c3", "c1"}},
	}
	out := stepTable(steps)
	for _, want := range []string{"STEP", "REMOVED", "c1 c3", "c2 c4", "c3 c1", "2µs"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if got := removedCount(steps); got != 2 {
		t.Errorf("removedCount = %d, want 2", got)
	}
}
