package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/pqtree/pkg/scenario"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// StepModel - Interactive scenario stepping
// =============================================================================

// StepModel is the bubbletea model that applies a scenario one op at a time.
type StepModel struct {
	Session *scenario.Session
	Steps   []scenario.Step
	Err     error
	Height  int
}

// NewStepModel creates a stepper over sess.
func NewStepModel(sess *scenario.Session) StepModel {
	return StepModel{Session: sess, Height: 10}
}

func (m StepModel) Init() tea.Cmd {
	return nil
}

// stopped reports whether no further op can be applied.
func (m StepModel) stopped() bool {
	return m.Err != nil || m.Session.Done()
}

func (m StepModel) next() StepModel {
	if m.stopped() {
		return m
	}
	step, err := m.Session.Next()
	if err != nil {
		m.Err = err
		return m
	}
	m.Steps = append(m.Steps, step)
	return m
}

func (m StepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "n", "j", "down", "enter", " ":
			m = m.next()
		case "a":
			for !m.stopped() {
				m = m.next()
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 12
		if m.Height < 3 {
			m.Height = 3
		}
	}
	return m, nil
}

func (m StepModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Session.Scenario().Name))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("n/⏎ next op  a run all  q quit"))
	b.WriteString("\n\n")

	b.WriteString(listDimStyle.Render("tree  "))
	b.WriteString(listNormalStyle.Render(m.Session.Tree().String()))
	b.WriteString("\n")
	if op, ok := m.Session.Peek(); ok && m.Err == nil {
		b.WriteString(listDimStyle.Render("next  "))
		b.WriteString(listSelectedStyle.Render(describeOp(op)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(m.Steps) > 0 {
		start := 0
		if len(m.Steps) > m.Height {
			start = len(m.Steps) - m.Height
		}
		rows := make([][]string, 0, len(m.Steps)-start)
		for _, s := range m.Steps[start:] {
			rows = append(rows, []string{
				fmt.Sprint(s.Index),
				s.Op,
				s.Target,
				strings.Join(s.Children, " "),
				strings.Join(s.Removed, " "),
			})
		}

		headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
		last := len(rows) - 1
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
			Headers("#", "Op", "Target", "Children", "Removed").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == -1:
					return headerStyle
				case row == last:
					return lipgloss.NewStyle().Foreground(colorGreen)
				}
				return lipgloss.NewStyle().Foreground(colorDim)
			})
		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	switch {
	case m.Err != nil:
		b.WriteString(listErrorStyle.Render(iconError + " " + m.Err.Error()))
	case m.Session.Done():
		b.WriteString(StyleSuccess.Render(iconSuccess + " all ops applied"))
	}
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Session.Pos(), m.Session.Len())))

	return b.String()
}

// describeOp renders an op as a one-line command, e.g. "replace p: a -> b".
func describeOp(op scenario.Op) string {
	var b strings.Builder
	b.WriteString(op.Op)
	b.WriteString(" ")
	b.WriteString(op.TargetID())

	var args []string
	switch {
	case op.Subtree != nil && op.Node != "":
		args = append(args, op.Node, "->", subtreeName(op))
	case op.Subtree != nil:
		args = append(args, subtreeName(op))
	case op.With != "":
		args = append(args, op.Node, "->", op.With)
	case op.Node != "":
		args = append(args, op.Node)
	}
	if op.Label != "" {
		args = append(args, op.Label)
	}
	if op.Start != "" || op.End != "" {
		args = append(args, orNil(op.Start), "..", orNil(op.End))
	}
	if op.Reversed {
		args = append(args, "(reversed)")
	}
	if len(args) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(args, " "))
	}
	return b.String()
}

func subtreeName(op scenario.Op) string {
	if op.Subtree.ID != "" {
		return op.Subtree.ID
	}
	return "<" + strings.ToLower(op.Subtree.Type.String()) + ">"
}

func orNil(id string) string {
	if id == "" {
		return "nil"
	}
	return id
}
