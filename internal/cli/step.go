package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pqtree/pkg/scenario"
)

// stepCommand creates the step command, an interactive walk through a
// scenario.
func (c *CLI) stepCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "step <scenario>",
		Short: "Apply a scenario one op at a time",
		Long: `Load a scenario and apply its ops one at a time, showing the tree after
each step. With --plain every step is printed without the interactive view.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.LoadFile(args[0])
			if err != nil {
				return err
			}
			sess, err := scenario.NewSession(s)
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debugf("Loaded %q: %d ops", s.Name, sess.Len())

			if plain {
				return stepPlain(sess)
			}

			p := tea.NewProgram(NewStepModel(sess), tea.WithContext(cmd.Context()))
			final, err := p.Run()
			if err != nil {
				return err
			}
			if fm, ok := final.(StepModel); ok && fm.Err != nil {
				return fm.Err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print each step instead of the interactive view")

	return cmd
}

func stepPlain(sess *scenario.Session) error {
	printInfo("%s", sess.Tree().String())
	for !sess.Done() {
		op, _ := sess.Peek()
		step, err := sess.Next()
		if err != nil {
			printError("%s", describeOp(op))
			return err
		}
		printSuccess("%d. %s", step.Index, describeOp(op))
		printDetail("%s", step.Tree)
	}
	printKeyValue("Final", sess.Tree().String())
	return nil
}
