package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pqtree/pkg/errors"
	pqio "github.com/matzehuels/pqtree/pkg/io"
	"github.com/matzehuels/pqtree/pkg/scenario"
)

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	jsonOut string // write the final tree as JSON
	dotOut  string // write the final tree as DOT
	noCache bool
}

// runCommand creates the run command, which applies a scenario file and
// prints one row per step.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Apply a scenario file and report each step",
		Long: `Apply the operations of a scenario file (.toml, .yaml or .yml) to its
initial tree. Each step is checked against the tree invariants and against
the expect/removed lists of the operation. The run stops at the first
failing step.`,
		Example: `  # Run a scenario
  pqtree run testdata/singly.toml

  # Keep the final tree
  pqtree run doubly.yaml --json final.json --dot final.dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScenario(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.jsonOut, "json", "", "write the final tree as JSON to this file")
	cmd.Flags().StringVar(&opts.dotOut, "dot", "", "write the final tree as DOT to this file")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")

	return cmd
}

func (c *CLI) runScenario(cmd *cobra.Command, path string, opts runOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "scenario %s", path)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	res, hit, err := runner.RunDocument(ctx, data, scenario.FormatFromPath(path))
	if res != nil && len(res.Steps) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), stepTable(res.Steps))
	}
	if err != nil {
		if res != nil && res.Final != "" {
			printWarning("Stopped after %d steps", len(res.Steps))
			printKeyValue("Tree", res.Final)
		}
		return err
	}
	prog.done(fmt.Sprintf("Ran %q", res.Name))

	printSuccess("Scenario %s passed", StyleHighlight.Render(res.Name))
	printKeyValue("Final", res.Final)
	printRunStats(len(res.Steps), removedCount(res.Steps), hit)

	if opts.jsonOut != "" || opts.dotOut != "" {
		if err := writeResult(res, opts); err != nil {
			return err
		}
	}
	return nil
}

func writeResult(res *scenario.Result, opts runOpts) error {
	if opts.jsonOut != "" {
		t, err := res.Build()
		if err != nil {
			return err
		}
		if err := pqio.ExportJSON(t, opts.jsonOut); err != nil {
			return err
		}
		printFile(opts.jsonOut)
	}
	if opts.dotOut != "" {
		if err := writeFile([]byte(res.DOT), opts.dotOut); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		printFile(opts.dotOut)
	}
	return nil
}

// stepTable renders steps as a borderless table.
func stepTable(steps []scenario.Step) string {
	tw := table.NewWriter()
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.SeparateFooter = false
	tw.Style().Options.SeparateHeader = false
	tw.Style().Options.SeparateRows = false
	tw.AppendHeader(table.Row{
		"STEP",
		"OP",
		"TARGET",
		"CHILDREN",
		"REMOVED",
		"DURATION",
	})
	for _, s := range steps {
		tw.AppendRow(table.Row{
			s.Index,
			s.Op,
			s.Target,
			strings.Join(s.Children, " "),
			strings.Join(s.Removed, " "),
			s.Duration.Round(time.Microsecond),
		})
	}
	return tw.Render()
}

func removedCount(steps []scenario.Step) int {
	n := 0
	for _, s := range steps {
		n += len(s.Removed)
	}
	return n
}

// writeFile writes data to path, or to stdout when path is empty.
func writeFile(data []byte, path string) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
