package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pqtree/pkg/errors"
	"github.com/matzehuels/pqtree/pkg/perm"
)

// permCommand creates the perm command for exploring adjacency constraints.
func (c *CLI) permCommand() *cobra.Command {
	var output string
	var labels string
	var list int

	cmd := &cobra.Command{
		Use:   "perm [constraints...]",
		Short: "Reduce a PQ-tree by adjacency constraints",
		Long: `Build the universal PQ-tree over the given labels and reduce it by each
constraint in turn.

Constraints are comma-separated indices that must be adjacent.
Example: "0,1" means elements 0 and 1 must be adjacent.`,
		Example: `  # Universal tree with 4 elements
  pqtree perm --labels A,B,C,D

  # With constraint: A,B must be adjacent
  pqtree perm --labels A,B,C,D -o tree.svg 0,1

  # Multiple constraints, listing the remaining orderings
  pqtree perm --labels A,B,C,D --list 10 0,1 2,3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			labelList := parseLabels(labels)
			if len(labelList) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "at least one label required")
			}
			if err := errors.ValidateLabels(labelList); err != nil {
				return err
			}

			tree := perm.NewPQTree(len(labelList))
			for _, arg := range args {
				constraint, err := parseConstraint(arg, len(labelList))
				if err != nil {
					return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid constraint %q", arg)
				}
				if !tree.Reduce(constraint) {
					return errors.New(errors.ErrCodeInvalidInput, "constraint %q made tree unsatisfiable", arg)
				}
			}

			if output != "" {
				if err := c.writePermTree(cmd, tree, labelList, output); err != nil {
					return err
				}
			}

			printSuccess("PQ-tree reduced by %d constraints", len(args))
			printKeyValue("Tree", tree.StringWithLabels(labelList))
			printKeyValue("Orderings", StyleNumber.Render(strconv.Itoa(tree.ValidCount())))
			if output != "" {
				printFile(output)
			}
			if list > 0 {
				for _, p := range tree.Enumerate(list) {
					printDetail("%s", orderingString(p, labelList))
				}
			}
			if output == "" {
				printNextStep("Draw it", fmt.Sprintf("%s perm --labels %s -o tree.svg %s", appName, labels, strings.Join(args, " ")))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the tree as .dot, .svg, .png or .pdf")
	cmd.Flags().StringVar(&labels, "labels", "A,B,C,D", "comma-separated element labels")
	cmd.Flags().IntVar(&list, "list", 0, "print up to this many valid orderings")

	return cmd
}

func (c *CLI) writePermTree(cmd *cobra.Command, tree *perm.PQTree, labels []string, output string) error {
	format, err := outputFormat(output, "")
	if err != nil {
		return err
	}
	if format == formatJSON {
		return errors.New(errors.ErrCodeUnsupported, "perm trees cannot be exported as json")
	}
	renderer, err := c.newRenderer(false)
	if err != nil {
		return err
	}
	data, err := renderer.Render(cmd.Context(), tree.ToDOT(labels), format)
	if err != nil {
		return err
	}
	if err := writeFile(data, output); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// parseLabels splits a comma-separated label list, trimming spaces.
func parseLabels(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// parseConstraint parses a constraint string like "0,1,2" into a slice of
// indices, each below n.
func parseConstraint(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return nil, fmt.Errorf("need at least 2 indices")
	}
	result := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid index %q", p)
		}
		if v < 0 || v >= n {
			return nil, fmt.Errorf("index %d out of range [0,%d)", v, n)
		}
		result[i] = v
	}
	return result, nil
}

func orderingString(p []int, labels []string) string {
	names := make([]string, len(p))
	for i, v := range p {
		names[i] = labels[v]
	}
	return strings.Join(names, " ")
}
