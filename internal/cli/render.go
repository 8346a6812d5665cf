package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pqtree/pkg/errors"
	pqio "github.com/matzehuels/pqtree/pkg/io"
	"github.com/matzehuels/pqtree/pkg/pq"
	"github.com/matzehuels/pqtree/pkg/render"
	"github.com/matzehuels/pqtree/pkg/scenario"
)

// formatJSON exports the tree itself rather than a drawing of it.
const formatJSON = "json"

// outputFormats lists every format accepted by --format.
var outputFormats = append(append([]string(nil), render.Formats...), formatJSON)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string // output file path; derived from the input when empty
	format  string // dot, svg, png, pdf or json; derived from output when empty
	noCache bool
}

// renderCommand creates the render command. Its input is either a scenario,
// whose final tree is drawn, or a tree in the JSON format.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <scenario|tree.json>",
		Short: "Render a PQ-tree to DOT, SVG, PNG, PDF or JSON",
		Long: `Render the final tree of a scenario, or a tree stored as JSON.

PNG and PDF output are converted from SVG and need rsvg-convert (librsvg)
on the PATH.`,
		Example: `  # SVG next to the scenario file
  pqtree render testdata/doubly.yaml

  # PNG of an exported tree
  pqtree render final.json -o final.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(opts.output, opts.format)
			if err != nil {
				return err
			}
			output := opts.output
			if output == "" {
				output = basePath("", args[0]) + "." + format
			}
			return c.runRender(cmd.Context(), args[0], output, format, opts.noCache)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (defaults to the input name with the format's extension)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: svg (default), dot, png, pdf, json")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")

	return cmd
}

// outputFormat resolves the output format from the --format flag, falling
// back to the output file's extension and then to svg.
func outputFormat(output, flag string) (string, error) {
	if flag != "" {
		return errors.ValidateFormat(flag, outputFormats...)
	}
	if ext := strings.TrimPrefix(filepath.Ext(output), "."); ext != "" {
		return errors.ValidateFormat(ext, outputFormats...)
	}
	return render.FormatSVG, nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .pdf, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if _, err := errors.ValidateFormat(strings.TrimPrefix(ext, "."), outputFormats...); err == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func (c *CLI) runRender(ctx context.Context, input, output, format string, noCache bool) error {
	logger := loggerFromContext(ctx)
	logger.Infof("Rendering %s", input)

	t, err := c.loadTree(ctx, input, noCache)
	if err != nil {
		return err
	}
	logger.Debugf("Loaded tree: %d named nodes, %d leaves", t.Len(), t.Root.LeafCount())

	var data []byte
	if format == formatJSON {
		var buf bytes.Buffer
		if err := pqio.WriteJSON(t, &buf); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		renderer, err := c.newRenderer(noCache)
		if err != nil {
			return err
		}
		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", format))
		spinner.Start()
		prog := newProgress(logger)
		data, err = renderer.Render(ctx, pq.ToDOT(t.Root, t.NameFunc()), format)
		spinner.Stop()
		if err != nil {
			return err
		}
		prog.done(fmt.Sprintf("Rendered %s", format))
	}

	if err := writeFile(data, output); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	printSuccess("Rendered %s", t.String())
	printFile(output)
	return nil
}

// loadTree reads a JSON tree, or runs a scenario and rebuilds its final tree.
func (c *CLI) loadTree(ctx context.Context, input string, noCache bool) (*pqio.Tree, error) {
	if strings.EqualFold(filepath.Ext(input), ".json") {
		return pqio.ImportJSON(input)
	}

	data, err := os.ReadFile(input)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scenario %s", input)
		}
		return nil, fmt.Errorf("read %s: %w", input, err)
	}
	runner, err := c.newRunner(noCache)
	if err != nil {
		return nil, err
	}
	res, _, err := runner.RunDocument(ctx, data, scenario.FormatFromPath(input))
	if err != nil {
		return nil, err
	}
	return res.Build()
}
