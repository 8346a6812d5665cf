package cli

import (
	"testing"

	"github.com/matzehuels/pqtree/pkg/errors"
)

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		name   string
		output string
		flag   string
		want   string
		code   errors.Code
	}{
		{"default", "", "", "svg", ""},
		{"from extension", "tree.png", "", "png", ""},
		{"upper-case extension", "tree.PDF", "", "pdf", ""},
		{"flag wins", "tree.png", "dot", "dot", ""},
		{"json", "tree.json", "", "json", ""},
		{"unknown extension", "tree.gif", "", "", errors.ErrCodeInvalidFormat},
		{"unknown flag", "", "jpeg", "", errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := outputFormat(tt.output, tt.flag)
			if tt.code != "" {
				if !errors.Is(err, tt.code) {
					t.Errorf("outputFormat(%q, %q) error = %v, want %s", tt.output, tt.flag, err, tt.code)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("outputFormat(%q, %q) = %q, %v, want %q", tt.output, tt.flag, got, err, tt.want)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		want   string
	}{
		{"empty output uses input", "", "scenarios/doubly.yaml", "scenarios/doubly"},
		{"output with format extension", "out/tree.svg", "in.toml", "out/tree"},
		{"output with other extension", "out/tree.v2", "in.toml", "out/tree.v2"},
		{"output without extension", "out/tree", "in.toml", "out/tree"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := basePath(tt.output, tt.input); got != tt.want {
				t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
			}
		})
	}
}
