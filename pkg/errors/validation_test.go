package errors

import (
	"strings"
	"testing"
)

func TestValidateNodeID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "root", false},
		{"valid with dash", "g1-2", false},
		{"valid with underscore", "g1_2", false},
		{"valid with dot and colon", "q.left:3", false},
		{"valid leading underscore", "_tmp", false},
		{"valid digits", "42", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 200), true},
		{"leading dash", "-a", true},
		{"space", "a b", true},
		{"quote", `a"b`, true},
		{"slash", "a/b", true},
		{"newline", "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidID) {
				t.Errorf("ValidateNodeID(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"svg", "svg", false},
		{"SVG", "svg", false},
		{" dot ", "dot", false},
		{"png", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ValidateFormat(tt.input, "svg", "dot", "json")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if err != nil && !Is(err, ErrCodeInvalidFormat) {
				t.Errorf("ValidateFormat(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateLabels(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantErr bool
	}{
		{"nil", nil, false},
		{"unique", []string{"a", "b", "c"}, false},
		{"duplicate", []string{"a", "b", "a"}, true},
		{"blank", []string{"a", " "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLabels(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLabels(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidScenario,
		ErrCodeInvalidTree,
		ErrCodeInvalidFormat,
		ErrCodeInvalidPath,
		ErrCodeInvalidID,
		ErrCodeNotFound,
		ErrCodeFileNotFound,
		ErrCodeCycle,
		ErrCodeInvariant,
		ErrCodeExpectation,
		ErrCodeRender,
		ErrCodeCache,
		ErrCodeInternal,
		ErrCodeUnsupported,
		ErrCodeCanceled,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
