package scenario

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/pqtree/pkg/errors"
)

// Scenario file formats.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// FormatFromPath picks the scenario format from a file extension. Anything
// that is not .yaml or .yml is read as TOML.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatTOML
}

// Parse decodes and validates a scenario document. Unknown keys are errors
// so that typos in operand names do not silently change a script.
func Parse(data []byte, format string) (*Scenario, error) {
	format, err := errors.ValidateFormat(format, FormatTOML, FormatYAML)
	if err != nil {
		return nil, err
	}

	var s Scenario
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "decode yaml")
		}
	default:
		md, err := toml.Decode(string(data), &s)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, errors.New(errors.ErrCodeInvalidScenario, "unknown keys: %s", strings.Join(keys, ", "))
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads a whole scenario document from r.
func Load(r io.Reader, format string) (*Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data, format)
}

// LoadFile reads the scenario at path, choosing the format by extension.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	s, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
