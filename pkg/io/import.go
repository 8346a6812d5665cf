package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/pqtree/pkg/errors"
)

// ReadJSON decodes a JSON tree from r.
//
// ReadJSON returns an error if:
//   - The JSON is malformed or has unknown fields
//   - A type or label name is unknown
//   - A leaf has children
//   - An id is invalid or used twice
//
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Tree, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var spec NodeSpec
	if err := dec.Decode(&spec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTree, err, "decode")
	}
	return Build(spec)
}

// ImportJSON reads a JSON file at path and returns the decoded tree.
//
// A missing file is reported with errors.ErrCodeFileNotFound; everything
// else is as for [ReadJSON].
func ImportJSON(path string) (*Tree, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
