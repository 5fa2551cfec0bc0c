// Package datapoint decodes Met Office DataPoint JSON documents.
//
// DataPoint transmits every numeric leaf as a quoted string ("12.3", not
// 12.3). Documents are parsed into a generic tree, quoted numbers are turned
// into json.Number by CoerceNumbers, and the tree is then mapped onto the
// domain types in internal/models. Decoding is all-or-nothing.
package datapoint

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
)

// ErrDecode is wrapped by every decoding failure.
var ErrDecode = errors.New("decode DataPoint document")

var numericPattern = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][+-]?\d+)?$`)

// CoerceNumbers walks a tree produced by encoding/json and replaces every
// string matching the numeric pattern with a json.Number holding the same
// text. Maps and slices are rewritten in place; the (possibly replaced) value
// is returned.
func CoerceNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = CoerceNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = CoerceNumbers(e)
		}
		return t
	case string:
		if numericPattern.MatchString(t) {
			return json.Number(t)
		}
		return t
	default:
		return v
	}
}

// parse decodes a single JSON document and coerces its quoted numbers.
func parse(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty body", ErrDecode)
		}
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrDecode)
	}
	return CoerceNumbers(tree), nil
}
