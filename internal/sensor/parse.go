package sensor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// ErrEmptyLine is returned by ParseLine for blank input.
var ErrEmptyLine = errors.New("empty line")

// ParseLine decodes one line emitted by a sensor board. Accepted forms are a
// JSON object ({"distance1": 12.5, ...}), a JSON array ([12.5, 30, 41]) or a
// comma separated list (12.5,30,41). Numbers are kept as json.Number so no
// precision is lost before coercion.
func ParseLine(line string) (any, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ErrEmptyLine
	}
	switch line[0] {
	case '{':
		var m map[string]any
		if err := decodeJSON(line, &m); err != nil {
			return nil, fmt.Errorf("decode object: %w", err)
		}
		return m, nil
	case '[':
		var l []any
		if err := decodeJSON(line, &l); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return l, nil
	}
	fields := strings.Split(line, ",")
	vals := make([]any, len(fields))
	for i, f := range fields {
		vals[i] = strings.TrimSpace(f)
	}
	return vals, nil
}

// DecodeJSON decodes a JSON request body into an object or list payload.
func DecodeJSON(data []byte) (any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

var cborDecMode = mustCBORDecMode()

func mustCBORDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}

// DecodeCBOR decodes a CBOR request body. Maps decode as map[string]any and
// arrays as []any, matching DecodeJSON.
func DecodeCBOR(data []byte) (any, error) {
	var v any
	if err := cborDecMode.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeJSON(s string, v any) error {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	return dec.Decode(v)
}
