package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Presence is the outcome of looking a key up in a request body.
type Presence int

const (
	Absent Presence = iota
	Null
	Present
)

// Input is a decoded JSON object body. Values are only reachable through
// Lookup, which reports whether the key was sent at all.
type Input struct {
	values map[string]any
}

// ParseInput decodes a JSON object. An empty body is an empty object.
// Numbers are kept as json.Number so integers survive intact.
func ParseInput(body []byte) (Input, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Input{values: map[string]any{}}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		return Input{}, fmt.Errorf("decode body: %w", err)
	}
	if values == nil {
		values = map[string]any{}
	}
	return Input{values: values}, nil
}

// NewInput wraps an already decoded object.
func NewInput(values map[string]any) Input {
	if values == nil {
		values = map[string]any{}
	}
	return Input{values: values}
}

// Lookup returns the raw value for key and whether it was absent, null or present.
func (in Input) Lookup(key string) (any, Presence) {
	v, ok := in.values[key]
	if !ok {
		return nil, Absent
	}
	if v == nil {
		return nil, Null
	}
	return v, Present
}
