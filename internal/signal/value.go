// Package signal holds the tri-state evidence type shared by every
// detector and resolver.
package signal

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Value is a tri-state assertion. The zero value is Unknown, meaning the
// source has no opinion; False means the source actively asserts the negative.
type Value int8

const (
	Unknown Value = iota
	False
	True
)

// FromBool converts a definite boolean into a known Value.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Known reports whether the value is True or False.
func (v Value) Known() bool {
	return v == True || v == False
}

// Bool returns true only for True.
func (v Value) Bool() bool {
	return v == True
}

// Or returns the boolean for a known value, otherwise def.
func (v Value) Or(def bool) bool {
	if !v.Known() {
		return def
	}
	return v == True
}

// Ptr returns nil for Unknown, for nullable output columns.
func (v Value) Ptr() *bool {
	if !v.Known() {
		return nil
	}
	b := v == True
	return &b
}

func (v Value) String() string {
	switch v {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// Parse accepts true/false/unknown (any case) plus an empty string for Unknown.
func Parse(s string) (Value, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return True, nil
	case "false":
		return False, nil
	case "", "unknown", "null", "none":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("invalid signal value %q", s)
}

func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Value) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	return v.UnmarshalText([]byte(node.Value))
}
