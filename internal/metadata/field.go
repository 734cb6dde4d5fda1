package metadata

import (
	"fmt"
	"strings"
)

const (
	TypeInteger  = "integer"
	TypeNumeric  = "numeric"
	TypeBoolean  = "boolean"
	TypeString   = "string"   // JSON string only
	TypeText     = "text"     // any scalar, stored as its string form
	TypeAlphaNum = "alphanum" // letters and digits only
	TypeEmail    = "email"
)

type Field struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Required  bool   `json:"required,omitempty"`
	Nullable  bool   `json:"nullable,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`
	Default   any    `json:"default,omitempty"`
	// KeepOnNull fields keep their stored value when an update omits them
	// or sends null.
	KeepOnNull bool `json:"keep_on_null,omitempty"`
	// UpdateOnly fields are ignored on create.
	UpdateOnly bool `json:"update_only,omitempty"`
}

// IsTextual reports whether values of this field are stored as strings.
func (f Field) IsTextual() bool {
	switch f.Type {
	case TypeString, TypeText, TypeAlphaNum, TypeEmail:
		return true
	}
	return false
}

// Rules returns the go-playground/validator tag applied to the coerced value,
// or "" when the type check alone is enough.
func (f Field) Rules() string {
	var rules []string
	switch f.Type {
	case TypeAlphaNum:
		rules = append(rules, "alphanum")
	case TypeEmail:
		rules = append(rules, "email")
	}
	if f.MaxLength > 0 && f.IsTextual() {
		rules = append(rules, fmt.Sprintf("max=%d", f.MaxLength))
	}
	return strings.Join(rules, ",")
}

// ColumnKind maps the field type to the generic kind understood by store dialects.
func (f Field) ColumnKind() string {
	switch f.Type {
	case TypeInteger:
		return "bigint"
	case TypeNumeric:
		return "float"
	case TypeBoolean:
		return "boolean"
	default:
		return "string"
	}
}
