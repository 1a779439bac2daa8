// Package schema validates session-plan and class-roster documents against
// fixed field rules.
//
// The rules are flat and declarative: each names a field, its JSON type,
// whether it is required and, for arrays and objects, the rules for nested
// values. Every violation is reported with the full field path, e.g.
// "estudiantes[2].nombre", and all violations are collected rather than
// stopping at the first one.
package schema

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/multierr"
)

// Kind identifies which fixed rule set a document is checked against.
type Kind string

const (
	// KindSession is the session-plan document.
	KindSession Kind = "session"
	// KindClass is the classroom-roster document.
	KindClass Kind = "class"
)

// ParseKind maps a user-supplied name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindSession:
		return KindSession, nil
	case KindClass:
		return KindClass, nil
	default:
		return "", fmt.Errorf("unknown document kind %q (want %q or %q)", s, KindSession, KindClass)
	}
}

// Type is the JSON type a field must have.
type Type int

const (
	String Type = iota
	Number
	Bool
	Array
	Object
)

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "boolean"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Rule describes one field.
type Rule struct {
	Name     string
	Type     Type
	Required bool

	// NonEmpty rejects blank strings and, for arrays, fewer than one element.
	NonEmpty bool

	// Items applies to array elements. Nil means elements are not checked.
	Items *Rule

	// Fields applies to object members (and to array elements of type Object).
	Fields []Rule
}

// FieldError is a single rule violation.
type FieldError struct {
	Field   string
	Problem string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q %s", e.Field, e.Problem)
}

// Rules returns the rule set for kind.
func Rules(kind Kind) []Rule {
	switch kind {
	case KindSession:
		return sessionRules
	case KindClass:
		return classRules
	default:
		return nil
	}
}

// Validate checks data against the rule set for kind. The returned error is
// nil or a multierr combination of *FieldError values; use Errors to list them.
func Validate(kind Kind, data []byte) error {
	rules := Rules(kind)
	if rules == nil {
		return fmt.Errorf("unknown document kind %q", kind)
	}
	if !gjson.ValidBytes(data) {
		return &FieldError{Field: "$", Problem: "is not valid JSON"}
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return &FieldError{Field: "$", Problem: "must be a JSON object, got " + describe(root)}
	}
	return checkObject("", root, rules)
}

// Errors flattens the error returned by Validate into its field errors.
func Errors(err error) []*FieldError {
	var out []*FieldError
	for _, e := range multierr.Errors(err) {
		if fe, ok := e.(*FieldError); ok {
			out = append(out, fe)
		}
	}
	return out
}

// Summary joins all field problems into one line for API responses.
func Summary(err error) string {
	errs := multierr.Errors(err)
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func checkObject(prefix string, obj gjson.Result, rules []Rule) error {
	var err error
	for _, r := range rules {
		path := join(prefix, r.Name)
		v := obj.Get(gjsonKey(r.Name))
		if !v.Exists() {
			if r.Required {
				err = multierr.Append(err, &FieldError{Field: path, Problem: "is required"})
			}
			continue
		}
		err = multierr.Append(err, checkValue(path, v, r))
	}
	return err
}

func checkValue(path string, v gjson.Result, r Rule) error {
	if !hasType(v, r.Type) {
		return &FieldError{Field: path, Problem: fmt.Sprintf("must be %s %s, got %s", article(r.Type), r.Type, describe(v))}
	}

	switch r.Type {
	case String:
		if r.NonEmpty && strings.TrimSpace(v.Str) == "" {
			return &FieldError{Field: path, Problem: "must not be empty"}
		}
	case Array:
		items := v.Array()
		if r.NonEmpty && len(items) == 0 {
			return &FieldError{Field: path, Problem: "must contain at least one element"}
		}
		if r.Items == nil {
			return nil
		}
		var err error
		for i, item := range items {
			err = multierr.Append(err, checkValue(fmt.Sprintf("%s[%d]", path, i), item, *r.Items))
		}
		return err
	case Object:
		return checkObject(path, v, r.Fields)
	}
	return nil
}

func hasType(v gjson.Result, t Type) bool {
	switch t {
	case String:
		return v.Type == gjson.String
	case Number:
		return v.Type == gjson.Number
	case Bool:
		return v.Type == gjson.True || v.Type == gjson.False
	case Array:
		return v.IsArray()
	case Object:
		return v.IsObject()
	}
	return false
}

func article(t Type) string {
	if t == Array || t == Object {
		return "an"
	}
	return "a"
}

func describe(v gjson.Result) string {
	switch {
	case v.IsObject():
		return "object"
	case v.IsArray():
		return "array"
	}
	switch v.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Null:
		return "null"
	}
	return "unknown"
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// gjsonKey escapes path metacharacters so a field name is matched literally.
func gjsonKey(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
