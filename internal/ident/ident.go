// Package ident validates and quotes schema identifiers.
//
// Every table, column, alias, index and join target that reaches SQL text
// passes through Validate first. Values never do: they are always bound
// through placeholders. Validate is the only defense against identifier
// injection, so there is no "trusted caller" bypass.
package ident

import (
	"errors"
	"fmt"
	"strings"
)

// Context labels used in identifier errors.
const (
	LabelTable      = "table name"
	LabelColumn     = "column name"
	LabelJoinTarget = "join target table"
	LabelMetric     = "metric alias"
	LabelAlias      = "source alias"
	LabelIndex      = "index name"
)

// ErrInvalidIdentifier is wrapped by every *Error.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// Error reports a rejected identifier and where it was used.
type Error struct {
	Name    string // offending input, verbatim
	Context string // e.g. "table name"
}

func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid %s: must not be empty", e.Context)
	}
	return fmt.Sprintf("invalid %s %q: only letters, digits and underscore are allowed", e.Context, e.Name)
}

func (e *Error) Unwrap() error {
	return ErrInvalidIdentifier
}

// IsSafe reports whether name is non-empty and made only of ASCII letters,
// digits and underscore.
func IsSafe(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return false
		}
	}
	return true
}

// Validate returns an *Error when name is not a safe identifier.
// label names the role of the identifier for diagnostics.
func Validate(name, label string) error {
	if !IsSafe(name) {
		return &Error{Name: name, Context: label}
	}
	return nil
}

// Quote wraps an already validated identifier in double quotes.
func Quote(name string) string {
	return `"` + name + `"`
}

// QuotePath validates every dot-separated segment of path and returns the
// quoted segments joined with dots ("users"."name").
func QuotePath(path, label string) (string, error) {
	segments := strings.Split(path, ".")
	quoted := make([]string, len(segments))
	for i, seg := range segments {
		if err := Validate(seg, label); err != nil {
			// Report the whole reference so the caller sees what was written.
			return "", &Error{Name: path, Context: label}
		}
		quoted[i] = Quote(seg)
	}
	return strings.Join(quoted, "."), nil
}

// IsIdentifierError reports whether err wraps an identifier rejection.
func IsIdentifierError(err error) bool {
	return errors.Is(err, ErrInvalidIdentifier)
}
