package extract

import (
	"errors"
	"fmt"
)

// Kind classifies an extraction failure
type Kind string

const (
	KindTableMissing  Kind = "TableMissing"
	KindNoValidRow    Kind = "NoValidRow"
	KindMalformedTime Kind = "MalformedTime"
)

// ErrTableMissing indicates the container element is absent from the document.
var ErrTableMissing = errors.New("prayer times table not found")

// ErrNoValidRow indicates no row satisfied any strategy.
var ErrNoValidRow = errors.New("no valid prayer time row found")

// ErrMalformedTime indicates a matched row carries a value that is not a clock time.
var ErrMalformedTime = errors.New("malformed prayer time")

// Error is returned by every failing extraction step.
type Error struct {
	Kind  Kind
	Field string // slot name, MalformedTime only
	Value string // offending cell text, MalformedTime only
	Err   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %q: %v", e.Kind, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func tableMissing(containerID string) *Error {
	return &Error{
		Kind: KindTableMissing,
		Err:  fmt.Errorf("%w: container %q", ErrTableMissing, containerID),
	}
}

func noValidRow(targetDay int) *Error {
	return &Error{
		Kind: KindNoValidRow,
		Err:  fmt.Errorf("%w for day %d", ErrNoValidRow, targetDay),
	}
}

func malformedTime(field, value string) *Error {
	return &Error{
		Kind:  KindMalformedTime,
		Field: field,
		Value: value,
		Err:   ErrMalformedTime,
	}
}

// KindOf returns the Kind of an extraction error anywhere in err's chain,
// or "" when err did not come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
