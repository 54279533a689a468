// Package toolerr defines the error type returned by every santool operation.
package toolerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide between aborting and warning
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindValidation
	KindParse
	KindIO
	KindExec
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	case KindParse:
		return "parse"
	case KindIO:
		return "io"
	case KindExec:
		return "exec"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Error is a classified error with an optional cause
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Sentinels for errors.Is matching by kind
var (
	ErrConfig     = &Error{Kind: KindConfig}
	ErrValidation = &Error{Kind: KindValidation}
	ErrParse      = &Error{Kind: KindParse}
	ErrIO         = &Error{Kind: KindIO}
	ErrExec       = &Error{Kind: KindExec}
	ErrNetwork    = &Error{Kind: KindNetwork}
)

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String() + " error"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// New creates an error of the given kind with a formatted message
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind, prefixing it with a formatted message
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
