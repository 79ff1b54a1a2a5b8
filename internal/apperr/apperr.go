package apperr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind int

const (
	KindUpstream Kind = iota
	KindConfiguration
	KindResponseFormat
	KindEmptyResult
	KindPrecondition
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindResponseFormat:
		return "response_format"
	case KindEmptyResult:
		return "empty_result"
	case KindPrecondition:
		return "precondition"
	default:
		return "upstream"
	}
}

// Error carries the failure kind and, once it crosses an orchestrator
// boundary, the user-facing operation name.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return Message(e.Op, e.Err)
	}
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func Configuration(format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Err: fmt.Errorf(format, args...)}
}

func ResponseFormat(format string, args ...any) error {
	return &Error{Kind: KindResponseFormat, Err: fmt.Errorf(format, args...)}
}

func EmptyResult(format string, args ...any) error {
	return &Error{Kind: KindEmptyResult, Err: fmt.Errorf(format, args...)}
}

func Upstream(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindUpstream, Err: err}
}

func Precondition(message string) error {
	return &Error{Kind: KindPrecondition, Err: errors.New(message)}
}

// KindOf reports the kind of the outermost classified error; unclassified
// errors count as upstream failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// Wrap tags err with the operation that failed.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindOf(err), Op: op, Err: err}
}

// Message renders "Failed to <op>: <detail>".
func Message(op string, err error) string {
	detail := "an unknown error occurred."
	if err != nil {
		detail = detailOf(err)
	}
	if KindOf(err) == KindPrecondition {
		return detail
	}
	return fmt.Sprintf("Failed to %s: %s", op, detail)
}

func detailOf(err error) string {
	if e, ok := err.(*Error); ok && e.Op != "" && e.Err != nil {
		return detailOf(e.Err)
	}
	return strings.TrimSpace(err.Error())
}
