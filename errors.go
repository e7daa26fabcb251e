package fixt

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorCode uint16

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeFixtureNotFound
	ErrCodeDuplicateFixture
	ErrCodeScopeMismatch
	ErrCodeCyclicDependency
	ErrCodeConstructionFailed
	ErrCodeNoActiveScope
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:            "UNKNOWN",
	ErrCodeFixtureNotFound:    "FIXTURE_NOT_FOUND",
	ErrCodeDuplicateFixture:   "DUPLICATE_FIXTURE",
	ErrCodeScopeMismatch:      "SCOPE_MISMATCH",
	ErrCodeCyclicDependency:   "CYCLIC_DEPENDENCY",
	ErrCodeConstructionFailed: "CONSTRUCTION_FAILED",
	ErrCodeNoActiveScope:      "NO_ACTIVE_SCOPE",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}

// Error is the error type returned by every fixt operation. Code classifies
// the failure, Fixture names the offending definition, Suggestion carries the
// closest registered name for not-found failures, and Cycle lists the members
// of a dependency cycle in path order.
type Error struct {
	Code       ErrorCode
	Message    string
	Fixture    string
	Suggestion string
	Cycle      []string
	Cause      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]", e.Code))

	if e.Fixture != "" {
		b.WriteString(fmt.Sprintf(" fixture=%q:", e.Fixture))
	}

	b.WriteString(" ")
	b.WriteString(e.Message)

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf(" (did you mean %q?)", e.Suggestion))
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func errFixtureNotFound(name, suggestion string) *Error {
	e := newError(
		ErrCodeFixtureNotFound,
		fmt.Sprintf("no fixture registered under name %q", name),
		nil,
	)
	e.Fixture = name
	e.Suggestion = suggestion
	return e
}

func errDuplicateFixture(origin, name string) *Error {
	e := newError(
		ErrCodeDuplicateFixture,
		fmt.Sprintf("fixture %q defined more than once in %q", name, origin),
		nil,
	)
	e.Fixture = name
	return e
}

func errScopeMismatch(dependent, dependency string, dependentScope, dependencyScope Scope) *Error {
	e := newError(
		ErrCodeScopeMismatch,
		fmt.Sprintf("%s-scoped %q depends on %s-scoped %q, which has a shorter lifetime",
			dependentScope, dependent, dependencyScope, dependency),
		nil,
	)
	e.Fixture = dependent
	return e
}

func errCyclicDependency(cycle []string) *Error {
	e := newError(
		ErrCodeCyclicDependency,
		fmt.Sprintf("cyclic fixture dependency: %s", strings.Join(cycle, " -> ")),
		nil,
	)
	if len(cycle) > 0 {
		e.Fixture = cycle[0]
	}
	e.Cycle = cycle
	return e
}

func errConstructionFailed(name string, cause error) *Error {
	e := newError(
		ErrCodeConstructionFailed,
		fmt.Sprintf("constructing fixture %q failed", name),
		cause,
	)
	e.Fixture = name
	return e
}

func errNoActiveScope(s Scope) *Error {
	return newError(
		ErrCodeNoActiveScope,
		fmt.Sprintf("no active %s scope instance to register a teardown against", s),
		nil,
	)
}

func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeFixtureNotFound
}

func IsDuplicateFixture(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeDuplicateFixture
}

func IsScopeMismatch(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeScopeMismatch
}

func IsCyclicDependency(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeCyclicDependency
}

func IsConstructionFailed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeConstructionFailed
}

func IsNoActiveScope(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeNoActiveScope
}
