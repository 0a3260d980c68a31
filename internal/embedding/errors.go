package embedding

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// Error kinds. Every error returned by the resolver and the invokers is an
// *Error whose Kind is one of these, so errors.Is(err, ErrTypeNotFound) works.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrModuleNotFound     = errors.New("module not found")
	ErrTypeNotFound       = errors.New("type not found")
	ErrNotConstructible   = errors.New("type not constructible")
	ErrConstructionFailed = errors.New("construction failed")
	ErrCapabilityMissing  = errors.New("capability missing")
	ErrInvocationFailed   = errors.New("invocation failed")
)

// ErrNoResult is the cause recorded when an asynchronous provider closes its
// result channel without delivering anything.
var ErrNoResult = errors.New("provider returned no result")

// Error carries the failing step and identifiers along with the cause.
type Error struct {
	Kind   error
	Op     string
	Module string
	Type   string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("embedding: ")
	b.WriteString(e.describe())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) describe() string {
	switch e.Kind {
	case ErrInvalidArgument:
		return "both type and module must be specified"
	case ErrModuleNotFound:
		return fmt.Sprintf("module %q could not be found", e.Module)
	case ErrTypeNotFound:
		return fmt.Sprintf("type %q does not exist in module %q", e.Type, e.Module)
	case ErrNotConstructible:
		return fmt.Sprintf("type %q in module %q is not constructible", e.Type, e.Module)
	case ErrConstructionFailed:
		return fmt.Sprintf("error instantiating %q from module %q", e.Type, e.Module)
	case ErrCapabilityMissing:
		return fmt.Sprintf("type %q does not provide a callable %s operation", e.Type, e.Op)
	case ErrInvocationFailed:
		return fmt.Sprintf("%s on %s/%s failed generating embeddings", e.Op, e.Module, e.Type)
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "unknown error"
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Kind reports which of the Err* kinds err carries, or nil.
func Kind(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}

// PanicError wraps a value recovered from a panicking provider.
type PanicError struct {
	Value      any
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func recoverAsError(errPtr *error) {
	if r := recover(); r != nil {
		*errPtr = &PanicError{Value: r, StackTrace: string(debug.Stack())}
	}
}
