package container

import (
	"errors"
	"fmt"
)

// ── Error kinds ───────────────────────────────────────────────────────────────

// Kind classifies container failures so callers can branch on them with
// errors.Is or KindOf instead of matching message text.
type Kind int

const (
	Generic Kind = iota
	InvalidServiceSpecs
	IncompleteSpecification
	InvalidSpecification
	AmbiguousSpecification
	IncompatibleSpecification
	FinalServiceOverridingAttempt
	ServiceNotFound
	MissingDependencyDefinition
	DependencyNotFound
	NoBuilderFound
	CircularDependency
)

var kindNames = map[Kind]string{
	Generic:                       "generic",
	InvalidServiceSpecs:           "invalid service specs",
	IncompleteSpecification:       "incomplete specification",
	InvalidSpecification:          "invalid specification",
	AmbiguousSpecification:        "ambiguous specification",
	IncompatibleSpecification:     "incompatible specification",
	FinalServiceOverridingAttempt: "final service overriding attempt",
	ServiceNotFound:               "service not found",
	MissingDependencyDefinition:   "missing dependency definition",
	DependencyNotFound:            "dependency not found",
	NoBuilderFound:                "no builder found",
	CircularDependency:            "circular dependency",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ── Error ─────────────────────────────────────────────────────────────────────

// Error is the error type returned by every container operation.
//
//	if errors.Is(err, &container.Error{Kind: container.FinalServiceOverridingAttempt}) { ... }
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("container: %s: %v", e.Message, e.Err)
	}
	return "container: " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// ErrorKind implements the kinded interface used by KindOf.
func (e *Error) ErrorKind() Kind { return e.Kind }

// ServiceNotFoundError is returned when an id (or an autowired parameter)
// cannot be satisfied by the container or any of its delegates.
type ServiceNotFoundError struct {
	ID     string
	Reason string
}

func (e *ServiceNotFoundError) Error() string {
	if e.ID == "" {
		return "container: " + e.Reason
	}
	return fmt.Sprintf("container: service %q %s", e.ID, e.Reason)
}

// Is matches both *ServiceNotFoundError and an *Error of kind ServiceNotFound.
func (e *ServiceNotFoundError) Is(target error) bool {
	switch t := target.(type) {
	case *ServiceNotFoundError:
		return true
	case *Error:
		return t.Kind == ServiceNotFound
	}
	return false
}

func (e *ServiceNotFoundError) ErrorKind() Kind { return ServiceNotFound }

// KindOf returns the Kind of the outermost container error in err's chain,
// or Generic when err carries none.
func KindOf(err error) Kind {
	var k interface{ ErrorKind() Kind }
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	return Generic
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}
