package lang

import (
	"errors"
	"fmt"

	"github.com/sergev/phy/ast"
)

// Sentinel errors reported by Env and Value. The interpreter wraps them into *Error.
var (
	ErrUnbound         = errors.New("undefined variable")
	ErrAlreadyDeclared = errors.New("variable already declared in this scope")
	ErrOperation       = errors.New("invalid operation")
	ErrNegation        = errors.New("invalid negation")
)

// Kind classifies interpreter failures.
type Kind int

const (
	KindOperation Kind = iota
	KindBangOnNonBool
	KindNegateNonNumeric
	KindNegation
	KindDeclare
	KindGetVar
	KindAssign
	KindUninitialized
	KindNonBoolIfCond
	KindNonBoolWhileCond
	KindForLoop
	KindNonCallable
	KindArity
	KindCall
	KindReturn
)

func (k Kind) String() string {
	switch k {
	case KindOperation:
		return "operation"
	case KindBangOnNonBool:
		return "bang on non-bool"
	case KindNegateNonNumeric:
		return "negate non-numeric"
	case KindNegation:
		return "negation"
	case KindDeclare:
		return "declaration"
	case KindGetVar:
		return "variable lookup"
	case KindAssign:
		return "assignment"
	case KindUninitialized:
		return "uninitialized value"
	case KindNonBoolIfCond:
		return "non-bool condition"
	case KindNonBoolWhileCond:
		return "non-bool while condition"
	case KindForLoop:
		return "for loop"
	case KindNonCallable:
		return "non-callable"
	case KindArity:
		return "arity mismatch"
	case KindCall:
		return "call"
	case KindReturn:
		return "return"
	default:
		return "unknown"
	}
}

// Error is a runtime failure raised while interpreting a program.
type Error struct {
	Kind Kind
	Msg  string
	Loc  *ast.Loc // nil only for KindReturn

	// Expected and Got hold the argument counts of a KindArity failure.
	Expected, Got int
	// Value is the returned value of a KindReturn failure.
	Value Value
	// Err is the underlying failure, if any.
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Loc == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Loc, e.Msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind Kind, loc ast.Loc, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Loc: &loc}
}

func wrapError(kind Kind, loc ast.Loc, err error) *Error {
	return &Error{Kind: kind, Msg: err.Error(), Loc: &loc, Err: err}
}

// AsError extracts the outermost *Error from err.
func AsError(err error) (*Error, bool) {
	var ierr *Error
	if errors.As(err, &ierr) {
		return ierr, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	ierr, ok := AsError(err)
	return ok && ierr.Kind == kind
}

// IsReturn reports whether err is a return that escaped every function call.
func IsReturn(err error) bool {
	return IsKind(err, KindReturn)
}
