package lang

import (
	"fmt"

	"github.com/sergev/phy/ast"
)

// Callable is the invocation contract shared by user-defined and native
// functions. Callers check Arity before Call.
type Callable interface {
	Name() string
	Arity() int
	Call(in *Interpreter, args []Value) (Value, error)
}

// Function is a user-defined function closing over the frame it was
// declared in.
type Function struct {
	Decl *ast.FnDeclStmt
	Env  *Env
}

// NewFunction captures env by reference, not by copy.
func NewFunction(decl *ast.FnDeclStmt, env *Env) *Function {
	return &Function{Decl: decl, Env: env}
}

func (f *Function) Name() string { return f.Decl.Name }
func (f *Function) Arity() int   { return len(f.Decl.Params) }

// Call binds the arguments in a fresh frame whose parent is the captured
// frame and runs the body there. A function without return yields Null.
func (f *Function) Call(in *Interpreter, args []Value) (Value, error) {
	if len(args) != f.Arity() {
		return Null, fmt.Errorf("%s: expected %d arguments, got %d", f.Name(), f.Arity(), len(args))
	}
	env := NewEnv(f.Env)
	for i, name := range f.Decl.Params {
		if err := env.Declare(name, args[i]); err != nil {
			return Null, wrapError(KindDeclare, f.Decl.Loc, err)
		}
	}
	out, err := in.execBlock(f.Decl.Body, env)
	if err != nil {
		return Null, err
	}
	if out.returning {
		return out.value, nil
	}
	return Null, nil
}

// NativeFunc is the Go implementation behind a native function.
type NativeFunc func(in *Interpreter, args []Value) (Value, error)

// NativeFunction is a host-provided capability with a fixed arity.
type NativeFunction struct {
	name  string
	arity int
	fn    NativeFunc
}

// NewNative wraps fn as a callable named name.
func NewNative(name string, arity int, fn NativeFunc) *NativeFunction {
	return &NativeFunction{name: name, arity: arity, fn: fn}
}

func (n *NativeFunction) Name() string { return n.name }
func (n *NativeFunction) Arity() int   { return n.arity }

func (n *NativeFunction) Call(in *Interpreter, args []Value) (Value, error) {
	if len(args) != n.arity {
		return Null, fmt.Errorf("%s: expected %d arguments, got %d", n.name, n.arity, len(args))
	}
	return n.fn(in, args)
}
