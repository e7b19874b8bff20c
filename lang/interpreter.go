package lang

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/sergev/phy/ast"
)

// Interpreter executes phy programs.
type Interpreter struct {
	// Builtins holds natives and library functions. Globals is its child,
	// so user declarations shadow builtins instead of colliding with them.
	Builtins *Env
	Globals  *Env

	stdout io.Writer
	logger *slog.Logger
	start  time.Time
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithStdout redirects the output of print statements.
func WithStdout(w io.Writer) Option {
	return func(in *Interpreter) {
		in.stdout = w
	}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Interpreter) {
		in.logger = logger
	}
}

// NewInterpreter constructs an interpreter whose builtin frame holds the
// clock native.
func NewInterpreter(opts ...Option) *Interpreter {
	builtins := NewEnv(nil)
	in := &Interpreter{
		Builtins: builtins,
		Globals:  NewEnv(builtins),
		stdout:   os.Stdout,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		start:    time.Now(),
	}
	for _, opt := range opts {
		opt(in)
	}
	if err := in.DefineNative("clock", 0, clock); err != nil {
		panic(fmt.Errorf("interpreter bootstrap failed: %w", err))
	}
	return in
}

// clock reports the seconds elapsed since the interpreter was created,
// read from the monotonic clock.
func clock(in *Interpreter, _ []Value) (Value, error) {
	return RealValue(time.Since(in.start).Seconds()), nil
}

// DefineNative declares a native function in the builtin frame.
func (in *Interpreter) DefineNative(name string, arity int, fn NativeFunc) error {
	in.logger.Debug("define native", slog.String("name", name), slog.Int("arity", arity))
	return in.Builtins.Declare(name, NativeValue(NewNative(name, arity, fn)))
}

// DefineLibrary executes stmts in the builtin frame, making their
// declarations visible to every program run by in.
func (in *Interpreter) DefineLibrary(stmts []ast.Stmt) error {
	_, err := in.interpretIn(stmts, in.Builtins)
	return err
}

// Stdout returns the writer print statements go to.
func (in *Interpreter) Stdout() io.Writer {
	return in.stdout
}

// Logger returns the interpreter's logger.
func (in *Interpreter) Logger() *slog.Logger {
	return in.logger
}

// Interpret executes stmts in the global environment and returns the value
// of the last one. Execution stops at the first failure.
func (in *Interpreter) Interpret(stmts []ast.Stmt) (Value, error) {
	return in.interpretIn(stmts, in.Globals)
}

func (in *Interpreter) interpretIn(stmts []ast.Stmt, env *Env) (Value, error) {
	result := Null
	for _, stmt := range stmts {
		out, err := in.exec(stmt, env)
		if err != nil {
			return Null, err
		}
		if out.returning {
			in.logger.Debug("return outside function", slog.String("value", out.value.String()))
			return Null, &Error{
				Kind:  KindReturn,
				Msg:   "return: " + out.value.String(),
				Value: out.value,
			}
		}
		result = out.value
	}
	return result, nil
}

// outcome is the result of a statement that did not fail. A returning
// outcome travels up to the nearest function call.
type outcome struct {
	value     Value
	returning bool
}

func completed(v Value) outcome {
	return outcome{value: v}
}

func returned(v Value) outcome {
	return outcome{value: v, returning: true}
}

func (in *Interpreter) exec(stmt ast.Stmt, env *Env) (outcome, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		val, err := in.eval(s.Expr, env)
		if err != nil {
			return outcome{}, err
		}
		return completed(val), nil
	case *ast.PrintStmt:
		val, err := in.eval(s.Expr, env)
		if err != nil {
			return outcome{}, err
		}
		fmt.Fprintln(in.stdout, val.String())
		return completed(Null), nil
	case *ast.VarDeclStmt:
		return in.execVarDecl(s, env)
	case *ast.BlockStmt:
		out, err := in.execBlock(s.Stmts, NewEnv(env))
		if err != nil || out.returning {
			return out, err
		}
		return completed(Null), nil
	case *ast.IfStmt:
		return in.execIf(s, env)
	case *ast.WhileStmt:
		return in.execWhile(s, env)
	case *ast.ForStmt:
		return in.execFor(s, env)
	case *ast.FnDeclStmt:
		fn := FunctionValue(NewFunction(s, env))
		if err := env.Declare(s.Name, fn); err != nil {
			return outcome{}, wrapError(KindDeclare, s.Loc, err)
		}
		return completed(Null), nil
	case *ast.ReturnStmt:
		val := Null
		if s.Value != nil {
			v, err := in.eval(s.Value, env)
			if err != nil {
				return outcome{}, err
			}
			val = v
		}
		return returned(val), nil
	default:
		return outcome{}, fmt.Errorf("unsupported statement %T", stmt)
	}
}

// execBlock runs stmts in env, stopping at the first failure or return.
func (in *Interpreter) execBlock(stmts []ast.Stmt, env *Env) (outcome, error) {
	for _, stmt := range stmts {
		out, err := in.exec(stmt, env)
		if err != nil || out.returning {
			return out, err
		}
	}
	return completed(Null), nil
}

func (in *Interpreter) execVarDecl(s *ast.VarDeclStmt, env *Env) (outcome, error) {
	val := Null
	if s.Value != nil {
		v, err := in.eval(s.Value, env)
		if err != nil {
			return outcome{}, err
		}
		val = v
	}
	if err := env.Declare(s.Name, val); err != nil {
		return outcome{}, wrapError(KindDeclare, s.Loc, err)
	}
	return completed(Null), nil
}

func (in *Interpreter) execIf(s *ast.IfStmt, env *Env) (outcome, error) {
	cond, err := in.eval(s.Cond, env)
	if err != nil {
		return outcome{}, err
	}
	if cond.Type != TypeBool {
		return outcome{}, newError(KindNonBoolIfCond, s.Loc, "'if' condition is not a boolean")
	}
	branch := s.Else
	if cond.Bool() {
		branch = s.Then
	}
	if branch == nil {
		return completed(Null), nil
	}
	return in.exec(branch, env)
}

func (in *Interpreter) execWhile(s *ast.WhileStmt, env *Env) (outcome, error) {
	for {
		cond, err := in.eval(s.Cond, env)
		if err != nil {
			return outcome{}, err
		}
		if cond.Type != TypeBool {
			return outcome{}, newError(KindNonBoolWhileCond, s.Loc, "'while' condition is not a boolean")
		}
		if !cond.Bool() {
			return completed(Null), nil
		}
		out, err := in.exec(s.Body, env)
		if err != nil || out.returning {
			return out, err
		}
	}
}

// execFor runs the body once per value of the range. The placeholder lives
// in a single frame for the whole loop and is reassigned, not redeclared,
// on every iteration.
func (in *Interpreter) execFor(s *ast.ForStmt, env *Env) (outcome, error) {
	loopEnv := NewEnv(env)
	if err := loopEnv.Declare(s.Placeholder, Null); err != nil {
		return outcome{}, wrapError(KindDeclare, s.Loc, err)
	}
	first, last := s.Range.Bounds()
	if first > last {
		return completed(Null), nil
	}
	for i := first; ; i++ {
		if err := loopEnv.Assign(s.Placeholder, IntValue(i)); err != nil {
			return outcome{}, wrapError(KindForLoop, s.Loc, err)
		}
		out, err := in.exec(s.Body, loopEnv)
		if err != nil || out.returning {
			return out, err
		}
		if i == last {
			return completed(Null), nil
		}
	}
}

func (in *Interpreter) eval(expr ast.Expr, env *Env) (Value, error) {
	switch e := expr.(type) {
	case *ast.BinaryExpr:
		return in.evalBinary(e, env)
	case *ast.AssignExpr:
		val, err := in.eval(e.Value, env)
		if err != nil {
			return Null, err
		}
		if err := env.Assign(e.Name, val); err != nil {
			return Null, wrapError(KindAssign, e.Loc, err)
		}
		return Null, nil
	case *ast.GroupingExpr:
		return in.eval(e.Expr, env)
	case *ast.IntLiteralExpr:
		return IntValue(e.Value), nil
	case *ast.RealLiteralExpr:
		return RealValue(e.Value), nil
	case *ast.StrLiteralExpr:
		return StrValue(e.Value), nil
	case *ast.IdentifierExpr:
		switch e.Name {
		case "true":
			return BoolValue(true), nil
		case "false":
			return BoolValue(false), nil
		case "null":
			return Null, nil
		}
		val, err := env.Get(e.Name)
		if err != nil {
			return Null, wrapError(KindGetVar, e.Loc, err)
		}
		return val, nil
	case *ast.UnaryExpr:
		return in.evalUnary(e, env)
	case *ast.LogicalExpr:
		return in.evalLogical(e, env)
	case *ast.CallExpr:
		return in.evalCall(e, env)
	default:
		return Null, fmt.Errorf("unsupported expression %T", expr)
	}
}

func (in *Interpreter) evalBinary(e *ast.BinaryExpr, env *Env) (Value, error) {
	lhs, err := in.eval(e.Left, env)
	if err != nil {
		return Null, err
	}
	if lhs.IsNull() {
		return Null, newError(KindUninitialized, e.Left.Pos(), "uninitialized variable")
	}
	rhs, err := in.eval(e.Right, env)
	if err != nil {
		return Null, err
	}
	if rhs.IsNull() {
		return Null, newError(KindUninitialized, e.Right.Pos(), "uninitialized variable")
	}
	res, err := lhs.Operate(rhs, e.Op)
	if err != nil {
		return Null, wrapError(KindOperation, e.Loc, err)
	}
	return res, nil
}

func (in *Interpreter) evalUnary(e *ast.UnaryExpr, env *Env) (Value, error) {
	val, err := in.eval(e.Right, env)
	if err != nil {
		return Null, err
	}
	switch {
	case e.Op == "!" && val.Type != TypeBool:
		return Null, newError(KindBangOnNonBool, e.Loc, "can't use '!' token on anything other than a bool value")
	case e.Op == "-" && !val.IsNumber():
		return Null, newError(KindNegateNonNumeric, e.Loc, "can't use '-' token on anything other than an int or a real value")
	}
	res, err := val.Negate(e.Op)
	if err != nil {
		return Null, wrapError(KindNegation, e.Loc, err)
	}
	return res, nil
}

// evalLogical short-circuits on the left operand, which must be a bool.
// The right operand is returned as is.
func (in *Interpreter) evalLogical(e *ast.LogicalExpr, env *Env) (Value, error) {
	left, err := in.eval(e.Left, env)
	if err != nil {
		return Null, err
	}
	if e.Op != "and" && e.Op != "or" {
		return Null, newError(KindOperation, e.Loc, fmt.Sprintf("unknown logical operator '%s'", e.Op))
	}
	if left.Type != TypeBool {
		return Null, newError(KindNonBoolIfCond, e.Loc, fmt.Sprintf("'%s' operand is not a boolean", e.Op))
	}
	if (e.Op == "or") == left.Bool() {
		return left, nil
	}
	return in.eval(e.Right, env)
}

func (in *Interpreter) evalCall(e *ast.CallExpr, env *Env) (Value, error) {
	callee, err := in.eval(e.Callee, env)
	if err != nil {
		return Null, err
	}
	args := make([]Value, 0, len(e.Args))
	for _, arg := range e.Args {
		val, err := in.eval(arg, env)
		if err != nil {
			return Null, err
		}
		args = append(args, val)
	}
	fn, ok := callee.Callable()
	if !ok {
		return Null, newError(KindNonCallable, e.Loc, fmt.Sprintf("only functions are callable, got %s", callee.Type))
	}
	if fn.Arity() != len(args) {
		return Null, &Error{
			Kind:     KindArity,
			Msg:      fmt.Sprintf("wrong arguments number: expected %d but got %d", fn.Arity(), len(args)),
			Loc:      &e.Loc,
			Expected: fn.Arity(),
			Got:      len(args),
		}
	}
	in.logger.Debug("call", slog.String("name", fn.Name()), slog.Int("argc", len(args)))
	res, err := fn.Call(in, args)
	if err != nil {
		cerr := wrapError(KindCall, e.Loc, err)
		if inner, ok := AsError(err); ok {
			cerr.Msg = inner.Msg
		}
		return Null, cerr
	}
	return res, nil
}
