package lang

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sergev/phy/ast"
	"github.com/sergev/phy/parser"
)

var valueComparer = cmp.Comparer(func(a, b Value) bool {
	return a.Equal(b)
})

func run(t *testing.T, src string, opts ...Option) (Value, error) {
	t.Helper()
	stmts, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return NewInterpreter(opts...).Interpret(stmts)
}

func mustRun(t *testing.T, src string) Value {
	t.Helper()
	val, err := run(t, src)
	if err != nil {
		t.Fatalf("run %q: %v", src, err)
	}
	return val
}

func runErr(t *testing.T, src string) *Error {
	t.Helper()
	_, err := run(t, src)
	if err == nil {
		t.Fatalf("run %q: expected error", src)
	}
	ierr, ok := AsError(err)
	if !ok {
		t.Fatalf("run %q: expected *Error, got %T: %v", src, err, err)
	}
	return ierr
}

func checkValue(t *testing.T, src string, want Value) {
	t.Helper()
	got := mustRun(t, src)
	if diff := cmp.Diff(want, got, valueComparer); diff != "" {
		t.Fatalf("run %q mismatch (-want +got):\n%s", src, diff)
	}
}

func TestInterpretLiterals(t *testing.T) {
	checkValue(t, "1", IntValue(1))
	checkValue(t, "-45.", RealValue(-45))
	checkValue(t, `"hello world!"`, StrValue("hello world!"))
	checkValue(t, "true", BoolValue(true))
	checkValue(t, "null", Null)
	checkValue(t, "", Null)
}

func TestInterpretBinaryOperators(t *testing.T) {
	cases := []struct {
		src  string
		want Value
	}{
		{"1 +2", IntValue(3)},
		{"1. + -2 *24", RealValue(-47)},
		{"5 + (6 * (2+3)) - (((6)))", IntValue(29)},
		{"7 / 2", IntValue(3)},
		{"7 / 2.", RealValue(3.5)},
		{"3 < 4.5", BoolValue(true)},
		{"2 >= 2", BoolValue(true)},
		{"1 == 1.", BoolValue(true)},
		{`"abc" < "abd"`, BoolValue(true)},
		{`"a" != "a"`, BoolValue(false)},
		{"true == false", BoolValue(false)},
	}
	for _, tc := range cases {
		checkValue(t, tc.src, tc.want)
	}
}

func TestInterpretStringOperators(t *testing.T) {
	checkValue(t, `"foo" * 4`, StrValue("foofoofoofoo"))
	checkValue(t, `4 * "foo"`, StrValue("foofoofoofoo"))
	checkValue(t, `"foo" + " " + "bar"`, StrValue("foo bar"))

	for _, src := range []string{`"foo" * 3.5`, `"foo" + 56`, `"foo" * -1`, "true + 1", "1 / 0",
		`"foo" * 9223372036854775807`, "9223372036854775807 + 1", "var m = 4611686018427387904\nm * 2"} {
		ierr := runErr(t, src)
		if ierr.Kind != KindOperation {
			t.Fatalf("%s: expected operation error, got %v (%v)", src, ierr.Kind, ierr)
		}
		if !errors.Is(ierr, ErrOperation) {
			t.Fatalf("%s: expected error to wrap ErrOperation", src)
		}
	}
}

func TestInterpretNegation(t *testing.T) {
	checkValue(t, "-3", IntValue(-3))
	checkValue(t, "-3.", RealValue(-3))
	checkValue(t, "!true", BoolValue(false))
	checkValue(t, "!false", BoolValue(true))
	checkValue(t, "!!true", BoolValue(true))
	checkValue(t, "var a = true\nvar b = a\n!a\n!b\na == b and a", BoolValue(true))

	if ierr := runErr(t, `- "foo"`); ierr.Kind != KindNegateNonNumeric {
		t.Fatalf("expected negate non-numeric error, got %v", ierr.Kind)
	}
	if ierr := runErr(t, "!8"); ierr.Kind != KindBangOnNonBool {
		t.Fatalf("expected bang on non-bool error, got %v", ierr.Kind)
	}
	ierr := runErr(t, "-null")
	if ierr.Kind != KindNegateNonNumeric {
		t.Fatalf("expected negate non-numeric error for null, got %v", ierr.Kind)
	}
	if want := "1:1: can't use '-' token on anything other than an int or a real value"; ierr.Error() != want {
		t.Fatalf("expected %q, got %q", want, ierr.Error())
	}
}

func TestInterpretVariables(t *testing.T) {
	checkValue(t, "var a = -8\na", IntValue(-8))
	checkValue(t, "var a = -8\na = 4 + a*2\na", IntValue(-12))
	checkValue(t, "var a\nvar b\na = b = 3\nb", IntValue(3))
	// Assignment yields null, so a chained assignment leaves a null.
	checkValue(t, "var a = 1\nvar b\na = b = 3\na", Null)
	checkValue(t, "var a = 1\na = 2", Null)

	ierr := runErr(t, "a = 5")
	if ierr.Kind != KindAssign || !errors.Is(ierr, ErrUnbound) {
		t.Fatalf("expected unbound assignment error, got %v (%v)", ierr.Kind, ierr)
	}

	ierr = runErr(t, "missing + 1")
	if ierr.Kind != KindGetVar || !errors.Is(ierr, ErrUnbound) {
		t.Fatalf("expected unbound lookup error, got %v (%v)", ierr.Kind, ierr)
	}

	ierr = runErr(t, "var a = 1\nvar a = 2")
	if ierr.Kind != KindDeclare || !errors.Is(ierr, ErrAlreadyDeclared) {
		t.Fatalf("expected duplicate declaration error, got %v (%v)", ierr.Kind, ierr)
	}
}

func TestInterpretUninitializedOperands(t *testing.T) {
	ierr := runErr(t, "var b\n3 + b")
	if ierr.Kind != KindUninitialized {
		t.Fatalf("expected uninitialized error, got %v", ierr.Kind)
	}
	if ierr.Loc == nil || ierr.Loc.String() != "2:5" {
		t.Fatalf("expected error at right operand 2:5, got %v", ierr.Loc)
	}

	// The right operand must not run when the left one is null.
	ierr = runErr(t, "var calls = 0\nfn bump() { calls = calls + 1\nreturn 1 }\nnull + bump()")
	if ierr.Kind != KindUninitialized {
		t.Fatalf("expected uninitialized error, got %v", ierr.Kind)
	}
	if ierr.Loc == nil || ierr.Loc.String() != "4:1" {
		t.Fatalf("expected error at left operand 4:1, got %v", ierr.Loc)
	}
}

func TestInterpretBlockScoping(t *testing.T) {
	src := `
var a = -8
{
    var b = 1
    b = a + 9
    a = b
}
a
`
	checkValue(t, src, IntValue(1))

	ierr := runErr(t, "{ var inner = 1 }\ninner")
	if ierr.Kind != KindGetVar {
		t.Fatalf("expected inner to be out of scope, got %v", ierr.Kind)
	}

	checkValue(t, "var a = 1\n{ var a = 2 }\na", IntValue(1))
}

func TestInterpretIf(t *testing.T) {
	checkValue(t, "var a = true\nvar b = 0\nif a { b = 1 } else {}\nb", IntValue(1))
	checkValue(t, "var a = false\nvar b = 0\nif a { b = 8 } else { b = 1 }\nb", IntValue(1))
	checkValue(t, "var a = false\nvar b = 42\nif a {} else {}\nb", IntValue(42))
	checkValue(t, "var b = 0\nif false { b = 1 }\nb", IntValue(0))
	checkValue(t, "var b = 3\nif b == 1 { b = 10 } else if b == 3 { b = 30 } else { b = 0 }\nb", IntValue(30))

	ierr := runErr(t, "var a = 5\nif a {} else {}")
	if ierr.Kind != KindNonBoolIfCond {
		t.Fatalf("expected non-bool if condition, got %v", ierr.Kind)
	}
	if ierr.Msg != "'if' condition is not a boolean" {
		t.Fatalf("unexpected message %q", ierr.Msg)
	}
}

func TestInterpretLogical(t *testing.T) {
	cases := []string{
		"var a = true\nvar b = 0\nif a and b == 0 { b = 1 }\nb",
		"var a = true\nvar b = 0\nif a and 2 + 2 == 5 { } else { b = 1 }\nb",
		"var a = true\nvar b = 0\nif a or false { b = 1 }\nb",
		"var a = false\nvar b = 0\nif a or false {} else { b = 1 }\nb",
	}
	for _, src := range cases {
		checkValue(t, src, IntValue(1))
	}
	checkValue(t, "var a = true\nvar b = 42\nif a and b == 41 or b == 42 and false {} else { b = 45 }\nb", IntValue(45))

	// The right operand is returned without a type check.
	checkValue(t, "true and 5", IntValue(5))
	checkValue(t, `false or "x"`, StrValue("x"))

	ierr := runErr(t, "1 and true")
	if ierr.Kind != KindNonBoolIfCond {
		t.Fatalf("expected non-bool operand error, got %v", ierr.Kind)
	}
}

func TestInterpretShortCircuit(t *testing.T) {
	src := `
var calls = 0
fn touch() {
    calls = calls + 1
    return true
}
false and touch()
true or touch()
calls
`
	checkValue(t, src, IntValue(0))

	src = `
var calls = 0
fn touch() {
    calls = calls + 1
    return true
}
true and touch()
false or touch()
calls
`
	checkValue(t, src, IntValue(2))
}

func TestInterpretWhile(t *testing.T) {
	checkValue(t, "var a = 0\nwhile a < 5 {\n    a = a + 1\n}\na", IntValue(5))

	ierr := runErr(t, "while 1 {}")
	if ierr.Kind != KindNonBoolWhileCond {
		t.Fatalf("expected non-bool while condition, got %v", ierr.Kind)
	}
}

func TestInterpretFor(t *testing.T) {
	checkValue(t, "var a = 0\nfor i in 5 { a = a + i }\na", IntValue(15))
	checkValue(t, "var a = 0\nfor i in 5..10 { a = a + i }\na", IntValue(45))
	checkValue(t, "var a = 0\nfor i in -2..2 { a = a + i }\na", IntValue(0))
	checkValue(t, "var a = 0\nfor i in 3..1 { a = a + 1 }\na", IntValue(0))

	ierr := runErr(t, "for i in 2 {}\ni")
	if ierr.Kind != KindGetVar {
		t.Fatalf("expected loop variable to be out of scope, got %v", ierr.Kind)
	}

	// Every iteration shares one binding, so a closure sees the last value.
	src := `
var f
for i in 3 {
    fn get() { return i }
    f = get
}
f()
`
	checkValue(t, src, IntValue(3))
}

func TestInterpretFunctions(t *testing.T) {
	checkValue(t, "var res\nfn add(a, b) {\n    res = a + b\n}\nadd(5, 6)\nres", IntValue(11))
	checkValue(t, "fn add(a, b) { return a+b }\nvar c = add\nc(1, 2)", IntValue(3))
	checkValue(t, "fn nothing() {}\nnothing()", Null)
	checkValue(t, "fn early() { return\nprint 1 }\nearly()", Null)
	checkValue(t, "fn loop() { while true { for i in 10 { if i == 4 { return i } } } }\nloop()", IntValue(4))

	src := `
fn fib(n) {
    if n <= 1 { return n }

    return fib(n-2) + fib(n-1)
}

fib(20)
`
	checkValue(t, src, IntValue(6765))
}

func TestInterpretClosures(t *testing.T) {
	src := `
fn makeCounter() {
  var i = 0
  fn count() {
    i = i + 1
    return i
  }

  return count
}

var counter = makeCounter()
var a = 0
a = counter()
a = counter()
a
`
	checkValue(t, src, IntValue(2))

	src = `
fn makeCounter() {
  var i = 0
  fn count() {
    i = i + 1
    return i
  }
  return count
}
var first = makeCounter()
var second = makeCounter()
first()
first()
second()
`
	checkValue(t, src, IntValue(1))

	// Captured frames are shared, so later mutations are visible.
	checkValue(t, "var x = 1\nfn get() { return x }\nx = 5\nget()", IntValue(5))
}

func TestInterpretCallErrors(t *testing.T) {
	ierr := runErr(t, "fn add(a, b) { return a + b }\nadd(1)")
	if ierr.Kind != KindArity {
		t.Fatalf("expected arity error, got %v", ierr.Kind)
	}
	if ierr.Expected != 2 || ierr.Got != 1 {
		t.Fatalf("expected 2/1 counts, got %d/%d", ierr.Expected, ierr.Got)
	}
	if ierr.Msg != "wrong arguments number: expected 2 but got 1" {
		t.Fatalf("unexpected message %q", ierr.Msg)
	}

	ierr = runErr(t, "var x = 3\nx()")
	if ierr.Kind != KindNonCallable {
		t.Fatalf("expected non-callable error, got %v", ierr.Kind)
	}

	ierr = runErr(t, "fn bad() { return 1 + \"a\" }\nbad()")
	if ierr.Kind != KindCall {
		t.Fatalf("expected call error, got %v", ierr.Kind)
	}
	var inner *Error
	if !errors.As(ierr.Err, &inner) || inner.Kind != KindOperation {
		t.Fatalf("expected wrapped operation error, got %v", ierr.Err)
	}
	if ierr.Msg != inner.Msg {
		t.Fatalf("expected call error to carry inner message %q, got %q", inner.Msg, ierr.Msg)
	}

	ierr = runErr(t, "fn dup(a, a) {}\ndup(1, 2)")
	if ierr.Kind != KindCall || !errors.Is(ierr, ErrAlreadyDeclared) {
		t.Fatalf("expected duplicate parameter failure, got %v (%v)", ierr.Kind, ierr)
	}
}

func TestInterpretTopLevelReturn(t *testing.T) {
	ierr := runErr(t, "var a = 1\nreturn a + 1\na = 10")
	if !IsReturn(ierr) {
		t.Fatalf("expected return error, got %v", ierr.Kind)
	}
	if ierr.Loc != nil {
		t.Fatalf("expected no location, got %v", ierr.Loc)
	}
	if ierr.Msg != "return: 2" || !ierr.Value.Equal(IntValue(2)) {
		t.Fatalf("unexpected return error %q with value %v", ierr.Msg, ierr.Value)
	}
}

func TestInterpretStopsAtFirstFailure(t *testing.T) {
	var out bytes.Buffer
	_, err := run(t, "print 1\nprint missing\nprint 2", WithStdout(&out))
	if err == nil {
		t.Fatalf("expected failure")
	}
	if got := out.String(); got != "1\n" {
		t.Fatalf("expected only the first print, got %q", got)
	}
}

func TestInterpretPrint(t *testing.T) {
	var out bytes.Buffer
	val, err := run(t, `
print 1
print 2.5
print -47.
print "a" + "b"
print true
print null
fn f() {}
print f
print clock
`, WithStdout(&out))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !val.IsNull() {
		t.Fatalf("expected print to yield null, got %v", val)
	}
	want := strings.Join([]string{"1", "2.5", "-47", "ab", "true", "null", "<fn f>", "<native fn clock>"}, "\n") + "\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpretClockNative(t *testing.T) {
	val := mustRun(t, "var start = clock()\nclock() - start >= 0")
	if !val.Equal(BoolValue(true)) {
		t.Fatalf("expected monotonic clock, got %v", val)
	}
	ierr := runErr(t, "clock(1)")
	if ierr.Kind != KindArity || ierr.Expected != 0 || ierr.Got != 1 {
		t.Fatalf("expected arity error 0/1, got %v %d/%d", ierr.Kind, ierr.Expected, ierr.Got)
	}
}

func TestInterpretReservedNamesCannotBeShadowed(t *testing.T) {
	checkValue(t, "var true = 5\ntrue", BoolValue(true))
	checkValue(t, "var null = 1\nnull", Null)
}

func TestDefineNative(t *testing.T) {
	in := NewInterpreter()
	err := in.DefineNative("double", 1, func(_ *Interpreter, args []Value) (Value, error) {
		return args[0].Operate(IntValue(2), "*")
	})
	if err != nil {
		t.Fatalf("DefineNative: %v", err)
	}
	stmts, err := parser.Parse("double(21)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	val, err := in.Interpret(stmts)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if !val.Equal(IntValue(42)) {
		t.Fatalf("expected 42, got %v", val)
	}

	if err := in.DefineNative("double", 1, nil); !errors.Is(err, ErrAlreadyDeclared) {
		t.Fatalf("expected redefinition to fail, got %v", err)
	}
}

func TestInterpretShadowsBuiltins(t *testing.T) {
	checkValue(t, "var clock = 3\nclock + 1", IntValue(4))
	checkValue(t, "fn clock() { return \"tick\" }\nclock()", StrValue("tick"))

	in := NewInterpreter()
	lib, err := parser.Parse("fn twice(x) { return x * 2 }")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := in.DefineLibrary(lib); err != nil {
		t.Fatalf("DefineLibrary: %v", err)
	}
	if !in.Builtins.Has("twice") || in.Globals.Has("twice") {
		t.Fatalf("expected twice in the builtin frame only")
	}
	stmts, err := parser.Parse("var x = twice(21)\nfn twice(s) { return s + s }\nx + twice(1)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	val, err := in.Interpret(stmts)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if !val.Equal(IntValue(44)) {
		t.Fatalf("expected 44, got %v", val)
	}
}

func TestInterpretHandBuiltAST(t *testing.T) {
	loc := ast.Loc{Line: 1, Column: 1}
	three := int64(3)
	stmts := []ast.Stmt{
		&ast.VarDeclStmt{Name: "sum", Value: &ast.IntLiteralExpr{Value: 0, Loc: loc}, Loc: loc},
		&ast.ForStmt{
			Placeholder: "i",
			Range:       ast.ForRange{Start: 1, End: &three},
			Body: &ast.ExprStmt{Expr: &ast.AssignExpr{
				Name: "sum",
				Value: &ast.BinaryExpr{
					Op:    "+",
					Left:  &ast.IdentifierExpr{Name: "sum", Loc: loc},
					Right: &ast.IdentifierExpr{Name: "i", Loc: loc},
					Loc:   loc,
				},
				Loc: loc,
			}},
			Loc: loc,
		},
		&ast.IfStmt{
			Cond: &ast.IdentifierExpr{Name: "true", Loc: loc},
			Then: &ast.ExprStmt{Expr: &ast.IdentifierExpr{Name: "sum", Loc: loc}},
			Loc:  loc,
		},
	}
	val, err := NewInterpreter().Interpret(stmts)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if !val.Equal(IntValue(6)) {
		t.Fatalf("expected if to yield the branch value 6, got %v", val)
	}

	ifWithoutThen := []ast.Stmt{&ast.IfStmt{Cond: &ast.IdentifierExpr{Name: "true"}}}
	val, err = NewInterpreter().Interpret(ifWithoutThen)
	if err != nil || !val.IsNull() {
		t.Fatalf("expected null from if without branches, got %v err=%v", val, err)
	}
}
