package lang

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueType enumerates the different runtime value categories.
type ValueType int

const (
	TypeNull ValueType = iota
	TypeInt
	TypeReal
	TypeStr
	TypeBool
	TypeFunction
	TypeNative
)

func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeInt:
		return "int"
	case TypeReal:
		return "real"
	case TypeStr:
		return "str"
	case TypeBool:
		return "bool"
	case TypeFunction:
		return "function"
	case TypeNative:
		return "native function"
	default:
		return "unknown"
	}
}

// Value represents any runtime object in the interpreter.
// The zero Value is Null.
type Value struct {
	Type    ValueType
	payload interface{}
}

// boolCell holds a boolean payload. Cells are shared, never mutated.
type boolCell struct {
	value bool
}

var (
	trueCell  = &boolCell{value: true}
	falseCell = &boolCell{value: false}
)

// Null is the sentinel "no value" used for the literal null and for
// declarations without initializer.
var Null = Value{Type: TypeNull}

// IntValue constructs an integer Value.
func IntValue(i int64) Value {
	return Value{Type: TypeInt, payload: i}
}

// RealValue constructs a floating-point Value.
func RealValue(f float64) Value {
	return Value{Type: TypeReal, payload: f}
}

// StrValue constructs a string Value.
func StrValue(s string) Value {
	return Value{Type: TypeStr, payload: s}
}

// BoolValue returns the boolean Value equivalent.
func BoolValue(b bool) Value {
	if b {
		return Value{Type: TypeBool, payload: trueCell}
	}
	return Value{Type: TypeBool, payload: falseCell}
}

// FunctionValue wraps a user-defined function.
func FunctionValue(fn *Function) Value {
	return Value{Type: TypeFunction, payload: fn}
}

// NativeValue wraps a host-provided function.
func NativeValue(fn *NativeFunction) Value {
	return Value{Type: TypeNative, payload: fn}
}

func (v Value) IsNull() bool {
	return v.Type == TypeNull
}

func (v Value) IsNumber() bool {
	return v.Type == TypeInt || v.Type == TypeReal
}

func (v Value) Int() int64 {
	if i, ok := v.payload.(int64); ok {
		return i
	}
	return 0
}

func (v Value) Real() float64 {
	if f, ok := v.payload.(float64); ok {
		return f
	}
	return 0
}

// Float returns the numeric payload as float64, promoting integers.
func (v Value) Float() float64 {
	if v.Type == TypeInt {
		return float64(v.Int())
	}
	return v.Real()
}

func (v Value) Str() string {
	if s, ok := v.payload.(string); ok {
		return s
	}
	return ""
}

func (v Value) Bool() bool {
	if c, ok := v.payload.(*boolCell); ok {
		return c.value
	}
	return false
}

func (v Value) Function() *Function {
	if f, ok := v.payload.(*Function); ok {
		return f
	}
	return nil
}

func (v Value) Native() *NativeFunction {
	if n, ok := v.payload.(*NativeFunction); ok {
		return n
	}
	return nil
}

// Callable returns the invocation contract of a function or native value.
func (v Value) Callable() (Callable, bool) {
	switch v.Type {
	case TypeFunction:
		if fn := v.Function(); fn != nil {
			return fn, true
		}
	case TypeNative:
		if fn := v.Native(); fn != nil {
			return fn, true
		}
	}
	return nil, false
}

// Equal reports whether two values have the same type and payload.
// Functions are equal only to themselves.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case TypeNull:
		return true
	case TypeInt:
		return v.Int() == other.Int()
	case TypeReal:
		return v.Real() == other.Real()
	case TypeStr:
		return v.Str() == other.Str()
	case TypeBool:
		return v.Bool() == other.Bool()
	case TypeFunction:
		return v.Function() == other.Function()
	case TypeNative:
		return v.Native() == other.Native()
	default:
		return false
	}
}

// Operate applies a binary operator to v and other.
func (v Value) Operate(other Value, op string) (Value, error) {
	switch {
	case v.Type == TypeInt && other.Type == TypeInt:
		return intOp(v.Int(), other.Int(), op, v, other)
	case v.IsNumber() && other.IsNumber():
		return realOp(v.Float(), other.Float(), op, v, other)
	case v.Type == TypeStr && other.Type == TypeStr:
		return strOp(v.Str(), other.Str(), op, v, other)
	case v.Type == TypeStr && other.Type == TypeInt && op == "*":
		return repeat(v.Str(), other.Int())
	case v.Type == TypeInt && other.Type == TypeStr && op == "*":
		return repeat(other.Str(), v.Int())
	case v.Type == TypeBool && other.Type == TypeBool:
		switch op {
		case "==":
			return BoolValue(v.Bool() == other.Bool()), nil
		case "!=":
			return BoolValue(v.Bool() != other.Bool()), nil
		}
	}
	return Null, operationError(op, v, other)
}

func intOp(a, b int64, op string, lhs, rhs Value) (Value, error) {
	switch op {
	case "+":
		c := a + b
		if (c > a) != (b > 0) {
			return Null, overflowError(op, a, b)
		}
		return IntValue(c), nil
	case "-":
		c := a - b
		if (c < a) != (b > 0) {
			return Null, overflowError(op, a, b)
		}
		return IntValue(c), nil
	case "*":
		c := a * b
		if a != 0 && (c/a != b || (a == -1 && b == math.MinInt64)) {
			return Null, overflowError(op, a, b)
		}
		return IntValue(c), nil
	case "/":
		if b == 0 {
			return Null, fmt.Errorf("%w: integer division by zero", ErrOperation)
		}
		if a == math.MinInt64 && b == -1 {
			return Null, overflowError(op, a, b)
		}
		return IntValue(a / b), nil
	case "==":
		return BoolValue(a == b), nil
	case "!=":
		return BoolValue(a != b), nil
	case "<":
		return BoolValue(a < b), nil
	case "<=":
		return BoolValue(a <= b), nil
	case ">":
		return BoolValue(a > b), nil
	case ">=":
		return BoolValue(a >= b), nil
	}
	return Null, operationError(op, lhs, rhs)
}

func realOp(a, b float64, op string, lhs, rhs Value) (Value, error) {
	switch op {
	case "+":
		return RealValue(a + b), nil
	case "-":
		return RealValue(a - b), nil
	case "*":
		return RealValue(a * b), nil
	case "/":
		return RealValue(a / b), nil
	case "==":
		return BoolValue(a == b), nil
	case "!=":
		return BoolValue(a != b), nil
	case "<":
		return BoolValue(a < b), nil
	case "<=":
		return BoolValue(a <= b), nil
	case ">":
		return BoolValue(a > b), nil
	case ">=":
		return BoolValue(a >= b), nil
	}
	return Null, operationError(op, lhs, rhs)
}

func strOp(a, b string, op string, lhs, rhs Value) (Value, error) {
	switch op {
	case "+":
		return StrValue(a + b), nil
	case "==":
		return BoolValue(a == b), nil
	case "!=":
		return BoolValue(a != b), nil
	case "<":
		return BoolValue(a < b), nil
	case "<=":
		return BoolValue(a <= b), nil
	case ">":
		return BoolValue(a > b), nil
	case ">=":
		return BoolValue(a >= b), nil
	}
	return Null, operationError(op, lhs, rhs)
}

// maxRepeatLen bounds the length in bytes of a repeated string.
const maxRepeatLen = 1 << 30

func repeat(s string, count int64) (Value, error) {
	if count < 0 {
		return Null, fmt.Errorf("%w: can't repeat a string a negative number of times (%d)", ErrOperation, count)
	}
	if len(s) > 0 && count > maxRepeatLen/int64(len(s)) {
		return Null, fmt.Errorf("%w: repeated string too long", ErrOperation)
	}
	return StrValue(strings.Repeat(s, int(count))), nil
}

func overflowError(op string, a, b int64) error {
	return fmt.Errorf("%w: integer overflow in %d %s %d", ErrOperation, a, op, b)
}

func operationError(op string, lhs, rhs Value) error {
	return fmt.Errorf("%w: can't use '%s' between %s and %s", ErrOperation, op, lhs.Type, rhs.Type)
}

// Negate applies a prefix operator: "-" on numbers, "!" on booleans.
func (v Value) Negate(op string) (Value, error) {
	switch {
	case op == "-" && v.Type == TypeInt:
		if v.Int() == math.MinInt64 {
			return Null, fmt.Errorf("%w: integer overflow in -(%d)", ErrNegation, v.Int())
		}
		return IntValue(-v.Int()), nil
	case op == "-" && v.Type == TypeReal:
		return RealValue(-v.Real()), nil
	case op == "!" && v.Type == TypeBool:
		return BoolValue(!v.Bool()), nil
	}
	return Null, fmt.Errorf("%w: can't use '%s' on %s", ErrNegation, op, v.Type)
}

func (v Value) String() string {
	switch v.Type {
	case TypeNull:
		return "null"
	case TypeInt:
		return strconv.FormatInt(v.Int(), 10)
	case TypeReal:
		return strconv.FormatFloat(v.Real(), 'g', -1, 64)
	case TypeStr:
		return v.Str()
	case TypeBool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case TypeFunction:
		if fn := v.Function(); fn != nil {
			return fmt.Sprintf("<fn %s>", fn.Name())
		}
		return "<fn>"
	case TypeNative:
		if fn := v.Native(); fn != nil {
			return fmt.Sprintf("<native fn %s>", fn.Name())
		}
		return "<native fn>"
	default:
		return "<unknown>"
	}
}
