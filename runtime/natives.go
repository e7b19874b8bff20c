package runtime

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sergev/phy/lang"
)

var (
	randomMu   sync.Mutex
	randomRand = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// ErrScript is wrapped by failures raised from scripts with error().
var ErrScript = errors.New("script error")

type native struct {
	name  string
	arity int
	fn    lang.NativeFunc
}

var natives = []native{
	{"len", 1, nativeLen},
	{"str", 1, nativeStr},
	{"typeof", 1, nativeTypeOf},
	{"int", 1, nativeInt},
	{"real", 1, nativeReal},
	{"random", 1, nativeRandom},
	{"seed", 1, nativeSeed},
	{"error", 1, nativeError},
}

func installNatives(in *lang.Interpreter) error {
	for _, n := range natives {
		if err := in.DefineNative(n.name, n.arity, n.fn); err != nil {
			return err
		}
	}
	return nil
}

// nativeLen counts characters, not bytes.
func nativeLen(_ *lang.Interpreter, args []lang.Value) (lang.Value, error) {
	if args[0].Type != lang.TypeStr {
		return lang.Null, typeError("len", "str", args[0])
	}
	return lang.IntValue(int64(utf8.RuneCountInString(args[0].Str()))), nil
}

func nativeStr(_ *lang.Interpreter, args []lang.Value) (lang.Value, error) {
	return lang.StrValue(args[0].String()), nil
}

func nativeTypeOf(_ *lang.Interpreter, args []lang.Value) (lang.Value, error) {
	return lang.StrValue(args[0].Type.String()), nil
}

// nativeInt truncates reals toward zero and parses strings.
func nativeInt(_ *lang.Interpreter, args []lang.Value) (lang.Value, error) {
	v := args[0]
	switch v.Type {
	case lang.TypeInt:
		return v, nil
	case lang.TypeReal:
		f := v.Real()
		if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
			return lang.Null, fmt.Errorf("int: %s is out of range", v)
		}
		return lang.IntValue(int64(f)), nil
	case lang.TypeStr:
		i, err := strconv.ParseInt(strings.TrimSpace(v.Str()), 10, 64)
		if err != nil {
			return lang.Null, fmt.Errorf("int: cannot convert %q", v.Str())
		}
		return lang.IntValue(i), nil
	default:
		return lang.Null, typeError("int", "int, real or str", v)
	}
}

func nativeReal(_ *lang.Interpreter, args []lang.Value) (lang.Value, error) {
	v := args[0]
	switch v.Type {
	case lang.TypeInt, lang.TypeReal:
		return lang.RealValue(v.Float()), nil
	case lang.TypeStr:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str()), 64)
		if err != nil {
			return lang.Null, fmt.Errorf("real: cannot convert %q", v.Str())
		}
		return lang.RealValue(f), nil
	default:
		return lang.Null, typeError("real", "int, real or str", v)
	}
}

// nativeRandom returns an integer in [0, n).
func nativeRandom(_ *lang.Interpreter, args []lang.Value) (lang.Value, error) {
	if args[0].Type != lang.TypeInt {
		return lang.Null, typeError("random", "int", args[0])
	}
	limit := args[0].Int()
	if limit <= 0 {
		return lang.Null, fmt.Errorf("random limit must be positive, got %d", limit)
	}
	randomMu.Lock()
	result := randomRand.Int63n(limit)
	randomMu.Unlock()
	return lang.IntValue(result), nil
}

func nativeSeed(_ *lang.Interpreter, args []lang.Value) (lang.Value, error) {
	if args[0].Type != lang.TypeInt {
		return lang.Null, typeError("seed", "int", args[0])
	}
	randomMu.Lock()
	randomRand.Seed(args[0].Int())
	randomMu.Unlock()
	return lang.Null, nil
}

func nativeError(_ *lang.Interpreter, args []lang.Value) (lang.Value, error) {
	return lang.Null, fmt.Errorf("%w: %s", ErrScript, args[0])
}

func typeError(name, expected string, got lang.Value) error {
	return fmt.Errorf("%s expects %s, got %s", name, expected, got.Type)
}
