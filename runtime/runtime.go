// Package runtime assembles a phy interpreter with the standard natives and
// prelude, and evaluates source from strings, readers and files.
package runtime

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/sergev/phy/lang"
	"github.com/sergev/phy/parser"
)

// NewInterpreter constructs an interpreter with the standard runtime installed.
func NewInterpreter(opts ...lang.Option) *lang.Interpreter {
	in := lang.NewInterpreter(opts...)
	if err := installNatives(in); err != nil {
		panic(fmt.Errorf("runtime bootstrap failed: %w", err))
	}
	if err := installLibrary(in); err != nil {
		panic(fmt.Errorf("runtime bootstrap failed: %w", err))
	}
	return in
}

func installLibrary(in *lang.Interpreter) error {
	for _, src := range preludeSources {
		stmts, err := parser.ParseString(src)
		if err != nil {
			return err
		}
		if err := in.DefineLibrary(stmts); err != nil {
			return err
		}
	}
	return nil
}

func readFileSkippingShebang(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(data, []byte("#!")) {
		if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
			// Keep the newline so line numbers still match the file.
			return data[idx:], nil
		}
		return []byte{}, nil
	}
	return data, nil
}

// EvaluateString parses and runs phy source in the interpreter's globals.
func EvaluateString(in *lang.Interpreter, src string) (lang.Value, error) {
	stmts, err := parser.ParseString(src)
	if err != nil {
		return lang.Null, err
	}
	return in.Interpret(stmts)
}

// EvaluateReader consumes all source from the reader and runs it.
func EvaluateReader(in *lang.Interpreter, r io.Reader) (lang.Value, error) {
	stmts, err := parser.ParseReader(r)
	if err != nil {
		return lang.Null, err
	}
	return in.Interpret(stmts)
}

// EvaluateFile loads and executes a phy script, allowing a #! first line.
func EvaluateFile(in *lang.Interpreter, path string) (lang.Value, error) {
	data, err := readFileSkippingShebang(path)
	if err != nil {
		return lang.Null, err
	}
	return EvaluateReader(in, bytes.NewReader(data))
}
